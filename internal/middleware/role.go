package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/policy"
)

// RequireCatalogWriter rejects principals that may not change genres,
// movies or showtimes with 403. It must run after JWTAuth.
func RequireCatalogWriter() echo.MiddlewareFunc {
	return guard(policy.CanWriteCatalog)
}

// RequireActive rejects requests from disabled accounts with 403.
func RequireActive() echo.MiddlewareFunc {
	return guard(policy.RequireActive)
}

func guard(check func(p model.Principal) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, _ := Principal(c)
			if err := check(p); err != nil {
				msg := "forbidden"
				if e, ok := apperr.As(err); ok {
					msg = e.Message
				}
				return c.JSON(http.StatusForbidden, echo.Map{"error": msg, "code": apperr.KindForbidden})
			}
			return next(c)
		}
	}
}
