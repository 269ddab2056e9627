package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// PrincipalKey is the echo.Context key holding the authenticated
// model.Principal.
const PrincipalKey = "principal"

// Principal returns the authenticated principal of the request.
func Principal(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(model.Principal)
	return p, ok && p.ID != 0
}

// userID returns the principal's id for use in keys, or "anon".
func userID(c echo.Context) string {
	if p, ok := Principal(c); ok {
		return strconv.FormatUint(p.ID, 10)
	}
	return "anon"
}
