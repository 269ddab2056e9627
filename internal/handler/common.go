// Package handler holds the Echo HTTP handlers. Handlers bind and validate
// the request, call a service or repository, and translate apperr kinds
// to HTTP statuses.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/middleware"
	"github.com/iliyamo/movie-reservation/internal/model"
)

// requestTimeout bounds every database round trip made by a handler.
const requestTimeout = 5 * time.Second

// codeUnauthorized is reported when a protected handler runs without a
// principal.
const codeUnauthorized = "unauthorized"

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// principal extracts the authenticated caller from the context.
func principal(c echo.Context) (model.Principal, bool) {
	return middleware.Principal(c)
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error", "code"}. Errors without a kind are
// logged and reported as a generic 500.
func respondError(c echo.Context, err error) error {
	if e, ok := apperr.As(err); ok {
		return c.JSON(statusFor(e.Kind), echo.Map{"error": e.Message, "code": e.Kind})
	}
	logrus.WithFields(logrus.Fields{
		"method":     c.Request().Method,
		"path":       c.Request().URL.Path,
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	}).WithError(err).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error", "code": "internal"})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "code": codeUnauthorized})
}

func invalidBody(c echo.Context) error {
	return respondError(c, apperr.Validation("invalid request body"))
}

// parseDate parses a YYYY-MM-DD date.
func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(model.DateFormat, s)
	if err != nil {
		return time.Time{}, apperr.Validation("%s must be a date in YYYY-MM-DD format", field)
	}
	return d, nil
}
