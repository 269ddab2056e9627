package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one entry per request with logrus and makes sure every
// response carries an X-Request-ID.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			err := next(c)
			if err != nil {
				// let the error handler write the response so the status is final
				c.Error(err)
			}

			status := c.Response().Status
			entry := logrus.WithFields(logrus.Fields{
				"request_id": rid,
				"method":     req.Method,
				"path":       req.URL.Path,
				"route":      c.Path(),
				"status":     status,
				"duration":   time.Since(start).String(),
				"client_ip":  c.RealIP(),
				"user_id":    userID(c),
			})
			switch {
			case status >= 500:
				entry.Error("request failed")
			case status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request processed")
			}
			return nil
		}
	}
}
