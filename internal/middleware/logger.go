package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-ticketing/internal/logging"
)

// RequestLogger puts a request-scoped logrus entry into the request context
// and logs one line per request once the handler returns.  It must run
// after echo's RequestID middleware so the id is available.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}
			entry := logrus.WithFields(logrus.Fields{
				"request_id": rid,
				"method":     req.Method,
				"path":       req.URL.Path,
			})
			c.SetRequest(req.WithContext(logging.ToContext(req.Context(), entry)))

			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo's error handler write the response so the status is final
				c.Error(err)
			}
			fields := logrus.Fields{
				"status":     c.Response().Status,
				"latency_ms": time.Since(start).Milliseconds(),
			}
			if h := HolderID(c); h != "" {
				fields["holder_id"] = h
			}
			entry.WithFields(fields).Info("request handled")
			return nil
		}
	}
}
