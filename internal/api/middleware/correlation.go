package middleware

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderCorrelationID carries the request correlation identifier across
// services and back to the caller.
const HeaderCorrelationID = "X-Correlation-Id"

const correlationContextKey = "correlation_id"

// Correlation tags every request with a correlation id. A non-blank inbound
// X-Correlation-Id is reused verbatim; otherwise a fresh UUID is generated.
// The id is written to both the forwarded request and the response before the
// rest of the chain runs, so even requests the gate later rejects answer with
// the id. Register this middleware first.
func Correlation() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(HeaderCorrelationID)
			if strings.TrimSpace(id) == "" {
				id = uuid.NewString()
			}

			c.Request().Header.Set(HeaderCorrelationID, id)
			c.Response().Header().Set(HeaderCorrelationID, id)
			c.Set(correlationContextKey, id)

			return next(c)
		}
	}
}

// CorrelationID returns the id assigned by the Correlation middleware, or ""
// when the middleware has not run.
func CorrelationID(c echo.Context) string {
	id, _ := c.Get(correlationContextKey).(string)
	return id
}
