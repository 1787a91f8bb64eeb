package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/reto/edge-gateway/internal/api/metrics"
	"github.com/reto/edge-gateway/internal/core/domain"
	"github.com/reto/edge-gateway/internal/core/ports"
)

// Identity headers the gate injects for downstream services. Client-supplied
// values are stripped unconditionally; only the gate may set them.
const (
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

const bearerPrefix = "Bearer "

// Context keys populated on successful authentication.
const (
	ContextKeyEmail = "email"
	ContextKeyRole  = "role"
)

// Gate validates the bearer token on every request whose path is not covered
// by the open-path prefix list. It runs after Correlation. Every rejection is
// the same generic 401 — expired, malformed and missing tokens are not
// distinguishable from outside — while the specific kind is logged and
// counted for operability. Open paths are matched before any token work, so
// they never touch the token service.
func Gate(tokens ports.TokenService, openPaths []string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// Never trust caller-supplied identity headers, open path or not.
			req.Header.Del(HeaderUserEmail)
			req.Header.Del(HeaderUserRole)

			path := req.URL.Path
			if isOpenPath(path, openPaths) {
				return next(c)
			}

			authHeader := req.Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return reject(c, log, metrics.ReasonMissingHeader)
			}
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				return reject(c, log, metrics.ReasonMalformedHeader)
			}

			claims, err := tokens.Verify(authHeader[len(bearerPrefix):])
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return reject(c, log, metrics.ReasonTokenExpired)
				}
				return reject(c, log, metrics.ReasonTokenInvalid)
			}

			req.Header.Set(HeaderUserEmail, claims.Subject)
			req.Header.Set(HeaderUserRole, string(claims.Role))
			c.Set(ContextKeyEmail, claims.Subject)
			c.Set(ContextKeyRole, string(claims.Role))

			return next(c)
		}
	}
}

func isOpenPath(path string, openPaths []string) bool {
	for _, prefix := range openPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// reject terminates the chain with the uniform unauthorized response. The
// reason never reaches the caller.
func reject(c echo.Context, log zerolog.Logger, reason string) error {
	log.Warn().
		Str("reason", reason).
		Str("path", c.Request().URL.Path).
		Str("correlation_id", CorrelationID(c)).
		Msg("request rejected by authentication gate")
	metrics.AuthRejectionsTotal.WithLabelValues(reason).Inc()

	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}
