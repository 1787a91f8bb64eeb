package ports

import "github.com/reto/edge-gateway/internal/core/domain"

// TokenService issues and verifies the signed bearer tokens that prove
// identity. Implementations must be pure over (claims, secret, clock) and
// safe for concurrent use.
type TokenService interface {
	// Issue signs a token for the user, valid for the configured lifetime.
	Issue(user *domain.User) (string, error)
	// Verify checks structure, signature and expiry. It fails with
	// domain.ErrTokenExpired only when the signature is valid and the token
	// has aged out; every other failure is domain.ErrTokenInvalid.
	Verify(tokenString string) (*domain.Claims, error)
}
