package ports

import (
	"context"

	"github.com/reto/edge-gateway/internal/core/domain"
)

// AuthService implements the login and registration use cases.
type AuthService interface {
	Register(ctx context.Context, email, password, role string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
