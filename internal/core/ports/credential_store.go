package ports

import (
	"context"

	"github.com/reto/edge-gateway/internal/core/domain"
)

// CredentialStore is the system of record for user identity. Save must
// enforce email uniqueness atomically (a unique index, not a check-then-write
// sequence) so that concurrent registrations of the same email cannot both
// succeed.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}
