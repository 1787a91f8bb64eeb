package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/reto/edge-gateway/internal/core/domain"
	"github.com/reto/edge-gateway/internal/core/ports"
)

// AuthService implements registration and login on top of the credential
// store and the token service.
type AuthService struct {
	store  ports.CredentialStore
	tokens ports.TokenService
	log    zerolog.Logger
}

func NewAuthService(store ports.CredentialStore, tokens ports.TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{store: store, tokens: tokens, log: log}
}

// Register creates a user with a bcrypt-hashed password. An empty role
// defaults to CUSTOMER (least privilege); any other value must parse against
// the closed enum. The early existence check gives a friendly conflict
// answer, but uniqueness is guaranteed by the store's unique index — a
// concurrent duplicate slipping past the check still surfaces as
// domain.ErrEmailTaken from Save.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	userRole := domain.RoleCustomer
	if role != "" {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			return nil, err
		}
		userRole = parsed
	}

	exists, err := s.store.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         userRole,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.store.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("email", created.Email).Str("role", string(created.Role)).Msg("user registered")
	return created, nil
}

// Login authenticates by email and password and issues a token. Unknown
// email and wrong password collapse into the single ErrInvalidCredentials
// sentinel so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	tokenString, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("login succeeded")
	return tokenString, user, nil
}
