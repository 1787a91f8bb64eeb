package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/reto/edge-gateway/internal/core/domain"
	"github.com/reto/edge-gateway/internal/core/token"
)

type stubStore struct {
	users  map[string]*domain.User
	nextID int64

	// hideFromExists simulates the race where a concurrent registration lands
	// between the existence check and the write: ExistsByEmail reports false
	// but Save still hits the unique index.
	hideFromExists bool
}

func newStubStore() *stubStore {
	return &stubStore{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (s *stubStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := s.users[email]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	if s.hideFromExists {
		return false, nil
	}
	_, ok := s.users[email]
	return ok, nil
}

func (s *stubStore) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := s.users[user.Email]; ok {
		return nil, domain.ErrEmailTaken
	}
	s.nextID++
	c := cloneUser(user)
	c.ID = s.nextID
	s.users[c.Email] = cloneUser(c)
	return c, nil
}

func newTestService(store *stubStore) (*AuthService, *token.Service) {
	tokens := token.New("secret", time.Hour)
	return NewAuthService(store, tokens, zerolog.Nop()), tokens
}

func TestAuthService_Register_DefaultsToCustomer(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)

	user, err := svc.Register(context.Background(), "a@x.com", "pw1", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleCustomer {
		t.Fatalf("expected CUSTOMER default, got %s", user.Role)
	}
	if user.ID == 0 {
		t.Fatalf("expected store-assigned id")
	}
	if user.PasswordHash == "pw1" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pw1")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestAuthService_Register_RoleCaseInsensitive(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)

	user, err := svc.Register(context.Background(), "admin@x.com", "pw", "admin")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", user.Role)
	}
}

func TestAuthService_Register_InvalidRole(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)

	if _, err := svc.Register(context.Background(), "b@x.com", "pw", "root"); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if len(store.users) != 0 {
		t.Fatalf("invalid role must not create a user")
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)

	if _, err := svc.Register(context.Background(), "dup@x.com", "pw", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "dup@x.com", "pw2", ""); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Register_LateConflict(t *testing.T) {
	store := newStubStore()
	store.hideFromExists = true
	svc, _ := newTestService(store)

	if _, err := svc.Register(context.Background(), "race@x.com", "pw", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	// Existence check misses, the unique index still catches the duplicate.
	if _, err := svc.Register(context.Background(), "race@x.com", "pw", ""); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken from the store write, got %v", err)
	}
}

func TestAuthService_Login_IssuesVerifiableToken(t *testing.T) {
	store := newStubStore()
	svc, tokens := newTestService(store)

	if _, err := svc.Register(context.Background(), "carol@x.com", "s3cret", "ADMIN"); err != nil {
		t.Fatalf("register: %v", err)
	}

	signed, user, err := svc.Login(context.Background(), "carol@x.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != "carol@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	claims, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject != "carol@x.com" || claims.Role != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected userId %d, got %d", user.ID, claims.UserID)
	}
}

func TestAuthService_Login_GenericFailure(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)

	if _, err := svc.Register(context.Background(), "dave@x.com", "goodpass", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Wrong password and unknown email must be indistinguishable.
	if _, _, err := svc.Login(context.Background(), "dave@x.com", "badpass"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "ghost@x.com", "whatever"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}
