package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/reto/edge-gateway/internal/core/domain"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password, role string) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password, role string) (*domain.User, error) {
	return s.registerFn(ctx, email, password, role)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func newContext(t *testing.T, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password, role string) (*domain.User, error) {
			if email != "a@x.com" || password != "secret1" || role != "" {
				t.Fatalf("unexpected args: %s %s %q", email, password, role)
			}
			return &domain.User{ID: 1, Email: email, Role: domain.RoleCustomer}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, "/auth/register", `{"email":"a@x.com","password":"secret1"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "a@x.com" || resp["role"] != "CUSTOMER" || resp["message"] == "" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password, role string) (*domain.User, error) {
			return nil, domain.ErrEmailTaken
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, "/auth/register", `{"email":"a@x.com","password":"secret1"}`)
	_ = h.Register(c)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_InvalidRole(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password, role string) (*domain.User, error) {
			return nil, domain.ErrInvalidRole
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, "/auth/register", `{"email":"a@x.com","password":"secret1","role":"root"}`)
	_ = h.Register(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_Register_RejectsBadInput(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, email, password, role string) (*domain.User, error) {
			t.Fatalf("service must not be called on invalid input")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	for _, body := range []string{
		"not-json",
		`{"password":"secret1"}`,
		`{"email":"not-an-email","password":"secret1"}`,
		`{"email":"a@x.com","password":""}`,
	} {
		c, rec := newContext(t, "/auth/register", body)
		_ = h.Register(c)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			if email != "a@x.com" || password != "pw1" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.User{ID: 1, Email: email, Role: domain.RoleCustomer}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, "/auth/login", `{"email":"a@x.com","password":"pw1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" || resp["email"] != "a@x.com" || resp["role"] != "CUSTOMER" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, "/auth/login", `{"email":"ghost@x.com","password":"pw"}`)
	_ = h.Login(c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["error"] != "invalid credentials" {
		t.Fatalf("expected generic error message, got %q", resp["error"])
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			t.Fatalf("service must not be called")
			return "", nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(t, "/auth/login", "{")
	_ = h.Login(c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
