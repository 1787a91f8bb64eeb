// Package token issues and verifies the HMAC-signed bearer tokens accepted
// by the gateway. A Service is a pure function of (claims, secret, clock);
// it holds no mutable state and is safe for concurrent use.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reto/edge-gateway/internal/core/domain"
)

// Service signs and verifies tokens with a process-wide shared secret and a
// fixed lifetime, both loaded once at startup.
type Service struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// New returns a Service using the wall clock.
func New(secret string, lifetime time.Duration) *Service {
	return NewWithClock(secret, lifetime, time.Now)
}

// NewWithClock is New with an injectable time source, for deterministic
// issuance and expiry checks in tests.
func NewWithClock(secret string, lifetime time.Duration, now func() time.Time) *Service {
	return &Service{secret: []byte(secret), lifetime: lifetime, now: now}
}

// tokenClaims is the wire shape of the payload: registered claims plus the
// role and user id the gate propagates downstream.
type tokenClaims struct {
	Role   string `json:"role"`
	UserID int64  `json:"userId"`
	jwt.RegisteredClaims
}

// Issue builds claims {sub=email, role, userId, iat=now, exp=now+lifetime}
// and returns the compact HS256-signed string. exp − iat equals the
// configured lifetime exactly.
func (s *Service) Issue(user *domain.User) (string, error) {
	now := s.now().UTC()
	claims := tokenClaims{
		Role:   string(user.Role),
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses the token, recomputes the signature, and checks expiry.
// The parser rejects the signature before any claim is validated, so a
// tampered token always fails with domain.ErrTokenInvalid and never with
// domain.ErrTokenExpired. The signing method is pinned to HS256 so a token
// cannot downgrade to "none" or smuggle an asymmetric header.
func (s *Service) Verify(tokenString string) (*domain.Claims, error) {
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}

	role, err := domain.ParseRole(tc.Role)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	claims := &domain.Claims{
		Subject:   tc.Subject,
		Role:      role,
		UserID:    tc.UserID,
		ExpiresAt: tc.ExpiresAt.Time,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	return claims, nil
}
