package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of privilege levels a user can hold. Every boundary
// that accepts a role string must go through ParseRole; no other value is
// ever stored or embedded in a token.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

var ErrUserNotFound = errors.New("user not found")
var ErrEmailTaken = errors.New("email already registered")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrInvalidRole = errors.New("invalid role")

// ParseRole validates a role string against the closed enum. Matching is
// case-insensitive ("admin" → RoleAdmin); anything outside the set fails with
// ErrInvalidRole, never a silent default.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(s)) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleCustomer:
		return RoleCustomer, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// User is the identity record held by the credential store. The ID is
// store-assigned; email lookups are exact, case-sensitive matches.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
