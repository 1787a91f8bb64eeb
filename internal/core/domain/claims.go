package domain

import (
	"errors"
	"time"
)

var ErrTokenExpired = errors.New("token expired")
var ErrTokenInvalid = errors.New("token invalid")

// Claims is the decoded payload of a verified bearer token. The gate derives
// the downstream identity headers from it.
type Claims struct {
	Subject   string
	Role      Role
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}
