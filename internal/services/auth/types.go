package auth

import (
	"errors"
	"time"
)

// Roles carried in access tokens. Admins drive moderation actions and appeal
// resolutions; account holders file appeals and acknowledge lifts.
const (
	RoleAdmin   = "admin"
	RoleAccount = "account"
)

var ErrUnauthorized = errors.New("unauthorized")

type AccessClaims struct {
	SubjectID int64
	Role      string
	ExpiresAt time.Time
}
