package auth

import (
	"errors"

	"github.com/geocoder89/taskhub/internal/domain/user"
)

// The only failure categories that cross the auth boundary.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrUnavailable     = errors.New("identity store unavailable")
)

// Principal is the authenticated caller for one request. It is a value, built
// fresh per request, and never written back to storage.
type Principal struct {
	UserID int64     `json:"id"`
	Email  string    `json:"email"`
	Role   user.Role `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == user.RoleAdmin
}
