package user

import (
	"errors"
	"time"
)

// Role is the closed set of capability levels. Storage keeps roles in a
// lookup table; translation happens in the repositories.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already in use")
	ErrRoleNotFound     = errors.New("role not found")
	ErrUnknownRole      = errors.New("unknown role")
)

// ParseRole maps a stored or transported role name onto Role.
func ParseRole(name string) (Role, error) {
	switch Role(name) {
	case RoleUser, RoleAdmin:
		return Role(name), nil
	default:
		return "", ErrUnknownRole
	}
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	IsActive     bool      `json:"is_active"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoleRecord is a row of the roles lookup table.
type RoleRecord struct {
	ID   int64
	Role Role
}

type NewUser struct {
	Email        string
	PasswordHash string
	RoleID       int64
}
