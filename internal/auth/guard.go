package auth

import (
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

// OwnsOrAdmin reports whether p may act on a resource owned by ownerID.
func OwnsOrAdmin(p Principal, ownerID int64) bool {
	return p.UserID == ownerID || p.IsAdmin()
}

func HasRole(p Principal, required user.Role) bool {
	return p.Role == required
}

func AuthorizeOwnerOrAdmin(p Principal, ownerID int64) error {
	if !OwnsOrAdmin(p, ownerID) {
		return ErrForbidden
	}
	return nil
}

func AuthorizeRole(p Principal, required user.Role) error {
	if !HasRole(p, required) {
		return ErrForbidden
	}
	return nil
}

// TaskScope narrows list queries: admins see everything, everyone else only
// what they own.
func TaskScope(p Principal) task.Scope {
	if p.IsAdmin() {
		return task.Scope{}
	}

	owner := p.UserID
	return task.Scope{OwnerID: &owner}
}
