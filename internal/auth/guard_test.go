package auth

import (
	"errors"
	"testing"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

func TestOwnsOrAdmin(t *testing.T) {
	owner := Principal{UserID: 1, Role: user.RoleUser}
	other := Principal{UserID: 2, Role: user.RoleUser}
	admin := Principal{UserID: 3, Role: user.RoleAdmin}

	tests := []struct {
		name    string
		p       Principal
		ownerID int64
		want    bool
	}{
		{name: "owner", p: owner, ownerID: 1, want: true},
		{name: "admin_other", p: admin, ownerID: 1, want: true},
		{name: "admin_any", p: admin, ownerID: 999, want: true},
		{name: "non_owner", p: other, ownerID: 1, want: false},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			if got := OwnsOrAdmin(tt.p, tt.ownerID); got != tt.want {
				t.Fatalf("OwnsOrAdmin = %v, want %v", got, tt.want)
			}

			err := AuthorizeOwnerOrAdmin(tt.p, tt.ownerID)
			if tt.want && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.want && !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected ErrForbidden, got %v", err)
			}
		})
	}
}

func TestHasRole(t *testing.T) {
	admin := Principal{UserID: 1, Role: user.RoleAdmin}
	member := Principal{UserID: 2, Role: user.RoleUser}

	if !HasRole(admin, user.RoleAdmin) {
		t.Fatalf("admin should have admin role")
	}
	if HasRole(member, user.RoleAdmin) {
		t.Fatalf("user should not have admin role")
	}
	if !HasRole(member, user.RoleUser) {
		t.Fatalf("user should have user role")
	}
	if err := AuthorizeRole(member, user.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestTaskScope(t *testing.T) {
	member := Principal{UserID: 5, Role: user.RoleUser}
	admin := Principal{UserID: 6, Role: user.RoleAdmin}

	scope := TaskScope(member)
	if scope.OwnerID == nil || *scope.OwnerID != 5 {
		t.Fatalf("member scope should be narrowed to its own id, got %+v", scope)
	}
	if !scope.Allows(task.Task{OwnerID: 5}) || scope.Allows(task.Task{OwnerID: 6}) {
		t.Fatalf("member scope allows the wrong tasks")
	}

	if s := TaskScope(admin); s.OwnerID != nil {
		t.Fatalf("admin scope should be unrestricted, got owner %d", *s.OwnerID)
	}
}
