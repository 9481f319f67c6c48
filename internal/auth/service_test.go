package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T, users *memory.UsersRepo) (*auth.Service, *auth.Manager) {
	t.Helper()

	tokens := auth.NewManager("test-secret-key", 30*time.Minute)
	svc, err := auth.NewService(users, security.NewHasher(bcrypt.MinCost), tokens)
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return svc, tokens
}

func seededUsers() *memory.UsersRepo {
	users := memory.NewUsersRepo()
	users.SeedRoles()
	return users
}

func TestService_Register(t *testing.T) {
	users := seededUsers()
	svc, _ := newService(t, users)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  A@X.com ", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if u.Email != "a@x.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}
	if u.Role != user.RoleUser || !u.IsActive {
		t.Fatalf("unexpected new identity %+v", u)
	}
	if u.PasswordHash == "Aa1!aaaa" || u.PasswordHash == "" {
		t.Fatalf("expected password to be hashed")
	}

	if _, err := svc.Register(ctx, "a@x.com", "Bb2@bbbb"); !errors.Is(err, user.ErrEmailAlreadyUsed) {
		t.Fatalf("expected ErrEmailAlreadyUsed, got %v", err)
	}
}

func TestService_Register_WeakPassword(t *testing.T) {
	svc, _ := newService(t, seededUsers())

	_, err := svc.Register(context.Background(), "a@x.com", "password")
	if !errors.Is(err, security.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestService_Register_MissingRoleIsFatal(t *testing.T) {
	users := memory.NewUsersRepo()
	svc, _ := newService(t, users)

	_, err := svc.Register(context.Background(), "a@x.com", "Aa1!aaaa")
	if !errors.Is(err, auth.ErrRoleNotSeeded) {
		t.Fatalf("expected ErrRoleNotSeeded, got %v", err)
	}

	if _, err := users.GetByEmail(context.Background(), "a@x.com"); !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("no identity should be created without role data, got %v", err)
	}
}

func TestService_Login(t *testing.T) {
	users := seededUsers()
	svc, tokens := newService(t, users)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "a@x.com", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	tok, err := svc.Login(ctx, "A@x.com", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if tok.TokenType != "bearer" || tok.AccessToken == "" || tok.ExpiresIn != 1800 {
		t.Fatalf("unexpected token %+v", tok)
	}

	ti, err := tokens.Verify(tok.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if ti.UserID != registered.ID || ti.Role != user.RoleUser {
		t.Fatalf("token asserts %+v, want id %d role user", ti, registered.ID)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong_password", email: "a@x.com", password: "Aa1!aaab"},
		{name: "unknown_email", email: "nobody@x.com", password: "Aa1!aaaa"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Login(ctx, tt.email, tt.password); !errors.Is(err, auth.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}

	if err := users.SetActive(ctx, registered.ID, false); err != nil {
		t.Fatalf("SetActive error: %v", err)
	}
	if _, err := svc.Login(ctx, "a@x.com", "Aa1!aaaa"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("inactive identity should not log in, got %v", err)
	}
}

func TestService_LoginReflectsRoleChange(t *testing.T) {
	users := seededUsers()
	svc, tokens := newService(t, users)
	ctx := context.Background()

	u, err := svc.Register(ctx, "boss@x.com", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := users.UpdateRole(ctx, u.ID, user.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole error: %v", err)
	}

	tok, err := svc.Login(ctx, "boss@x.com", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	ti, err := tokens.Verify(tok.AccessToken)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ti.Role != user.RoleAdmin {
		t.Fatalf("token role = %s, want admin", ti.Role)
	}
}
