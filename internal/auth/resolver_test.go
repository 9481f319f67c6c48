package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
)

type fakeIdentityFinder struct {
	getFn func(ctx context.Context, id int64) (user.User, error)
	calls int
}

func (f *fakeIdentityFinder) GetByID(ctx context.Context, id int64) (user.User, error) {
	f.calls++
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.User{}, user.ErrUserNotFound
}

func TestResolver_Resolve(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)

	valid, err := m.Issue(42, user.RoleUser, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	expired, err := m.Issue(42, user.RoleUser, time.Minute)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	clock.Advance(2 * time.Minute)

	found := func(ctx context.Context, id int64) (user.User, error) {
		return user.User{ID: id, Email: "a@x.com", IsActive: true, Role: user.RoleUser}, nil
	}

	tests := []struct {
		name      string
		token     string
		getFn     func(ctx context.Context, id int64) (user.User, error)
		wantErr   error
		wantCalls int
	}{
		{name: "success", token: valid, getFn: found, wantCalls: 1},
		{name: "expired", token: expired, getFn: found, wantErr: ErrUnauthenticated},
		{name: "malformed", token: "garbage", getFn: found, wantErr: ErrUnauthenticated},
		{name: "tampered", token: valid + "x", getFn: found, wantErr: ErrUnauthenticated},
		{name: "unknown_identity", token: valid, wantErr: ErrUnauthenticated, wantCalls: 1},
		{
			name:  "inactive_identity",
			token: valid,
			getFn: func(ctx context.Context, id int64) (user.User, error) {
				return user.User{ID: id, IsActive: false, Role: user.RoleUser}, nil
			},
			wantErr:   ErrUnauthenticated,
			wantCalls: 1,
		},
		{
			name:  "store_down",
			token: valid,
			getFn: func(ctx context.Context, id int64) (user.User, error) {
				return user.User{}, errors.New("connection refused")
			},
			wantErr:   ErrUnavailable,
			wantCalls: 1,
		},
		{
			name:  "store_timeout",
			token: valid,
			getFn: func(ctx context.Context, id int64) (user.User, error) {
				return user.User{}, context.DeadlineExceeded
			},
			wantErr:   ErrUnavailable,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			finder := &fakeIdentityFinder{getFn: tt.getFn}
			r := NewResolver(m, finder)

			p, err := r.Resolve(context.Background(), tt.token)

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if p.UserID != 42 || p.Role != user.RoleUser || p.Email != "a@x.com" {
					t.Fatalf("unexpected principal %+v", p)
				}
			} else {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				if p != (Principal{}) {
					t.Fatalf("failed resolution returned principal %+v", p)
				}
			}

			if finder.calls != tt.wantCalls {
				t.Fatalf("store calls = %d, want %d", finder.calls, tt.wantCalls)
			}
		})
	}
}

func TestResolver_UnauthenticatedHidesReason(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)

	expired, _ := m.Issue(1, user.RoleUser, time.Minute)
	clock.Advance(time.Hour)

	r := NewResolver(m, &fakeIdentityFinder{})

	_, errExpired := r.Resolve(context.Background(), expired)
	_, errMalformed := r.Resolve(context.Background(), "garbage")

	if errExpired != ErrUnauthenticated || errMalformed != ErrUnauthenticated {
		t.Fatalf("expected the bare ErrUnauthenticated sentinel, got %v and %v", errExpired, errMalformed)
	}
	if errors.Is(errExpired, ErrExpired) {
		t.Fatalf("resolver leaked the expiry reason")
	}
}

func TestResolver_CancelledContext(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)
	raw, _ := m.Issue(1, user.RoleUser, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finder := &fakeIdentityFinder{}
	_, err := NewResolver(m, finder).Resolve(ctx, raw)

	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if finder.calls != 0 {
		t.Fatalf("store should not be queried with a cancelled context")
	}
}

func TestResolver_UsesStoredRole(t *testing.T) {
	m := NewManager("test-secret-key", time.Hour)
	raw, err := m.Issue(9, user.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	finder := &fakeIdentityFinder{getFn: func(ctx context.Context, id int64) (user.User, error) {
		return user.User{ID: id, IsActive: true, Role: user.RoleUser}, nil
	}}

	p, err := NewResolver(m, finder).Resolve(context.Background(), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Role != user.RoleUser {
		t.Fatalf("demoted identity kept role %s from token", p.Role)
	}
}
