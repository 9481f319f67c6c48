package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
)

type storedUser struct {
	user.User
	roleID int64
}

// UsersRepo is an in-process identity store. Roles live in their own table
// like in Postgres, so unseeded roles can be exercised.
type UsersRepo struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]storedUser
	byEmail map[string]int64
	roles   map[int64]user.Role
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		users:   make(map[int64]storedUser),
		byEmail: make(map[string]int64),
		roles:   make(map[int64]user.Role),
	}
}

// SeedRoles inserts the baseline and admin roles once.
func (r *UsersRepo) SeedRoles() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, role := range []user.Role{user.RoleUser, user.RoleAdmin} {
		if _, ok := r.roleIDLocked(role); ok {
			continue
		}
		r.roles[int64(len(r.roles)+1)] = role
	}
}

func (r *UsersRepo) roleIDLocked(role user.Role) (int64, bool) {
	for id, rr := range r.roles {
		if rr == role {
			return id, true
		}
	}
	return 0, false
}

func (r *UsersRepo) FindRoleByName(_ context.Context, name string) (user.RoleRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.roleIDLocked(user.Role(name))
	if !ok {
		return user.RoleRecord{}, user.ErrRoleNotFound
	}
	return user.RoleRecord{ID: id, Role: r.roles[id]}, nil
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[nu.Email]; exists {
		return user.User{}, user.ErrEmailAlreadyUsed
	}

	role, ok := r.roles[nu.RoleID]
	if !ok {
		return user.User{}, user.ErrRoleNotFound
	}

	r.nextID++
	u := user.User{
		ID:           r.nextID,
		Email:        nu.Email,
		PasswordHash: nu.PasswordHash,
		IsActive:     true,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	r.users[u.ID] = storedUser{User: u, roleID: nu.RoleID}
	r.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return r.users[id].User, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	su, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return su.User, nil
}

func (r *UsersRepo) UpdateRole(_ context.Context, id int64, role user.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	su, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound
	}

	roleID, ok := r.roleIDLocked(role)
	if !ok {
		return user.ErrRoleNotFound
	}

	su.roleID = roleID
	su.Role = role
	r.users[id] = su
	return nil
}

func (r *UsersRepo) SetActive(_ context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	su, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound
	}

	su.IsActive = active
	r.users[id] = su
	return nil
}
