package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsersRepo is the identity store. Role rows are joined in and translated to
// user.Role here so nothing above this layer sees role ids.
type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom

	// roles are seeded once and never change, so lookups are cached
	roles *cache.Cache[string, user.RoleRecord]
}

const roleCacheTTL = 10 * time.Minute

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool:  pool,
		prom:  prom,
		roles: cache.New[string, user.RoleRecord](roleCacheTTL),
	}
}

const selectUser = `SELECT u.id, u.email, u.hashed_password, u.is_active, r.name, u.created_at
	FROM users u
	JOIN roles r ON r.id = u.role_id`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var roleName string

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &roleName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}

	role, err := user.ParseRole(roleName)
	if err != nil {
		// unknown role rows fall back to the baseline role
		role = user.RoleUser
	}
	u.Role = role

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.email = $1`, email))
		return err
	})

	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.get_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
		return err
	})

	return u, err
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users.create", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `
			WITH inserted AS (
				INSERT INTO users (email, hashed_password, is_active, role_id)
				VALUES ($1, $2, TRUE, $3)
				RETURNING id, email, hashed_password, is_active, role_id, created_at
			)
			SELECT i.id, i.email, i.hashed_password, i.is_active, r.name, i.created_at
			FROM inserted i
			JOIN roles r ON r.id = i.role_id`,
			nu.Email, nu.PasswordHash, nu.RoleID,
		))
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailAlreadyUsed
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) FindRoleByName(ctx context.Context, name string) (user.RoleRecord, error) {
	if rec, ok := r.roles.Get(name); ok {
		return rec, nil
	}

	var rec user.RoleRecord
	var roleName string

	err := r.prom.ObserveDB("roles.find_by_name", func() error {
		return r.pool.QueryRow(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&rec.ID, &roleName)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.RoleRecord{}, user.ErrRoleNotFound
		}
		return user.RoleRecord{}, err
	}

	role, err := user.ParseRole(roleName)
	if err != nil {
		return user.RoleRecord{}, err
	}
	rec.Role = role
	r.roles.Set(name, rec)

	return rec, nil
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id int64, role user.Role) error {
	return r.prom.ObserveDB("users.update_role", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE users SET role_id = (SELECT id FROM roles WHERE name = $2)
			WHERE id = $1`, id, string(role))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrUserNotFound
		}
		return nil
	})
}

func (r *UsersRepo) SetActive(ctx context.Context, id int64, active bool) error {
	return r.prom.ObserveDB("users.set_active", func() error {
		tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrUserNotFound
		}
		return nil
	})
}
