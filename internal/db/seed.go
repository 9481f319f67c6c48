package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// EnsureRoles inserts the fixed role rows. Repeated starts insert nothing.
func EnsureRoles(ctx context.Context, pool *pgxpool.Pool) error {
	for _, role := range []user.Role{user.RoleUser, user.RoleAdmin} {
		_, err := pool.Exec(ctx,
			`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`,
			string(role),
		)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
	}
	return nil
}

// EnsureAdminUser creates the bootstrap admin when email and password are set
// and no identity with that email exists yet.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string, hasher PasswordHasher) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	// check if the user exists

	var dummy int64

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&dummy)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return false, err
	}

	hash, err := hasher.Hash(password)

	if err != nil {
		return false, err
	}

	var roleID int64

	err = pool.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, string(user.RoleAdmin)).Scan(&roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("bootstrap admin: %w", user.ErrRoleNotFound)
		}
		return false, err
	}

	tag, err := pool.Exec(ctx,
		`INSERT INTO users (email, hashed_password, is_active, role_id)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (email) DO NOTHING`,
		email, hash, roleID,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}
