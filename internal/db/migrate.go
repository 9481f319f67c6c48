package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id   SERIAL PRIMARY KEY,
		name VARCHAR(50) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id              BIGSERIAL PRIMARY KEY,
		email           VARCHAR(100) NOT NULL UNIQUE,
		hashed_password VARCHAR(255) NOT NULL,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		role_id         INTEGER NOT NULL REFERENCES roles(id),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id           BIGSERIAL PRIMARY KEY,
		title        VARCHAR(100) NOT NULL,
		description  VARCHAR(500),
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		owner_id     BIGINT NOT NULL REFERENCES users(id)
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_owner_id_idx ON tasks (owner_id, id)`,
}

// Migrate creates the schema if it is missing. Safe to run on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
