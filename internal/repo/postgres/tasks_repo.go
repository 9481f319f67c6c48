package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{
		pool: pool,
		prom: prom,
	}
}

const taskColumns = `id, title, description, is_completed, created_at, owner_id`

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task

	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.CreatedAt, &t.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) Create(ctx context.Context, req task.CreateTaskRequest, ownerID int64) (task.Task, error) {
	t := task.NewFromCreateRequest(req, ownerID)

	err := r.prom.ObserveDB("tasks.create", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx,
			`INSERT INTO tasks (title, description, is_completed, created_at, owner_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING `+taskColumns,
			t.Title, t.Description, t.IsCompleted, t.CreatedAt, t.OwnerID,
		))
		return err
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) List(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`

	var args []interface{}

	argsPosition := 1

	if filter.OwnerID != nil {
		query += fmt.Sprintf(" WHERE owner_id = $%d", argsPosition)
		args = append(args, *filter.OwnerID)
		argsPosition++
	}

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	output := make([]task.Task, 0, filter.Limit)

	err := r.prom.ObserveDB("tasks.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			output = append(output, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id int64) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.get_by_id", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
		return err
	})

	return t, err
}

// Update applies only the fields set on req; COALESCE keeps the rest.
func (r *TasksRepo) Update(ctx context.Context, id int64, req task.UpdateTaskRequest) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.update", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(
			ctx,
			`UPDATE tasks
				SET title = COALESCE($2, title),
						description = COALESCE($3, description),
						is_completed = COALESCE($4, is_completed)
			WHERE id = $1
			RETURNING `+taskColumns,
			id,
			req.Title,
			req.Description,
			req.IsCompleted,
		))
		return err
	})

	return t, err
}

func (r *TasksRepo) Delete(ctx context.Context, id int64) error {
	return r.prom.ObserveDB("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)

		if err != nil {
			return err
		}

		// if no rows were deleted as a result return a not found error
		if tag.RowsAffected() == 0 {
			return task.ErrNotFound
		}

		return nil
	})
}
