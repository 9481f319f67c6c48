package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

func TestTasksRepo_ListScopesAndPaginates(t *testing.T) {
	ctx := context.Background()
	repo := NewTasksRepo()

	for i, owner := range []int64{1, 2, 1, 1, 2} {
		if _, err := repo.Create(ctx, task.CreateTaskRequest{Title: "task"}, owner); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	owner := int64(1)
	mine, err := repo.List(ctx, task.ListFilter{Scope: task.Scope{OwnerID: &owner}, Limit: 100})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("got %d tasks for owner 1, want 3", len(mine))
	}
	for i := 1; i < len(mine); i++ {
		if mine[i-1].ID >= mine[i].ID {
			t.Fatalf("tasks not ordered by id: %+v", mine)
		}
	}

	page, err := repo.List(ctx, task.ListFilter{Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != 2 || page[1].ID != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, err := repo.List(ctx, task.ListFilter{Offset: 10, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestTasksRepo_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewTasksRepo()

	created, err := repo.Create(ctx, task.CreateTaskRequest{Title: "write docs"}, 7)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := true
	updated, err := repo.Update(ctx, created.ID, task.UpdateTaskRequest{IsCompleted: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsCompleted || updated.Title != "write docs" || updated.OwnerID != 7 {
		t.Fatalf("partial update changed the wrong fields: %+v", updated)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, task.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
