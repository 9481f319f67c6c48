package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

type TasksRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]task.Task
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[int64]task.Task),
	}
}

func (r *TasksRepo) Create(ctx context.Context, req task.CreateTaskRequest, ownerID int64) (task.Task, error) {
	if err := ctx.Err(); err != nil {
		return task.Task{}, err
	}

	t := task.NewFromCreateRequest(req, ownerID)

	r.mu.Lock()
	r.nextID++
	t.ID = r.nextID
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id int64) (task.Task, error) {
	if err := ctx.Err(); err != nil {
		return task.Task{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *TasksRepo) List(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]task.Task, 0, len(r.items))
	for _, t := range r.items {
		if filter.Allows(t) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if filter.Offset >= len(out) {
		return []task.Task{}, nil
	}
	out = out[filter.Offset:]

	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *TasksRepo) Update(ctx context.Context, id int64, req task.UpdateTaskRequest) (task.Task, error) {
	if err := ctx.Err(); err != nil {
		return task.Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	t = req.Apply(t)
	r.items[id] = t
	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return task.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
