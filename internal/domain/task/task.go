package task

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("task not found")

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	OwnerID     int64     `json:"owner_id"`
}

type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsCompleted bool    `json:"is_completed"`
}

// UpdateTaskRequest is a partial update; nil fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsCompleted *bool   `json:"is_completed"`
}

// Scope narrows which tasks a caller may see. A nil OwnerID means unrestricted.
type Scope struct {
	OwnerID *int64
}

type ListFilter struct {
	Scope
	Offset int
	Limit  int
}

func (s Scope) Allows(t Task) bool {
	return s.OwnerID == nil || *s.OwnerID == t.OwnerID
}

func NewFromCreateRequest(req CreateTaskRequest, ownerID int64) Task {
	return Task{
		Title:       req.Title,
		Description: req.Description,
		IsCompleted: req.IsCompleted,
		CreatedAt:   time.Now().UTC(),
		OwnerID:     ownerID,
	}
}

// Apply copies the set fields of an update onto t.
func (req UpdateTaskRequest) Apply(t Task) Task {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = req.Description
	}
	if req.IsCompleted != nil {
		t.IsCompleted = *req.IsCompleted
	}
	return t
}
