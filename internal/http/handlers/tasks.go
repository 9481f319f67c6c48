package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100

	DefaultStoreTimeout = 2 * time.Second
)

type TaskStore interface {
	Create(ctx context.Context, req task.CreateTaskRequest, ownerID int64) (task.Task, error)
	GetByID(ctx context.Context, id int64) (task.Task, error)
	List(ctx context.Context, filter task.ListFilter) ([]task.Task, error)
	Update(ctx context.Context, id int64, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, id int64) error
}

type TasksHandler struct {
	repo    TaskStore
	prom    *observability.Prom
	timeout time.Duration
}

// NewTasksHandler bounds every store call by timeout; zero means
// DefaultStoreTimeout.
func NewTasksHandler(repo TaskStore, prom *observability.Prom, timeout time.Duration) *TasksHandler {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &TasksHandler{repo: repo, prom: prom, timeout: timeout}
}

func (h *TasksHandler) storeCtx(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), h.timeout)
}

type listTasksQuery struct {
	Skip  *int `form:"skip" binding:"omitempty,gte=0"`
	Limit *int `form:"limit" binding:"omitempty,gte=1"`
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	var q listTasksQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(ctx, "Invalid query parameters", parseBindError(err, &q))
		return
	}

	filter := task.ListFilter{
		Scope: auth.TaskScope(p),
		Limit: defaultListLimit,
	}
	if q.Skip != nil {
		filter.Offset = *q.Skip
	}
	if q.Limit != nil {
		filter.Limit = min(*q.Limit, maxListLimit)
	}

	cctx, cancel := h.storeCtx(ctx)
	defer cancel()

	items, err := h.repo.List(cctx, filter)
	if err != nil {
		h.storeFailure(ctx, "list tasks", err)
		return
	}

	ctx.JSON(http.StatusOK, items)
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	var req task.CreateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	// owner always comes from the caller, never from the body
	cctx, cancel := h.storeCtx(ctx)
	defer cancel()

	t, err := h.repo.Create(cctx, req, p.UserID)
	if err != nil {
		h.storeFailure(ctx, "create task", err)
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	t, ok := h.loadOwned(ctx, p)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	var req task.UpdateTaskRequest
	if !BindJSON(ctx, &req) {
		return
	}

	existing, ok := h.loadOwned(ctx, p)
	if !ok {
		return
	}

	cctx, cancel := h.storeCtx(ctx)
	defer cancel()

	t, err := h.repo.Update(cctx, existing.ID, req)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		h.storeFailure(ctx, "update task", err)
		return
	}

	ctx.JSON(http.StatusOK, t)
}

// DeleteTask is admin only. The role check runs before any lookup so a
// non-admin learns nothing about which ids exist.
func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	if err := auth.AuthorizeRole(p, user.RoleAdmin); err != nil {
		h.prom.Forbidden(ctx.FullPath())
		RespondForbidden(ctx)
		return
	}

	id, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	cctx, cancel := h.storeCtx(ctx)
	defer cancel()

	err := h.repo.Delete(cctx, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}
		h.storeFailure(ctx, "delete task", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// loadOwned fetches the task named in the path and checks the caller may
// act on it. It writes the error response itself and reports false.
func (h *TasksHandler) loadOwned(ctx *gin.Context, p auth.Principal) (task.Task, bool) {
	id, ok := parseTaskID(ctx)
	if !ok {
		return task.Task{}, false
	}

	cctx, cancel := h.storeCtx(ctx)
	defer cancel()

	t, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return task.Task{}, false
		}
		h.storeFailure(ctx, "get task", err)
		return task.Task{}, false
	}

	if err := auth.AuthorizeOwnerOrAdmin(p, t.OwnerID); err != nil {
		h.prom.Forbidden(ctx.FullPath())
		RespondForbidden(ctx)
		return task.Task{}, false
	}

	return t, true
}

func parseTaskID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid task id", gin.H{"id": ctx.Param("id")})
		return 0, false
	}
	return id, true
}

func (h *TasksHandler) storeFailure(ctx *gin.Context, op string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), op+" failed", "err", err)

	if isUnavailable(err) {
		RespondUnavailable(ctx)
		return
	}
	RespondInternal(ctx, "Could not "+op)
}
