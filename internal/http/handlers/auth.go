package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Register(ctx context.Context, email, password string) (user.User, error)
	Login(ctx context.Context, email, password string) (auth.Token, error)
}

type AuthHandler struct {
	svc  AuthService
	prom *observability.Prom
}

func NewAuthHandler(svc AuthService, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{svc: svc, prom: prom}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginForm follows the OAuth2 password grant field names.
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.svc.Register(cctx, req.Email, req.Password)
	if err != nil {
		var policyErr *security.PolicyError

		switch {
		case errors.As(err, &policyErr):
			h.prom.AuthOutcome("register", "weak_password")
			RespondUnprocessable(ctx, "weak_password", "Password does not meet the password policy.", gin.H{"failed": policyErr.Failed})
		case errors.Is(err, user.ErrEmailAlreadyUsed):
			h.prom.AuthOutcome("register", "email_taken")
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already in use.", nil)
		case isUnavailable(err):
			h.prom.AuthOutcome("register", "unavailable")
			slog.Default().ErrorContext(ctx.Request.Context(), "register failed", "err", err)
			RespondUnavailable(ctx)
		default:
			h.prom.AuthOutcome("register", "error")
			slog.Default().ErrorContext(ctx.Request.Context(), "register failed", "err", err)
			RespondInternal(ctx, "Could not create user")
		}
		return
	}

	h.prom.AuthOutcome("register", "ok")

	ctx.JSON(http.StatusCreated, u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var form LoginForm

	if !BindForm(ctx, &form) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	tok, err := h.svc.Login(cctx, form.Username, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.prom.AuthOutcome("login", "invalid_credentials")
			RespondUnAuthorized(ctx)
		case isUnavailable(err):
			h.prom.AuthOutcome("login", "unavailable")
			slog.Default().ErrorContext(ctx.Request.Context(), "login failed", "err", err)
			RespondUnavailable(ctx)
		default:
			h.prom.AuthOutcome("login", "error")
			slog.Default().ErrorContext(ctx.Request.Context(), "login failed", "err", err)
			RespondInternal(ctx, "Could not log in")
		}
		return
	}

	h.prom.AuthOutcome("login", "ok")

	ctx.JSON(http.StatusOK, tok)
}

// Me returns the caller as resolved for this request.
func (h *AuthHandler) Me(ctx *gin.Context) {
	p, ok := middlewares.PrincipalFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func isUnavailable(err error) bool {
	return errors.Is(err, auth.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
