package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	serviceName  = "taskhub-api"
	maxBodyBytes = 1 << 20
)

// Dependencies are the collaborators the router wires into handlers.
// Optional fields fall back to defaults built from cfg.
type Dependencies struct {
	Users  auth.IdentityStore
	Tasks  handlers.TaskStore
	Hasher auth.PasswordHasher

	// Tokens defaults to a manager built from cfg.
	Tokens *auth.Manager

	// Ping backs /readyz; nil reports ready.
	Ping func(ctx context.Context) error

	// ShuttingDown flips /readyz to 503 while the server drains.
	ShuttingDown func() bool

	// StoreTimeout bounds identity and task store calls; zero uses the
	// handler defaults.
	StoreTimeout time.Duration

	// Limiter guards /auth/*; defaults to an in-process limiter.
	Limiter ratelimit.Limiter

	Prom     *observability.Prom
	Registry *prometheus.Registry
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Dependencies) (*gin.Engine, error) {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	}

	authSvc, err := auth.NewService(deps.Users, deps.Hasher, tokens)
	if err != nil {
		return nil, err
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemory(cfg.AuthRateLimit, cfg.AuthRateWindow())
	}

	r := gin.New()

	// nil trusts no proxy, so ClientIP is the socket peer and
	// X-Forwarded-For cannot dodge the per-IP limit
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health
	h := handlers.NewHealthHandler(deps.Ping, deps.ShuttingDown)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(auth.NewResolver(tokens, deps.Users), deps.Prom, deps.StoreTimeout)
	authHandler := handlers.NewAuthHandler(authSvc, deps.Prom)
	tasksHandler := handlers.NewTasksHandler(deps.Tasks, deps.Prom, deps.StoreTimeout)

	authGroup := r.Group("/auth")
	authGroup.Use(middlewares.RateLimit(limiter, middlewares.KeyByIP, deps.Prom))
	{
		authGroup.POST("/register", middlewares.RequireJSON(), authHandler.Register)
		// form encoded, so no RequireJSON
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", authMW.RequireAuth(), authHandler.Me)
	}

	v1 := r.Group("/v1")
	v1.Use(authMW.RequireAuth(), middlewares.RequireJSON())
	{
		v1.GET("/tasks", tasksHandler.ListTasks)
		v1.POST("/tasks", tasksHandler.CreateTask)
		v1.GET("/tasks/:id", tasksHandler.GetTask)
		v1.PATCH("/tasks/:id", tasksHandler.UpdateTask)
		v1.DELETE("/tasks/:id", authMW.RequireRole(user.RoleAdmin), tasksHandler.DeleteTask)
	}

	return r, nil
}
