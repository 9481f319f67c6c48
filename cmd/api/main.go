package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	httpx "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/geocoder89/taskhub/internal/redisclient"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "taskhub:", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "taskhub-api",
			Endpoint:    cfg.OTELEndpoint,
			Env:         cfg.Env,
			SampleRatio: 1,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := db.NewPool(startCtx, cfg.DBURL, 10)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	hasher := security.NewHasher(cfg.BcryptCost)

	if err := db.Migrate(startCtx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := db.EnsureRoles(startCtx, pool); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	created, err := db.EnsureAdminUser(startCtx, pool, auth.NormalizeEmail(cfg.AdminEmail), cfg.AdminPassword, hasher)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin user created", "email", auth.NormalizeEmail(cfg.AdminEmail))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// Redis is optional; without it each replica limits on its own.
	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rc, err := redisclient.Connect(startCtx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("redis unavailable, using in-process rate limiter", "err", err)
		} else {
			defer rc.Close()
			limiter = ratelimit.NewRedis(rc.Raw(), cfg.AuthRateLimit, cfg.AuthRateWindow())
		}
	}

	var shuttingDown atomic.Bool

	router, err := httpx.NewRouter(log, cfg, httpx.Dependencies{
		Users:        postgres.NewUsersRepo(pool, prom),
		Tasks:        postgres.NewTasksRepo(pool, prom),
		Hasher:       hasher,
		Tokens:       auth.NewManager(cfg.JWTSecret, cfg.AccessTTL()),
		Ping:         pool.Ping,
		ShuttingDown: shuttingDown.Load,
		Limiter:      limiter,
		Prom:         prom,
		Registry:     reg,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shuttingDown.Store(true)

	shutdownCtx, cancelShutdown := config.WithTimeout(10 * time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
