package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-only-insecure-secret"

type Config struct {
	Env   string
	Port  int
	DBURL string

	JWTSecret           string
	JWTAccessTTLMinutes int
	BcryptCost          int

	// optional admin bootstrap, skipped when either is empty
	AdminEmail    string
	AdminPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTELEndpoint   string
	AllowedOrigins []string
	TrustedProxies []string

	AuthRateLimit         int
	AuthRateWindowSeconds int
}

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET must be set outside dev")
	ErrInvalidAccessTTL = errors.New("JWT_ACCESS_TTL_MINUTES must be positive")
)

// Load reads a .env file when one exists and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "err", err)
	}

	env := getEnv("APP_ENV", "dev")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" && env == "dev" {
		secret = devJWTSecret
	}

	return Config{
		Env:                   env,
		Port:                  getEnvInt("PORT", 8080),
		DBURL:                 buildDBURL(),
		JWTSecret:             secret,
		JWTAccessTTLMinutes:   getEnvInt("JWT_ACCESS_TTL_MINUTES", 30),
		BcryptCost:            getEnvInt("BCRYPT_COST", 0),
		AdminEmail:            os.Getenv("ADMIN_EMAIL"),
		AdminPassword:         os.Getenv("ADMIN_PASSWORD"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		OTELEndpoint:          os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		AllowedOrigins:        getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5500", "http://127.0.0.1:5500"}),
		TrustedProxies:        getEnvList("TRUSTED_PROXIES", nil),
		AuthRateLimit:         getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindowSeconds: getEnvInt("AUTH_RATE_WINDOW_SECONDS", 60),
	}
}

// Validate reports configuration that must stop the process from starting.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.JWTAccessTTLMinutes <= 0 {
		return ErrInvalidAccessTTL
	}
	return nil
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) AuthRateWindow() time.Duration {
	return time.Duration(c.AuthRateWindowSeconds) * time.Second
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "taskhub")
	pass := getEnv("DB_PASSWORD", "taskhub")
	name := getEnv("DB_NAME", "taskhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer in environment, using fallback", "key", key, "fallback", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
