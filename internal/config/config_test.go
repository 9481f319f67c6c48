package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "")

	cfg := Load()

	if cfg.JWTSecret != devJWTSecret {
		t.Fatalf("dev should fall back to the dev secret, got %q", cfg.JWTSecret)
	}
	if cfg.AccessTTL() != 30*time.Minute {
		t.Fatalf("AccessTTL = %v, want 30m", cfg.AccessTTL())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_SecretRequiredOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")

	if err := Load().Validate(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "5")
	t.Setenv("AUTH_RATE_LIMIT", "not-a-number")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/app")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()

	if cfg.AccessTTL() != 5*time.Minute {
		t.Fatalf("AccessTTL = %v", cfg.AccessTTL())
	}
	if cfg.AuthRateLimit != 20 {
		t.Fatalf("bad integer should fall back to 20, got %d", cfg.AuthRateLimit)
	}
	if cfg.DBURL != "postgres://u:p@db:5432/app" {
		t.Fatalf("DBURL = %q", cfg.DBURL)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestValidate_RejectsNonPositiveAccessTTL(t *testing.T) {
	for _, ttl := range []string{"0", "-5"} {
		t.Run(ttl, func(t *testing.T) {
			t.Setenv("APP_ENV", "prod")
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv("JWT_ACCESS_TTL_MINUTES", ttl)

			if err := Load().Validate(); !errors.Is(err, ErrInvalidAccessTTL) {
				t.Fatalf("expected ErrInvalidAccessTTL, got %v", err)
			}
		})
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "")
	if got := Load().TrustedProxies; got != nil {
		t.Fatalf("TrustedProxies should default to nil, got %v", got)
	}

	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")
	got := Load().TrustedProxies
	if len(got) != 2 || got[0] != "10.0.0.0/8" || got[1] != "192.168.1.1" {
		t.Fatalf("TrustedProxies = %v", got)
	}
}
