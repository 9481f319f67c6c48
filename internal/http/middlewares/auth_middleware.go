package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (auth.Principal, error)
}

const DefaultLookupTimeout = 2 * time.Second

type AuthMiddleware struct {
	resolver PrincipalResolver
	prom     *observability.Prom
	timeout  time.Duration
}

// NewAuthMiddleware bounds each identity lookup by timeout; zero means
// DefaultLookupTimeout.
func NewAuthMiddleware(resolver PrincipalResolver, prom *observability.Prom, timeout time.Duration) *AuthMiddleware {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &AuthMiddleware{resolver: resolver, prom: prom, timeout: timeout}
}

// AbortUnauthorized writes the single 401 shape used for every
// authentication failure, whatever the underlying reason.
func AbortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": "Could not validate credentials",
		},
	})
}

func abortUnavailable(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
		"error": gin.H{
			"code":    "service_unavailable",
			"message": "Service temporarily unavailable",
		},
	})
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.prom.AuthOutcome("resolve", "rejected")
			AbortUnauthorized(c)
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), m.timeout)
		p, err := m.resolver.Resolve(cctx, raw)
		cancel()

		if err != nil {
			if errors.Is(err, auth.ErrUnavailable) {
				m.prom.AuthOutcome("resolve", "unavailable")
				slog.Default().ErrorContext(c.Request.Context(), "identity lookup failed", "err", err)
				abortUnavailable(c)
				return
			}

			m.prom.AuthOutcome("resolve", "rejected")
			AbortUnauthorized(c)
			return
		}

		m.prom.AuthOutcome("resolve", "ok")

		c.Set(CtxPrincipal, p)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), p.UserID))

		c.Next()
	}
}

// bearerToken extracts the credential from "Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}

// PrincipalFromContext returns the caller set by RequireAuth.
func PrincipalFromContext(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}
