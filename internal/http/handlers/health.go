package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	ping           func(ctx context.Context) error
	isShuttingDown func() bool
}

// NewHealthHandler takes the readiness probe and a shutdown flag. Either may
// be nil.
func NewHealthHandler(ping func(ctx context.Context) error, isShuttingDown func() bool) *HealthHandler {
	return &HealthHandler{ping: ping, isShuttingDown: isShuttingDown}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz fails while the process drains so load balancers stop routing to it.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.isShuttingDown != nil && h.isShuttingDown() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	if h.ping != nil {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.ping(cctx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
