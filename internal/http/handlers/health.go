package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is a dependency readiness depends on.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports 503 while any dependency fails its ping.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(gin.H, len(names))
	ready := true

	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		err := h.deps[name](cctx)
		cancel()

		if err != nil {
			ready = false
			checks[name] = "down"
			continue
		}
		checks[name] = "up"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
