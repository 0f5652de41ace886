package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is anything that can report readiness of a dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checkers map[string]HealthChecker
}

// NewHealthHandler creates the health handler. Checkers map dependency
// names to their probes; a nil checker is skipped.
func NewHealthHandler(checkers map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// Live reports process liveness.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready probes every dependency and reports per-dependency status.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, checker := range h.checkers {
		if checker == nil {
			continue
		}
		if err := checker.HealthCheck(ctx); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = "unavailable"
			continue
		}
		deps[name] = "ok"
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "dependencies": deps})
}
