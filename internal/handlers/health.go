package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/SampleBias/10x-prompt/internal/health"
)

// HealthHandler handles liveness and provider-health requests
type HealthHandler struct {
	healthService *health.Service
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService *health.Service) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"providers": h.healthService.Summary(),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Providers returns the per-provider health snapshot for monitoring.
/// Read-only: it never triggers a probe.
func (h *HealthHandler) Providers(c *fiber.Ctx) error {
	snapshot := h.healthService.Snapshot()
	return c.JSON(fiber.Map{
		"providers": snapshot,
		"count":     len(snapshot),
	})
}
