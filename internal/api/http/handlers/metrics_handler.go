package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-service/internal/observability"
)

// MetricsHandler exposes in-process counters to operators.
type MetricsHandler struct {
	metrics *observability.Metrics
}

func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

func (h *MetricsHandler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
