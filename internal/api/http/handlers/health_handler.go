package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-portal/internal/store"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	store       store.GrievanceStore
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, grievances store.GrievanceStore) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, store: grievances}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by touching the record store.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := h.store.LoadAll(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "record store unavailable",
				"details": fiber.Map{"store": err.Error()},
			},
		})
	}

	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": fiber.Map{"store": "ok"},
	})
}
