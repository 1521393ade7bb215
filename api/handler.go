// Package api provides HTTP handlers for the agent backend.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/agenticai/agentd/agents"
	"github.com/agenticai/agentd/deviceops"
	"github.com/agenticai/agentd/policy"
)

// Handler handles HTTP requests.
type Handler struct {
	registry  *agents.Registry
	deviceOps *deviceops.Service
	policy    *policy.Engine
	logger    zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(registry *agents.Registry, deviceOps *deviceops.Service, policyEngine *policy.Engine, logger zerolog.Logger) *Handler {
	return &Handler{
		registry:  registry,
		deviceOps: deviceOps,
		policy:    policyEngine,
		logger:    logger,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/chat", h.Chat)

	e.GET("/api/device-ops/knowledge-base", h.GetKnowledgeBase)
	e.POST("/api/device-ops/knowledge-base", h.UpsertKnowledgeBase)
	e.GET("/api/device-ops/maintenance-records", h.ListMaintenanceRecords)
	e.POST("/api/device-ops/maintenance-records", h.RecordMaintenance)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
