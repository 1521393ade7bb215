package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/agenticai/agentd/domain"
)

// GetKnowledgeBase returns the device operations knowledge base.
// GET /api/device-ops/knowledge-base
func (h *Handler) GetKnowledgeBase(c echo.Context) error {
	entries, err := h.deviceOps.StandardOperatingProcedures(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load knowledge base")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load knowledge base"})
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

// UpsertKnowledgeBase creates or updates a knowledge base article.
// POST /api/device-ops/knowledge-base
func (h *Handler) UpsertKnowledgeBase(c echo.Context) error {
	var req domain.KnowledgeBaseUpsertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Key == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "key and content are required"})
	}

	entries, err := h.deviceOps.UpsertKnowledgeArticle(c.Request().Context(), req.Key, req.Content)
	if err != nil {
		h.logger.Error().Err(err).Str("key", req.Key).Msg("failed to upsert knowledge article")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to upsert knowledge article"})
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

// RecordMaintenance appends a maintenance record.
// POST /api/device-ops/maintenance-records
func (h *Handler) RecordMaintenance(c echo.Context) error {
	var req domain.MaintenanceRecordCreate
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.DeviceID == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "device_id and description are required"})
	}

	record, err := h.deviceOps.RecordMaintenanceEvent(c.Request().Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Str("device_id", req.DeviceID).Msg("failed to record maintenance event")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to record maintenance event"})
	}
	return c.JSON(http.StatusOK, map[string]any{"record": record})
}

// ListMaintenanceRecords returns maintenance history, newest first.
// GET /api/device-ops/maintenance-records
func (h *Handler) ListMaintenanceRecords(c echo.Context) error {
	deviceID := c.QueryParam("device_id")
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	records, err := h.deviceOps.MaintenanceHistory(c.Request().Context(), deviceID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list maintenance records")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list maintenance records"})
	}
	if records == nil {
		records = []domain.MaintenanceRecord{}
	}
	return c.JSON(http.StatusOK, map[string]any{"records": records})
}
