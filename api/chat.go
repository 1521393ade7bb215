package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agenticai/agentd/agents"
	"github.com/agenticai/agentd/domain"
)

// Chat dispatches a chat request to the agent named by agent_id.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.AgentID == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "agent_id and message are required"})
	}

	decision, err := h.policy.Evaluate(ctx, map[string]any{
		"agent_id":         req.AgentID,
		"message":          req.Message,
		"attachment_count": len(req.Attachments),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("policy evaluation failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "policy evaluation failed"})
	}
	if decision != "allow" {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "request blocked by policy"})
	}

	agent, err := h.registry.Get(req.AgentID)
	if err != nil {
		if errors.Is(err, agents.ErrUnknownAgent) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "agent not found"})
		}
		h.logger.Error().Err(err).Str("agent_id", req.AgentID).Msg("failed to resolve agent")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to resolve agent"})
	}

	agentContext := req.Context
	if agentContext == nil {
		agentContext = map[string]any{}
	}
	attachments := make([]any, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, att)
	}

	response, updated, err := agent.HandleMessage(ctx, req.Message, agentContext, attachments)
	if err != nil {
		h.logger.Error().Err(err).Str("agent_id", req.AgentID).Msg("agent failed to handle message")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "agent failed to produce a response"})
	}

	return c.JSON(http.StatusOK, domain.ChatResponse{
		AgentID:  req.AgentID,
		Response: response,
		Context:  updated,
	})
}
