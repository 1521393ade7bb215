package agents

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agenticai/agentd/conversation"
	"github.com/agenticai/agentd/deviceops"
	"github.com/agenticai/agentd/prompt"
)

// DeviceOpsHistoryKey is the derived context key carrying per-request
// telemetry summaries for the device operations agent.
const DeviceOpsHistoryKey = "device_ops_history"

// TelemetryKey is the context key the client uses to supply telemetry.
const TelemetryKey = "telemetry"

// maintenancePromptLimit bounds how many recent records enter the prompt.
const maintenancePromptLimit = 5

// DeviceOpsAgent synthesizes telemetry insights with knowledge base
// content and maintenance history.
type DeviceOpsAgent struct {
	deviceOps *deviceops.Service
	llm       Completer
	logger    zerolog.Logger
}

// NewDeviceOpsAgent creates the device operations agent.
func NewDeviceOpsAgent(svc *deviceops.Service, llm Completer, logger zerolog.Logger) *DeviceOpsAgent {
	return &DeviceOpsAgent{deviceOps: svc, llm: llm, logger: logger}
}

// HandleMessage summarizes the telemetry from the context bag, gathers
// knowledge base and maintenance context, calls the LLM and returns the
// response with the updated context.
func (a *DeviceOpsAgent) HandleMessage(ctx context.Context, message string, agentContext map[string]any, attachments []any) (string, map[string]any, error) {
	_, names := normalizeAttachments(attachments)

	summarized := a.deviceOps.SummarizeTelemetry(ctx, agentContext[TelemetryKey])

	knowledgeBase, err := a.deviceOps.StandardOperatingProcedures(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to load knowledge base, prompting without it")
		knowledgeBase = nil
	}
	maintenanceHistory, err := a.deviceOps.MaintenanceHistory(ctx, "", maintenancePromptLimit)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to load maintenance history, prompting without it")
		maintenanceHistory = nil
	}

	history := conversation.HistoryForPrompt(agentContext)
	llmPrompt := prompt.BuildOperationsPrompt(message, summarized, knowledgeBase, maintenanceHistory, history)

	response, err := a.llm.Complete(ctx, llmPrompt)
	if err != nil {
		return "", nil, fmt.Errorf("completion failed: %w", err)
	}

	updated := conversation.AppendTurn(agentContext, message, response, names)
	updated = conversation.AppendAgentLog(updated, DeviceOpsHistoryKey, map[string]any{
		"query":     message,
		"telemetry": summarized,
	})

	a.logger.Debug().Int("telemetry_keys", len(summarized)).Msg("handled device ops message")
	return response, updated, nil
}
