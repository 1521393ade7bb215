package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agenticai/agentd/conversation"
	"github.com/agenticai/agentd/ocr"
	"github.com/agenticai/agentd/prompt"
)

// OCRHistoryKey is the derived context key carrying per-request extraction
// summaries for the OCR agent.
const OCRHistoryKey = "ocr_history"

// OCRAgent combines document extraction with LLM reasoning.
type OCRAgent struct {
	pipeline *ocr.Pipeline
	llm      Completer
	logger   zerolog.Logger
}

// NewOCRAgent creates the OCR document agent.
func NewOCRAgent(pipeline *ocr.Pipeline, llm Completer, logger zerolog.Logger) *OCRAgent {
	return &OCRAgent{pipeline: pipeline, llm: llm, logger: logger}
}

// HandleMessage extracts text from the attachments, assembles the
// document prompt from the conversation history, calls the LLM and
// returns the response with the updated context.
func (a *OCRAgent) HandleMessage(ctx context.Context, message string, agentContext map[string]any, attachments []any) (string, map[string]any, error) {
	canonical, names := normalizeAttachments(attachments)

	texts, artifacts, err := a.pipeline.Extract(ctx, canonical)
	if err != nil {
		return "", nil, fmt.Errorf("document extraction failed: %w", err)
	}
	documentContext := strings.Join(texts, "\n")

	history := conversation.HistoryForPrompt(agentContext)
	llmPrompt := prompt.BuildDocumentPrompt(message, documentContext, history)

	response, err := a.llm.Complete(ctx, llmPrompt)
	if err != nil {
		return "", nil, fmt.Errorf("completion failed: %w", err)
	}

	updated := conversation.AppendTurn(agentContext, message, response, names)
	logEntry := map[string]any{
		"query":     message,
		"documents": texts,
	}
	if len(artifacts) > 0 {
		logEntry["artifacts"] = artifacts
	}
	updated = conversation.AppendAgentLog(updated, OCRHistoryKey, logEntry)

	a.logger.Debug().Int("attachments", len(canonical)).Int("segments", len(texts)).
		Int("artifacts", len(artifacts)).Msg("handled OCR message")
	return response, updated, nil
}
