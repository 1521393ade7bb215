package agents

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenticai/agentd/config"
	"github.com/agenticai/agentd/conversation"
	"github.com/agenticai/agentd/deviceops"
	"github.com/agenticai/agentd/domain"
	"github.com/agenticai/agentd/ocr"
	"github.com/agenticai/agentd/tests/helpers"
)

type stubCompleter struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubEngine struct {
	texts []string
}

func (s *stubEngine) Recognize(_ context.Context, _ image.Image) ([]domain.Recognition, error) {
	recognitions := make([]domain.Recognition, 0, len(s.texts))
	for _, text := range s.texts {
		recognitions = append(recognitions, domain.Recognition{Text: text, Confidence: 0.99})
	}
	return recognitions, nil
}

func newTestPipeline(t *testing.T, engine ocr.Engine) *ocr.Pipeline {
	t.Helper()
	provider := ocr.EngineFunc(func() (ocr.Engine, error) { return engine, nil })
	cfg := &config.Config{PDFRenderDPI: 300, OCRWorkers: 1}
	return ocr.NewPipeline(provider, helpers.NewTestSQLiteStore(t), cfg, zerolog.Nop())
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func pngAttachment(t *testing.T) map[string]any {
	t.Helper()
	return map[string]any{
		"name":         "a.png",
		"content_type": "image/png",
		"data":         base64.StdEncoding.EncodeToString(tinyPNG(t)),
	}
}

func TestRegistryDispatch(t *testing.T) {
	registry := NewRegistry()
	llm := &stubCompleter{response: "ok"}
	agent := NewOCRAgent(newTestPipeline(t, &stubEngine{}), llm, zerolog.Nop())
	require.NoError(t, registry.Register("ocr", agent))

	got, err := registry.Get("ocr")
	require.NoError(t, err)
	assert.Same(t, agent, got.(*OCRAgent))

	_, err = registry.Get("unknown")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestRegistryRejectsDuplicateIDs(t *testing.T) {
	registry := NewRegistry()
	agent := NewOCRAgent(newTestPipeline(t, &stubEngine{}), &stubCompleter{}, zerolog.Nop())

	require.NoError(t, registry.Register("ocr", agent))
	assert.Error(t, registry.Register("ocr", agent))
}

func TestOCRAgentHandleMessage(t *testing.T) {
	llm := &stubCompleter{response: "the document says HELLO"}
	agent := NewOCRAgent(newTestPipeline(t, &stubEngine{texts: []string{"HELLO"}}), llm, zerolog.Nop())

	response, updated, err := agent.HandleMessage(context.Background(), "what does it say",
		map[string]any{}, []any{pngAttachment(t)})
	require.NoError(t, err)
	assert.Equal(t, "the document says HELLO", response)

	assert.Contains(t, llm.lastPrompt, "OCR context:\nHELLO")
	assert.Contains(t, llm.lastPrompt, "User question: what does it say")

	history, ok := updated[conversation.HistoryKey].([]domain.ConversationTurn)
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, "what does it say", history[0].Message)
	assert.Equal(t, []string{"a.png"}, history[0].Attachments)
	assert.Equal(t, "the document says HELLO", history[1].Message)

	log, ok := updated[OCRHistoryKey].([]any)
	require.True(t, ok)
	require.Len(t, log, 1)
	entry := log[0].(map[string]any)
	assert.Equal(t, "what does it say", entry["query"])
	assert.Equal(t, []string{"HELLO"}, entry["documents"])
}

func TestOCRAgentNoAttachmentsUsesSentinel(t *testing.T) {
	llm := &stubCompleter{response: "nothing to read"}
	agent := NewOCRAgent(newTestPipeline(t, &stubEngine{}), llm, zerolog.Nop())

	_, _, err := agent.HandleMessage(context.Background(), "read this", map[string]any{}, nil)
	require.NoError(t, err)
	assert.Contains(t, llm.lastPrompt, ocr.SentinelNoAttachments)
}

func TestOCRAgentSkipsMalformedAttachments(t *testing.T) {
	llm := &stubCompleter{response: "ok"}
	agent := NewOCRAgent(newTestPipeline(t, &stubEngine{texts: []string{"TEXT"}}), llm, zerolog.Nop())

	_, updated, err := agent.HandleMessage(context.Background(), "q", map[string]any{},
		[]any{42, nil, pngAttachment(t)})
	require.NoError(t, err)

	history := updated[conversation.HistoryKey].([]domain.ConversationTurn)
	assert.Equal(t, []string{"a.png"}, history[0].Attachments)
}

func TestOCRAgentLLMFailurePropagates(t *testing.T) {
	llm := &stubCompleter{err: errors.New("upstream timeout")}
	agent := NewOCRAgent(newTestPipeline(t, &stubEngine{}), llm, zerolog.Nop())

	_, _, err := agent.HandleMessage(context.Background(), "q", map[string]any{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion failed")
}

func TestOCRAgentDoesNotMutateCallerContext(t *testing.T) {
	llm := &stubCompleter{response: "ok"}
	agent := NewOCRAgent(newTestPipeline(t, &stubEngine{}), llm, zerolog.Nop())

	original := map[string]any{"custom": "value"}
	_, updated, err := agent.HandleMessage(context.Background(), "q", original, nil)
	require.NoError(t, err)

	assert.NotContains(t, original, conversation.HistoryKey)
	assert.Equal(t, "value", updated["custom"])
}

func newDeviceOpsAgent(t *testing.T, llm Completer) *DeviceOpsAgent {
	t.Helper()
	svc, err := deviceops.New(context.Background(), helpers.NewTestSQLiteStore(t), zerolog.Nop())
	require.NoError(t, err)
	return NewDeviceOpsAgent(svc, llm, zerolog.Nop())
}

func TestDeviceOpsAgentHandleMessage(t *testing.T) {
	llm := &stubCompleter{response: "check the seal"}
	agent := newDeviceOpsAgent(t, llm)

	agentContext := map[string]any{
		TelemetryKey: map[string]any{"temperature": 91.2, "ignored": nil},
	}
	response, updated, err := agent.HandleMessage(context.Background(), "pump is hot", agentContext, nil)
	require.NoError(t, err)
	assert.Equal(t, "check the seal", response)

	assert.Contains(t, llm.lastPrompt, "- temperature: 91.2")
	assert.NotContains(t, llm.lastPrompt, "ignored")
	// Seeded knowledge base shows up both as a section and as the
	// telemetry reference procedure.
	assert.Contains(t, llm.lastPrompt, "reset_procedure")
	assert.Contains(t, llm.lastPrompt, "User request: pump is hot")

	log, ok := updated[DeviceOpsHistoryKey].([]any)
	require.True(t, ok)
	require.Len(t, log, 1)
	entry := log[0].(map[string]any)
	assert.Equal(t, "pump is hot", entry["query"])
}

func TestDeviceOpsAgentEmptyTelemetry(t *testing.T) {
	llm := &stubCompleter{response: "all quiet"}
	agent := newDeviceOpsAgent(t, llm)

	_, _, err := agent.HandleMessage(context.Background(), "status?", map[string]any{}, nil)
	require.NoError(t, err)
	// The seeded SOP still yields a reference procedure line.
	assert.Contains(t, llm.lastPrompt, "- reference_procedure:")
	assert.Contains(t, llm.lastPrompt, "- No maintenance history recorded")
}
