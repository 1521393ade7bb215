package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenticai/agentd/domain"
)

func TestAppendTurnAppendsUserAndAgentTurns(t *testing.T) {
	ctx := map[string]any{"telemetry": map[string]any{"cpu": 80}}

	updated := AppendTurn(ctx, "hello", "hi there", []string{"doc.png", ""})

	history, ok := updated[HistoryKey].([]domain.ConversationTurn)
	require.True(t, ok)
	require.Len(t, history, 2)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Message)
	assert.Equal(t, []string{"doc.png"}, history[0].Attachments)
	assert.Equal(t, RoleAgent, history[1].Role)
	assert.Equal(t, "hi there", history[1].Message)
	assert.Empty(t, history[1].Attachments)

	// Unrelated keys are preserved.
	assert.Equal(t, ctx["telemetry"], updated["telemetry"])
}

func TestAppendTurnCapsHistoryFIFO(t *testing.T) {
	ctx := map[string]any{}
	for i := 0; i < 15; i++ {
		ctx = AppendTurn(ctx, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), nil)
		history := ctx[HistoryKey].([]domain.ConversationTurn)
		want := 2 * (i + 1)
		if want > MaxTurns {
			want = MaxTurns
		}
		require.Len(t, history, want)
	}

	history := ctx[HistoryKey].([]domain.ConversationTurn)
	require.Len(t, history, MaxTurns)
	// Oldest retained turn is the user turn of append #5 (q5).
	assert.Equal(t, "q5", history[0].Message)
	assert.Equal(t, "a14", history[MaxTurns-1].Message)
}

func TestAppendTurnDoesNotMutateInput(t *testing.T) {
	original := map[string]any{
		HistoryKey: []domain.ConversationTurn{
			{Role: RoleUser, Message: "first"},
		},
	}

	a := AppendTurn(original, "second", "reply-a", nil)
	b := AppendTurn(original, "third", "reply-b", nil)

	require.Len(t, original[HistoryKey], 1)
	historyA := a[HistoryKey].([]domain.ConversationTurn)
	historyB := b[HistoryKey].([]domain.ConversationTurn)
	require.Len(t, historyA, 3)
	require.Len(t, historyB, 3)
	assert.Equal(t, "second", historyA[1].Message)
	assert.Equal(t, "third", historyB[1].Message)
}

func TestAppendTurnCoercesMalformedHistory(t *testing.T) {
	cases := []any{
		"not a list",
		42,
		map[string]any{"role": "user"},
		nil,
	}
	for _, malformed := range cases {
		updated := AppendTurn(map[string]any{HistoryKey: malformed}, "q", "a", nil)
		history, ok := updated[HistoryKey].([]domain.ConversationTurn)
		require.True(t, ok, "history value %v", malformed)
		assert.Len(t, history, 2)
	}
}

func TestAppendTurnAcceptsJSONShapedHistory(t *testing.T) {
	ctx := map[string]any{
		HistoryKey: []any{
			map[string]any{"role": "user", "message": "old", "attachments": []any{"a.pdf"}},
			map[string]any{"role": "agent", "message": "old reply"},
			"garbage entry",
		},
	}

	updated := AppendTurn(ctx, "new", "new reply", nil)
	history := updated[HistoryKey].([]domain.ConversationTurn)
	require.Len(t, history, 4)
	assert.Equal(t, "old", history[0].Message)
	assert.Equal(t, []string{"a.pdf"}, history[0].Attachments)
	assert.Equal(t, "new reply", history[3].Message)
}

func TestHistoryForPromptFiltersIncompleteEntries(t *testing.T) {
	ctx := map[string]any{
		HistoryKey: []any{
			map[string]any{"role": "user", "message": "keep me"},
			map[string]any{"role": "", "message": "no role"},
			map[string]any{"role": "agent", "message": "   "},
			map[string]any{"role": "agent", "message": "also keep"},
		},
	}

	entries := HistoryForPrompt(ctx)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.HistoryEntry{Role: "user", Message: "keep me"}, entries[0])
	assert.Equal(t, domain.HistoryEntry{Role: "agent", Message: "also keep"}, entries[1])
}

func TestHistoryForPromptMissingKey(t *testing.T) {
	assert.Empty(t, HistoryForPrompt(map[string]any{}))
	assert.Empty(t, HistoryForPrompt(map[string]any{HistoryKey: "bad"}))
}

func TestAppendAgentLogCaps(t *testing.T) {
	ctx := map[string]any{}
	for i := 0; i < MaxAgentLogEntries+10; i++ {
		ctx = AppendAgentLog(ctx, "ocr_history", map[string]any{"query": fmt.Sprintf("q%d", i)})
	}

	log, ok := ctx["ocr_history"].([]any)
	require.True(t, ok)
	require.Len(t, log, MaxAgentLogEntries)
	first := log[0].(map[string]any)
	assert.Equal(t, "q10", first["query"])
}

func TestAppendAgentLogDoesNotMutateInput(t *testing.T) {
	original := map[string]any{"ocr_history": []any{map[string]any{"query": "old"}}}
	updated := AppendAgentLog(original, "ocr_history", map[string]any{"query": "new"})

	require.Len(t, original["ocr_history"], 1)
	require.Len(t, updated["ocr_history"], 2)
}
