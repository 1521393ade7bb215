// Package conversation manages the bounded conversation history carried
// inside the client-supplied context bag. All functions are pure: they
// never mutate their input context and always return a fresh map.
package conversation

import (
	"maps"
	"strings"

	"github.com/agenticai/agentd/domain"
)

const (
	// HistoryKey is the context key holding the shared conversation history.
	HistoryKey = "conversation_history"

	// RoleUser and RoleAgent are the two turn roles.
	RoleUser  = "user"
	RoleAgent = "agent"

	// MaxTurns caps the retained history; oldest turns are evicted first.
	MaxTurns = 20

	// MaxAgentLogEntries caps the derived per-agent log keys.
	MaxAgentLogEntries = 50
)

// AppendTurn returns a copy of ctx with a user turn and an agent turn
// appended to the history, truncated to the most recent MaxTurns.
// A history value of an unexpected type is treated as empty.
func AppendTurn(ctx map[string]any, userMessage, agentMessage string, attachmentNames []string) map[string]any {
	updated := cloneContext(ctx)

	history := coerceTurns(updated[HistoryKey])
	names := make([]string, 0, len(attachmentNames))
	for _, name := range attachmentNames {
		if name != "" {
			names = append(names, name)
		}
	}

	history = append(history,
		domain.ConversationTurn{Role: RoleUser, Message: userMessage, Attachments: names},
		domain.ConversationTurn{Role: RoleAgent, Message: agentMessage},
	)
	if len(history) > MaxTurns {
		history = history[len(history)-MaxTurns:]
	}

	updated[HistoryKey] = history
	return updated
}

// HistoryForPrompt extracts the renderable history entries from ctx,
// dropping anything without a non-empty role and message.
func HistoryForPrompt(ctx map[string]any) []domain.HistoryEntry {
	turns := coerceTurns(ctx[HistoryKey])
	entries := make([]domain.HistoryEntry, 0, len(turns))
	for _, turn := range turns {
		role := strings.TrimSpace(turn.Role)
		message := strings.TrimSpace(turn.Message)
		if role == "" || message == "" {
			continue
		}
		entries = append(entries, domain.HistoryEntry{Role: role, Message: message})
	}
	return entries
}

// AppendAgentLog returns a copy of ctx with entry appended to the ordered
// log under key, capped at MaxAgentLogEntries with FIFO eviction.
func AppendAgentLog(ctx map[string]any, key string, entry map[string]any) map[string]any {
	updated := cloneContext(ctx)

	var log []any
	if existing, ok := updated[key].([]any); ok {
		log = append(log, existing...)
	}
	log = append(log, entry)
	if len(log) > MaxAgentLogEntries {
		log = log[len(log)-MaxAgentLogEntries:]
	}

	updated[key] = log
	return updated
}

func cloneContext(ctx map[string]any) map[string]any {
	if ctx == nil {
		return map[string]any{}
	}
	return maps.Clone(ctx)
}

// coerceTurns accepts the typed slice this package writes as well as the
// generic shapes a JSON round trip produces. Anything else is empty.
func coerceTurns(raw any) []domain.ConversationTurn {
	switch v := raw.(type) {
	case []domain.ConversationTurn:
		return append([]domain.ConversationTurn(nil), v...)
	case []any:
		turns := make([]domain.ConversationTurn, 0, len(v))
		for _, item := range v {
			switch t := item.(type) {
			case domain.ConversationTurn:
				turns = append(turns, t)
			case map[string]any:
				turns = append(turns, turnFromMap(t))
			}
		}
		return turns
	case []map[string]any:
		turns := make([]domain.ConversationTurn, 0, len(v))
		for _, item := range v {
			turns = append(turns, turnFromMap(item))
		}
		return turns
	default:
		return nil
	}
}

func turnFromMap(m map[string]any) domain.ConversationTurn {
	turn := domain.ConversationTurn{}
	if role, ok := m["role"].(string); ok {
		turn.Role = role
	}
	if message, ok := m["message"].(string); ok {
		turn.Message = message
	}
	if rawNames, ok := m["attachments"].([]any); ok {
		for _, n := range rawNames {
			if name, ok := n.(string); ok && name != "" {
				turn.Attachments = append(turn.Attachments, name)
			}
		}
	}
	return turn
}
