// Package agents implements the conversational agents and the registry
// that dispatches requests to them by identifier.
package agents

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agenticai/agentd/domain"
)

// Agent processes one user message against the client-supplied context
// bag and returns the response together with the updated context.
type Agent interface {
	HandleMessage(ctx context.Context, message string, agentContext map[string]any, attachments []any) (string, map[string]any, error)
}

// Completer is the narrow contract the agents need from the LLM client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrUnknownAgent is returned by Registry.Get for unregistered identifiers.
var ErrUnknownAgent = errors.New("unknown agent")

// Registry maps agent identifiers to instances. It is the single dispatch
// point; there is no fallback agent.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Register binds an identifier to an agent. Each identifier has exactly
// one owner; registering it twice is an error.
func (r *Registry) Register(agentID string, agent Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[agentID]; exists {
		return fmt.Errorf("agent %q already registered", agentID)
	}
	r.agents[agentID] = agent
	return nil
}

// Get resolves an agent by identifier.
func (r *Registry) Get(agentID string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, agentID)
	}
	return agent, nil
}

// normalizeAttachments converts the raw attachment inputs into canonical
// records, collecting the non-empty names for the history entry.
// Malformed inputs are skipped.
func normalizeAttachments(raw []any) ([]domain.Attachment, []string) {
	attachments := make([]domain.Attachment, 0, len(raw))
	names := make([]string, 0, len(raw))
	for _, item := range raw {
		att, ok := domain.NormalizeAttachment(item)
		if !ok {
			continue
		}
		attachments = append(attachments, att)
		if att.Name != "" {
			names = append(names, att.Name)
		}
	}
	return attachments, names
}
