// Package policy provides OPA-based admission checks for inbound chat
// requests.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_policy.decision"),
		rego.Module("chat_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the chat admission policy. Input carries agent_id,
// message and attachment_count. The decision is "allow" or "block";
// an empty result set defaults to allow.
func (e *Engine) Evaluate(ctx context.Context, input any) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "allow", nil
	}

	if decision, ok := results[0].Expressions[0].Value.(string); ok {
		return decision, nil
	}
	return "allow", nil
}

// DefaultPolicy is the default chat admission policy: everything is
// allowed except oversized attachment batches.
const DefaultPolicy = `package chat_policy

default decision := "allow"

decision := "block" if {
	input.attachment_count > 16
}
`
