// Package model defines the provider-neutral contract for chat completion
// backends. Adapters for concrete providers live in subpackages.
package model

import (
	"context"

	"github.com/leobot/leo/core"
)

// ToolDefinition is the provider-neutral description of a callable tool,
// carrying a JSON schema for its parameters.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is a fully composed completion request. Turns carry the
// conversation in order, including earlier tool calls and their results.
type Request struct {
	Instructions string
	Turns        []core.Turn
	Tools        []ToolDefinition
	MaxTokens    int
}

// Reply is the model's response to a Request. A reply carrying tool calls is
// not final; the caller executes them and asks again.
type Reply struct {
	Text      string
	ToolCalls []core.ToolInvocation
}

// IsFinal reports whether the reply is a plain answer with no pending tool
// calls.
func (r *Reply) IsFinal() bool { return len(r.ToolCalls) == 0 }

// Info describes a configured model backend.
type Info struct {
	Provider string
	Name     string
}

// Model is the interface implemented by all completion backends.
type Model interface {
	// Info returns provider and model name for logging.
	Info() Info

	// Complete generates the next reply for the request.
	Complete(ctx context.Context, req Request) (*Reply, error)
}
