package core

import (
	"context"

	"github.com/leobot/leo/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked by the dispatch loop. It exposes run correlation
// identifiers and logging without handing tools the whole engine.
type ToolContext struct {
	runCtx         *RunContext
	functionCallID string

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent RunContext and
// the provider-issued function call id.
func NewToolContext(runCtx *RunContext, functionCallID string) *ToolContext {
	return &ToolContext{
		runCtx:         runCtx,
		functionCallID: functionCallID,
		loggerAdapter:  newLoggerAdapter(runCtx.Logger()),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.runCtx.Context }

// UserID returns the user the tool is acting for.
func (tc *ToolContext) UserID() string { return tc.runCtx.UserID }

// RunID returns the run ID associated with the tool invocation.
func (tc *ToolContext) RunID() string { return tc.runCtx.RunID }

// FunctionCallID returns the function call ID associated with the tool invocation.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }
