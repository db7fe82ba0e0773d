package core

import (
	"context"

	"github.com/leobot/leo/logging"
)

// RunContext is the explicit per-turn execution scope threaded through the
// dispatch loop and into tools. It bundles:
//   - The ambient cancellation Context
//   - Identifiers (UserID, RunID)
//   - The session epoch observed when the turn started (a reset bumps the
//     epoch, so a stale run can detect that its answer must be discarded)
//   - The loop IterationBudget
//
// No ambient globals: everything a tool or loop stage needs travels here.
type RunContext struct {
	Context context.Context
	UserID  string
	RunID   string
	Epoch   uint64
	Budget  *IterationBudget

	*loggerAdapter
}

// NewRunContext constructs a RunContext for one user turn.
func NewRunContext(
	ctx context.Context,
	userID, runID string,
	epoch uint64,
	maxIterations int,
	logger logging.Logger,
) *RunContext {
	return &RunContext{
		Context:       ctx,
		UserID:        userID,
		RunID:         runID,
		Epoch:         epoch,
		Budget:        NewIterationBudget(maxIterations),
		loggerAdapter: newLoggerAdapter(logger),
	}
}
