// Package engine runs the per-turn dispatch loop: retrieve facts, compose a
// prompt, call the model, execute requested tools, and repeat until the model
// produces a final answer or the iteration bound is hit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/internal/util"
	"github.com/leobot/leo/logging"
	"github.com/leobot/leo/model"
	"github.com/leobot/leo/prompt"
	"github.com/leobot/leo/retrieval"
	"github.com/leobot/leo/session"
	"github.com/leobot/leo/tool"
)

// User-facing fallback texts. Internal detail never leaks into chat replies.
const (
	greeting        = "Hello! I am Leo, your football assistant. Ask me about matches or for reminders!"
	resetConfirm    = "History has been reset. How can I help you?"
	apologyGeneric  = "Sorry, something went wrong on my side. Please try again."
	apologyRateLim  = "I'm a bit overloaded right now. Please try again shortly."
	truncatedNotice = "(I had to stop early, this answer may be incomplete.)"
)

// Options configure the Engine.
type Options struct {
	// MaxIterations bounds model calls per user turn.
	MaxIterations int
	// ModelTimeout bounds each completion call.
	ModelTimeout time.Duration
	// RetryBackoff is the delay before retrying a transient completion failure.
	RetryBackoff time.Duration
	Logger       logging.Logger
}

// Engine wires retrieval, prompt composition, the model and the tool registry
// behind two entry points: HandleMessage for free text and HandleCommand for
// slash commands.
type Engine struct {
	model    model.Model
	planner  *retrieval.Planner
	composer *prompt.Composer
	registry *tool.Registry
	sessions *session.Manager
	opts     Options
}

// New constructs an Engine.
func New(
	m model.Model,
	planner *retrieval.Planner,
	composer *prompt.Composer,
	registry *tool.Registry,
	sessions *session.Manager,
	optFns ...func(o *Options),
) *Engine {
	opts := Options{
		MaxIterations: 5,
		ModelTimeout:  60 * time.Second,
		RetryBackoff:  time.Second,
		Logger:        logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		model:    m,
		planner:  planner,
		composer: composer,
		registry: registry,
		sessions: sessions,
		opts:     opts,
	}
}

// HandleCommand processes slash commands. Reset returns immediately even
// while a dispatch loop for the same user is in flight: the epoch bump makes
// that loop discard its answer instead of appending it.
func (e *Engine) HandleCommand(_ context.Context, userID, command string) string {
	switch strings.TrimSpace(command) {
	case "/start":
		e.sessions.GetOrCreate(userID)
		return greeting
	case "/reset":
		e.sessions.Reset(userID)
		e.opts.Logger.Info("engine.session.reset", "user_id", userID)
		return resetConfirm
	default:
		return "Unknown command. Try /start or /reset."
	}
}

// HandleMessage runs one full user turn and returns the reply text. Turns for
// the same user serialize; distinct users proceed in parallel. Recoverable
// failures come back as friendly text, the session stays intact either way.
func (e *Engine) HandleMessage(ctx context.Context, userID, text string) string {
	release := e.sessions.Acquire(userID)
	defer release()

	epoch := e.sessions.Epoch(userID)
	history := e.sessions.GetOrCreate(userID).Turns

	runCtx := core.NewRunContext(ctx, userID, core.NewID(), epoch, e.opts.MaxIterations, e.opts.Logger)
	runCtx.LogInfo("engine.turn.start", "user_id", userID, "run_id", runCtx.RunID)

	answer, runTurns, err := e.dispatch(runCtx, history, text)
	if err != nil {
		runCtx.LogError("engine.turn.failed", "user_id", userID, "run_id", runCtx.RunID, "error", err)
		return apologyFor(err)
	}

	turns := make([]core.Turn, 0, len(runTurns)+2)
	turns = append(turns, core.NewUserTurn(text))
	turns = append(turns, runTurns...)
	turns = append(turns, core.NewAssistantTurn(answer))

	if !e.sessions.Append(userID, epoch, turns...) {
		runCtx.LogInfo("engine.turn.discarded", "user_id", userID, "run_id", runCtx.RunID)
		return resetConfirm
	}

	runCtx.LogInfo("engine.turn.done", "user_id", userID, "run_id", runCtx.RunID, "model_calls", runCtx.Budget.Used())

	return answer
}

// dispatch runs the model/tool loop for one turn. It returns the final answer
// together with the intermediate tool call and result turns produced on the
// way there.
func (e *Engine) dispatch(runCtx *core.RunContext, history []core.Turn, text string) (string, []core.Turn, error) {
	facts := e.retrieveFacts(runCtx, text)

	var runTurns []core.Turn
	var lastText string

	for {
		if !runCtx.Budget.Spend() {
			runCtx.LogWarn("engine.loop.truncated", "run_id", runCtx.RunID, "max_iterations", e.opts.MaxIterations)
			return truncatedAnswer(lastText), runTurns, nil
		}

		req, err := e.composer.Build(history, text, runTurns, facts, e.registry.Definitions())
		if err != nil {
			return "", nil, err
		}

		reply, err := e.complete(runCtx, req)
		if err != nil {
			return "", nil, err
		}

		if reply.IsFinal() {
			return reply.Text, runTurns, nil
		}

		lastText = reply.Text
		runTurns = append(runTurns, core.NewToolCallTurn(reply.Text, reply.ToolCalls))
		runTurns = append(runTurns, core.NewToolResultTurn(e.executeCalls(runCtx, reply.ToolCalls)))
	}
}

// retrieveFacts plans retrieval for the user text, degrading to an empty fact
// set when the retrieval path is unavailable.
func (e *Engine) retrieveFacts(runCtx *core.RunContext, text string) []retrieval.Fact {
	facts, err := e.planner.Retrieve(runCtx.Context, text)
	if err != nil {
		var unavailable *core.RetrievalUnavailableError
		if errors.As(err, &unavailable) {
			runCtx.LogWarn("engine.retrieval.degraded", "run_id", runCtx.RunID, "error", err)
			return nil
		}
		runCtx.LogWarn("engine.retrieval.failed", "run_id", runCtx.RunID, "error", err)
		return nil
	}
	return facts
}

// complete calls the model with a bounded timeout, retrying once on a
// transient failure.
func (e *Engine) complete(runCtx *core.RunContext, req *model.Request) (*model.Reply, error) {
	var reply *model.Reply
	err := util.Retry(runCtx.Context, 2, e.opts.RetryBackoff, func() error {
		ctx, cancel := context.WithTimeout(runCtx.Context, e.opts.ModelTimeout)
		defer cancel()

		var completeErr error
		reply, completeErr = e.model.Complete(ctx, *req)
		return completeErr
	})
	if err != nil {
		return nil, fmt.Errorf("model complete: %w", err)
	}
	return reply, nil
}

// executeCalls runs every invocation the model requested, in order. Each call
// always yields a result, failed or not, so the model can observe mistakes
// and correct itself on the next iteration. Tool effects are permanent; there
// is no rollback for earlier calls in the batch.
func (e *Engine) executeCalls(runCtx *core.RunContext, calls []core.ToolInvocation) []core.ToolResult {
	results := make([]core.ToolResult, 0, len(calls))
	for _, call := range calls {
		toolCtx := core.NewToolContext(runCtx, call.ID)
		results = append(results, e.registry.Execute(toolCtx, call))
	}
	return results
}

func truncatedAnswer(lastText string) string {
	if lastText == "" {
		return truncatedNotice
	}
	return lastText + "\n\n" + truncatedNotice
}

// apologyFor maps an internal failure onto a user-facing reply.
func apologyFor(err error) string {
	var rateLimited *core.RateLimitError
	if errors.As(err, &rateLimited) {
		return apologyRateLim
	}
	return apologyGeneric
}
