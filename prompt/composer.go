// Package prompt assembles bounded completion requests from instructions,
// retrieved facts and conversation history.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/internal/util"
	"github.com/leobot/leo/model"
	"github.com/leobot/leo/retrieval"
)

// DefaultInstructions is the assistant persona. Callers may override it via
// Options, optionally with {{.placeholders}} expanded through the template
// state.
const DefaultInstructions = `You are Leo, a friendly and passionate football assistant.
You answer questions about matches using the context provided below.
If the context does not contain the answer, say so honestly instead of guessing.
When the user asks for a reminder, call the create_calendar_event tool with the
match details from the context. Keep answers short and conversational.`

// Options configure a Composer.
type Options struct {
	// Instructions is the fixed system prompt, template-expandable.
	Instructions string
	// TemplateState feeds instruction template placeholders.
	TemplateState map[string]any
	// TokenBudget bounds the whole composed prompt. Zero means the default.
	TokenBudget int
}

// Composer builds model requests with a fixed section order: instructions,
// tool schemas, retrieved facts, history oldest to newest, current turn,
// then any in-flight tool exchange of the current turn. Trimming under
// budget pressure is deterministic: history drops oldest first, then facts
// drop lowest score first. The fixed sections never shrink; if they alone
// exceed the budget the composer fails with PromptTooLargeError.
type Composer struct {
	instructions string
	budget       int
}

// NewComposer creates a Composer, expanding instruction templates eagerly so
// misconfigured templates fail at startup rather than mid-conversation.
func NewComposer(optFns ...func(o *Options)) (*Composer, error) {
	opts := Options{
		Instructions: DefaultInstructions,
		TokenBudget:  8000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	instructions, err := util.RenderTemplate(opts.Instructions, opts.TemplateState)
	if err != nil {
		return nil, fmt.Errorf("render instructions: %w", err)
	}

	return &Composer{instructions: instructions, budget: opts.TokenBudget}, nil
}

// Build composes a model request from history, the current user text, the
// in-flight tool turns of the current exchange, the retrieved facts and the
// available tool definitions. Pending turns sit after the current user turn
// so the conversation always opens with a user role, and like the current
// turn they are never trimmed.
func (c *Composer) Build(
	history []core.Turn,
	current string,
	pending []core.Turn,
	facts []retrieval.Fact,
	tools []model.ToolDefinition,
) (*model.Request, error) {
	currentTurn := core.NewUserTurn(current)

	fixed := estimateTokens(c.instructions) + estimateToolTokens(tools) + estimateTurnTokens(currentTurn)
	for _, turn := range pending {
		fixed += estimateTurnTokens(turn)
	}
	if fixed > c.budget {
		return nil, &core.PromptTooLargeError{Budget: c.budget, Required: fixed}
	}
	remaining := c.budget - fixed

	facts, factTokens := trimFacts(facts, remaining)
	remaining -= factTokens

	history = trimHistory(history, remaining)

	turns := make([]core.Turn, 0, len(history)+1+len(pending))
	turns = append(turns, history...)
	turns = append(turns, currentTurn)
	turns = append(turns, pending...)

	return &model.Request{
		Instructions: c.renderInstructions(facts),
		Turns:        turns,
		Tools:        tools,
	}, nil
}

const contextHeader = "\n\nContext from memory:\n"

// renderInstructions appends the retrieved facts as a context section below
// the persona instructions. Facts carry their metadata so answers can cite
// league and date.
func (c *Composer) renderInstructions(facts []retrieval.Fact) string {
	if len(facts) == 0 {
		return c.instructions
	}

	var b strings.Builder
	b.WriteString(c.instructions)
	b.WriteString(contextHeader)
	for _, f := range facts {
		b.WriteString(factLine(f))
	}
	return b.String()
}

// factLine renders one fact exactly as it appears in the context section, so
// trimming charges the same text that rendering emits.
func factLine(f retrieval.Fact) string {
	line := "- " + f.Text
	if league := f.Metadata["league"]; league != "" {
		line += " [" + league + "]"
	}
	return line + "\n"
}

// trimFacts keeps the highest scored facts that fit the remaining budget.
// Input order is descending score, so trimming from the tail drops the
// lowest scores first. The first kept fact also pays for the section header.
func trimFacts(facts []retrieval.Fact, budget int) ([]retrieval.Fact, int) {
	total := 0
	kept := facts[:0:0]
	for _, f := range facts {
		cost := estimateTokens(factLine(f))
		if len(kept) == 0 {
			cost += estimateTokens(contextHeader)
		}
		if total+cost > budget {
			break
		}
		total += cost
		kept = append(kept, f)
	}
	return kept, total
}

// trimHistory keeps the newest turns that fit the remaining budget, dropping
// oldest first.
func trimHistory(history []core.Turn, budget int) []core.Turn {
	total := 0
	cut := len(history)
	for i := len(history) - 1; i >= 0; i-- {
		cost := estimateTurnTokens(history[i])
		if total+cost > budget {
			break
		}
		total += cost
		cut = i
	}
	return history[cut:]
}

// estimateTokens approximates token usage at four characters per token.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

func estimateTurnTokens(turn core.Turn) int {
	total := estimateTokens(turn.Content) + 4
	for _, call := range turn.ToolCalls {
		b, _ := json.Marshal(call)
		total += estimateTokens(string(b))
	}
	for _, result := range turn.ToolResults {
		b, _ := json.Marshal(result)
		total += estimateTokens(string(b))
	}
	return total
}

func estimateToolTokens(tools []model.ToolDefinition) int {
	total := 0
	for _, t := range tools {
		b, _ := json.Marshal(t)
		total += estimateTokens(string(b))
	}
	return total
}
