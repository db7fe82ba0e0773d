package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/model"
	"github.com/leobot/leo/retrieval"
)

func TestComposerBuild(t *testing.T) {
	t.Run("sections assemble in order", func(t *testing.T) {
		composer, err := NewComposer()
		require.NoError(t, err)

		history := []core.Turn{
			core.NewUserTurn("hello"),
			core.NewAssistantTurn("hi, ask me about football"),
		}
		facts := []retrieval.Fact{
			{ID: "f1", Text: "On 2026-09-01 at 20:00, a match is scheduled.", Score: 0.9, Metadata: map[string]string{"league": "La Liga"}},
		}
		tools := []model.ToolDefinition{
			{Name: "create_calendar_event", Description: "Create a reminder", Parameters: map[string]any{"type": "object"}},
		}

		req, err := composer.Build(history, "who plays tomorrow?", nil, facts, tools)
		require.NoError(t, err)

		assert.Contains(t, req.Instructions, "You are Leo")
		assert.Contains(t, req.Instructions, "Context from memory:")
		assert.Contains(t, req.Instructions, "[La Liga]")
		require.Len(t, req.Turns, 3)
		assert.Equal(t, core.RoleUser, req.Turns[0].Role)
		assert.Equal(t, "who plays tomorrow?", req.Turns[2].Content)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "create_calendar_event", req.Tools[0].Name)
	})

	t.Run("history drops oldest first under budget pressure", func(t *testing.T) {
		composer, err := NewComposer(func(o *Options) {
			o.Instructions = "short"
			o.TokenBudget = 60
		})
		require.NoError(t, err)

		history := []core.Turn{
			core.NewUserTurn(strings.Repeat("old ", 60)),
			core.NewAssistantTurn("recent short reply"),
		}

		req, err := composer.Build(history, "now", nil, nil, nil)
		require.NoError(t, err)

		require.Len(t, req.Turns, 2, "oldest turn trimmed")
		assert.Equal(t, "recent short reply", req.Turns[0].Content)
		assert.Equal(t, "now", req.Turns[1].Content)
	})

	t.Run("lowest scored facts drop first", func(t *testing.T) {
		composer, err := NewComposer(func(o *Options) {
			o.Instructions = "short"
			o.TokenBudget = 40
		})
		require.NoError(t, err)

		facts := []retrieval.Fact{
			{ID: "best", Text: strings.Repeat("a", 60), Score: 0.95},
			{ID: "worst", Text: strings.Repeat("b", 60), Score: 0.55},
		}

		req, err := composer.Build(nil, "q", nil, facts, nil)
		require.NoError(t, err)

		assert.Contains(t, req.Instructions, strings.Repeat("a", 60))
		assert.NotContains(t, req.Instructions, strings.Repeat("b", 60))
	})

	t.Run("in-flight tool turns follow the current user turn", func(t *testing.T) {
		composer, err := NewComposer()
		require.NoError(t, err)

		pending := []core.Turn{
			core.NewToolCallTurn("", []core.ToolInvocation{{ID: "fc-1", Name: "create_calendar_event"}}),
			core.NewToolResultTurn([]core.ToolResult{{ID: "fc-1", Name: "create_calendar_event", OK: true}}),
		}

		req, err := composer.Build(nil, "remind me about the match", pending, nil, nil)
		require.NoError(t, err)

		// A first-contact exchange must still open with the user turn, or
		// provider APIs reject the message list outright.
		require.Len(t, req.Turns, 3)
		assert.Equal(t, core.RoleUser, req.Turns[0].Role)
		assert.Equal(t, core.RoleAssistant, req.Turns[1].Role)
		assert.Equal(t, core.RoleTool, req.Turns[2].Role)
	})

	t.Run("rendered facts and header stay inside the budget", func(t *testing.T) {
		composer, err := NewComposer(func(o *Options) {
			o.Instructions = "short"
			o.TokenBudget = 26
		})
		require.NoError(t, err)

		facts := []retrieval.Fact{
			{ID: "f1", Text: strings.Repeat("a", 40), Score: 0.9, Metadata: map[string]string{"league": "Premier League"}},
		}

		req, err := composer.Build(nil, "q", nil, facts, nil)
		require.NoError(t, err)

		// The context header and citation tag count against the budget, so
		// a fact whose rendered line does not fit is dropped.
		assert.NotContains(t, req.Instructions, strings.Repeat("a", 40))

		total := estimateTokens(req.Instructions) + estimateToolTokens(req.Tools)
		for _, turn := range req.Turns {
			total += estimateTurnTokens(turn)
		}
		assert.LessOrEqual(t, total, 26)
	})

	t.Run("fixed sections over budget fail deterministically", func(t *testing.T) {
		composer, err := NewComposer(func(o *Options) {
			o.Instructions = strings.Repeat("x", 400)
			o.TokenBudget = 20
		})
		require.NoError(t, err)

		_, err = composer.Build(nil, "q", nil, nil, nil)

		var tooLarge *core.PromptTooLargeError
		require.True(t, errors.As(err, &tooLarge))
		assert.Equal(t, 20, tooLarge.Budget)
		assert.Greater(t, tooLarge.Required, tooLarge.Budget)

		// Deterministic: same inputs, same failure.
		_, err2 := composer.Build(nil, "q", nil, nil, nil)
		assert.Equal(t, err, err2)
	})

	t.Run("instruction template expands at construction", func(t *testing.T) {
		composer, err := NewComposer(func(o *Options) {
			o.Instructions = "You are {{.name}}, a football assistant."
			o.TemplateState = map[string]any{"name": "Leo"}
		})
		require.NoError(t, err)

		req, err := composer.Build(nil, "hi", nil, nil, nil)
		require.NoError(t, err)
		assert.Contains(t, req.Instructions, "You are Leo")
	})

	t.Run("bad instruction template fails construction", func(t *testing.T) {
		_, err := NewComposer(func(o *Options) {
			o.Instructions = "{{.broken"
		})
		require.Error(t, err)
	})
}
