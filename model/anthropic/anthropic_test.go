package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leobot/leo/core"
)

func TestBuildMessages(t *testing.T) {
	t.Run("first-contact tool exchange opens with a user message", func(t *testing.T) {
		// The Messages API rejects any request whose first message is not
		// user-role, so a fresh session mid tool exchange must still lead
		// with the user turn.
		turns := []core.Turn{
			core.NewUserTurn("remind me about the match"),
			core.NewToolCallTurn("", []core.ToolInvocation{{
				ID:        "fc-1",
				Name:      "create_calendar_event",
				Arguments: map[string]any{"summary": "A vs B"},
			}}),
			core.NewToolResultTurn([]core.ToolResult{{
				ID:      "fc-1",
				Name:    "create_calendar_event",
				OK:      true,
				Payload: map[string]any{"message": "event created"},
			}}),
		}

		messages := buildMessages(turns)

		require.Len(t, messages, 3)
		assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
		assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)
		// Tool results travel as tool_result blocks in a user-role message.
		assert.Equal(t, anthropic.MessageParamRoleUser, messages[2].Role)
		require.Len(t, messages[2].Content, 1)
		require.NotNil(t, messages[2].Content[0].OfToolResult)
		assert.Equal(t, "fc-1", messages[2].Content[0].OfToolResult.ToolUseID)
	})

	t.Run("failed results are flagged as errors", func(t *testing.T) {
		turns := []core.Turn{
			core.NewUserTurn("do something odd"),
			core.NewToolCallTurn("", []core.ToolInvocation{{ID: "fc-2", Name: "does_not_exist"}}),
			core.NewToolResultTurn([]core.ToolResult{{
				ID:    "fc-2",
				Name:  "does_not_exist",
				OK:    false,
				Error: "unknown tool: does_not_exist",
			}}),
		}

		messages := buildMessages(turns)

		require.Len(t, messages, 3)
		block := messages[2].Content[0].OfToolResult
		require.NotNil(t, block)
		assert.True(t, block.IsError.Value)
	})
}
