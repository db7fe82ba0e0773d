package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/logging"
)

func newToolContext(t *testing.T) *core.ToolContext {
	t.Helper()
	runCtx := core.NewRunContext(context.Background(), "user-1", "run-1", 0, 0, logging.NoOpLogger{})
	return core.NewToolContext(runCtx, "fc-1")
}

func TestFunctionTool(t *testing.T) {
	sumTool := NewFunctionTool(
		"calculate_sum",
		"Calculate the sum of two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)

	t.Run("valid arguments execute", func(t *testing.T) {
		result, err := sumTool.Call(newToolContext(t), map[string]any{"a": 2.0, "b": 3.0})
		require.NoError(t, err)
		assert.Equal(t, 5.0, result)
	})

	t.Run("missing required argument fails validation", func(t *testing.T) {
		_, err := sumTool.Call(newToolContext(t), map[string]any{"a": 2.0})

		var toolErr *ToolError
		require.True(t, errors.As(err, &toolErr))
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
		assert.Equal(t, "calculate_sum", toolErr.Tool)
	})

	t.Run("wrong argument type fails validation", func(t *testing.T) {
		_, err := sumTool.Call(newToolContext(t), map[string]any{"a": "two", "b": 3.0})

		var toolErr *ToolError
		require.True(t, errors.As(err, &toolErr))
		assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
	})

	t.Run("function error becomes execution error", func(t *testing.T) {
		failing := NewFunctionTool("broken", "Always fails", map[string]any{"type": "object"},
			func(_ *core.ToolContext, _ map[string]any) (any, error) {
				return nil, errors.New("boom")
			})

		_, err := failing.Call(newToolContext(t), map[string]any{})

		var toolErr *ToolError
		require.True(t, errors.As(err, &toolErr))
		assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
		assert.Equal(t, "boom", toolErr.Message)
	})

	t.Run("custom tool error passes through", func(t *testing.T) {
		custom := NewFunctionTool("custom", "Returns a custom code", map[string]any{"type": "object"},
			func(_ *core.ToolContext, _ map[string]any) (any, error) {
				return nil, NewToolError("custom", "quota exhausted", "QUOTA")
			})

		_, err := custom.Call(newToolContext(t), map[string]any{})

		var toolErr *ToolError
		require.True(t, errors.As(err, &toolErr))
		assert.Equal(t, "QUOTA", toolErr.Code)
	})
}

func TestFunctionToolFromStruct(t *testing.T) {
	type echoArgs struct {
		Message string `json:"message" description:"Text to echo back"`
		Count   *int   `json:"count,omitempty" description:"Optional repeat count"`
	}

	echo := NewFunctionToolFromStruct("echo", "Echo a message", echoArgs{},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			return args["message"], nil
		})

	params := echo.Parameters()
	assert.Equal(t, "object", params["type"])

	required, ok := params["required"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"message"}, required)

	result, err := echo.Call(newToolContext(t), map[string]any{"message": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestRegistry(t *testing.T) {
	ping := NewFunctionTool("ping", "Reply with pong", map[string]any{"type": "object"},
		func(_ *core.ToolContext, _ map[string]any) (any, error) {
			return "pong", nil
		})

	t.Run("duplicate names rejected", func(t *testing.T) {
		_, err := NewRegistry(ping, ping)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate tool name")
	})

	t.Run("definitions preserve registration order", func(t *testing.T) {
		other := NewFunctionTool("a_tool", "First alphabetically", map[string]any{"type": "object"},
			func(_ *core.ToolContext, _ map[string]any) (any, error) { return nil, nil })

		registry, err := NewRegistry(ping, other)
		require.NoError(t, err)

		defs := registry.Definitions()
		require.Len(t, defs, 2)
		assert.Equal(t, "ping", defs[0].Name)
		assert.Equal(t, "a_tool", defs[1].Name)

		assert.Equal(t, []string{"a_tool", "ping"}, registry.Names(), "names sort alphabetically")
	})

	t.Run("execute routes to the named tool", func(t *testing.T) {
		registry, err := NewRegistry(ping)
		require.NoError(t, err)

		result := registry.Execute(newToolContext(t), core.ToolInvocation{ID: "fc-1", Name: "ping"})
		assert.True(t, result.OK)
		assert.Equal(t, "pong", result.Payload)
		assert.Equal(t, "fc-1", result.ID)
	})

	t.Run("unknown tool yields failed result, not panic", func(t *testing.T) {
		registry, err := NewRegistry(ping)
		require.NoError(t, err)

		result := registry.Execute(newToolContext(t), core.ToolInvocation{ID: "fc-2", Name: "does_not_exist"})
		assert.False(t, result.OK)
		assert.Contains(t, result.Error, "unknown tool")
		assert.Equal(t, "fc-2", result.ID)
	})

	t.Run("tool failure yields failed result", func(t *testing.T) {
		failing := NewFunctionTool("broken", "Always fails", map[string]any{"type": "object"},
			func(_ *core.ToolContext, _ map[string]any) (any, error) {
				return nil, errors.New("boom")
			})

		registry, err := NewRegistry(failing)
		require.NoError(t, err)

		result := registry.Execute(newToolContext(t), core.ToolInvocation{ID: "fc-3", Name: "broken"})
		assert.False(t, result.OK)
		assert.Contains(t, result.Error, "boom")
	})
}
