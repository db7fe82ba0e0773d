package core

import (
	"time"

	"github.com/google/uuid"
)

// Conversation roles. Turns carry exactly one of these.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolInvocation is a structured request from the model to execute a named
// tool with parsed arguments. Produced by model adapters, consumed by the
// dispatch loop.
type ToolInvocation struct {
	ID        string         `json:"id,omitempty"` // Provider-issued call id, correlates request and result
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the outcome of executing a ToolInvocation. It is injected back
// into the conversation as a tool-role turn so the model can observe it.
type ToolResult struct {
	ID      string `json:"id,omitempty"` // Matches the originating ToolInvocation ID
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Payload any    `json:"payload,omitempty"` // Successful result (any JSON-serializable shape)
	Error   string `json:"error,omitempty"`   // Populated when OK is false
}

// Turn is a single entry in a conversation: a user message, an assistant reply
// (optionally carrying tool invocations), or a batch of tool results.
type Turn struct {
	Role        string           `json:"role"`
	Content     string           `json:"content,omitempty"`
	ToolCalls   []ToolInvocation `json:"tool_calls,omitempty"`
	ToolResults []ToolResult     `json:"tool_results,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// NewUserTurn creates a user-authored text turn.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text, Timestamp: time.Now().UTC()}
}

// NewAssistantTurn creates an assistant text turn.
func NewAssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Content: text, Timestamp: time.Now().UTC()}
}

// NewToolCallTurn creates an assistant turn requesting tool execution. The
// optional text carries any model commentary emitted alongside the calls.
func NewToolCallTurn(text string, calls []ToolInvocation) Turn {
	return Turn{Role: RoleAssistant, Content: text, ToolCalls: calls, Timestamp: time.Now().UTC()}
}

// NewToolResultTurn creates a tool-role turn carrying execution results.
func NewToolResultTurn(results []ToolResult) Turn {
	return Turn{Role: RoleTool, ToolResults: results, Timestamp: time.Now().UTC()}
}

// NewID generates a unique identifier for runs and tool calls.
func NewID() string { return uuid.NewString() }
