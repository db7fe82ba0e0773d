// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/model"
)

// Options configures the Anthropic model adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Provider: "anthropic", Name: string(m.opts.Model)}
}

// Complete implements model.Model.
func (m *Model) Complete(ctx context.Context, req model.Request) (*model.Reply, error) {
	maxTokens := m.opts.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    buildMessages(req.Turns),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}

	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}

	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}

	reply := &model.Reply{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			reply.Text += textBlock.Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := map[string]any{}
			if toolBlock.Input != nil {
				if err := json.Unmarshal(toolBlock.Input, &args); err != nil {
					return nil, fmt.Errorf("anthropic: malformed tool input for %s: %w", toolBlock.Name, err)
				}
			}
			reply.ToolCalls = append(reply.ToolCalls, core.ToolInvocation{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}

	return reply, nil
}

// buildMessages converts conversation turns to Anthropic message format. Tool
// results travel in user-role messages as tool_result blocks, matching the
// Messages API contract.
func buildMessages(turns []core.Turn) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, turn := range turns {
		switch turn.Role {
		case core.RoleUser:
			if turn.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
			}
		case core.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if turn.Content != "" {
				content = append(content, anthropic.NewTextBlock(turn.Content))
			}
			for _, call := range turn.ToolCalls {
				var input any = map[string]any{}
				if call.Arguments != nil {
					input = call.Arguments
				}
				content = append(content, anthropic.NewToolUseBlock(call.ID, input, call.Name))
			}
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		case core.RoleTool:
			var content []anthropic.ContentBlockParamUnion
			for _, result := range turn.ToolResults {
				content = append(content, anthropic.NewToolResultBlock(result.ID, renderResult(result), !result.OK))
			}
			if len(content) > 0 {
				messages = append(messages, anthropic.NewUserMessage(content...))
			}
		}
	}

	return messages
}

// renderResult serializes a tool result payload into the block content.
func renderResult(result core.ToolResult) string {
	if !result.OK {
		return result.Error
	}
	b, err := json.Marshal(result.Payload)
	if err != nil {
		return fmt.Sprintf("%v", result.Payload)
	}
	return string(b)
}

// buildTools converts generic tool definitions to Anthropic tool format
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))

	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if tool.Parameters != nil {
			if properties, exists := tool.Parameters["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := tool.Parameters["required"]; exists {
				switch req := required.(type) {
				case []string:
					inputSchema.Required = req
				case []any:
					var reqStrings []string
					for _, r := range req {
						if s, ok := r.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}

		anthropicTools[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
	}

	return anthropicTools
}

// classify maps Anthropic API failures onto the shared error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.TransientNetworkError{Op: "complete", Err: err}
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return &core.RateLimitError{Provider: "anthropic"}
		case apiErr.StatusCode >= 500:
			return &core.TransientNetworkError{Op: "complete", Err: err}
		}
	}

	return fmt.Errorf("anthropic: %w", err)
}
