// Package openai adapts the OpenAI Chat Completions API to the generic
// model.Model interface, including function/tool calling.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	oai "github.com/openai/openai-go"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/model"
)

// Options configure the OpenAI model adapter. Fields mirror a minimal subset
// of Chat Completion parameters; extend via functional options without
// breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *oai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	client := oai.NewClient()
	return NewModelFromClient(&client, optFns...)
}

// NewModelFromClient creates a new OpenAI model from an existing client
func NewModelFromClient(client *oai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               oai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Provider: "openai", Name: m.opts.Model}
}

// Complete implements model.Model.
func (m *Model) Complete(ctx context.Context, req model.Request) (*model.Reply, error) {
	params := m.buildParams(req)

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}

	msg := resp.Choices[0].Message
	reply := &model.Reply{Text: msg.Content}

	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("openai: malformed tool arguments for %s: %w", tc.Function.Name, err)
			}
		}
		reply.ToolCalls = append(reply.ToolCalls, core.ToolInvocation{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return reply, nil
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(req model.Request) oai.ChatCompletionNewParams {
	var messages []oai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, oai.SystemMessage(req.Instructions))
	}

	for _, turn := range req.Turns {
		switch turn.Role {
		case core.RoleUser:
			messages = append(messages, oai.UserMessage(turn.Content))
		case core.RoleAssistant:
			if len(turn.ToolCalls) == 0 {
				messages = append(messages, oai.AssistantMessage(turn.Content))
				continue
			}
			toolCalls := make([]oai.ChatCompletionMessageToolCallParam, 0, len(turn.ToolCalls))
			for _, call := range turn.ToolCalls {
				toolCalls = append(toolCalls, oai.ChatCompletionMessageToolCallParam{
					ID:   call.ID,
					Type: "function",
					Function: oai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: marshalArguments(call.Arguments),
					},
				})
			}
			messages = append(
				messages,
				oai.ChatCompletionMessageParamUnion{OfAssistant: &oai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				}},
			)
		case core.RoleTool:
			for _, result := range turn.ToolResults {
				messages = append(messages, oai.ToolMessage(marshalResult(result), result.ID))
			}
		}
	}

	maxTokens := m.opts.MaxCompletionTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := oai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         oai.Float(m.opts.Temperature),
		MaxCompletionTokens: oai.Int(maxTokens),
	}

	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]oai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = oai.ChatCompletionToolParam{
			Type: "function",
			Function: oai.FunctionDefinitionParam{
				Name:        tdef.Name,
				Description: oai.String(tdef.Description),
				Parameters:  tdef.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

// marshalArguments serializes parsed tool arguments back into the JSON string
// the wire format expects.
func marshalArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// marshalResult renders a tool result as the message content for a tool-role
// message. Failures carry the error text so the model can react to them.
func marshalResult(result core.ToolResult) string {
	if !result.OK {
		return fmt.Sprintf(`{"error": %q}`, result.Error)
	}
	b, err := json.Marshal(result.Payload)
	if err != nil {
		return fmt.Sprintf("%v", result.Payload)
	}
	return string(b)
}

// classify maps OpenAI API failures onto the shared error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.TransientNetworkError{Op: "complete", Err: err}
	}

	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return &core.RateLimitError{Provider: "openai"}
		case apiErr.StatusCode >= 500:
			return &core.TransientNetworkError{Op: "complete", Err: err}
		}
	}

	return fmt.Errorf("openai: %w", err)
}
