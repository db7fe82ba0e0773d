// Package gemini adapts the Google Gemini API to the generic model.Model
// interface, including function calling.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/model"
)

// Options configure the Gemini model adapter.
type Options struct {
	Model       string
	Temperature float32
	APIKey      string
}

// Model wraps the Gemini API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a Gemini model, dialing a new client with the configured
// API key.
func NewModel(ctx context.Context, optFns ...func(o *Options)) (*Model, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.ClientOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini client init: %w", err)
	}

	return NewModelFromClient(client, optFns...), nil
}

// NewModelFromClient creates a Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:       "gemini-1.5-flash",
		Temperature: 0.7,
	}
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Provider: "gemini", Name: m.opts.Model}
}

// Complete implements model.Model. The conversation travels as chat history
// with the final turn sent as the message; tool results become function
// response parts.
func (m *Model) Complete(ctx context.Context, req model.Request) (*model.Reply, error) {
	gm := m.client.GenerativeModel(m.opts.Model)
	gm.SetTemperature(m.opts.Temperature)
	if req.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	if req.Instructions != "" {
		gm.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.Instructions)},
		}
	}

	if len(req.Tools) > 0 {
		gm.Tools = []*genai.Tool{{FunctionDeclarations: buildDeclarations(req.Tools)}}
	}

	contents := buildContents(req.Turns)
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini: request carries no sendable turns")
	}

	chat := gm.StartChat()
	chat.History = contents[:len(contents)-1]

	resp, err := chat.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: empty response")
	}

	reply := &model.Reply{}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			reply.Text += string(p)
		case genai.FunctionCall:
			reply.ToolCalls = append(reply.ToolCalls, core.ToolInvocation{
				ID:        core.NewID(), // Gemini issues no call ids, mint one for correlation
				Name:      p.Name,
				Arguments: p.Args,
			})
		}
	}

	return reply, nil
}

// buildContents converts conversation turns into genai contents. Gemini has
// no tool role: results are function response parts inside a user-role
// content.
func buildContents(turns []core.Turn) []*genai.Content {
	var contents []*genai.Content

	for _, turn := range turns {
		switch turn.Role {
		case core.RoleUser:
			if turn.Content != "" {
				contents = append(contents, &genai.Content{
					Role:  "user",
					Parts: []genai.Part{genai.Text(turn.Content)},
				})
			}
		case core.RoleAssistant:
			var parts []genai.Part
			if turn.Content != "" {
				parts = append(parts, genai.Text(turn.Content))
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: call.Arguments})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "model", Parts: parts})
			}
		case core.RoleTool:
			var parts []genai.Part
			for _, result := range turn.ToolResults {
				parts = append(parts, genai.FunctionResponse{
					Name:     result.Name,
					Response: responsePayload(result),
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: "user", Parts: parts})
			}
		}
	}

	return contents
}

// responsePayload shapes a tool result into the map the API expects.
func responsePayload(result core.ToolResult) map[string]any {
	if !result.OK {
		return map[string]any{"error": result.Error}
	}
	if m, ok := result.Payload.(map[string]any); ok {
		return m
	}
	return map[string]any{"result": result.Payload}
}

// buildDeclarations converts generic tool definitions into genai function
// declarations, translating the JSON schema into genai.Schema.
func buildDeclarations(tools []model.ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, tool := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toSchema(tool.Parameters),
		}
	}
	return decls
}

// toSchema translates a JSON-schema map into a genai.Schema. Supports the
// subset produced by util.CreateSchema: scalar types, objects, arrays,
// descriptions and required fields.
func toSchema(params map[string]any) *genai.Schema {
	if params == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	schema := &genai.Schema{Type: schemaType(params["type"])}

	if desc, ok := params["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				schema.Properties[name] = toSchema(sub)
			}
		}
	}

	if items, ok := params["items"].(map[string]any); ok {
		schema.Items = toSchema(items)
	}

	switch req := params["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	return schema
}

func schemaType(t any) genai.Type {
	s, _ := t.(string)
	switch s {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object", "":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

// classify maps Gemini API failures onto the shared error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.TransientNetworkError{Op: "complete", Err: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return &core.RateLimitError{Provider: "gemini"}
		case apiErr.Code >= 500:
			return &core.TransientNetworkError{Op: "complete", Err: err}
		}
	}

	return fmt.Errorf("gemini: %w", err)
}
