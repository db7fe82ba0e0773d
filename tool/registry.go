package tool

import (
	"fmt"
	"sort"

	"github.com/leobot/leo/core"
	"github.com/leobot/leo/model"
)

// Registry holds the tools exposed to the model and routes invocations to
// them. Registration happens once at startup; lookups afterwards are
// read-only, so no locking is needed.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry over the given tools. Duplicate names are a
// configuration error.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if _, ok := r.tools[t.Name()]; ok {
			return nil, fmt.Errorf("duplicate tool name: %s", t.Name())
		}
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r, nil
}

// Get returns the named tool, or false when unknown.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Definitions renders the registered tools as provider-neutral definitions,
// in registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}

// Execute runs one invocation and always returns a ToolResult, never panics
// the loop: an unknown tool name or a tool failure becomes a failed result
// the model can observe and react to.
func (r *Registry) Execute(toolCtx *core.ToolContext, call core.ToolInvocation) core.ToolResult {
	t, ok := r.Get(call.Name)
	if !ok {
		toolCtx.LogWarn("tool.unknown", "tool", call.Name, "fc_id", call.ID)

		return core.ToolResult{
			ID:    call.ID,
			Name:  call.Name,
			OK:    false,
			Error: fmt.Sprintf("unknown tool: %s", call.Name),
		}
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	payload, err := t.Call(toolCtx, args)
	if err != nil {
		return core.ToolResult{
			ID:    call.ID,
			Name:  call.Name,
			OK:    false,
			Error: err.Error(),
		}
	}

	return core.ToolResult{
		ID:      call.ID,
		Name:    call.Name,
		OK:      true,
		Payload: payload,
	}
}
