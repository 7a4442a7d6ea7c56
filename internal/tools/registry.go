// Package tools holds the tool registry exposed to the conversational
// chat node. Tools are named functions the model can call with JSON
// arguments during free conversation.
package tools

import (
	"context"
	"fmt"

	"github.com/casamind/casamind/pkg/types"
)

// Tool is one callable exposed to the chat model.
type Tool interface {
	// Definition is the schema advertised to the model.
	Definition() types.ToolDefinition
	// Execute runs the tool with the raw JSON argument payload and
	// returns the text fed back to the model.
	Execute(ctx context.Context, arguments string) (string, error)
}

// Registry maps tool names to implementations.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering the same name twice replaces the
// earlier tool.
func (r *Registry) Register(t Tool) {
	name := t.Definition().Name
	if _, ok := r.tools[name]; !ok {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Definitions returns the advertised schemas in registration order.
func (r *Registry) Definitions() []types.ToolDefinition {
	out := make([]types.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Definition())
	}
	return out
}

// Execute dispatches one tool call. Unknown tools and tool failures are
// returned as error text rather than errors so the model can recover.
func (r *Registry) Execute(ctx context.Context, call types.ToolCall) string {
	tool, ok := r.tools[call.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Name)
	}
	result, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return result
}
