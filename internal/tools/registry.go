package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/penta/llm-email-classifier/internal/core"
)

// ErrToolNotFound is returned when calling a tool name that was never registered
var ErrToolNotFound = errors.New("tool not found")

// Handler is the callable behind a registered tool
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Definition describes one registered tool
type Definition struct {
	Name        string
	Description string
	// InputSchema is a JSON-schema object describing accepted arguments
	InputSchema map[string]interface{}
	Handler     Handler
}

// Registry maps tool names to definitions and executes them by name.
// Re-registering a name silently overwrites the previous definition.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Definition
	order []string
}

// NewRegistry creates an empty tool registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Definition)}
}

// Register adds a tool definition, overwriting any previous registration
// under the same name
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.tools[def.Name] = def
}

// Execute runs a tool by name. A handler error or panic is converted into a
// structured {error, tool} result instead of propagating; only an
// unregistered name returns a Go error.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) (result interface{}, err error) {
	r.mu.RLock()
	def, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = errorResult(name, fmt.Sprintf("panic: %v", rec))
			err = nil
		}
	}()

	out, handlerErr := def.Handler(ctx, args)
	if handlerErr != nil {
		return errorResult(name, handlerErr.Error()), nil
	}
	return out, nil
}

func errorResult(tool, message string) map[string]interface{} {
	return map[string]interface{}{"error": message, "tool": tool}
}

// Specs returns the registered definitions in a vendor-neutral form, in
// registration order
func (r *Registry) Specs() []core.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]core.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		specs = append(specs, core.ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return specs
}

// ForAnthropic produces the flat {name, description, input_schema} form
func (r *Registry) ForAnthropic() []map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]map[string]interface{}, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		out = append(out, map[string]interface{}{
			"name":         def.Name,
			"description":  def.Description,
			"input_schema": def.InputSchema,
		})
	}
	return out
}

// ForOpenAI produces the nested {type: "function", function: {...}} form
func (r *Registry) ForOpenAI() []map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]map[string]interface{}, 0, len(r.order))
	for _, name := range r.order {
		def := r.tools[name]
		out = append(out, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        def.Name,
				"description": def.Description,
				"parameters":  def.InputSchema,
			},
		})
	}
	return out
}

// Names lists registered tool names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Count returns the number of registered tools
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
