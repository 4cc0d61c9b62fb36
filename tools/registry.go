package tools

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ostraca-ai/agentloop/pkg/chat"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry is an ordered collection of tools exposed to the model.
// Registration order is preserved in the published definitions.
// Lookup is case-insensitive. The registry is safe for concurrent reads
// across invocations; tools themselves must be safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools *orderedmap.OrderedMap[string, ITool]
	names []string
}

// NewRegistry creates a Registry with the given tools.
func NewRegistry(list ...ITool) *Registry {
	r := &Registry{
		tools: orderedmap.New[string, ITool](),
	}
	r.Register(list...)
	return r
}

// Register adds tools to the registry. A tool with an already
// registered name is skipped, existing tools are not replaced.
func (r *Registry) Register(list ...ITool) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range list {
		key := strings.ToLower(tool.Name())
		if _, ok := r.tools.Get(key); ok {
			continue
		}
		r.tools.Set(key, tool)
		r.names = append(r.names, tool.Name())
	}
	return r
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (ITool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools.Get(strings.ToLower(name))
	if !ok {
		return nil, errors.Mark(errors.Newf("tool %s is not registered, available tools: %s",
			name, strings.Join(r.names, ", ")), ErrUnknownTool)
	}
	return tool, nil
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools.Len()
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []ITool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ITool, 0, r.tools.Len())
	for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Definitions returns the tool schema set to publish to the model,
// in registration order.
func (r *Registry) Definitions() []chat.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]chat.ToolDefinition, 0, r.tools.Len())
	for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
		tool := pair.Value
		params, _ := json.Marshal(tool.Parameters())
		out = append(out, chat.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  params,
		})
	}
	return out
}
