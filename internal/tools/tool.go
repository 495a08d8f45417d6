package tools

import (
	"context"
	"fmt"
)

// Tool is a capability the model can request with NAME(args) in its reply
type Tool interface {
	Name() string
	// Args is the argument signature shown to the model, e.g. "(query: string)"
	Args() string
	Description() string
	// Invoke runs the tool with the raw argument text between the parentheses
	Invoke(ctx context.Context, raw string) (string, error)
}

// Registry holds the tools available to the agent, in registration order
type Registry struct {
	byName map[string]Tool
	order  []Tool
}

// NewRegistry creates a registry holding the given tools
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool)}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool; names must be unique
func (r *Registry) Register(t Tool) error {
	if _, exists := r.byName[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.byName[t.Name()] = t
	r.order = append(r.order, t)
	return nil
}

// Lookup returns the tool registered under name
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// All returns the registered tools in registration order
func (r *Registry) All() []Tool {
	out := make([]Tool, len(r.order))
	copy(out, r.order)
	return out
}
