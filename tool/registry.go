package tool

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nutriscan/labagent/model"
)

// Registry holds the ordered tool catalog for a run. It compiles each tool's
// parameter schema at registration time and exposes the catalog in the
// neutral definition format provider adapters translate from. The registry
// never executes anything.
type Registry struct {
	order   []string
	tools   map[string]Tool
	schemas map[string]*jsonschema.Schema
}

// NewRegistry creates a registry with the given tools registered in order.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools:   make(map[string]Tool),
		schemas: make(map[string]*jsonschema.Schema),
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool to the catalog. Registration order is preserved in
// Definitions. Duplicate names and uncompilable schemas are rejected.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}

	raw, err := json.Marshal(t.Parameters())
	if err != nil {
		return fmt.Errorf("tool %q: marshal parameter schema: %w", name, err)
	}
	schema, err := jsonschema.CompileString(name+".json", string(raw))
	if err != nil {
		return fmt.Errorf("tool %q: compile parameter schema: %w", name, err)
	}

	r.order = append(r.order, name)
	r.tools[name] = t
	r.schemas[name] = schema
	return nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions returns the catalog in registration order, in the neutral
// shape provider adapters consume.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Validate checks args against the compiled parameter schema of name.
func (r *Registry) Validate(name string, args map[string]any) error {
	schema, ok := r.schemas[name]
	if !ok {
		return fmt.Errorf("tool %q not registered", name)
	}
	// The validator rejects map[string]any containing non-JSON values, so
	// args must come from json.Unmarshal.
	if err := schema.Validate(map[string]any(args)); err != nil {
		return err
	}
	return nil
}
