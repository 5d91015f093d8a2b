package tools

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is the read-heavy tool catalog. It is populated from
// configuration at startup, sealed, and then shared across all concurrent
// sessions without further synchronization concerns.
//
//nolint:govet // fieldalignment: logical grouping preferred over memory optimization
type Registry struct {
	mu     sync.RWMutex
	sealed bool
	order  []string
	tools  map[string]ToolDefinition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolDefinition)}
}

// Register adds a tool definition. It fails with DuplicateToolError if the
// identifier already exists, and rejects registration after Seal.
func (r *Registry) Register(def ToolDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("registry sealed - cannot register tool %q", def.Name)
	}
	if _, exists := r.tools[def.Name]; exists {
		return &DuplicateToolError{Name: def.Name}
	}

	r.tools[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Seal prevents further registrations. Called once startup configuration
// has been loaded.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Lookup returns the definition for the given identifier, failing with
// UnknownToolError if absent.
func (r *Registry) Lookup(name string) (ToolDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.tools[name]
	if !exists {
		return ToolDefinition{}, &UnknownToolError{Name: name}
	}
	return def, nil
}

// List returns all definitions in registration order.
func (r *Registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// ListByTier returns all definitions of the given tier in registration order.
func (r *Registry) ListByTier(tier CostTier) []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []ToolDefinition
	for _, name := range r.order {
		if def := r.tools[name]; def.Tier == tier {
			result = append(result, def)
		}
	}
	return result
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// PromptDocumentation renders a markdown tool menu for reasoning prompts,
// including tier and prerequisite hints so the model can self-select
// eligible tools.
func (r *Registry) PromptDocumentation() string {
	defs := r.List()
	if len(defs) == 0 {
		return "No tools available"
	}

	var doc strings.Builder
	doc.WriteString("## Available Tools\n\n")
	for i := range defs {
		def := &defs[i]
		doc.WriteString(fmt.Sprintf("- **%s** (%s tier) - %s\n", def.Name, def.Tier, def.Description))
		if def.RequiresHint != "" {
			doc.WriteString(fmt.Sprintf("  - Requires: %s\n", def.RequiresHint))
		}
		if len(def.InputSchema.Required) > 0 {
			doc.WriteString(fmt.Sprintf("  - Parameters: %s\n", strings.Join(def.InputSchema.Required, ", ")))
		}
	}
	return doc.String()
}
