package solver

import "fmt"

// Registry holds adapters in registration order. It is an owned object
// constructed by the orchestrator, not process-wide state, and the order is
// stable run-to-run for the same adapter set.
type Registry struct {
	order    []string
	adapters map[string]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register adds an adapter under its own name. Empty or duplicate names are
// rejected so result keys stay unambiguous.
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return fmt.Errorf("solver: cannot register nil adapter")
	}
	name := a.Name()
	if name == "" {
		return fmt.Errorf("solver: adapter has empty name")
	}
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("solver: adapter %q already registered", name)
	}
	r.adapters[name] = a
	r.order = append(r.order, name)
	return nil
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns all registered adapter names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Available returns the names of adapters whose engines are ready to run,
// preserving registration order.
func (r *Registry) Available() []string {
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.adapters[name].Available() {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int { return len(r.order) }
