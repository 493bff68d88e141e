package action

import (
	"fmt"
	"sort"
	"sync"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

// Registry maps action types to handlers. It is built at startup and read
// during execution.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	ops      map[string]map[string]Operation
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		ops:      make(map[string]map[string]Operation),
	}
}

// Register adds a handler for actionType. The operation table is validated
// and copied here so lookups never see a nil operation.
func (r *Registry) Register(actionType string, h Handler) error {
	if actionType == "" {
		return fmt.Errorf("register: empty action type")
	}
	if h == nil {
		return fmt.Errorf("register %s: nil handler", actionType)
	}
	table := h.Operations()
	if len(table) == 0 {
		return fmt.Errorf("register %s: handler has no operations", actionType)
	}

	ops := make(map[string]Operation, len(table))
	for name, op := range table {
		if name == "" {
			return fmt.Errorf("register %s: empty operation name", actionType)
		}
		if op == nil {
			return fmt.Errorf("register %s: operation %s is nil", actionType, name)
		}
		ops[name] = op
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[actionType]; exists {
		return fmt.Errorf("register %s: action type already registered", actionType)
	}
	r.handlers[actionType] = h
	r.ops[actionType] = ops
	return nil
}

// MustRegister is Register that panics on error. Use it for built-ins.
func (r *Registry) MustRegister(actionType string, h Handler) {
	if err := r.Register(actionType, h); err != nil {
		panic(err)
	}
}

// Handler returns the handler for actionType, or ErrUnknownActionType.
func (r *Registry) Handler(actionType string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[actionType]
	if !ok {
		return nil, core.ErrUnknownActionType.WithMessage(fmt.Sprintf("unknown action type: %q", actionType))
	}
	return h, nil
}

// Lookup returns the named operation of actionType.
func (r *Registry) Lookup(actionType, operation string) (Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ops, ok := r.ops[actionType]
	if !ok {
		return nil, core.ErrUnknownActionType.WithMessage(fmt.Sprintf("unknown action type: %q", actionType))
	}
	op, ok := ops[operation]
	if !ok {
		return nil, core.ErrUnknownOperation.WithMessage(
			fmt.Sprintf("%s has no operation %q", actionType, operation))
	}
	return op, nil
}

// Has reports whether actionType is registered.
func (r *Registry) Has(actionType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[actionType]
	return ok
}

// Types returns the registered action types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Operations returns the sorted operation names of actionType.
func (r *Registry) Operations(actionType string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops[actionType]))
	for name := range r.ops[actionType] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
