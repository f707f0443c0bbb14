// Package registry resolves operation names to their handlers and
// declared parameter schemas. The registry is populated once at
// startup and read-only afterwards, so concurrent dispatches share it
// without locking on the hot path.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vexlio/courier/internal/fault"
)

// Param declares one named parameter of an operation. Parameters with
// a Default may be omitted by the caller; Required parameters without
// a supplied value fail binding.
type Param struct {
	Name     string
	Default  any
	Required bool
}

// Invocation carries the arguments a handler receives after binding:
// declared parameters in order plus, for operations accepting extras,
// the pass-through keyword arguments.
type Invocation struct {
	Positional []any
	Keyword    map[string]any
}

// Arg returns the positional argument at index i, or nil past the end.
func (in *Invocation) Arg(i int) any {
	if i < 0 || i >= len(in.Positional) {
		return nil
	}
	return in.Positional[i]
}

// Handler executes one operation with bound arguments.
type Handler func(ctx context.Context, in *Invocation) (any, error)

// Operation is a registry entry: a named callable plus the schema its
// arguments are validated against.
type Operation struct {
	Name         string
	Doc          string
	Params       []Param
	AcceptsExtra bool
	Handler      Handler
}

// Registry maps operation names to operations.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]*Operation
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{ops: make(map[string]*Operation)}
}

// Register adds an operation. Registering a duplicate or malformed
// operation is a programming error and panics.
func (r *Registry) Register(op *Operation) {
	if op.Name == "" || op.Handler == nil {
		panic(fmt.Sprintf("registry: invalid operation %+v", op))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[op.Name]; exists {
		panic("registry: duplicate operation " + op.Name)
	}
	r.ops[op.Name] = op
}

// Resolve looks up an operation by name.
func (r *Registry) Resolve(name string) (*Operation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	if !ok {
		return nil, fault.UnknownFunction(name)
	}
	return op, nil
}

// Names returns all registered operation names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Docs returns name->doc for every operation whose name starts with
// prefix. An empty prefix lists everything.
func (r *Registry) Docs(prefix string) map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := make(map[string]string)
	for name, op := range r.ops {
		if prefix == "" || strings.HasPrefix(name, prefix) {
			docs[name] = op.Doc
		}
	}
	return docs
}
