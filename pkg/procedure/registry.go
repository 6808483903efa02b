// Package procedure implements CALL: named built-in procedures resolved from
// a registry, and inline CALL { ... } subqueries.
package procedure

import (
	"context"
	"sort"
	"strings"

	"github.com/orneryd/graphexec/pkg/binding"
)

// Procedure computes every result row of one invocation. Each row is a single
// value; procedures never stream.
type Procedure func(ctx context.Context, args []binding.Value) ([]binding.Value, error)

// Registry maps procedure names to implementations. Names are matched
// case-insensitively.
type Registry struct {
	procs map[string]Procedure
	names map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		procs: make(map[string]Procedure),
		names: make(map[string]string),
	}
}

// Register adds or replaces the procedure called name.
func (r *Registry) Register(name string, p Procedure) {
	key := strings.ToLower(name)
	r.procs[key] = p
	r.names[key] = name
}

// Lookup resolves name.
func (r *Registry) Lookup(name string) (Procedure, bool) {
	p, ok := r.procs[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names returns the registered names as they were registered, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
