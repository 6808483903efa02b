// Package scope implements the variable-visibility boundaries of a query:
// CALL { ... } subquery scoping and computed-variable injection.
package scope

import (
	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
)

// Call runs Child against a private inner binding. Only Imports are copied in
// from the outer binding and only Projects are copied back out after each row;
// every other slot is invisible across the boundary in both directions.
type Call struct {
	Imports  []binding.VarHandle
	Projects []binding.VarHandle
	Child    exec.Iterator
	// Size is the slot count of the inner binding. Zero means "same as the
	// outer binding".
	Size int

	inner *binding.Binding
}

// NewCall builds a scoped subquery call.
func NewCall(imports, projects []binding.VarHandle, child exec.Iterator, size int) *Call {
	return &Call{Imports: imports, Projects: projects, Child: child, Size: size}
}

// enter allocates a fresh inner binding seeded with the imported values.
func (c *Call) enter(outer *binding.Binding) {
	size := c.Size
	if size <= 0 {
		size = outer.Len()
	}
	c.inner = binding.New(size)
	c.inner.CopyFrom(outer, c.Imports)
}

func (c *Call) Begin(outer *binding.Binding) error {
	c.enter(outer)
	return c.Child.Begin(c.inner)
}

func (c *Call) Next(outer *binding.Binding) (bool, error) {
	if c.inner == nil {
		if err := c.Begin(outer); err != nil {
			return false, err
		}
	}
	ok, err := c.Child.Next(c.inner)
	if err != nil || !ok {
		return false, err
	}
	outer.CopyFrom(c.inner, c.Projects)
	return true, nil
}

func (c *Call) Reset(outer *binding.Binding) error {
	c.enter(outer)
	return c.Child.Reset(c.inner)
}

// AssignNulls lets the child null its slots, then exports the projected ones.
func (c *Call) AssignNulls(outer *binding.Binding) {
	if c.inner == nil {
		c.enter(outer)
	}
	c.Child.AssignNulls(c.inner)
	outer.CopyFrom(c.inner, c.Projects)
}

func (c *Call) Variables() []binding.VarHandle { return c.Projects }
