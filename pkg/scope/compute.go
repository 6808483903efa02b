package scope

import (
	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/expr"
)

// Assignment binds the result of Expr to Var.
type Assignment struct {
	Var  binding.VarHandle
	Expr expr.Expression
}

// Compute injects computed variables into every row of Child. Assignments are
// evaluated in order after the child has produced its row, so later
// expressions can read variables assigned earlier in the same row.
type Compute struct {
	Assignments []Assignment
	Child       exec.Iterator
}

// NewCompute builds a computed-variable injector.
func NewCompute(child exec.Iterator, assignments ...Assignment) *Compute {
	return &Compute{Assignments: assignments, Child: child}
}

func (c *Compute) Begin(b *binding.Binding) error { return c.Child.Begin(b) }

func (c *Compute) Next(b *binding.Binding) (bool, error) {
	ok, err := c.Child.Next(b)
	if err != nil || !ok {
		return false, err
	}
	for _, a := range c.Assignments {
		v, err := a.Expr.Eval(b)
		if err != nil {
			return false, err
		}
		b.Add(a.Var, v)
	}
	return true, nil
}

func (c *Compute) Reset(b *binding.Binding) error { return c.Child.Reset(b) }

func (c *Compute) AssignNulls(b *binding.Binding) {
	c.Child.AssignNulls(b)
	for _, a := range c.Assignments {
		b.Add(a.Var, binding.Null)
	}
}

func (c *Compute) Variables() []binding.VarHandle {
	vars := append([]binding.VarHandle{}, c.Child.Variables()...)
	for _, a := range c.Assignments {
		vars = append(vars, a.Var)
	}
	return vars
}
