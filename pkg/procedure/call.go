package procedure

import (
	"context"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/expr"
)

// NamedCall is CALL name(args...) YIELD v.
//
// The procedure is resolved on the first Begin. Each Begin evaluates the
// arguments against the binding and materializes every result row before the
// first Next. Rows bind only the first yield variable; the remaining yield
// variables stay NULL. A name the registry does not know produces no rows.
type NamedCall struct {
	Name     string
	Args     []expr.Expression
	Yield    []binding.VarHandle
	Optional bool

	registry *Registry
	ctx      context.Context

	resolved bool
	proc     Procedure
	rows     []binding.Value
	cursor   int
	nullDone bool
}

// NewNamedCall builds a call of name against registry. The argument
// expressions are cloned so the caller may reuse its slice. ctx bounds the
// procedure invocations made by Begin.
func NewNamedCall(ctx context.Context, registry *Registry, name string, args []expr.Expression, yield []binding.VarHandle, optional bool) *NamedCall {
	if ctx == nil {
		ctx = context.Background()
	}
	return &NamedCall{
		Name:     name,
		Args:     expr.Clone(args),
		Yield:    yield,
		Optional: optional,
		registry: registry,
		ctx:      ctx,
	}
}

func (c *NamedCall) resolve() {
	if c.resolved {
		return
	}
	c.resolved = true
	if c.registry != nil {
		c.proc, _ = c.registry.Lookup(c.Name)
	}
}

func (c *NamedCall) Begin(b *binding.Binding) error {
	c.resolve()
	c.rows = nil
	c.cursor = 0
	c.nullDone = false
	if c.proc == nil {
		return nil
	}

	args := make([]binding.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := a.Eval(b)
		if err != nil {
			c.AssignNulls(b)
			return err
		}
		args[i] = v
	}
	rows, err := c.proc(c.ctx, args)
	if err != nil {
		c.AssignNulls(b)
		return err
	}
	c.rows = rows
	return nil
}

func (c *NamedCall) Next(b *binding.Binding) (bool, error) {
	if c.cursor < len(c.rows) {
		v := c.rows[c.cursor]
		c.cursor++
		if len(c.Yield) > 0 {
			b.Add(c.Yield[0], v)
		}
		return true, nil
	}
	if c.Optional && len(c.rows) == 0 && !c.nullDone {
		c.nullDone = true
		c.AssignNulls(b)
		return true, nil
	}
	return false, nil
}

// Reset rewinds over the rows materialized by the last Begin.
func (c *NamedCall) Reset(*binding.Binding) error {
	c.cursor = 0
	c.nullDone = false
	return nil
}

func (c *NamedCall) AssignNulls(b *binding.Binding) { exec.AssignNull(b, c.Yield) }

func (c *NamedCall) Variables() []binding.VarHandle { return c.Yield }

// Resolved reports whether the name was found in the registry. It is only
// meaningful after Begin.
func (c *NamedCall) Resolved() bool { return c.proc != nil }

// Inline is CALL { subquery }. It delegates every call to Child and exists
// as an addressable scope boundary in a plan.
type Inline struct {
	Child exec.Iterator
}

// NewInline wraps child.
func NewInline(child exec.Iterator) *Inline { return &Inline{Child: child} }

func (c *Inline) Begin(b *binding.Binding) error { return c.Child.Begin(b) }
func (c *Inline) Next(b *binding.Binding) (bool, error) { return c.Child.Next(b) }
func (c *Inline) Reset(b *binding.Binding) error { return c.Child.Reset(b) }
func (c *Inline) AssignNulls(b *binding.Binding) { c.Child.AssignNulls(b) }
func (c *Inline) Variables() []binding.VarHandle { return c.Child.Variables() }
