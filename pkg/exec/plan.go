package exec

import (
	"context"

	"github.com/orneryd/graphexec/pkg/binding"
)

// VarKind is the static type a compiled query assigns to a variable.
type VarKind int

const (
	KindValue VarKind = iota
	KindNode
	KindEdge
)

func (k VarKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	default:
		return "value"
	}
}

// Column is one output column of a compiled query.
type Column struct {
	Name   string
	Handle binding.VarHandle
}

// Plan is an executable query: a root iterator, the registry its handles come
// from, the output columns and the static kind of each named variable.
type Plan struct {
	Root      Iterator
	Variables binding.VariableRegistry
	Columns   []Column
	Types     map[string]VarKind
}

// Compiler turns a query string into a Plan. Implementations return a
// qerr.ParseError when the text cannot be compiled.
type Compiler interface {
	Compile(ctx context.Context, query string) (*Plan, error)
}

// Table is the tabular output of a drained plan.
type Table struct {
	Columns []string
	Rows    [][]binding.Value
}

// Collect runs p to exhaustion on a fresh binding and returns its output table.
func Collect(p *Plan) (*Table, error) {
	b := binding.New(p.Variables.Len())
	t := &Table{Columns: make([]string, len(p.Columns))}
	for i, c := range p.Columns {
		t.Columns[i] = c.Name
	}
	if err := p.Root.Begin(b); err != nil {
		return nil, err
	}
	for {
		ok, err := p.Root.Next(b)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		row := make([]binding.Value, len(p.Columns))
		for i, c := range p.Columns {
			row[i] = b.Get(c.Handle)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Drain counts the rows produced by it against b.
func Drain(it Iterator, b *binding.Binding) (int, error) {
	if err := it.Begin(b); err != nil {
		return 0, err
	}
	n := 0
	for {
		ok, err := it.Next(b)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}
