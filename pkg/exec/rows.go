package exec

import (
	"github.com/orneryd/graphexec/pkg/binding"
)

// Rows is a leaf iterator over a materialized list of rows. Row i column j is
// written to Vars[j]. Short rows leave the trailing variables NULL.
type Rows struct {
	Vars []binding.VarHandle
	Data [][]binding.Value

	cursor int
}

// NewRows builds a Rows iterator.
func NewRows(vars []binding.VarHandle, data [][]binding.Value) *Rows {
	return &Rows{Vars: vars, Data: data}
}

func (r *Rows) Begin(*binding.Binding) error {
	r.cursor = 0
	return nil
}

func (r *Rows) Next(b *binding.Binding) (bool, error) {
	if r.cursor >= len(r.Data) {
		return false, nil
	}
	row := r.Data[r.cursor]
	r.cursor++
	for i, h := range r.Vars {
		if i < len(row) {
			b.Add(h, row[i])
		} else {
			b.Add(h, binding.Null)
		}
	}
	return true, nil
}

func (r *Rows) Reset(b *binding.Binding) error { return r.Begin(b) }
func (r *Rows) AssignNulls(b *binding.Binding) { AssignNull(b, r.Vars) }
func (r *Rows) Variables() []binding.VarHandle { return r.Vars }
