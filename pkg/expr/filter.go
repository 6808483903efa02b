package expr

import (
	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
)

// Filter passes through the rows of Child for which Predicate is TRUE.
// FALSE and NULL both drop the row.
type Filter struct {
	Child     exec.Iterator
	Predicate Expression
}

func (f *Filter) Begin(b *binding.Binding) error { return f.Child.Begin(b) }

func (f *Filter) Next(b *binding.Binding) (bool, error) {
	for {
		ok, err := f.Child.Next(b)
		if err != nil || !ok {
			return false, err
		}
		v, err := f.Predicate.Eval(b)
		if err != nil {
			return false, err
		}
		if t, _ := v.AsBool(); t {
			return true, nil
		}
	}
}

func (f *Filter) Reset(b *binding.Binding) error { return f.Child.Reset(b) }
func (f *Filter) AssignNulls(b *binding.Binding) { f.Child.AssignNulls(b) }
func (f *Filter) Variables() []binding.VarHandle { return f.Child.Variables() }
