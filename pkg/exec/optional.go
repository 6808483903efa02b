package exec

import (
	"github.com/orneryd/graphexec/pkg/binding"
)

// Optional realizes the "unmatched optional pattern produces one all-null row"
// rule: if the child yields no row at all, Optional yields a single row with
// the child's variables set to NULL.
type Optional struct {
	Child Iterator

	matched  bool
	nullDone bool
}

// NewOptional wraps child.
func NewOptional(child Iterator) *Optional {
	return &Optional{Child: child}
}

func (o *Optional) Begin(b *binding.Binding) error {
	o.matched = false
	o.nullDone = false
	return o.Child.Begin(b)
}

func (o *Optional) Next(b *binding.Binding) (bool, error) {
	if o.nullDone {
		return false, nil
	}
	ok, err := o.Child.Next(b)
	if err != nil {
		return false, err
	}
	if ok {
		o.matched = true
		return true, nil
	}
	if o.matched {
		return false, nil
	}
	o.nullDone = true
	o.Child.AssignNulls(b)
	return true, nil
}

func (o *Optional) Reset(b *binding.Binding) error {
	o.matched = false
	o.nullDone = false
	return o.Child.Reset(b)
}

func (o *Optional) AssignNulls(b *binding.Binding) { o.Child.AssignNulls(b) }
func (o *Optional) Variables() []binding.VarHandle { return o.Child.Variables() }
