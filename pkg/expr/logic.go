package expr

import (
	"github.com/orneryd/graphexec/pkg/binding"
)

// And is the N-ary three-valued conjunction.
type And struct {
	Operands []Expression
}

// NewAnd builds an And over operands.
func NewAnd(operands ...Expression) And { return And{Operands: operands} }

func (a And) Eval(b *binding.Binding) (binding.Value, error) {
	sawNull := false
	for _, op := range a.Operands {
		v, err := op.Eval(b)
		if err != nil {
			return binding.Null, err
		}
		t, isNull, err := truth("AND", v)
		if err != nil {
			return binding.Null, err
		}
		if isNull {
			sawNull = true
			continue
		}
		if !t {
			return binding.Bool(false), nil
		}
	}
	if sawNull {
		return binding.Null, nil
	}
	return binding.Bool(true), nil
}

// Or is the N-ary three-valued disjunction.
type Or struct {
	Operands []Expression
}

// NewOr builds an Or over operands.
func NewOr(operands ...Expression) Or { return Or{Operands: operands} }

func (o Or) Eval(b *binding.Binding) (binding.Value, error) {
	sawNull := false
	for _, op := range o.Operands {
		v, err := op.Eval(b)
		if err != nil {
			return binding.Null, err
		}
		t, isNull, err := truth("OR", v)
		if err != nil {
			return binding.Null, err
		}
		if isNull {
			sawNull = true
			continue
		}
		if t {
			return binding.Bool(true), nil
		}
	}
	if sawNull {
		return binding.Null, nil
	}
	return binding.Bool(false), nil
}

// Not negates a truth value; NOT NULL is NULL.
type Not struct {
	Operand Expression
}

func (n Not) Eval(b *binding.Binding) (binding.Value, error) {
	v, err := n.Operand.Eval(b)
	if err != nil {
		return binding.Null, err
	}
	t, isNull, err := truth("NOT", v)
	if err != nil || isNull {
		return binding.Null, err
	}
	return binding.Bool(!t), nil
}

// Equals compares two values; either side NULL yields NULL.
type Equals struct {
	Left, Right Expression
}

func (e Equals) Eval(b *binding.Binding) (binding.Value, error) {
	l, err := e.Left.Eval(b)
	if err != nil {
		return binding.Null, err
	}
	r, err := e.Right.Eval(b)
	if err != nil {
		return binding.Null, err
	}
	if l.IsNull() || r.IsNull() {
		return binding.Null, nil
	}
	return binding.Bool(l.Equal(r)), nil
}
