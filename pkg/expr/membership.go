package expr

import (
	"github.com/orneryd/graphexec/pkg/binding"
)

// In tests membership of LHS among the RHS expressions.
//
// LHS is evaluated once, then each RHS expression in order; the first
// structurally equal value yields TRUE. Exhausting the list yields FALSE.
// In never yields NULL, even when LHS or some RHS values are NULL.
type In struct {
	LHS Expression
	RHS []Expression
}

func (in In) Eval(b *binding.Binding) (binding.Value, error) {
	lhs, err := in.LHS.Eval(b)
	if err != nil {
		return binding.Null, err
	}
	for _, e := range in.RHS {
		v, err := e.Eval(b)
		if err != nil {
			return binding.Null, err
		}
		if lhs.Equal(v) {
			return binding.Bool(true), nil
		}
	}
	return binding.Bool(false), nil
}

// NotIn is the negated membership test, gated on node references.
//
// If LHS is not node-like the result is FALSE and no RHS expression is
// evaluated. Otherwise the first RHS value that is node-like and equal to LHS
// yields FALSE; no such value yields TRUE. Non-node comparisons therefore
// always filter rows out.
type NotIn struct {
	LHS Expression
	RHS []Expression
}

func (n NotIn) Eval(b *binding.Binding) (binding.Value, error) {
	lhs, err := n.LHS.Eval(b)
	if err != nil {
		return binding.Null, err
	}
	if !lhs.IsNodeLike() {
		return binding.Bool(false), nil
	}
	for _, e := range n.RHS {
		v, err := e.Eval(b)
		if err != nil {
			return binding.Null, err
		}
		if v.IsNodeLike() && lhs.Equal(v) {
			return binding.Bool(false), nil
		}
	}
	return binding.Bool(true), nil
}
