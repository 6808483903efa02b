// Package expr evaluates binding expressions with three-valued logic.
//
// The truth domain is TRUE, FALSE and NULL (information absent). NULL is
// represented by binding.Null; TRUE and FALSE by boolean values.
//
// AND and OR follow the Kleene tables:
//
//	AND: FALSE if any operand is FALSE, else NULL if any is NULL, else TRUE
//	OR:  TRUE if any operand is TRUE, else NULL if any is NULL, else FALSE
//
// IN and NOT IN deliberately never produce NULL; see In and NotIn.
package expr

import (
	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/qerr"
)

// Expression is evaluated against the current row of a binding.
type Expression interface {
	Eval(b *binding.Binding) (binding.Value, error)
}

// Clone returns a copy of the expression list. Expressions are immutable, so
// the copy shares the nodes but not the slice.
func Clone(exprs []Expression) []Expression {
	if exprs == nil {
		return nil
	}
	out := make([]Expression, len(exprs))
	copy(out, exprs)
	return out
}

// Const is a literal value.
type Const struct {
	Value binding.Value
}

func (c Const) Eval(*binding.Binding) (binding.Value, error) { return c.Value, nil }

// Lit is shorthand for a Const of a plain Go value.
func Lit(v any) Const { return Const{Value: binding.FromGo(v)} }

// Var reads one slot of the binding.
type Var struct {
	Handle binding.VarHandle
}

func (v Var) Eval(b *binding.Binding) (binding.Value, error) { return b.Get(v.Handle), nil }

// PropertyReader resolves properties of node and edge references.
type PropertyReader interface {
	Property(ref binding.Value, key string) (binding.Value, error)
}

// Property reads Key from the entity referenced by Of. A NULL reference yields NULL.
type Property struct {
	Of     Expression
	Key    string
	Reader PropertyReader
}

func (p Property) Eval(b *binding.Binding) (binding.Value, error) {
	ref, err := p.Of.Eval(b)
	if err != nil {
		return binding.Null, err
	}
	switch ref.Generic() {
	case binding.GenericNull:
		return binding.Null, nil
	case binding.GenericMap:
		if v, ok := ref.Entries()[p.Key]; ok {
			return v, nil
		}
		return binding.Null, nil
	case binding.GenericNode, binding.GenericEdge:
		if p.Reader == nil {
			return binding.Null, nil
		}
		return p.Reader.Property(ref, p.Key)
	}
	return binding.Null, qerr.Invalid("property", "cannot read %q of %s", p.Key, ref.Type())
}

// truth classifies v as TRUE, FALSE or NULL. Non-boolean values are an error.
func truth(op string, v binding.Value) (val bool, isNull bool, err error) {
	if v.IsNull() {
		return false, true, nil
	}
	bv, ok := v.AsBool()
	if !ok {
		return false, false, qerr.Invalid(op, "expected boolean operand, got %s", v.Type())
	}
	return bv, false, nil
}
