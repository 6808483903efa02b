package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/qerr"
)

var (
	vTrue  = binding.Bool(true)
	vFalse = binding.Bool(false)
	vNull  = binding.Null
)

func eval(t *testing.T, e Expression) binding.Value {
	t.Helper()
	v, err := e.Eval(binding.New(0))
	require.NoError(t, err)
	return v
}

func consts(vals ...binding.Value) []Expression {
	out := make([]Expression, len(vals))
	for i, v := range vals {
		out[i] = Const{Value: v}
	}
	return out
}

// kleeneAnd and kleeneOr are the reference truth tables.
func kleeneAnd(vals []binding.Value) binding.Value {
	sawNull := false
	for _, v := range vals {
		if v.IsNull() {
			sawNull = true
		} else if b, _ := v.AsBool(); !b {
			return vFalse
		}
	}
	if sawNull {
		return vNull
	}
	return vTrue
}

func kleeneOr(vals []binding.Value) binding.Value {
	sawNull := false
	for _, v := range vals {
		if v.IsNull() {
			sawNull = true
		} else if b, _ := v.AsBool(); b {
			return vTrue
		}
	}
	if sawNull {
		return vNull
	}
	return vFalse
}

func TestAndOrTruthTables(t *testing.T) {
	domain := []binding.Value{vTrue, vFalse, vNull}
	count := 0
	for _, a := range domain {
		for _, b := range domain {
			for _, c := range domain {
				vals := []binding.Value{a, b, c}
				name := a.String() + "," + b.String() + "," + c.String()
				t.Run(name, func(t *testing.T) {
					assert.Equal(t, kleeneAnd(vals), eval(t, NewAnd(consts(vals...)...)), "AND")
					assert.Equal(t, kleeneOr(vals), eval(t, NewOr(consts(vals...)...)), "OR")
				})
				count++
			}
		}
	}
	assert.Equal(t, 27, count)
}

func TestAndOrScenarios(t *testing.T) {
	assert.Equal(t, vNull, eval(t, NewAnd(consts(vTrue, vNull)...)))
	assert.Equal(t, vFalse, eval(t, NewAnd(consts(vFalse, vNull)...)))
	assert.Equal(t, vNull, eval(t, NewOr(consts(vFalse, vNull)...)))
	assert.Equal(t, vTrue, eval(t, NewOr(consts(vNull, vTrue)...)))
	assert.Equal(t, vTrue, eval(t, NewAnd()), "empty AND is TRUE")
	assert.Equal(t, vFalse, eval(t, NewOr()), "empty OR is FALSE")
}

func TestAndRejectsNonBoolean(t *testing.T) {
	_, err := NewAnd(consts(vTrue, binding.Int(1))...).Eval(binding.New(0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, qerr.ErrInvalidArgument))

	_, err = NewOr(consts(binding.String("x"))...).Eval(binding.New(0))
	assert.True(t, errors.Is(err, qerr.ErrInvalidArgument))
}

func TestNot(t *testing.T) {
	assert.Equal(t, vFalse, eval(t, Not{Operand: Const{Value: vTrue}}))
	assert.Equal(t, vTrue, eval(t, Not{Operand: Const{Value: vFalse}}))
	assert.Equal(t, vNull, eval(t, Not{Operand: Const{Value: vNull}}))
}

func TestEquals(t *testing.T) {
	assert.Equal(t, vTrue, eval(t, Equals{Left: Lit(1), Right: Lit(1.0)}))
	assert.Equal(t, vFalse, eval(t, Equals{Left: Lit("a"), Right: Lit("b")}))
	assert.Equal(t, vNull, eval(t, Equals{Left: Lit(nil), Right: Lit(1)}))
}

// counting records how often it is evaluated.
type counting struct {
	v     binding.Value
	calls *int
}

func (c counting) Eval(*binding.Binding) (binding.Value, error) {
	*c.calls++
	return c.v, nil
}

func TestIn(t *testing.T) {
	tests := []struct {
		name string
		lhs  binding.Value
		rhs  []binding.Value
		want binding.Value
	}{
		{"empty list", binding.Int(1), nil, vFalse},
		{"empty list with null lhs", vNull, nil, vFalse},
		{"match", binding.Int(2), []binding.Value{binding.Int(1), binding.Int(2)}, vTrue},
		{"numeric match across types", binding.Int(2), []binding.Value{binding.Double(2)}, vTrue},
		{"no match with null present is FALSE", binding.Int(3), []binding.Value{vNull, binding.Int(1)}, vFalse},
		{"null lhs matches null rhs", vNull, []binding.Value{vNull}, vTrue},
		{"node never equals edge", binding.Node(1), []binding.Value{binding.Edge(1)}, vFalse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, In{LHS: Const{Value: tt.lhs}, RHS: consts(tt.rhs...)}))
		})
	}

	t.Run("short-circuits on first match", func(t *testing.T) {
		calls := 0
		in := In{LHS: Lit(1), RHS: []Expression{
			counting{binding.Int(1), &calls},
			counting{binding.Int(2), &calls},
		}}
		assert.Equal(t, vTrue, eval(t, in))
		assert.Equal(t, 1, calls)
	})
}

func TestNotIn(t *testing.T) {
	t.Run("non-node lhs is FALSE without evaluating rhs", func(t *testing.T) {
		for _, lhs := range []binding.Value{binding.Int(1), binding.String("a"), vNull, binding.Edge(1)} {
			calls := 0
			v := eval(t, NotIn{LHS: Const{Value: lhs}, RHS: []Expression{counting{binding.Int(2), &calls}}})
			assert.Equal(t, vFalse, v, lhs.String())
			assert.Zero(t, calls)
		}
	})

	tests := []struct {
		name string
		lhs  binding.Value
		rhs  []binding.Value
		want binding.Value
	}{
		{"empty list", binding.Node(1), nil, vTrue},
		{"equal node", binding.Node(1), []binding.Value{binding.Node(2), binding.Node(1)}, vFalse},
		{"different nodes", binding.Node(1), []binding.Value{binding.Node(2)}, vTrue},
		{"non-node rhs ignored", binding.Node(1), []binding.Value{binding.Int(1), binding.Edge(1)}, vTrue},
		{"named node", binding.NamedNode("a"), []binding.Value{binding.NamedNode("a")}, vFalse},
		{"anonymous node", binding.AnonNode(4), []binding.Value{binding.AnonNode(4)}, vFalse},
		{"null rhs ignored", binding.Node(1), []binding.Value{vNull}, vTrue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eval(t, NotIn{LHS: Const{Value: tt.lhs}, RHS: consts(tt.rhs...)}))
		})
	}
}

type mapReader map[uint64]map[string]binding.Value

func (m mapReader) Property(ref binding.Value, key string) (binding.Value, error) {
	id, _ := ref.ID()
	if v, ok := m[id][key]; ok {
		return v, nil
	}
	return binding.Null, nil
}

func TestProperty(t *testing.T) {
	reader := mapReader{1: {"name": binding.String("Alice")}}
	b := binding.New(2)
	b.Add(0, binding.Node(1))
	b.Add(1, binding.Map(map[string]binding.Value{"k": binding.Int(3)}))

	v, err := Property{Of: Var{Handle: 0}, Key: "name", Reader: reader}.Eval(b)
	require.NoError(t, err)
	assert.Equal(t, binding.String("Alice"), v)

	v, err = Property{Of: Var{Handle: 1}, Key: "k"}.Eval(b)
	require.NoError(t, err)
	assert.Equal(t, binding.Int(3), v)

	v, err = Property{Of: Lit(nil), Key: "k"}.Eval(b)
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	_, err = Property{Of: Lit(5), Key: "k"}.Eval(b)
	assert.True(t, errors.Is(err, qerr.ErrInvalidArgument))
}

func TestFilter(t *testing.T) {
	b := binding.New(1)
	rows := exec.NewRows([]binding.VarHandle{0}, [][]binding.Value{{vTrue}, {vNull}, {vFalse}, {vTrue}})
	f := &Filter{Child: rows, Predicate: Var{Handle: 0}}
	n, err := exec.Drain(f, b)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "only TRUE rows pass")
}

func TestClone(t *testing.T) {
	orig := consts(vTrue, vFalse)
	c := Clone(orig)
	orig[0] = Const{Value: vNull}
	assert.Equal(t, Const{Value: vTrue}, c[0])
	assert.Nil(t, Clone(nil))
}
