package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphexec/pkg/binding"
)

func drainValues(t *testing.T, it Iterator, b *binding.Binding, h binding.VarHandle) []binding.Value {
	t.Helper()
	var out []binding.Value
	for {
		ok, err := it.Next(b)
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, b.Get(h))
	}
}

func TestRows(t *testing.T) {
	b := binding.New(2)
	rows := NewRows([]binding.VarHandle{0, 1}, [][]binding.Value{
		{binding.Int(1), binding.String("a")},
		{binding.Int(2)},
	})
	require.NoError(t, rows.Begin(b))

	ok, err := rows.Next(b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, binding.String("a"), b.Get(1))

	ok, err = rows.Next(b)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, binding.Int(2), b.Get(0))
	assert.True(t, b.Get(1).IsNull(), "short rows leave trailing variables NULL")

	ok, err = rows.Next(b)
	require.NoError(t, err)
	assert.False(t, ok)

	t.Run("reset rewinds", func(t *testing.T) {
		require.NoError(t, rows.Reset(b))
		assert.Equal(t, []binding.Value{binding.Int(1), binding.Int(2)}, drainValues(t, rows, b, 0))
	})

	t.Run("begin is idempotent", func(t *testing.T) {
		require.NoError(t, rows.Begin(b))
		_, _ = rows.Next(b)
		require.NoError(t, rows.Begin(b))
		assert.Len(t, drainValues(t, rows, b, 0), 2)
	})

	t.Run("assign nulls", func(t *testing.T) {
		b.Add(0, binding.Int(9))
		rows.AssignNulls(b)
		assert.True(t, b.Get(0).IsNull())
	})
}

func TestOptional(t *testing.T) {
	t.Run("passes rows through", func(t *testing.T) {
		b := binding.New(1)
		opt := NewOptional(NewRows([]binding.VarHandle{0}, [][]binding.Value{{binding.Int(1)}, {binding.Int(2)}}))
		require.NoError(t, opt.Begin(b))
		assert.Equal(t, []binding.Value{binding.Int(1), binding.Int(2)}, drainValues(t, opt, b, 0))
	})

	t.Run("one all-null row when child is empty", func(t *testing.T) {
		b := binding.New(1)
		b.Add(0, binding.String("stale"))
		opt := NewOptional(&Empty{Vars: []binding.VarHandle{0}})
		require.NoError(t, opt.Begin(b))
		vals := drainValues(t, opt, b, 0)
		require.Len(t, vals, 1)
		assert.True(t, vals[0].IsNull())

		require.NoError(t, opt.Reset(b))
		assert.Len(t, drainValues(t, opt, b, 0), 1)
	})
}

func TestOnce(t *testing.T) {
	b := binding.New(0)
	n, err := Drain(&Once{}, b)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollect(t *testing.T) {
	reg := binding.NewRegistry()
	x := reg.Declare("x")
	y := reg.Declare("y")
	plan := &Plan{
		Root: NewRows([]binding.VarHandle{x, y}, [][]binding.Value{
			{binding.Int(1), binding.String("a")},
			{binding.Int(2), binding.String("b")},
		}),
		Variables: reg,
		Columns:   []Column{{Name: "y", Handle: y}, {Name: "x", Handle: x}},
	}
	table, err := Collect(plan)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, table.Columns)
	assert.Equal(t, [][]binding.Value{
		{binding.String("a"), binding.Int(1)},
		{binding.String("b"), binding.Int(2)},
	}, table.Rows)
}
