package procedure

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/catalog"
	"github.com/orneryd/graphexec/pkg/cypher"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/expr"
	"github.com/orneryd/graphexec/pkg/qerr"
	"github.com/orneryd/graphexec/pkg/storage"
	"github.com/orneryd/graphexec/pkg/vgraph"
)

// counting returns a procedure that echoes its arguments as rows and counts
// invocations.
func counting(calls *int) Procedure {
	return func(_ context.Context, args []binding.Value) ([]binding.Value, error) {
		*calls++
		return append([]binding.Value(nil), args...), nil
	}
}

func drain(t *testing.T, it exec.Iterator, b *binding.Binding, h binding.VarHandle) []binding.Value {
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

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register("db.Labels", counting(&calls))
	r.Register("gds.graph.list", counting(&calls))

	for _, name := range []string{"db.labels", "DB.LABELS", "  db.Labels "} {
		_, ok := r.Lookup(name)
		assert.True(t, ok, name)
	}
	_, ok := r.Lookup("db.label")
	assert.False(t, ok)
	assert.Equal(t, []string{"db.Labels", "gds.graph.list"}, r.Names())

	r.Register("DB.LABELS", counting(&calls))
	assert.Len(t, r.Names(), 2, "re-registration replaces")
}

func TestNamedCallBindsFirstYieldOnly(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register("echo", counting(&calls))

	b := binding.New(3)
	call := NewNamedCall(context.Background(), r, "echo",
		[]expr.Expression{expr.Lit(1), expr.Lit("two")}, []binding.VarHandle{1, 2}, false)

	require.NoError(t, call.Begin(b))
	assert.True(t, call.Resolved())
	assert.Equal(t, []binding.Value{binding.Int(1), binding.String("two")}, drain(t, call, b, 1))
	assert.True(t, b.Get(2).IsNull(), "second yield variable is never bound")
	assert.Equal(t, []binding.VarHandle{1, 2}, call.Variables())
}

func TestNamedCallMaterializesOnBegin(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register("echo", counting(&calls))

	b := binding.New(2)
	call := NewNamedCall(context.Background(), r, "echo",
		[]expr.Expression{expr.Var{Handle: 0}}, []binding.VarHandle{1}, false)

	b.Add(0, binding.Int(7))
	require.NoError(t, call.Begin(b))
	assert.Equal(t, 1, calls)
	// Rows are fixed at Begin even if the argument changes afterwards.
	b.Add(0, binding.Int(8))
	assert.Equal(t, []binding.Value{binding.Int(7)}, drain(t, call, b, 1))

	require.NoError(t, call.Reset(b))
	assert.Equal(t, []binding.Value{binding.Int(7)}, drain(t, call, b, 1))
	assert.Equal(t, 1, calls, "reset does not re-invoke")

	require.NoError(t, call.Begin(b))
	assert.Equal(t, 2, calls)
	assert.Equal(t, []binding.Value{binding.Int(8)}, drain(t, call, b, 1))
}

func TestNamedCallClonesArguments(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Register("echo", counting(&calls))

	args := []expr.Expression{expr.Lit("a")}
	call := NewNamedCall(context.Background(), r, "echo", args, []binding.VarHandle{0}, false)
	args[0] = expr.Lit("b")

	b := binding.New(1)
	require.NoError(t, call.Begin(b))
	assert.Equal(t, []binding.Value{binding.String("a")}, drain(t, call, b, 0))
}

func TestNamedCallUnknownProcedure(t *testing.T) {
	r := NewRegistry()
	b := binding.New(1)
	call := NewNamedCall(context.Background(), r, "nope", nil, []binding.VarHandle{0}, false)
	require.NoError(t, call.Begin(b))
	assert.False(t, call.Resolved())
	ok, err := call.Next(b)
	require.NoError(t, err)
	assert.False(t, ok)

	// Resolution happens once.
	calls := 0
	r.Register("nope", counting(&calls))
	require.NoError(t, call.Begin(b))
	assert.False(t, call.Resolved())
	assert.Zero(t, calls)

	nilRegistry := NewNamedCall(context.Background(), nil, "echo", nil, []binding.VarHandle{0}, false)
	require.NoError(t, nilRegistry.Begin(b))
	assert.False(t, nilRegistry.Resolved())
}

func TestNamedCallOptional(t *testing.T) {
	r := NewRegistry()
	r.Register("none", func(context.Context, []binding.Value) ([]binding.Value, error) { return nil, nil })

	b := binding.New(1)
	b.Add(0, binding.Int(1))
	call := NewNamedCall(context.Background(), r, "none", nil, []binding.VarHandle{0}, true)
	require.NoError(t, call.Begin(b))

	ok, err := call.Next(b)
	require.NoError(t, err)
	require.True(t, ok, "optional call yields one null row")
	assert.True(t, b.Get(0).IsNull())
	ok, _ = call.Next(b)
	assert.False(t, ok)

	require.NoError(t, call.Reset(b))
	ok, _ = call.Next(b)
	assert.True(t, ok, "reset replays the null row")

	unknown := NewNamedCall(context.Background(), r, "missing", nil, []binding.VarHandle{0}, true)
	require.NoError(t, unknown.Begin(b))
	ok, _ = unknown.Next(b)
	assert.True(t, ok)
}

// failing always errors.
type failing struct{}

func (failing) Eval(*binding.Binding) (binding.Value, error) {
	return binding.Null, qerr.Invalid("test", "bad argument")
}

func TestNamedCallErrorsNullYields(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry()
	r.Register("fail", func(context.Context, []binding.Value) ([]binding.Value, error) { return nil, boom })
	r.Register("echo", func(_ context.Context, args []binding.Value) ([]binding.Value, error) { return args, nil })

	b := binding.New(2)
	b.Add(0, binding.Int(1))
	b.Add(1, binding.Int(1))
	call := NewNamedCall(context.Background(), r, "fail", nil, []binding.VarHandle{0, 1}, false)
	err := call.Begin(b)
	assert.ErrorIs(t, err, boom)
	assert.True(t, b.Get(0).IsNull())
	assert.True(t, b.Get(1).IsNull())

	b.Add(0, binding.Int(1))
	call = NewNamedCall(context.Background(), r, "echo", []expr.Expression{failing{}}, []binding.VarHandle{0}, false)
	err = call.Begin(b)
	assert.True(t, errors.Is(err, qerr.ErrInvalidArgument))
	assert.True(t, b.Get(0).IsNull())
}

func TestNamedCallPassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	var got context.Context
	r := NewRegistry()
	r.Register("ctx", func(ctx context.Context, _ []binding.Value) ([]binding.Value, error) {
		got = ctx
		return nil, nil
	})

	b := binding.New(1)
	require.NoError(t, NewNamedCall(ctx, r, "ctx", nil, nil, false).Begin(b))
	assert.Equal(t, "v", got.Value(key{}))

	//nolint:staticcheck // nil falls back to Background
	require.NoError(t, NewNamedCall(nil, r, "ctx", nil, nil, false).Begin(b))
	assert.NotNil(t, got)
}

func TestInlineDelegates(t *testing.T) {
	rows := exec.NewRows([]binding.VarHandle{0}, [][]binding.Value{{binding.Int(1)}, {binding.Int(2)}})
	in := NewInline(rows)
	b := binding.New(1)

	require.NoError(t, in.Begin(b))
	assert.Equal(t, []binding.Value{binding.Int(1), binding.Int(2)}, drain(t, in, b, 0))
	require.NoError(t, in.Reset(b))
	assert.Equal(t, []binding.Value{binding.Int(1), binding.Int(2)}, drain(t, in, b, 0))
	assert.Equal(t, []binding.VarHandle{0}, in.Variables())

	in.AssignNulls(b)
	assert.True(t, b.Get(0).IsNull())

	// Under Optional an empty inline call produces one null row.
	opt := exec.NewOptional(NewInline(exec.NewRows([]binding.VarHandle{0}, nil)))
	n, err := exec.Drain(opt, b)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type builtinsFixture struct {
	engine  *storage.BadgerEngine
	catalog *catalog.Catalog
	virtual *vgraph.Factory
	reg     *Registry
}

func newBuiltins(t *testing.T) *builtinsFixture {
	t.Helper()
	engine, err := storage.NewBadgerEngineInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	require.NoError(t, engine.CreateNode(&storage.Node{ID: 1, Labels: []string{"Person"}, Properties: map[string]any{"name": "Alice"}}))
	require.NoError(t, engine.CreateNode(&storage.Node{ID: 2, Labels: []string{"City"}}))
	require.NoError(t, engine.CreateEdge(&storage.Edge{ID: 10, Source: 1, Target: 2, Type: "LIVES_IN"}))

	logger, _ := test.NewNullLogger()
	log := logrus.NewEntry(logger)
	compiler := cypher.NewCompiler(engine)
	cat, err := catalog.New(t.TempDir(), engine, catalog.WithCompiler(compiler), catalog.WithLogger(log))
	require.NoError(t, err)
	virtual := vgraph.NewFactory(compiler, log)

	return &builtinsFixture{
		engine:  engine,
		catalog: cat,
		virtual: virtual,
		reg:     Builtins{Metadata: engine, Catalog: cat, Virtual: virtual, Database: "db"}.Registry(),
	}
}

// call runs name with literal arguments and returns the yielded rows.
func (f *builtinsFixture) call(t *testing.T, name string, args ...any) ([]binding.Value, error) {
	t.Helper()
	exprs := make([]expr.Expression, len(args))
	for i, a := range args {
		exprs[i] = expr.Lit(a)
	}
	b := binding.New(1)
	c := NewNamedCall(context.Background(), f.reg, name, exprs, []binding.VarHandle{0}, false)
	if err := c.Begin(b); err != nil {
		return nil, err
	}
	require.True(t, c.Resolved(), name)
	return drain(t, c, b, 0), nil
}

func entry(t *testing.T, row binding.Value, key string) binding.Value {
	t.Helper()
	v, ok := row.Entries()[key]
	require.True(t, ok, key)
	return v
}

func TestBuiltinsRegistration(t *testing.T) {
	assert.Empty(t, Builtins{}.Registry().Names())

	f := newBuiltins(t)
	assert.Equal(t, []string{
		DBLabels, DBPropertyKeys, DBRelationshipTypes,
		GraphDrop, GraphList, GraphProject, GraphVirtual,
	}, f.reg.Names())
}

func TestBuiltinsMetadata(t *testing.T) {
	f := newBuiltins(t)

	rows, err := f.call(t, "DB.LABELS")
	require.NoError(t, err)
	assert.ElementsMatch(t, []binding.Value{binding.String("Person"), binding.String("City")}, rows)

	rows, err = f.call(t, DBRelationshipTypes)
	require.NoError(t, err)
	assert.Equal(t, []binding.Value{binding.String("LIVES_IN")}, rows)

	rows, err = f.call(t, DBPropertyKeys)
	require.NoError(t, err)
	assert.Equal(t, []binding.Value{binding.String("name")}, rows)
}

func TestBuiltinsCatalogLifecycle(t *testing.T) {
	f := newBuiltins(t)

	rows, err := f.call(t, GraphProject, "g", "*", "*", map[string]any{"readConcurrency": 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, binding.String("g"), entry(t, rows[0], "graphName"))
	assert.Equal(t, binding.Int(2), entry(t, rows[0], "nodeCount"))
	assert.Equal(t, binding.Int(1), entry(t, rows[0], "relationshipCount"))
	assert.Equal(t, binding.Double(0.5), entry(t, rows[0], "density"))

	rows, err = f.call(t, GraphList)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	rows, err = f.call(t, GraphList, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	rows, err = f.call(t, GraphList, "other")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = f.call(t, GraphDrop, "g")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, binding.String("db"), entry(t, rows[0], "database"))

	_, err = f.call(t, GraphDrop, "g")
	assert.True(t, errors.Is(err, qerr.ErrNotFound))

	rows, err = f.call(t, GraphDrop, "g", false)
	require.NoError(t, err)
	assert.Empty(t, rows, "missing graph without failIfMissing yields no rows")
}

func TestBuiltinsDropDatabaseArgument(t *testing.T) {
	f := newBuiltins(t)
	_, err := f.call(t, GraphProject, "g", "Person", "*")
	require.NoError(t, err)

	rows, err := f.call(t, GraphDrop, "g", nil, "analytics")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, binding.String("analytics"), entry(t, rows[0], "database"))
}

func TestBuiltinsArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		proc string
		args []any
	}{
		{"project arity", GraphProject, []any{"g"}},
		{"list arity", GraphList, []any{"a", "b"}},
		{"list name type", GraphList, []any{1}},
		{"drop arity", GraphDrop, nil},
		{"drop too many", GraphDrop, []any{"g", true, "db", 1}},
		{"drop name type", GraphDrop, []any{1}},
		{"drop flag type", GraphDrop, []any{"g", "yes"}},
		{"drop database type", GraphDrop, []any{"g", true, 5}},
		{"virtual arity", GraphVirtual, []any{"v", "MATCH (n) RETURN n"}},
		{"virtual argument type", GraphVirtual, []any{"v", 1, "MATCH (a)-[r]->(b) RETURN a, b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBuiltins(t)
			_, err := f.call(t, tt.proc, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, qerr.ErrInvalidArgument), err.Error())
		})
	}
}

func TestBuiltinsVirtual(t *testing.T) {
	f := newBuiltins(t)
	rows, err := f.call(t, GraphVirtual, "v", "MATCH (n:Person) RETURN n", "MATCH (a)-[r]->(b) RETURN a, r, b")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, binding.Int(2), entry(t, rows[0], "nodeCount"), "the city is synthesized")
	assert.Equal(t, binding.Int(1), entry(t, rows[0], "relationshipCount"))

	_, ok := f.virtual.Get("v")
	assert.True(t, ok)
	assert.Empty(t, f.catalog.Names(), "virtual graphs are not persisted")
}
