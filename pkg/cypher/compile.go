// Package cypher compiles a small read-only subset of Cypher into executable
// iterator plans over the storage indexes.
//
// # Supported Syntax
//
//	MATCH (v[:Label])
//	MATCH (a[:Label])-[r[:TYPE]]->(b[:Label])
//	[WHERE condition]
//	RETURN item [AS alias][, item [AS alias]...]
//
// An item is a variable or a property read (v.key). Conditions combine
// comparisons (=, <>), IN / NOT IN list membership, AND, OR, NOT and
// parentheses over items and literals. Anything outside this subset is a
// qerr.ParseError.
//
// The compiler is the query collaborator used by the graph catalog (subquery
// projections) and by the virtual graph factory.
package cypher

import (
	"context"
	"strconv"
	"time"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/cache"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/expr"
	"github.com/orneryd/graphexec/pkg/qerr"
	"github.com/orneryd/graphexec/pkg/scope"
)

// Compiler implements exec.Compiler over a Graph.
type Compiler struct {
	graph  Graph
	parsed *cache.QueryCache[*query]
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCache keeps up to maxSize parsed queries for ttl (zero: no expiry).
// Plans are still built fresh on every Compile.
func WithCache(maxSize int, ttl time.Duration) Option {
	return func(c *Compiler) { c.parsed = cache.New[*query](maxSize, ttl) }
}

// NewCompiler returns a compiler whose plans scan graph.
func NewCompiler(graph Graph, opts ...Option) *Compiler {
	c := &Compiler{graph: graph}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheStats reports parse cache statistics; all zero without a cache.
func (c *Compiler) CacheStats() cache.Stats { return c.parsed.Stats() }

var _ exec.Compiler = (*Compiler)(nil)

// nodePattern is one (var:Label) element.
type nodePattern struct {
	variable string
	label    string
}

// query is the parsed form of a supported statement. It is never mutated
// after parsing, so cached instances are shared between plans.
type query struct {
	src, dst nodePattern
	rel      nodePattern // variable and type of the relationship
	hasRel   bool
	where    *condition
	items    []returnItem
}

type returnItem struct {
	variable string
	key      string // empty for a bare variable
	alias    string
}

func (it returnItem) column() string {
	switch {
	case it.alias != "":
		return it.alias
	case it.key != "":
		return it.variable + "." + it.key
	default:
		return it.variable
	}
}

// Compile parses text and builds its plan.
//
// # Example
//
//	plan, err := c.Compile(ctx, "MATCH (a:Person)-[r:KNOWS]->(b) RETURN a, r, b")
//	// plan.Types: {"a": node, "r": edge, "b": node}
//	// plan.Columns: a, r, b
func (c *Compiler) Compile(ctx context.Context, text string) (*exec.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q, ok := c.parsed.Get(text)
	if !ok {
		toks, err := lex(text)
		if err != nil {
			return nil, err
		}
		p := &parser{toks: toks}
		if q, err = p.parseQuery(); err != nil {
			return nil, err
		}
		c.parsed.Put(text, q)
	}
	return c.plan(q)
}

func (c *Compiler) plan(q *query) (*exec.Plan, error) {
	reg := binding.NewRegistry()
	types := make(map[string]exec.VarKind)

	declare := func(name string, kind exec.VarKind) (binding.VarHandle, error) {
		if name == "" {
			return reg.Anonymous(), nil
		}
		if prev, ok := types[name]; ok && prev != kind {
			return 0, qerr.Parse(opCompile, nil, "variable %q redeclared as %s", name, kind)
		}
		types[name] = kind
		return reg.Declare(name), nil
	}

	srcVar, err := declare(q.src.variable, exec.KindNode)
	if err != nil {
		return nil, err
	}
	var root exec.Iterator
	if !q.hasRel {
		root = &NodeScan{Graph: c.graph, Label: q.src.label, Var: srcVar}
	} else {
		relVar, err := declare(q.rel.variable, exec.KindEdge)
		if err != nil {
			return nil, err
		}
		dstVar, err := declare(q.dst.variable, exec.KindNode)
		if err != nil {
			return nil, err
		}
		root = &EdgeScan{
			Graph:       c.graph,
			Type:        q.rel.label,
			SourceLabel: q.src.label,
			TargetLabel: q.dst.label,
			Source:      srcVar,
			Rel:         relVar,
			Target:      dstVar,
		}
	}

	reader := propertyReader{graph: c.graph}
	if q.where != nil {
		pred, err := q.where.build(reg, types, reader)
		if err != nil {
			return nil, err
		}
		root = &expr.Filter{Child: root, Predicate: pred}
	}

	var (
		columns     []exec.Column
		assignments []scope.Assignment
	)
	for _, it := range q.items {
		h, ok := reg.Lookup(it.variable)
		if !ok {
			return nil, qerr.Parse(opCompile, nil, "variable %q not defined", it.variable)
		}
		name := it.column()
		switch {
		case it.key != "":
			out := reg.Anonymous()
			if it.alias != "" {
				if out, err = declare(it.alias, exec.KindValue); err != nil {
					return nil, err
				}
			}
			assignments = append(assignments, scope.Assignment{
				Var:  out,
				Expr: expr.Property{Of: expr.Var{Handle: h}, Key: it.key, Reader: reader},
			})
			h = out
		case it.alias != "" && it.alias != it.variable:
			out, err := declare(it.alias, types[it.variable])
			if err != nil {
				return nil, err
			}
			assignments = append(assignments, scope.Assignment{Var: out, Expr: expr.Var{Handle: h}})
			h = out
		}
		columns = append(columns, exec.Column{Name: name, Handle: h})
	}
	if len(assignments) > 0 {
		root = scope.NewCompute(root, assignments...)
	}

	return &exec.Plan{
		Root:      root,
		Variables: reg,
		Columns:   columns,
		Types:     types,
	}, nil
}

// literal converts a literal token into a value.
func literal(t token, negative bool) (binding.Value, error) {
	switch t.kind {
	case tokString:
		return binding.String(t.text), nil
	case tokNumber:
		text := t.text
		if negative {
			text = "-" + text
		}
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return binding.Int(i), nil
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return binding.Null, qerr.Parse(opCompile, err, "invalid number %q", t.text)
		}
		return binding.Double(f), nil
	case tokIdent:
		switch {
		case t.is("true"):
			return binding.Bool(true), nil
		case t.is("false"):
			return binding.Bool(false), nil
		case t.is("null"):
			return binding.Null, nil
		}
	}
	return binding.Null, qerr.Parse(opCompile, nil, "expected literal at offset %d", t.pos)
}
