package vgraph

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/qerr"
)

const opBuild = "gds.graph.virtual"

// Factory compiles node/edge queries into virtual graphs and keeps the
// results in a registry keyed by name. Like the catalog it is not safe for
// concurrent mutation.
type Factory struct {
	compiler exec.Compiler
	graphs   map[string]*Graph
	log      *logrus.Entry
}

// NewFactory creates a factory. A nil log uses the logrus standard logger.
func NewFactory(compiler exec.Compiler, log *logrus.Entry) *Factory {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Factory{
		compiler: compiler,
		graphs:   make(map[string]*Graph),
		log:      log.WithField("component", "vgraph"),
	}
}

// Get returns the virtual graph called name.
func (f *Factory) Get(name string) (*Graph, bool) {
	g, ok := f.graphs[name]
	return g, ok
}

// Drop removes the virtual graph called name and reports whether it existed.
func (f *Factory) Drop(name string) bool {
	_, ok := f.graphs[name]
	delete(f.graphs, name)
	return ok
}

// Names returns the registered graph names, sorted.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.graphs))
	for n := range f.graphs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (f *Factory) table(ctx context.Context, what, query string) (*exec.Table, error) {
	if f.compiler == nil {
		return nil, qerr.Invalid(opBuild, "no query compiler configured")
	}
	plan, err := f.compiler.Compile(ctx, query)
	if err != nil {
		if qerr.KindOf(err) == 0 {
			err = qerr.Parse(opBuild, err, "cannot compile %s query", what)
		}
		return nil, err
	}
	return exec.Collect(plan)
}

// Build runs edgeQuery, then nodeQuery, and registers the resulting graph
// under name, replacing any previous graph of that name.
func (f *Factory) Build(ctx context.Context, name, nodeQuery, edgeQuery string) (*Graph, error) {
	if strings.TrimSpace(name) == "" {
		return nil, qerr.Invalid(opBuild, "graph name must not be empty")
	}
	if strings.TrimSpace(nodeQuery) == "" || strings.TrimSpace(edgeQuery) == "" {
		return nil, qerr.Invalid(opBuild, "node and edge queries must not be empty")
	}

	edgeTable, err := f.table(ctx, "edge", edgeQuery)
	if err != nil {
		return nil, err
	}
	nodeTable, err := f.table(ctx, "node", nodeQuery)
	if err != nil {
		return nil, err
	}

	g := FromTables(name, nodeTable, edgeTable)
	f.graphs[name] = g
	f.log.WithFields(logrus.Fields{
		"graph":         name,
		"nodes":         len(g.Nodes),
		"relationships": len(g.Edges),
	}).Info("virtual graph built")
	return g, nil
}

// FromTables assembles a virtual graph from already-collected query output.
func FromTables(name string, nodeTable, edgeTable *exec.Table) *Graph {
	g := newGraph(name)

	// 1. Edges first: parse rows and collect the endpoint set.
	cols := resolveEdgeColumns(edgeTable.Columns)
	skip := cols.roles()
	var parsed []Edge
	endpoints := make(map[string]struct{})
	for _, row := range edgeTable.Rows {
		e, ok := parseEdge(edgeTable.Columns, row, cols, skip)
		if !ok {
			continue
		}
		parsed = append(parsed, e)
		endpoints[e.From] = struct{}{}
		endpoints[e.To] = struct{}{}
	}

	// 2. Nodes, bounded by the endpoint set when it is non-empty.
	idCol := resolveNodeIDColumn(nodeTable.Columns)
	for _, row := range nodeTable.Rows {
		id := identifier(cell(row, idCol))
		if id == "" {
			continue
		}
		if len(endpoints) > 0 {
			if _, ok := endpoints[id]; !ok {
				continue
			}
		}
		g.addNode(Node{ID: id, Properties: rowProperties(nodeTable.Columns, row, map[int]bool{idCol: true})})
	}

	// 3. Deduplicate edges.
	seenIDs := make(map[string]struct{})
	seenKeys := make(map[string]struct{})
	for _, e := range parsed {
		if e.SourceEdgeID != "" {
			if _, dup := seenIDs[e.SourceEdgeID]; dup {
				continue
			}
			seenIDs[e.SourceEdgeID] = struct{}{}
		} else {
			key := compositeKey(e)
			if _, dup := seenKeys[key]; dup {
				continue
			}
			seenKeys[key] = struct{}{}
		}
		g.Edges = append(g.Edges, e)
	}

	// 4. Synthesize endpoints the node query did not return.
	for _, e := range g.Edges {
		for _, id := range []string{e.From, e.To} {
			g.addNode(Node{ID: id, Properties: map[string]binding.Value{}})
		}
	}
	return g
}

func parseEdge(headers []string, row []binding.Value, cols edgeColumns, skip map[int]bool) (Edge, bool) {
	e := Edge{
		From:       identifier(cell(row, cols.from)),
		To:         identifier(cell(row, cols.to)),
		Properties: rowProperties(headers, row, skip),
	}
	if e.From == "" || e.To == "" {
		return Edge{}, false
	}
	if t, ok := cell(row, cols.typ).AsString(); ok {
		e.Type = t
	}
	if id := cell(row, cols.id); !id.IsNull() {
		e.SourceEdgeID = identifier(id)
	}
	if cols.edge >= 0 && cols.edge < len(headers) {
		ev := cell(row, cols.edge)
		switch ev.Generic() {
		case binding.GenericEdge:
			e.SourceVariable = headers[cols.edge]
			if e.SourceEdgeID == "" {
				e.SourceEdgeID = ev.String()
			}
		case binding.GenericString:
			if e.Type == "" {
				e.Type, _ = ev.AsString()
			}
		}
	}
	return e, true
}

// compositeKey identifies an edge without an explicit id by its endpoints,
// type and sorted extra properties.
func compositeKey(e Edge) string {
	var sb strings.Builder
	sb.WriteString(e.From)
	sb.WriteByte(0)
	sb.WriteString(e.To)
	sb.WriteByte(0)
	sb.WriteString(e.Type)
	for _, k := range binding.SortedKeys(e.Properties) {
		sb.WriteByte(0)
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(e.Properties[k].Type().String())
		sb.WriteByte(':')
		sb.WriteString(e.Properties[k].String())
	}
	return sb.String()
}
