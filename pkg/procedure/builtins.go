package procedure

import (
	"context"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/catalog"
	"github.com/orneryd/graphexec/pkg/qerr"
	"github.com/orneryd/graphexec/pkg/vgraph"
)

// Built-in procedure names.
const (
	DBLabels            = "db.labels"
	DBPropertyKeys      = "db.propertyKeys"
	DBRelationshipTypes = "db.relationshipTypes"
	GraphProject        = "gds.graph.project"
	GraphList           = "gds.graph.list"
	GraphDrop           = "gds.graph.drop"
	GraphVirtual        = "gds.graph.virtual"
)

// Metadata lists the tokens known to the live graph.
type Metadata interface {
	Labels() ([]string, error)
	PropertyKeys() ([]string, error)
	RelationshipTypes() ([]string, error)
}

// Builtins holds the collaborators of the built-in procedures. Nil fields
// leave the corresponding procedures unregistered.
type Builtins struct {
	Metadata Metadata
	Catalog  *catalog.Catalog
	Virtual  *vgraph.Factory
	// Database is the default database tag for gds.graph.drop.
	Database string
}

// Registry builds a registry holding every built-in procedure whose
// collaborator is available.
func (bi Builtins) Registry() *Registry {
	r := NewRegistry()
	if bi.Metadata != nil {
		r.Register(DBLabels, tokens(bi.Metadata.Labels))
		r.Register(DBPropertyKeys, tokens(bi.Metadata.PropertyKeys))
		r.Register(DBRelationshipTypes, tokens(bi.Metadata.RelationshipTypes))
	}
	if bi.Catalog != nil {
		r.Register(GraphProject, bi.project)
		r.Register(GraphList, bi.list)
		r.Register(GraphDrop, bi.drop)
	}
	if bi.Virtual != nil {
		r.Register(GraphVirtual, bi.virtual)
	}
	return r
}

func tokens(list func() ([]string, error)) Procedure {
	return func(context.Context, []binding.Value) ([]binding.Value, error) {
		names, err := list()
		if err != nil {
			return nil, err
		}
		rows := make([]binding.Value, len(names))
		for i, n := range names {
			rows[i] = binding.String(n)
		}
		return rows, nil
	}
}

func (bi Builtins) project(ctx context.Context, args []binding.Value) ([]binding.Value, error) {
	s, err := bi.Catalog.ProjectArgs(ctx, args)
	if err != nil {
		return nil, err
	}
	return []binding.Value{s.Value()}, nil
}

func (bi Builtins) list(_ context.Context, args []binding.Value) ([]binding.Value, error) {
	if len(args) > 1 {
		return nil, qerr.Invalid(GraphList, "expected at most 1 argument, got %d", len(args))
	}
	name := ""
	if len(args) == 1 && !args[0].IsNull() {
		s, ok := args[0].AsString()
		if !ok {
			return nil, qerr.Invalid(GraphList, "graphName must be a string, got %s", args[0].Type())
		}
		name = s
	}
	summaries := bi.Catalog.List(name)
	rows := make([]binding.Value, len(summaries))
	for i, s := range summaries {
		rows[i] = s.Value()
	}
	return rows, nil
}

func (bi Builtins) drop(_ context.Context, args []binding.Value) ([]binding.Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return nil, qerr.Invalid(GraphDrop, "expected 1 to 3 arguments, got %d", len(args))
	}
	name, ok := args[0].AsString()
	if !ok {
		return nil, qerr.Invalid(GraphDrop, "graphName must be a string, got %s", args[0].Type())
	}
	failIfMissing := true
	if len(args) > 1 && !args[1].IsNull() {
		if failIfMissing, ok = args[1].AsBool(); !ok {
			return nil, qerr.Invalid(GraphDrop, "failIfMissing must be a boolean, got %s", args[1].Type())
		}
	}
	database := bi.Database
	if len(args) > 2 && !args[2].IsNull() {
		if database, ok = args[2].AsString(); !ok {
			return nil, qerr.Invalid(GraphDrop, "dbName must be a string, got %s", args[2].Type())
		}
	}
	s, err := bi.Catalog.Drop(name, failIfMissing, database)
	if err != nil || s == nil {
		return nil, err
	}
	return []binding.Value{s.Value()}, nil
}

func (bi Builtins) virtual(ctx context.Context, args []binding.Value) ([]binding.Value, error) {
	if len(args) != 3 {
		return nil, qerr.Invalid(GraphVirtual, "expected 3 arguments (graphName, nodeQuery, edgeQuery), got %d", len(args))
	}
	strs := make([]string, 3)
	for i, a := range args {
		s, ok := a.AsString()
		if !ok {
			return nil, qerr.Invalid(GraphVirtual, "argument %d must be a string, got %s", i+1, a.Type())
		}
		strs[i] = s
	}
	g, err := bi.Virtual.Build(ctx, strs[0], strs[1], strs[2])
	if err != nil {
		return nil, err
	}
	return []binding.Value{g.Summary()}, nil
}
