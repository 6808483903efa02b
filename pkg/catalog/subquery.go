package catalog

import (
	"context"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/qerr"
)

// role is a variable a subquery projection must expose.
type role struct {
	name string
	kind exec.VarKind
}

var (
	nodeQueryRoles = []role{{"n", exec.KindNode}}
	relQueryRoles  = []role{{"a", exec.KindNode}, {"r", exec.KindEdge}, {"b", exec.KindNode}}
)

// compileRoles compiles query and resolves the handles of the required roles.
func (c *Catalog) compileRoles(ctx context.Context, what, query string, roles []role) (*exec.Plan, []binding.VarHandle, error) {
	if c.compiler == nil {
		return nil, nil, qerr.Invalid(opProject, "%s query projection requires a query compiler", what)
	}
	plan, err := c.compiler.Compile(ctx, query)
	if err != nil {
		if qerr.KindOf(err) == 0 {
			err = qerr.Parse(opProject, err, "cannot compile %s query", what)
		}
		return nil, nil, err
	}
	handles := make([]binding.VarHandle, len(roles))
	for i, r := range roles {
		kind, declared := plan.Types[r.name]
		h, found := plan.Variables.Lookup(r.name)
		if !declared || !found {
			return nil, nil, qerr.Invalid(opProject, "%s query must expose variable %q", what, r.name)
		}
		if kind != r.kind {
			return nil, nil, qerr.Invalid(opProject, "%s query variable %q must be a %s, got %s", what, r.name, r.kind, kind)
		}
		handles[i] = h
	}
	return plan, handles, nil
}

// resolveQueries runs the node query and then the relationship query.
// Nodes are deduplicated by id (first occurrence wins), edges by edge id, and
// edges with an endpoint outside the collected node set are dropped. Only
// scalar properties are captured.
func (c *Catalog) resolveQueries(ctx context.Context, nodeQuery, relQuery string) (*Graph, error) {
	nodePlan, nodeHandles, err := c.compileRoles(ctx, "node", nodeQuery, nodeQueryRoles)
	if err != nil {
		return nil, err
	}
	relPlan, relHandles, err := c.compileRoles(ctx, "relationship", relQuery, relQueryRoles)
	if err != nil {
		return nil, err
	}

	g := &Graph{NodeProperties: make(map[uint64]map[string]binding.Value)}
	nodes := make(map[uint64]struct{})
	err = run(nodePlan, func(b *binding.Binding) error {
		id, ok := b.Get(nodeHandles[0]).ID()
		if !ok {
			return nil
		}
		if _, dup := nodes[id]; dup {
			return nil
		}
		raw, err := c.index.NodeProperties(id)
		if err != nil {
			return err
		}
		nodes[id] = struct{}{}
		g.Nodes = append(g.Nodes, id)
		g.NodeProperties[id] = scalarProps(raw)
		return nil
	})
	if err != nil {
		return nil, err
	}

	edges := make(map[uint64]struct{})
	err = run(relPlan, func(b *binding.Binding) error {
		src, okA := b.Get(relHandles[0]).ID()
		edgeID, okR := b.Get(relHandles[1]).ID()
		dst, okB := b.Get(relHandles[2]).ID()
		if !okA || !okR || !okB {
			return nil
		}
		if _, dup := edges[edgeID]; dup {
			return nil
		}
		edges[edgeID] = struct{}{}
		_, hasSrc := nodes[src]
		_, hasDst := nodes[dst]
		if !hasSrc || !hasDst {
			return nil
		}
		stored, err := c.index.GetEdge(edgeID)
		if err != nil {
			return err
		}
		g.Edges = append(g.Edges, Edge{
			Source:     src,
			Target:     dst,
			Type:       stored.Type,
			Properties: scalarProps(stored.Properties),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// run drives plan to exhaustion on a fresh binding, calling row per result.
func run(plan *exec.Plan, row func(b *binding.Binding) error) error {
	b := binding.New(plan.Variables.Len())
	if err := plan.Root.Begin(b); err != nil {
		return err
	}
	for {
		ok, err := plan.Root.Next(b)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := row(b); err != nil {
			return err
		}
	}
}

func scalarProps(raw map[string]any) map[string]binding.Value {
	props := make(map[string]binding.Value, len(raw))
	for k, v := range raw {
		props[k] = binding.FromGo(v)
	}
	return binding.ScalarProperties(props)
}
