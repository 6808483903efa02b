// Package vgraph builds virtual graphs: in-memory node/edge structures
// materialized by running an edge query and a node query.
//
// The edge query runs first. Its endpoints bound the node query's output, so
// only nodes that participate in some edge are kept (unless the edge query
// returns nothing, in which case every node is kept). Endpoints the node query
// did not return are synthesized as property-less nodes, so every edge of a
// virtual graph always resolves both endpoints.
package vgraph

import (
	"github.com/orneryd/graphexec/pkg/binding"
)

// Node is a virtual graph vertex with scalar properties.
type Node struct {
	ID         string
	Properties map[string]binding.Value
}

// Edge is a virtual graph relationship. Type, SourceVariable and SourceEdgeID
// are empty when the edge query did not provide them.
type Edge struct {
	From           string
	To             string
	Type           string
	SourceVariable string
	SourceEdgeID   string
	Properties     map[string]binding.Value
}

// Graph is a materialized virtual graph. It is read-only once built.
type Graph struct {
	Name  string
	Nodes []Node
	Edges []Edge

	index map[string]int
}

func newGraph(name string) *Graph {
	return &Graph{Name: name, index: make(map[string]int)}
}

// addNode appends n unless a node with the same id exists.
func (g *Graph) addNode(n Node) bool {
	if _, ok := g.index[n.ID]; ok {
		return false
	}
	g.index[n.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	return true
}

// Node returns the node with id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// HasNode reports whether id is a node of g.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Summary renders node and edge counts as a map value.
func (g *Graph) Summary() binding.Value {
	return binding.Map(map[string]binding.Value{
		"graphName":         binding.String(g.Name),
		"nodeCount":         binding.Int(int64(len(g.Nodes))),
		"relationshipCount": binding.Int(int64(len(g.Edges))),
	})
}
