package vgraph

import (
	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
)

// NodeScan iterates the nodes of a virtual graph, binding the node id (as a
// string) and its property map.
type NodeScan struct {
	Graph *Graph
	IDVar binding.VarHandle
	// PropsVar receives the property map; a negative handle skips it.
	PropsVar binding.VarHandle

	cursor int
}

func (s *NodeScan) Begin(*binding.Binding) error {
	s.cursor = 0
	return nil
}

func (s *NodeScan) Next(b *binding.Binding) (bool, error) {
	if s.cursor >= len(s.Graph.Nodes) {
		return false, nil
	}
	n := s.Graph.Nodes[s.cursor]
	s.cursor++
	b.Add(s.IDVar, binding.String(n.ID))
	b.Add(s.PropsVar, binding.Map(n.Properties))
	return true, nil
}

func (s *NodeScan) Reset(b *binding.Binding) error { return s.Begin(b) }

func (s *NodeScan) AssignNulls(b *binding.Binding) { exec.AssignNull(b, s.Variables()) }

func (s *NodeScan) Variables() []binding.VarHandle {
	return []binding.VarHandle{s.IDVar, s.PropsVar}
}

// EdgeScan iterates the edges of a virtual graph, binding source id, target id
// and type. A NULL type means the edge query provided none.
type EdgeScan struct {
	Graph   *Graph
	FromVar binding.VarHandle
	ToVar   binding.VarHandle
	TypeVar binding.VarHandle

	cursor int
}

func (s *EdgeScan) Begin(*binding.Binding) error {
	s.cursor = 0
	return nil
}

func (s *EdgeScan) Next(b *binding.Binding) (bool, error) {
	if s.cursor >= len(s.Graph.Edges) {
		return false, nil
	}
	e := s.Graph.Edges[s.cursor]
	s.cursor++
	b.Add(s.FromVar, binding.String(e.From))
	b.Add(s.ToVar, binding.String(e.To))
	if e.Type == "" {
		b.Add(s.TypeVar, binding.Null)
	} else {
		b.Add(s.TypeVar, binding.String(e.Type))
	}
	return true, nil
}

func (s *EdgeScan) Reset(b *binding.Binding) error { return s.Begin(b) }

func (s *EdgeScan) AssignNulls(b *binding.Binding) { exec.AssignNull(b, s.Variables()) }

func (s *EdgeScan) Variables() []binding.VarHandle {
	return []binding.VarHandle{s.FromVar, s.ToVar, s.TypeVar}
}
