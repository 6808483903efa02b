package cypher

import (
	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/storage"
)

// Graph is the live-graph index a compiled plan scans. storage.BadgerEngine
// implements it.
type Graph interface {
	AllNodeIDs() ([]uint64, error)
	NodesByLabel(label string) ([]uint64, error)
	AllEdges() ([]*storage.Edge, error)
	EdgesByType(relType string) ([]*storage.Edge, error)
	NodeProperties(id uint64) (map[string]any, error)
	EdgeProperties(id uint64) (map[string]any, error)
}

var _ Graph = (*storage.BadgerEngine)(nil)

// NodeScan binds every node carrying Label (every node when Label is empty).
// The id list is read from the index at Begin.
type NodeScan struct {
	Graph Graph
	Label string
	Var   binding.VarHandle

	ids    []uint64
	cursor int
}

func (s *NodeScan) Begin(*binding.Binding) error {
	var err error
	if s.Label == "" {
		s.ids, err = s.Graph.AllNodeIDs()
	} else {
		s.ids, err = s.Graph.NodesByLabel(s.Label)
	}
	s.cursor = 0
	return err
}

func (s *NodeScan) Next(b *binding.Binding) (bool, error) {
	if s.cursor >= len(s.ids) {
		return false, nil
	}
	b.Add(s.Var, binding.Node(s.ids[s.cursor]))
	s.cursor++
	return true, nil
}

func (s *NodeScan) Reset(*binding.Binding) error {
	s.cursor = 0
	return nil
}

func (s *NodeScan) AssignNulls(b *binding.Binding) { b.Add(s.Var, binding.Null) }

func (s *NodeScan) Variables() []binding.VarHandle { return []binding.VarHandle{s.Var} }

// EdgeScan binds (source)-[edge]->(target) for every edge of Type (every
// edge when Type is empty) whose endpoints carry SourceLabel and TargetLabel.
// When Source and Target are the same variable only self-loops match.
type EdgeScan struct {
	Graph       Graph
	Type        string
	SourceLabel string
	TargetLabel string
	Source      binding.VarHandle
	Rel         binding.VarHandle
	Target      binding.VarHandle

	edges  []*storage.Edge
	cursor int
}

func labelSet(g Graph, label string) (map[uint64]struct{}, error) {
	if label == "" {
		return nil, nil
	}
	ids, err := g.NodesByLabel(label)
	if err != nil {
		return nil, err
	}
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *EdgeScan) Begin(*binding.Binding) error {
	s.edges, s.cursor = nil, 0
	var (
		all []*storage.Edge
		err error
	)
	if s.Type == "" {
		all, err = s.Graph.AllEdges()
	} else {
		all, err = s.Graph.EdgesByType(s.Type)
	}
	if err != nil {
		return err
	}
	srcSet, err := labelSet(s.Graph, s.SourceLabel)
	if err != nil {
		return err
	}
	dstSet, err := labelSet(s.Graph, s.TargetLabel)
	if err != nil {
		return err
	}
	for _, e := range all {
		if srcSet != nil {
			if _, ok := srcSet[e.Source]; !ok {
				continue
			}
		}
		if dstSet != nil {
			if _, ok := dstSet[e.Target]; !ok {
				continue
			}
		}
		if s.Source == s.Target && e.Source != e.Target {
			continue
		}
		s.edges = append(s.edges, e)
	}
	return nil
}

func (s *EdgeScan) Next(b *binding.Binding) (bool, error) {
	if s.cursor >= len(s.edges) {
		return false, nil
	}
	e := s.edges[s.cursor]
	s.cursor++
	b.Add(s.Source, binding.Node(e.Source))
	b.Add(s.Rel, binding.Edge(e.ID))
	b.Add(s.Target, binding.Node(e.Target))
	return true, nil
}

func (s *EdgeScan) Reset(*binding.Binding) error {
	s.cursor = 0
	return nil
}

func (s *EdgeScan) AssignNulls(b *binding.Binding) { exec.AssignNull(b, s.Variables()) }

func (s *EdgeScan) Variables() []binding.VarHandle {
	return []binding.VarHandle{s.Source, s.Rel, s.Target}
}

// propertyReader resolves v.key against the storage property index.
type propertyReader struct {
	graph Graph
}

func (r propertyReader) Property(ref binding.Value, key string) (binding.Value, error) {
	id, ok := ref.ID()
	if !ok {
		return binding.Null, nil
	}
	var (
		props map[string]any
		err   error
	)
	if ref.Generic() == binding.GenericEdge {
		props, err = r.graph.EdgeProperties(id)
	} else {
		props, err = r.graph.NodeProperties(id)
	}
	if err != nil {
		return binding.Null, err
	}
	v, ok := props[key]
	if !ok {
		return binding.Null, nil
	}
	return binding.FromGo(v), nil
}
