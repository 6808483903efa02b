// Package storage provides the live-graph collaborator consumed by the
// execution core: a label/type index and a property index over numeric node
// and edge ids, backed by BadgerDB.
//
// The execution core only asks range-scan questions of this package:
//   - given a label, which node ids carry it
//   - given a relationship type, which edges have it
//   - given an entity id, which properties does it have
//
// Example Usage:
//
//	engine, err := storage.NewBadgerEngineInMemory()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
//
//	engine.CreateNode(&storage.Node{ID: 1, Labels: []string{"Person"},
//		Properties: map[string]any{"name": "Alice"}})
//	engine.CreateNode(&storage.Node{ID: 2, Labels: []string{"Person"}})
//	engine.CreateEdge(&storage.Edge{ID: 10, Source: 1, Target: 2, Type: "KNOWS"})
//
//	ids, _ := engine.NodesByLabel("Person") // [1 2]
package storage

import (
	"errors"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidID     = errors.New("invalid id")
	ErrInvalidData   = errors.New("invalid data")
	ErrInvalidEdge   = errors.New("invalid edge: start or end node not found")
	ErrStorageClosed = errors.New("storage closed")
)

// Node is a labeled property-graph vertex. ID zero is reserved.
type Node struct {
	ID         uint64         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Edge is a directed, typed relationship between two nodes.
type Edge struct {
	ID         uint64         `json:"id"`
	Source     uint64         `json:"source"`
	Target     uint64         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}
