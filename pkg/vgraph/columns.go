package vgraph

import (
	"strings"

	"github.com/orneryd/graphexec/pkg/binding"
)

// Column roles are resolved from header names first, falling back to position.
var (
	fromHeaders   = []string{"from", "source"}
	toHeaders     = []string{"to", "target"}
	edgeHeaders   = []string{"edge", "r"}
	typeHeaders   = []string{"type", "label"}
	idHeaders     = []string{"id", "edge_id"}
	nodeIDHeaders = []string{"id", "node_id"}
)

func findColumn(headers []string, names []string, taken map[int]bool) int {
	for i, h := range headers {
		if taken[i] {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(h))
		for _, n := range names {
			if lower == n {
				return i
			}
		}
	}
	return -1
}

// edgeColumns holds the resolved column positions of an edge table; -1 means absent.
type edgeColumns struct {
	from, to, edge, typ, id int
}

func resolveEdgeColumns(headers []string) edgeColumns {
	taken := make(map[int]bool)
	pick := func(names []string) int {
		i := findColumn(headers, names, taken)
		if i >= 0 {
			taken[i] = true
		}
		return i
	}
	cols := edgeColumns{
		from: pick(fromHeaders),
		to:   pick(toHeaders),
		edge: pick(edgeHeaders),
		typ:  pick(typeHeaders),
		id:   pick(idHeaders),
	}

	// Positional fallback: column 0 is the source, column 2 (or 1) the target.
	if cols.from < 0 && len(headers) > 0 && !taken[0] {
		cols.from = 0
		taken[0] = true
	}
	if cols.to < 0 {
		switch {
		case len(headers) >= 3 && !taken[2]:
			cols.to = 2
		case len(headers) >= 2 && !taken[1]:
			cols.to = 1
		}
		if cols.to >= 0 {
			taken[cols.to] = true
		}
	}
	if cols.edge < 0 && cols.from == 0 && cols.to == 2 && !taken[1] {
		cols.edge = 1
		taken[1] = true
	}
	return cols
}

func (c edgeColumns) roles() map[int]bool {
	roles := make(map[int]bool)
	for _, i := range []int{c.from, c.to, c.edge, c.typ, c.id} {
		if i >= 0 {
			roles[i] = true
		}
	}
	return roles
}

func resolveNodeIDColumn(headers []string) int {
	if i := findColumn(headers, nodeIDHeaders, nil); i >= 0 {
		return i
	}
	return 0
}

// cell returns row[i], or NULL when i is absent or out of range.
func cell(row []binding.Value, i int) binding.Value {
	if i < 0 || i >= len(row) {
		return binding.Null
	}
	return row[i]
}

// identifier renders an id cell. NULL and non-identifier values render empty.
func identifier(v binding.Value) string {
	switch v.Generic() {
	case binding.GenericNode, binding.GenericEdge, binding.GenericNumber, binding.GenericString:
		return v.String()
	}
	return ""
}

// rowProperties collects scalar properties from every column not in skip.
// Map cells contribute their scalar entries.
func rowProperties(headers []string, row []binding.Value, skip map[int]bool) map[string]binding.Value {
	props := make(map[string]binding.Value)
	for i, v := range row {
		if skip[i] || i >= len(headers) {
			continue
		}
		switch {
		case v.IsScalar():
			props[headers[i]] = v
		case v.Generic() == binding.GenericMap:
			for k, inner := range binding.ScalarProperties(v.Entries()) {
				props[k] = inner
			}
		}
	}
	return props
}
