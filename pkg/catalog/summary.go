package catalog

import (
	"os"
	"time"

	"github.com/orneryd/graphexec/pkg/binding"
)

// Summary describes one projection as reported by project, list and drop.
type Summary struct {
	GraphName              string
	Database               string
	NodeProjection         string
	RelationshipProjection string
	Configuration          string
	NodeCount              int64
	RelationshipCount      int64
	Density                float64
	SizeInBytes            int64
	CreationTime           time.Time
	ModificationTime       time.Time
	ProjectMillis          int64
}

// Density is edgeCount / (nodeCount * (nodeCount - 1)) for more than one
// node, and 0 otherwise.
func Density(nodeCount, edgeCount int64) float64 {
	if nodeCount <= 1 {
		return 0
	}
	return float64(edgeCount) / float64(nodeCount*(nodeCount-1))
}

// summarize recomputes the derived fields of g. The file size is read live;
// failures degrade to zero and are logged.
func (c *Catalog) summarize(g *Graph, database string) Summary {
	nodes := int64(len(g.Nodes))
	edges := int64(len(g.Edges))
	return Summary{
		GraphName:              g.Name,
		Database:               database,
		NodeProjection:         g.NodeProjection,
		RelationshipProjection: g.RelationshipProjection,
		Configuration:          g.Configuration,
		NodeCount:              nodes,
		RelationshipCount:      edges,
		Density:                Density(nodes, edges),
		SizeInBytes:            c.sizeOf(g.Name),
		CreationTime:           g.CreationTime,
		ModificationTime:       g.ModificationTime,
	}
}

func (c *Catalog) sizeOf(name string) int64 {
	info, err := os.Stat(c.path(name))
	if err != nil {
		c.log.WithError(err).WithField("graph", name).Warn("cannot read projection file size")
		return 0
	}
	return info.Size()
}

// Value renders the summary as a map value, the row shape of the catalog
// procedures.
func (s Summary) Value() binding.Value {
	return binding.Map(map[string]binding.Value{
		"graphName":              binding.String(s.GraphName),
		"database":               binding.String(s.Database),
		"nodeProjection":         binding.String(s.NodeProjection),
		"relationshipProjection": binding.String(s.RelationshipProjection),
		"configuration":          binding.String(s.Configuration),
		"nodeCount":              binding.Int(s.NodeCount),
		"relationshipCount":      binding.Int(s.RelationshipCount),
		"density":                binding.Double(s.Density),
		"sizeInBytes":            binding.Int(s.SizeInBytes),
		"creationTime":           binding.Int(s.CreationTime.UnixMilli()),
		"modificationTime":       binding.Int(s.ModificationTime.UnixMilli()),
		"projectMillis":          binding.Int(s.ProjectMillis),
	})
}
