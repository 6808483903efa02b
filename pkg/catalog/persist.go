package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const fileSuffix = ".json"

// graphFile is the on-disk format of one projection. It has no version field.
type graphFile struct {
	NodeProjection         string       `json:"nodeProjection"`
	RelationshipProjection string       `json:"relationshipProjection"`
	Configuration          string       `json:"configuration"`
	CreationTime           int64        `json:"creationTime"`
	ModificationTime       int64        `json:"modificationTime"`
	ProjectedNodes         []uint64     `json:"projectedNodes"`
	Edges                  []edgeTriple `json:"edges"`
}

// edgeTriple encodes as [source, target, type].
type edgeTriple struct {
	Source uint64
	Target uint64
	Type   string
}

func (t edgeTriple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Source, t.Target, t.Type})
}

func (t *edgeTriple) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("edge triple has %d elements, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.Source); err != nil {
		return fmt.Errorf("edge source: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.Target); err != nil {
		return fmt.Errorf("edge target: %w", err)
	}
	if err := json.Unmarshal(raw[2], &t.Type); err != nil {
		return fmt.Errorf("edge type: %w", err)
	}
	return nil
}

func (c *Catalog) path(name string) string {
	return filepath.Join(c.dir, name+fileSuffix)
}

func encodeGraph(g *Graph) ([]byte, error) {
	f := graphFile{
		NodeProjection:         g.NodeProjection,
		RelationshipProjection: g.RelationshipProjection,
		Configuration:          g.Configuration,
		CreationTime:           g.CreationTime.UnixMilli(),
		ModificationTime:       g.ModificationTime.UnixMilli(),
		ProjectedNodes:         g.Nodes,
		Edges:                  make([]edgeTriple, len(g.Edges)),
	}
	if f.ProjectedNodes == nil {
		f.ProjectedNodes = []uint64{}
	}
	for i, e := range g.Edges {
		f.Edges[i] = edgeTriple{Source: e.Source, Target: e.Target, Type: e.Type}
	}
	return json.MarshalIndent(f, "", "  ")
}

func decodeGraph(name string, data []byte) (*Graph, error) {
	var f graphFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	g := &Graph{
		Name:                   name,
		NodeProjection:         f.NodeProjection,
		RelationshipProjection: f.RelationshipProjection,
		Configuration:          f.Configuration,
		CreationTime:           time.UnixMilli(f.CreationTime),
		ModificationTime:       time.UnixMilli(f.ModificationTime),
		Nodes:                  f.ProjectedNodes,
		Edges:                  make([]Edge, len(f.Edges)),
	}
	for i, t := range f.Edges {
		g.Edges[i] = Edge{Source: t.Source, Target: t.Target, Type: t.Type}
	}
	return g, nil
}

// save writes g through a temporary file and renames it into place.
func (c *Catalog) save(g *Graph) error {
	data, err := encodeGraph(g)
	if err != nil {
		return fmt.Errorf("failed to encode graph %q: %w", g.Name, err)
	}
	tmp := filepath.Join(c.dir, "."+g.Name+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write graph %q: %w", g.Name, err)
	}
	if err := os.Rename(tmp, c.path(g.Name)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to persist graph %q: %w", g.Name, err)
	}
	return nil
}

// reload loads every persisted projection of the catalog directory.
// Unreadable files are logged and skipped.
func (c *Catalog) reload() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fileName := entry.Name()
		if entry.IsDir() || strings.HasPrefix(fileName, ".") || !strings.HasSuffix(fileName, fileSuffix) {
			continue
		}
		name := strings.TrimSuffix(fileName, fileSuffix)
		log := c.log.WithField("graph", name)
		data, err := os.ReadFile(filepath.Join(c.dir, fileName))
		if err != nil {
			log.WithError(err).Warn("skipping unreadable projection file")
			continue
		}
		g, err := decodeGraph(name, data)
		if err != nil {
			log.WithError(err).Warn("skipping corrupt projection file")
			continue
		}
		c.graphs[name] = g
		log.WithField("nodes", len(g.Nodes)).Debug("projection reloaded")
	}
	return nil
}

// remove deletes the backing file of name. A missing file is not an error.
func (c *Catalog) remove(name string) error {
	err := os.Remove(c.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
