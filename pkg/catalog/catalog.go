// Package catalog maintains named graph projections: snapshots of a node and
// edge subset of the live graph that survive restarts.
//
// A projection is created with Project, inspected with List and removed with
// Drop. Each projection is persisted as one JSON file in the catalog
// directory and reloaded eagerly when a Catalog is constructed.
//
// Example:
//
//	cat, err := catalog.New(dir, engine, catalog.WithCompiler(compiler))
//	if err != nil {
//		return err
//	}
//	summary, err := cat.Project(ctx, catalog.Request{
//		Name:  "people",
//		Nodes: catalog.Names("Person"),
//		Rels:  catalog.Wildcard(),
//	})
//
// Concurrency:
//
//	A Catalog is not safe for concurrent mutation. Project and Drop touch both
//	the in-memory map and the filesystem without locking; callers serialize
//	access or wrap the catalog in their own mutex.
package catalog

import (
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/config"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/storage"
)

// GraphIndex is the live-graph collaborator used by descriptor resolution.
// storage.BadgerEngine implements it.
type GraphIndex interface {
	AllNodeIDs() ([]uint64, error)
	NodesByLabel(label string) ([]uint64, error)
	AllEdges() ([]*storage.Edge, error)
	EdgesByType(relType string) ([]*storage.Edge, error)
	GetEdge(id uint64) (*storage.Edge, error)
	NodeProperties(id uint64) (map[string]any, error)
}

// Edge is one projected relationship.
type Edge struct {
	Source uint64
	Target uint64
	Type   string
	// Properties holds scalar properties captured by subquery projections.
	// They are kept in memory only.
	Properties map[string]binding.Value
}

// Graph is a stored projection.
type Graph struct {
	Name                   string
	NodeProjection         string
	RelationshipProjection string
	Configuration          string
	CreationTime           time.Time
	ModificationTime       time.Time
	Nodes                  []uint64
	Edges                  []Edge
	// NodeProperties holds properties captured at projection time, keyed by
	// node id. In-memory only.
	NodeProperties map[uint64]map[string]binding.Value
}

// Catalog owns every stored projection and its backing file.
type Catalog struct {
	dir      string
	index    GraphIndex
	compiler exec.Compiler
	graphs   map[string]*Graph
	defaults config.CatalogConfig
	database string
	now      func() time.Time
	log      *logrus.Entry
	metrics  *Metrics
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Catalog) { c.log = log }
}

// WithCompiler enables subquery-mode projections.
func WithCompiler(compiler exec.Compiler) Option {
	return func(c *Catalog) { c.compiler = compiler }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithDefaults sets the configuration applied when a projection omits a key.
func WithDefaults(defaults config.CatalogConfig) Option {
	return func(c *Catalog) { c.defaults = defaults }
}

// WithDatabase sets the database name reported in summaries.
func WithDatabase(name string) Option {
	return func(c *Catalog) { c.database = name }
}

// WithMetrics attaches catalog metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Catalog) { c.metrics = m }
}

// New creates a catalog over dir, creating the directory if needed, and
// reloads every persisted projection found there.
func New(dir string, index GraphIndex, opts ...Option) (*Catalog, error) {
	c := &Catalog{
		dir:      dir,
		index:    index,
		graphs:   make(map[string]*Graph),
		defaults: config.DefaultCatalogConfig(),
		database: config.DefaultDatabaseName,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	c.log = c.log.WithField("component", "catalog")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := c.reload(); err != nil {
		return nil, err
	}
	c.metrics.setGraphs(len(c.graphs))
	return c, nil
}

// Dir returns the catalog directory.
func (c *Catalog) Dir() string { return c.dir }

// Get returns the projection called name.
func (c *Catalog) Get(name string) (*Graph, bool) {
	g, ok := c.graphs[name]
	return g, ok
}

// Names returns the names of all projections, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.graphs))
	for name := range c.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List summarizes the projection called name, or every projection when name
// is empty. An unknown name yields no summaries.
func (c *Catalog) List(name string) []Summary {
	if name != "" {
		g, ok := c.graphs[name]
		if !ok {
			return nil
		}
		return []Summary{c.summarize(g, c.database)}
	}
	out := make([]Summary, 0, len(c.graphs))
	for _, n := range c.Names() {
		out = append(out, c.summarize(c.graphs[n], c.database))
	}
	return out
}
