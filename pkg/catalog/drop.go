package catalog

import (
	"github.com/orneryd/graphexec/pkg/qerr"
)

const opDrop = "gds.graph.drop"

// Drop removes the projection called name and returns its final summary.
//
// A missing name is a NotFound error when failIfMissing is set and an empty
// result (nil, nil) otherwise. The in-memory entry is removed first; failing
// to delete the backing file is logged and does not undo the drop. database
// tags the returned summary; empty means the catalog's database.
func (c *Catalog) Drop(name string, failIfMissing bool, database string) (*Summary, error) {
	g, ok := c.graphs[name]
	if !ok {
		if failIfMissing {
			return nil, qerr.Missing(opDrop, "graph %q does not exist", name)
		}
		return nil, nil
	}
	if database == "" {
		database = c.database
	}
	summary := c.summarize(g, database)

	delete(c.graphs, name)
	c.metrics.dropped(len(c.graphs))

	log := c.log.WithField("graph", name)
	if err := c.remove(name); err != nil {
		log.WithError(err).Warn("failed to delete projection file")
	}
	log.Info("graph dropped")
	return &summary, nil
}
