package main

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orneryd/graphexec/pkg/catalog"
	"github.com/orneryd/graphexec/pkg/config"
	"github.com/orneryd/graphexec/pkg/cypher"
	"github.com/orneryd/graphexec/pkg/procedure"
	"github.com/orneryd/graphexec/pkg/storage"
	"github.com/orneryd/graphexec/pkg/vgraph"
)

// env is the set of components one CLI invocation works with.
type env struct {
	cfg      *config.Config
	log      *logrus.Entry
	store    *storage.BadgerEngine
	compiler *cypher.Compiler
	catalog  *catalog.Catalog
	virtual  *vgraph.Factory
	procs    *procedure.Registry
	metrics  *prometheus.Registry
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	} else {
		cfg = config.LoadFromEnv()
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		cfg.Database.DataDir = dir
	}
	if dir, _ := cmd.Flags().GetString("catalog-dir"); dir != "" {
		cfg.Database.CatalogDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		return nil, err
	}
	logger.SetOutput(cmd.ErrOrStderr())
	log := logrus.NewEntry(logger)

	store, err := storage.NewBadgerEngineWithOptions(storage.BadgerOptions{
		DataDir:    cfg.Database.DataDir,
		InMemory:   cfg.Database.InMemory,
		SyncWrites: cfg.Database.SyncWrites,
		Logger:     log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open graph: %w", err)
	}

	e := &env{
		cfg:      cfg,
		log:      log,
		store:    store,
		compiler: newCompiler(cfg, store),
		metrics:  prometheus.NewRegistry(),
	}
	e.catalog, err = catalog.New(cfg.Database.CatalogDir, store,
		catalog.WithLogger(log),
		catalog.WithCompiler(e.compiler),
		catalog.WithDefaults(cfg.Catalog),
		catalog.WithDatabase(cfg.Database.Name),
		catalog.WithMetrics(catalog.NewMetrics(e.metrics)),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	e.virtual = vgraph.NewFactory(e.compiler, log)
	e.procs = procedure.Builtins{
		Metadata: store,
		Catalog:  e.catalog,
		Virtual:  e.virtual,
		Database: cfg.Database.Name,
	}.Registry()
	return e, nil
}

// newCompiler builds the query compiler, with a parse cache unless the
// configured size is zero.
func newCompiler(cfg *config.Config, store *storage.BadgerEngine) *cypher.Compiler {
	if cfg.Query.CacheSize == 0 {
		return cypher.NewCompiler(store)
	}
	return cypher.NewCompiler(store, cypher.WithCache(cfg.Query.CacheSize, cfg.Query.CacheTTL))
}

// close releases the store and, when requested, prints the metrics gathered
// during the command.
func (e *env) close(cmd *cobra.Command) error {
	if show, _ := cmd.Flags().GetBool("metrics"); show {
		if err := printMetrics(cmd.OutOrStdout(), e.metrics); err != nil {
			e.log.WithError(err).Warn("cannot gather metrics")
		}
	}
	return e.store.Close()
}

func printMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", mf.GetName(), m.GetCounter().GetValue())
			case m.GetGauge() != nil:
				fmt.Fprintf(w, "%s %g\n", mf.GetName(), m.GetGauge().GetValue())
			}
		}
	}
	return nil
}
