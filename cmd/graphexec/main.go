// Package main provides the graphexec CLI: it loads a live graph into
// BadgerDB, runs pattern queries and procedures, and manages the projection
// catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "graphexec",
		Short: "graphexec - graph query execution core",
		Long: `graphexec runs pattern queries and procedures against a BadgerDB-backed
graph and manages named graph projections.

Commands:
  • load     import nodes and edges from a YAML file
  • query    run a MATCH ... RETURN query
  • call     invoke a built-in procedure (db.labels, gds.graph.*)
  • catalog  project, list and drop named graph projections`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file (overrides environment)")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (overrides configuration)")
	rootCmd.PersistentFlags().String("catalog-dir", "", "Catalog directory (overrides configuration)")
	rootCmd.PersistentFlags().Bool("metrics", false, "Print catalog metrics after the command")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graphexec v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "load [file]",
		Short: "Load nodes and edges from a YAML file into the live graph",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoad,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "query [cypher]",
		Short: "Run a MATCH ... RETURN query",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "call [procedure] [args...]",
		Short: "Call a built-in procedure; arguments are YAML literals",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCall,
	})

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Graph projection catalog operations",
	}
	projectCmd := &cobra.Command{
		Use:   "project [name] [nodes] [relationships]",
		Short: "Project a named graph (specifiers: *, Label, A,B or a MATCH query)",
		Args:  cobra.ExactArgs(3),
		RunE:  runProject,
	}
	projectCmd.Flags().String("configuration", "", "Projection configuration as a YAML/JSON map")
	catalogCmd.AddCommand(projectCmd)
	catalogCmd.AddCommand(&cobra.Command{
		Use:   "list [name]",
		Short: "List projected graphs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runList,
	})
	dropCmd := &cobra.Command{
		Use:   "drop [name]",
		Short: "Drop a projected graph",
		Args:  cobra.ExactArgs(1),
		RunE:  runDrop,
	}
	dropCmd.Flags().Bool("fail-if-missing", true, "Fail when the graph does not exist")
	catalogCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(catalogCmd)

	return rootCmd
}
