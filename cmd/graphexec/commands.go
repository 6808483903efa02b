package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/catalog"
	"github.com/orneryd/graphexec/pkg/exec"
	"github.com/orneryd/graphexec/pkg/expr"
	"github.com/orneryd/graphexec/pkg/procedure"
	"github.com/orneryd/graphexec/pkg/storage"
)

// graphFile is the YAML import format of the load command.
type graphFile struct {
	Nodes []storage.Node `yaml:"nodes"`
	Edges []storage.Edge `yaml:"edges"`
}

func runLoad(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var gf graphFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close(cmd)

	for i := range gf.Nodes {
		if err := e.store.CreateNode(&gf.Nodes[i]); err != nil {
			return fmt.Errorf("node %d: %w", gf.Nodes[i].ID, err)
		}
	}
	for i := range gf.Edges {
		if err := e.store.CreateEdge(&gf.Edges[i]); err != nil {
			return fmt.Errorf("edge %d: %w", gf.Edges[i].ID, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d nodes, %d edges\n", len(gf.Nodes), len(gf.Edges))
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close(cmd)

	plan, err := e.compiler.Compile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	table, err := exec.Collect(plan)
	if err != nil {
		return err
	}
	return printTable(cmd.OutOrStdout(), table)
}

func runCall(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close(cmd)

	callArgs := make([]expr.Expression, 0, len(args)-1)
	for _, raw := range args[1:] {
		v, err := parseLiteral(raw)
		if err != nil {
			return err
		}
		callArgs = append(callArgs, expr.Const{Value: v})
	}

	reg := binding.NewRegistry()
	out := reg.Declare("value")
	call := procedure.NewNamedCall(cmd.Context(), e.procs, args[0], callArgs, []binding.VarHandle{out}, false)
	table, err := exec.Collect(&exec.Plan{
		Root:      call,
		Variables: reg,
		Columns:   []exec.Column{{Name: "value", Handle: out}},
	})
	if err != nil {
		return err
	}
	if !call.Resolved() {
		e.log.WithField("procedure", args[0]).Warn("unknown procedure, no rows")
	}
	return printTable(cmd.OutOrStdout(), table)
}

func runProject(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close(cmd)

	procArgs := []binding.Value{binding.String(args[0]), specArg(args[1]), specArg(args[2])}
	if raw, _ := cmd.Flags().GetString("configuration"); raw != "" {
		v, err := parseLiteral(raw)
		if err != nil {
			return err
		}
		procArgs = append(procArgs, v)
	}
	s, err := e.catalog.ProjectArgs(cmd.Context(), procArgs)
	if err != nil {
		return err
	}
	return printSummaries(cmd.OutOrStdout(), []catalog.Summary{s})
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close(cmd)

	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	return printSummaries(cmd.OutOrStdout(), e.catalog.List(name))
}

func runDrop(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close(cmd)

	failIfMissing, _ := cmd.Flags().GetBool("fail-if-missing")
	s, err := e.catalog.Drop(args[0], failIfMissing, e.cfg.Database.Name)
	if err != nil {
		return err
	}
	if s == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Graph %q not found\n", args[0])
		return nil
	}
	return printSummaries(cmd.OutOrStdout(), []catalog.Summary{*s})
}

// specArg turns a command-line specifier into a procedure argument: queries
// and single names stay strings, comma-separated names become a list.
func specArg(raw string) binding.Value {
	if catalog.LooksLikeQuery(raw) || !strings.Contains(raw, ",") {
		return binding.String(raw)
	}
	var items []binding.Value
	for _, part := range strings.Split(raw, ",") {
		items = append(items, binding.String(strings.TrimSpace(part)))
	}
	return binding.List(items...)
}

// parseLiteral decodes a YAML literal (scalar, list or map) into a value.
func parseLiteral(raw string) (binding.Value, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return binding.Null, fmt.Errorf("invalid argument %q: %w", raw, err)
	}
	return binding.FromGo(v), nil
}

func printTable(w io.Writer, t *exec.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "(%d rows)\n", len(t.Rows))
	return nil
}

func printSummaries(w io.Writer, summaries []catalog.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "graphName\tnodeProjection\trelationshipProjection\tnodes\trelationships\tdensity\tbytes")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.4f\t%d\n",
			s.GraphName, s.NodeProjection, s.RelationshipProjection,
			s.NodeCount, s.RelationshipCount, s.Density, s.SizeInBytes)
	}
	return tw.Flush()
}
