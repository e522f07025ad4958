// Package main provides the tgraph CLI entry point.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/tgraph/pkg/config"
	"github.com/orneryd/tgraph/pkg/depgraph"
	"github.com/orneryd/tgraph/pkg/fixture"
	"github.com/orneryd/tgraph/pkg/graph"
	"github.com/orneryd/tgraph/pkg/metrics"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tgraph",
		Short: "tgraph - typed in-memory graph with mirrored links",
		Long: `tgraph is a typed, transactional, in-memory graph store that keeps
inverse links consistent with forward links.

This tool loads dependency-graph fixtures into the sample schema,
commits them and checks the bidirectional link invariant.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML config file (TGRAPH_* env vars override it)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tgraph v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE:  runConfig,
	})

	loadCmd := &cobra.Command{
		Use:   "load [pattern...]",
		Short: "Load YAML fixtures, commit them and verify the graph",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLoad,
	}
	loadCmd.Flags().String("root", ".", "Directory patterns are resolved against")
	loadCmd.Flags().Bool("show-metrics", false, "Print collected metrics after loading")
	rootCmd.AddCommand(loadCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "demo",
		Short: "Build a small dependency graph and show mirror maintenance",
		RunE:  runDemo,
	})

	return rootCmd
}

// runtime is the per-invocation wiring shared by commands.
type runtime struct {
	cfg      *config.Config
	log      logr.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

func setup(cmd *cobra.Command) (*runtime, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var out io.Writer = os.Stderr
	if cfg.Logging.Output == "stdout" {
		out = cmd.OutOrStdout()
	}
	stdr.SetVerbosity(cfg.Logging.Verbosity())
	rt := &runtime{
		cfg: cfg,
		log: stdr.New(log.New(out, "", log.LstdFlags)).WithName("tgraph"),
	}

	if cfg.Metrics.Enabled {
		rt.registry = prometheus.NewRegistry()
		rt.metrics = metrics.NewCollector(cfg.Metrics.Namespace)
		if err := rt.metrics.Register(rt.registry); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return rt, nil
}

func (rt *runtime) newGraph() *graph.Graph {
	ctx := graph.NewContext(depgraph.MustSchema(),
		graph.WithConfig(rt.cfg),
		graph.WithLogger(rt.log),
		graph.WithMetrics(rt.metrics),
	)
	return graph.New(ctx)
}

func runConfig(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(rt.cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", rt.cfg, out)
	return nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	root, _ := cmd.Flags().GetString("root")
	showMetrics, _ := cmd.Flags().GetBool("show-metrics")
	w := cmd.OutOrStdout()

	g := rt.newGraph()
	loader := fixture.NewLoader(g.Schema(), os.DirFS(root), rt.log)

	tx := graph.NewTransaction(g.Context())
	if err := tx.SetMetadata(map[string]any{"command": "load", "patterns": strings.Join(args, " ")}); err != nil {
		return err
	}
	res, err := loader.Load(tx, args...)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("loading fixtures: %w", err)
	}
	if err := g.Commit(tx); err != nil {
		return err
	}

	fmt.Fprintf(w, "Loaded %d files, %d nodes\n", len(res.Files), g.Len())
	for _, f := range res.Files {
		fmt.Fprintf(w, "  • %s\n", f)
	}
	printCounts(w, g)

	if err := g.Verify(); err != nil {
		return err
	}
	fmt.Fprintln(w, "✅ All mirrored links consistent")

	if showMetrics && rt.registry != nil {
		return printMetrics(w, rt.registry)
	}
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	g := rt.newGraph()

	// 1. Create modules, packages and a maintainer in one transaction.
	tx := graph.NewTransaction(g.Context())
	app, err := graph.NewAs(tx, &depgraph.Module{Path: "example.com/app", Version: "v1.0.0"})
	if err != nil {
		return abandon(tx, err)
	}
	yamlMod, err := graph.NewAs(tx, &depgraph.Module{Path: "gopkg.in/yaml.v3", Version: "v3.0.1"})
	if err != nil {
		return abandon(tx, err)
	}
	ann, err := graph.NewAs(tx, &depgraph.Maintainer{Name: "Ann", Email: "ann@example.com"})
	if err != nil {
		return abandon(tx, err)
	}
	yamlPkg, err := graph.NewAs(tx, &depgraph.Package{
		Name: "yaml", ImportPath: "gopkg.in/yaml.v3", Module: graph.LinkTo(yamlMod),
	})
	if err != nil {
		return abandon(tx, err)
	}
	mainPkg, err := graph.NewAs(tx, &depgraph.Package{
		Name:        "main",
		ImportPath:  "example.com/app",
		Module:      graph.LinkTo(app),
		Imports:     graph.NewLinkSet(yamlPkg),
		Maintainers: graph.NewLinkSet(ann),
	})
	if err != nil {
		return abandon(tx, err)
	}
	if err := g.Commit(tx); err != nil {
		return err
	}
	fmt.Fprintln(w, "== after create")
	printGraph(w, g)

	// 2. Move main into the yaml module from the module side; the
	// package's single-valued module link follows.
	tx = graph.NewTransaction(g.Context())
	if err := graph.UpdateAs(tx, yamlMod, func(m *depgraph.Module) *depgraph.Module {
		m.Packages.Add(mainPkg)
		return m
	}); err != nil {
		return err
	}
	if err := g.Commit(tx); err != nil {
		return err
	}
	fmt.Fprintln(w, "== after moving main to gopkg.in/yaml.v3")
	printGraph(w, g)

	// 3. Remove the maintainer; ownership links disappear on both sides.
	tx = graph.NewTransaction(g.Context())
	if err := tx.RemoveNode(ann); err != nil {
		return err
	}
	if err := g.Commit(tx); err != nil {
		return err
	}
	fmt.Fprintln(w, "== after removing Ann")
	printGraph(w, g)

	if err := g.Verify(); err != nil {
		return err
	}
	fmt.Fprintf(w, "✅ %d nodes, %d commits, links consistent\n", g.Len(), g.Version())
	return nil
}

// abandon rolls tx back and returns the staging error that stopped it.
func abandon(tx *graph.Transaction, err error) error {
	_ = tx.Rollback()
	return fmt.Errorf("staging demo graph: %w", err)
}

func printCounts(w io.Writer, g *graph.Graph) {
	counts := make(map[string]int)
	for _, n := range g.IterNodes() {
		counts[g.Schema().TypeName(n.NodeType())]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %d\n", name, counts[name])
	}
}

// printGraph prints every node with its named data fields and links.
func printGraph(w io.Writer, g *graph.Graph) {
	s := g.Schema()
	for idx, n := range g.IterNodes() {
		label, _ := graph.DataRef[string](n, "name")
		if label == "" {
			label, _ = graph.DataRef[string](n, "path")
		}
		fmt.Fprintf(w, "  %-6s %-10s %s\n", idx, s.TypeName(n.NodeType()), label)
		for _, f := range s.Fields(n.NodeType()) {
			var targets []string
			for t := range n.IterLink(f.ID) {
				targets = append(targets, t.String())
			}
			if len(targets) > 0 {
				fmt.Fprintf(w, "           %s -> %s\n", f.Name, strings.Join(targets, ", "))
			}
		}
	}
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Metrics:")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			}
			fmt.Fprintf(w, "  %s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}
