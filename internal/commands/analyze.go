package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kuntumseroja/techdocgen/pkg/config"
	"github.com/kuntumseroja/techdocgen/pkg/depgraph"
	"github.com/kuntumseroja/techdocgen/pkg/engine"
	"github.com/kuntumseroja/techdocgen/pkg/integration"
	"github.com/kuntumseroja/techdocgen/pkg/logger"
	"github.com/kuntumseroja/techdocgen/pkg/output"
)

// IntegrationFileName is the integration diagram written next to the
// dependency exports.
const IntegrationFileName = "integration_graph.mmd"

var (
	outputDir  string
	formats    []string
	configPath string
	workers    int
	threshold  int
	maxCycles  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Map dependencies and messaging topology of a codebase",
	Long: `Reads every supported source file under path, builds the file dependency
graph and the messaging integration graph, and writes the results.

Outputs (in --out):
  dependency_map.json   nodes, edges and metrics
  dependency_map.dot    Graphviz digraph
  dependency_map.mmd    Mermaid flowchart
  dependency_map.md     Markdown report
  integration_graph.mmd exchanges, queues, services and consumers

Example:
  techdocgen analyze ./src
  techdocgen analyze ../platform --format json,mermaid --out build/docs
  techdocgen analyze . --threshold 8 --verbose`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&outputDir, "out", "o", "", "Output directory (default from config, ./docs)")
	analyzeCmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "Export formats: json, dot, mermaid, markdown")
	analyzeCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default ./techdocgen.yaml if present)")
	analyzeCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent files (default one per CPU)")
	analyzeCmd.Flags().IntVar(&threshold, "threshold", 0, "Coupling above which a file is reported as highly coupled")
	analyzeCmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "Maximum number of cycles to report")

	RootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	projectPath := "."
	if len(args) > 0 {
		projectPath = args[0]
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exportFormats, err := cfg.ExportFormats()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	output.Info("Analyzing project: " + projectPath)
	output.Verbose("Output directory: " + cfg.Output.Directory)

	e := engine.New(cfg.GraphOptions()).
		WithLogger(log).
		WithWorkers(cfg.Analysis.Workers)

	var res *engine.Result
	run := func() error {
		var err error
		res, err = e.AnalyzeDir(contextOrBackground(cmd), projectPath, cfg.SourceOptions())
		return err
	}
	if verbose {
		err = run()
	} else {
		err = output.RunWithSpinner(os.Stderr, "Analyzing", run)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	printResults(res)

	written, exportErr := res.Graph.ExportAll(cfg.Output.Directory, depgraph.DefaultBaseName, exportFormats)
	if res.Integration != nil {
		p := filepath.Join(cfg.Output.Directory, IntegrationFileName)
		if err := res.Integration.WriteMermaid(p); err != nil {
			exportErr = errors.Join(exportErr, err)
		} else {
			written = append(written, p)
		}
	}

	if len(written) > 0 {
		fmt.Println()
		output.Success("Results written")
		for _, p := range written {
			output.Step(p)
		}
	}
	if exportErr != nil {
		output.Error("Some outputs could not be written")
		return fmt.Errorf("export failed: %w", exportErr)
	}
	return nil
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Directory = outputDir
	}
	if flags.Changed("format") {
		cfg.Output.Formats = formats
	}
	if flags.Changed("workers") {
		cfg.Analysis.Workers = workers
	}
	if flags.Changed("threshold") {
		cfg.Analysis.CouplingThreshold = threshold
	}
	if flags.Changed("max-cycles") {
		cfg.Analysis.MaxCycles = maxCycles
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	if verbose {
		return logger.NewLogger(logger.LevelDebug, os.Stderr), nil
	}
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return logger.NewLogger(level, os.Stderr), nil
}

// printResults displays the analysis summary in the terminal
func printResults(res *engine.Result) {
	m := res.Graph.Metrics

	fmt.Println()
	output.Info("Dependencies")
	output.Table([]output.Row{
		{Key: "Files", Value: strconv.Itoa(m.FileCount)},
		{Key: "Classes", Value: strconv.Itoa(m.ClassCount)},
		{Key: "Internal dependencies", Value: strconv.Itoa(m.DependencyCount)},
		{Key: "External dependencies", Value: strconv.Itoa(m.ExternalDependencyCount)},
		{Key: "Circular dependencies", Value: strconv.Itoa(len(m.CircularDependencies))},
		{Key: "Orphaned files", Value: strconv.Itoa(len(m.OrphanedFiles))},
		{Key: "Highly coupled files", Value: strconv.Itoa(len(m.HighlyCoupledFiles))},
	})
	for _, c := range m.CircularDependencies {
		output.Verbose("cycle: " + strings.Join(c, " → "))
	}

	fmt.Println()
	output.Info("Integration")
	if g := res.Integration; g != nil {
		output.Table([]output.Row{
			{Key: "Exchanges", Value: strconv.Itoa(g.Count(integration.KindExchange))},
			{Key: "Queues", Value: strconv.Itoa(g.Count(integration.KindQueue))},
			{Key: "Services", Value: strconv.Itoa(g.Count(integration.KindService))},
			{Key: "Messages", Value: strconv.Itoa(g.Count(integration.KindMessage))},
			{Key: "Consumers", Value: strconv.Itoa(g.Count(integration.KindConsumer))},
			{Key: "Edges", Value: strconv.Itoa(len(g.Edges))},
		})
	} else {
		output.Step("No messaging topology found")
	}

	c := res.Correlation
	fmt.Println()
	output.Info("Correlation")
	output.Table([]output.Row{
		{Key: ".NET messaging files", Value: strconv.Itoa(len(c.DotNetMessaging))},
		{Key: "Node.js messaging files", Value: strconv.Itoa(len(c.NodeMessaging))},
		{Key: "Angular files", Value: strconv.Itoa(len(c.WebFrontend))},
		{Key: "Cross-stack messaging", Value: c.Label()},
	})

	if len(res.Problems) > 0 {
		fmt.Println()
		output.Warn(fmt.Sprintf("%d file problems (analysis continued)", len(res.Problems)))
		for _, p := range res.Problems {
			output.Verbose(p.Error())
		}
	}
}

// contextOrBackground keeps runAnalyze usable when invoked without Execute.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
