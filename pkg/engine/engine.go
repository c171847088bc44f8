// Package engine runs one analysis: per-file parsing and messaging
// extraction in parallel, then a single merge into the dependency graph, the
// integration graph and the correlation signal.
package engine

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kuntumseroja/techdocgen/pkg/correlation"
	"github.com/kuntumseroja/techdocgen/pkg/depgraph"
	"github.com/kuntumseroja/techdocgen/pkg/flow"
	"github.com/kuntumseroja/techdocgen/pkg/integration"
	"github.com/kuntumseroja/techdocgen/pkg/logger"
	"github.com/kuntumseroja/techdocgen/pkg/parser"
	"github.com/kuntumseroja/techdocgen/pkg/source"
)

// Result is everything one run produces.
type Result struct {
	Files       []source.FileRecord
	Graph       *depgraph.Graph
	Integration *integration.Graph // nil when no messaging facts were found
	Correlation correlation.Signal
	// Problems are per-file parse and extraction failures. They never abort
	// the run; the affected file simply contributes less.
	Problems []error
}

// Engine analyses a set of files.
type Engine struct {
	parsers    parser.Registry
	flows      *flow.Registry
	correlator *correlation.Analyzer
	opts       depgraph.Options
	workers    int
	logger     logger.Logger
}

// New creates an engine with the default parsers, extractors and rules.
func New(opts depgraph.Options) *Engine {
	return &Engine{
		parsers:    parser.DefaultRegistry(),
		flows:      flow.DefaultRegistry(),
		correlator: correlation.NewAnalyzer(),
		opts:       opts,
		logger:     logger.Default(),
	}
}

// WithLogger returns a copy of the engine that logs to log.
func (e *Engine) WithLogger(log logger.Logger) *Engine {
	c := *e
	c.logger = log
	return &c
}

// WithWorkers returns a copy limited to n concurrent files; n <= 0 means
// one per CPU.
func (e *Engine) WithWorkers(n int) *Engine {
	c := *e
	c.workers = n
	return &c
}

// WithParsers returns a copy using a different parser registry.
func (e *Engine) WithParsers(p parser.Registry) *Engine {
	c := *e
	c.parsers = p
	return &c
}

// WithFlows returns a copy using a different extractor registry.
func (e *Engine) WithFlows(r *flow.Registry) *Engine {
	c := *e
	c.flows = r
	return &c
}

// fileResult is the per-file slot a worker fills.
type fileResult struct {
	facts      *parser.Facts
	parseErr   error
	src        flow.Source
	topology   flow.Topology
	hasFlow    bool
	extractErr error
}

// AnalyzeDir reads root and runs the analysis over it.
func (e *Engine) AnalyzeDir(ctx context.Context, root string, opts source.Options) (*Result, error) {
	e.logger.Info("Reading source tree", logger.F("path", root))
	files, err := source.ReadDir(root, opts)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, files)
}

// Run analyses files. Only cancellation of ctx makes it fail; per-file
// failures are collected in Result.Problems.
func (e *Engine) Run(ctx context.Context, files []source.FileRecord) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	workers := e.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	start := time.Now()
	slots := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = e.processFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.logger.Debug("Per-file pass complete",
		logger.F("files", len(files)),
		logger.F("workers", workers),
		logger.F("elapsed", time.Since(start).Round(time.Millisecond)))

	res := &Result{Files: files}
	inputs := make([]depgraph.FileFacts, 0, len(files))
	var records []integration.Record
	for i, f := range files {
		s := slots[i]
		if s.parseErr != nil {
			res.Problems = append(res.Problems, s.parseErr)
		}
		if s.extractErr != nil {
			res.Problems = append(res.Problems, s.extractErr)
		}
		inputs = append(inputs, depgraph.FileFacts{File: f, Facts: s.facts})
		if s.hasFlow {
			records = append(records, integration.Record{Source: s.src, File: f.ID(), Topology: s.topology})
		}
	}

	res.Graph = depgraph.Build(inputs, e.opts)
	res.Integration = integration.Build(records)
	res.Correlation = e.correlator.Analyze(files, res.Graph.Map())

	for _, p := range res.Problems {
		e.logger.Warn("File skipped in part", logger.F("error", p))
	}
	e.logger.Info("Analysis complete",
		logger.F("files", res.Graph.Metrics.FileCount),
		logger.F("edges", len(res.Graph.Edges)),
		logger.F("cycles", len(res.Graph.Metrics.CircularDependencies)),
		logger.F("topologies", len(records)),
		logger.F("problems", len(res.Problems)),
		logger.F("elapsed", time.Since(start).Round(time.Millisecond)))
	return res, nil
}

func (e *Engine) processFile(f source.FileRecord) fileResult {
	var r fileResult
	r.facts, r.parseErr = depgraph.ParseFile(f, e.parsers)
	if e.flows != nil {
		r.src, r.topology, r.hasFlow, r.extractErr = e.flows.Extract(f.ID(), f.Language, f.Content)
	}
	return r
}
