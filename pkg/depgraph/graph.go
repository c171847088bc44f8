// Package depgraph builds the file-level dependency graph of a codebase from
// per-file import facts, and reports cycles, coupling and orphans.
//
// A Graph is built once per run and never mutated afterwards; every export
// is a pure function of it.
package depgraph

import (
	"fmt"
	"sort"

	"github.com/kuntumseroja/techdocgen/pkg/apperr"
	"github.com/kuntumseroja/techdocgen/pkg/parser"
	"github.com/kuntumseroja/techdocgen/pkg/source"
)

const (
	// DefaultMaxCycles caps how many cycles are reported.
	DefaultMaxCycles = 100
	// DefaultCouplingThreshold is the total coupling a file must exceed to
	// be reported as highly coupled.
	DefaultCouplingThreshold = 5
)

// Options tunes graph analysis.
type Options struct {
	MaxCycles         int // <= 0 means DefaultMaxCycles
	CouplingThreshold int
	ResolveCacheSize  int // <= 0 means DefaultResolveCacheSize
}

// DefaultOptions returns the standard analysis settings.
func DefaultOptions() Options {
	return Options{
		MaxCycles:         DefaultMaxCycles,
		CouplingThreshold: DefaultCouplingThreshold,
		ResolveCacheSize:  DefaultResolveCacheSize,
	}
}

// Node is one analysed file.
type Node struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Language string `json:"language"`
}

// Edge means Source imports Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// CoupledFile is one entry of the highly coupled list.
type CoupledFile struct {
	ID            string `json:"id"`
	File          string `json:"file"`
	Dependencies  int    `json:"dependencies"`
	Dependents    int    `json:"dependents"`
	TotalCoupling int    `json:"total_coupling"`
}

// Metrics summarise a Graph.
type Metrics struct {
	FileCount               int           `json:"file_count"`
	ClassCount              int           `json:"class_count"`
	DependencyCount         int           `json:"dependency_count"`
	ExternalDependencyCount int           `json:"external_dependency_count"`
	CircularDependencies    [][]string    `json:"circular_dependencies"`
	OrphanedFiles           []string      `json:"orphaned_files"`
	HighlyCoupledFiles      []CoupledFile `json:"highly_coupled_files"`
}

// Graph is the analysed dependency graph. Nodes are sorted by ID and edges
// by (Source, Target); duplicate edges are kept.
type Graph struct {
	Nodes   []Node
	Edges   []Edge
	Metrics Metrics

	index map[string]int
}

// FileFacts pairs a file with its parsed facts. Facts is nil when the file
// had no parser or its parse failed.
type FileFacts struct {
	File  source.FileRecord
	Facts *parser.Facts
}

// Analyze parses every file and builds the graph. Parse failures do not stop
// the run: the failing file stays in the graph without imports, and its
// ParseError is returned alongside.
func Analyze(files []source.FileRecord, parsers parser.Registry, opts Options) (*Graph, []error) {
	inputs := make([]FileFacts, 0, len(files))
	var problems []error
	for _, f := range files {
		facts, err := ParseFile(f, parsers)
		if err != nil {
			problems = append(problems, err)
		}
		inputs = append(inputs, FileFacts{File: f, Facts: facts})
	}
	return Build(inputs, opts), problems
}

// ParseFile runs the language parser for f. It returns nil facts and no
// error when no parser handles the language, and a ParseError when the parser
// fails or panics.
func ParseFile(f source.FileRecord, parsers parser.Registry) (facts *parser.Facts, err error) {
	p := parsers.For(f.Language)
	if p == nil {
		return nil, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			facts, err = nil, apperr.Parse(f.Path, fmt.Errorf("parser panic: %v", rec))
		}
	}()
	facts, err = p.Parse(f.Content)
	if err != nil {
		return nil, apperr.Parse(f.Path, err)
	}
	return facts, nil
}

// Build assembles the graph from already-parsed facts. Files are merged in
// input order and the first record for an ID wins.
func Build(inputs []FileFacts, opts Options) *Graph {
	if opts.MaxCycles <= 0 {
		opts.MaxCycles = DefaultMaxCycles
	}

	g := &Graph{index: make(map[string]int)}
	kept := make([]FileFacts, 0, len(inputs))
	for _, in := range inputs {
		id := in.File.ID()
		if _, dup := g.index[id]; dup {
			continue
		}
		g.index[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, Node{ID: id, Path: in.File.Path, Language: in.File.Language})
		kept = append(kept, in)
	}

	resolver := NewResolver(g.Nodes, opts.ResolveCacheSize)
	external := 0
	classes := 0
	for _, in := range kept {
		if in.Facts == nil {
			continue
		}
		classes += len(in.Facts.Classes)
		from := in.File.ID()
		for _, imp := range in.Facts.Imports {
			targets := resolver.Resolve(from, in.File.Language, imp)
			if len(targets) == 0 {
				external++
				continue
			}
			for _, to := range targets {
				g.Edges = append(g.Edges, Edge{Source: from, Target: to})
			}
		}
	}

	g.sortAndIndex()
	g.Metrics = g.computeMetrics(opts)
	g.Metrics.ClassCount = classes
	g.Metrics.ExternalDependencyCount = external
	return g
}

func (g *Graph) sortAndIndex() {
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	sort.SliceStable(g.Edges, func(i, j int) bool {
		if g.Edges[i].Source != g.Edges[j].Source {
			return g.Edges[i].Source < g.Edges[j].Source
		}
		return g.Edges[i].Target < g.Edges[j].Target
	})
	g.index = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.index[n.ID] = i
	}
}

// Node looks up a node by ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Coupling returns out-degree, in-degree and their sum for a node.
func (g *Graph) Coupling(id string) (dependencies, dependents, total int) {
	for _, e := range g.Edges {
		if e.Source == id {
			dependencies++
		}
		if e.Target == id {
			dependents++
		}
	}
	return dependencies, dependents, dependencies + dependents
}

// computeMetrics derives everything but the class and external counts.
func (g *Graph) computeMetrics(opts Options) Metrics {
	out := make(map[string]int, len(g.Nodes))
	in := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		out[e.Source]++
		in[e.Target]++
	}

	m := Metrics{
		FileCount:            len(g.Nodes),
		DependencyCount:      len(g.Edges),
		CircularDependencies: findCycles(g.Nodes, g.Edges, opts.MaxCycles),
		OrphanedFiles:        []string{},
		HighlyCoupledFiles:   []CoupledFile{},
	}

	for _, n := range g.Nodes {
		total := out[n.ID] + in[n.ID]
		if total == 0 {
			m.OrphanedFiles = append(m.OrphanedFiles, n.ID)
		}
		if total > opts.CouplingThreshold {
			m.HighlyCoupledFiles = append(m.HighlyCoupledFiles, CoupledFile{
				ID:            n.ID,
				File:          n.Path,
				Dependencies:  out[n.ID],
				Dependents:    in[n.ID],
				TotalCoupling: total,
			})
		}
	}

	sort.SliceStable(m.HighlyCoupledFiles, func(i, j int) bool {
		a, b := m.HighlyCoupledFiles[i], m.HighlyCoupledFiles[j]
		if a.TotalCoupling != b.TotalCoupling {
			return a.TotalCoupling > b.TotalCoupling
		}
		return a.File < b.File
	})
	return m
}

// DependencyMap is the plain snapshot handed to downstream analysers.
type DependencyMap struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Map returns a copy of the nodes and edges.
func (g *Graph) Map() DependencyMap {
	return DependencyMap{
		Nodes: append([]Node(nil), g.Nodes...),
		Edges: append([]Edge(nil), g.Edges...),
	}
}
