package depgraph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kuntumseroja/techdocgen/pkg/apperr"
	"github.com/kuntumseroja/techdocgen/pkg/mermaid"
)

// Format is an export format name.
type Format string

const (
	FormatJSON     Format = "json"
	FormatDOT      Format = "dot"
	FormatMermaid  Format = "mermaid"
	FormatMarkdown Format = "markdown"
)

// AllFormats lists every export format in a stable order.
var AllFormats = []Format{FormatJSON, FormatDOT, FormatMermaid, FormatMarkdown}

// DefaultBaseName is the file name stem used by ExportAll.
const DefaultBaseName = "dependency_map"

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatDOT:
		return ".dot"
	case FormatMermaid:
		return ".mmd"
	case FormatMarkdown:
		return ".md"
	}
	return ""
}

// ParseFormat accepts a format name or its usual aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "dot", "graphviz":
		return FormatDOT, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

type document struct {
	Nodes   []Node  `json:"nodes"`
	Edges   []Edge  `json:"edges"`
	Metrics Metrics `json:"metrics"`
}

// JSON renders the graph as indented JSON. Repeated calls on the same graph
// are byte-identical.
func (g *Graph) JSON() ([]byte, error) {
	doc := document{Nodes: g.Nodes, Edges: g.Edges, Metrics: g.Metrics}
	if doc.Nodes == nil {
		doc.Nodes = []Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []Edge{}
	}
	if doc.Metrics.CircularDependencies == nil {
		doc.Metrics.CircularDependencies = [][]string{}
	}
	if doc.Metrics.OrphanedFiles == nil {
		doc.Metrics.OrphanedFiles = []string{}
	}
	if doc.Metrics.HighlyCoupledFiles == nil {
		doc.Metrics.HighlyCoupledFiles = []CoupledFile{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ParseJSON reads a graph previously written by JSON.
func ParseJSON(data []byte) (*Graph, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing dependency map: %w", err)
	}
	g := &Graph{Nodes: doc.Nodes, Edges: doc.Edges, Metrics: doc.Metrics}
	g.sortAndIndex()
	for _, e := range g.Edges {
		if _, ok := g.index[e.Source]; !ok {
			return nil, fmt.Errorf("edge source %q is not a node", e.Source)
		}
		if _, ok := g.index[e.Target]; !ok {
			return nil, fmt.Errorf("edge target %q is not a node", e.Target)
		}
	}
	return g, nil
}

// DOT renders the graph in Graphviz format.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph Dependencies {\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s -> %s;\n", dotQuote(e.Source), dotQuote(e.Target))
	}
	b.WriteString("}\n")
	return b.String()
}

func dotQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}

// Mermaid renders the graph as a top-down flowchart. Every node is declared
// with its file name as label; repeated edges are drawn once.
func (g *Graph) Mermaid() string {
	ids := mermaid.NewIDs()
	var b strings.Builder
	b.WriteString("graph TD\n")

	for _, n := range g.Nodes {
		label := mermaid.EscapeLabel(path.Base(n.ID), mermaid.FileLabelMax)
		if label == "" {
			label = "file"
		}
		fmt.Fprintf(&b, "  %s\n", mermaid.Node(ids.ID(n.ID, "", n.ID), label))
	}

	seen := make(map[Edge]bool, len(g.Edges))
	for _, e := range g.Edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		fmt.Fprintf(&b, "  %s --> %s\n", ids.ID(e.Source, "", e.Source), ids.ID(e.Target, "", e.Target))
	}
	return b.String()
}

// Markdown renders a human-readable report of the metrics.
func (g *Graph) Markdown() string {
	m := g.Metrics
	var b strings.Builder

	b.WriteString("# Dependency Analysis Report\n\n")
	b.WriteString("## Metrics\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Files | %d |\n", m.FileCount)
	fmt.Fprintf(&b, "| Classes | %d |\n", m.ClassCount)
	fmt.Fprintf(&b, "| Internal dependencies | %d |\n", m.DependencyCount)
	fmt.Fprintf(&b, "| External dependencies | %d |\n", m.ExternalDependencyCount)
	fmt.Fprintf(&b, "| Circular dependencies | %d |\n", len(m.CircularDependencies))
	fmt.Fprintf(&b, "| Orphaned files | %d |\n", len(m.OrphanedFiles))
	fmt.Fprintf(&b, "| Highly coupled files | %d |\n", len(m.HighlyCoupledFiles))

	b.WriteString("\n## Circular Dependencies\n\n")
	if len(m.CircularDependencies) == 0 {
		b.WriteString("No circular dependencies detected.\n")
	}
	for i, c := range m.CircularDependencies {
		fmt.Fprintf(&b, "Cycle %d: %s\n\n", i+1, strings.Join(c, " → "))
	}

	b.WriteString("\n## Orphaned Files\n\n")
	if len(m.OrphanedFiles) == 0 {
		b.WriteString("None.\n")
	}
	for _, f := range m.OrphanedFiles {
		fmt.Fprintf(&b, "- `%s`\n", f)
	}

	b.WriteString("\n## Highly Coupled Files\n\n")
	if len(m.HighlyCoupledFiles) == 0 {
		b.WriteString("None.\n")
		return b.String()
	}
	b.WriteString("| File | Dependencies | Dependents | Total |\n")
	b.WriteString("|------|--------------|------------|-------|\n")
	for _, c := range m.HighlyCoupledFiles {
		fmt.Fprintf(&b, "| `%s` | %d | %d | %d |\n", c.ID, c.Dependencies, c.Dependents, c.TotalCoupling)
	}
	return b.String()
}

// Render returns the export in the given format.
func (g *Graph) Render(f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return g.JSON()
	case FormatDOT:
		return []byte(g.DOT()), nil
	case FormatMermaid:
		return []byte(g.Mermaid()), nil
	case FormatMarkdown:
		return []byte(g.Markdown()), nil
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

// WriteJSON overwrites path with the JSON export.
func (g *Graph) WriteJSON(path string) error { return g.Write(FormatJSON, path) }

// WriteDOT overwrites path with the DOT export.
func (g *Graph) WriteDOT(path string) error { return g.Write(FormatDOT, path) }

// WriteMermaid overwrites path with the Mermaid export.
func (g *Graph) WriteMermaid(path string) error { return g.Write(FormatMermaid, path) }

// WriteMarkdown overwrites path with the Markdown report.
func (g *Graph) WriteMarkdown(path string) error { return g.Write(FormatMarkdown, path) }

// Write renders one format and overwrites path with it. Failures are
// ExportErrors.
func (g *Graph) Write(f Format, path string) error {
	data, err := g.Render(f)
	if err != nil {
		return apperr.Export(string(f), path, err)
	}
	return WriteFile(string(f), path, data)
}

// WriteFile creates parent directories and overwrites path with data,
// reporting failures as ExportErrors for format.
func WriteFile(format, path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.Export(format, path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperr.Export(format, path, err)
	}
	return nil
}

// ExportAll writes each format to dir/<base><ext>. Every format is attempted;
// the paths written and the joined failures are returned.
func (g *Graph) ExportAll(dir, base string, formats []Format) ([]string, error) {
	if base == "" {
		base = DefaultBaseName
	}
	var written []string
	var errs []error
	for _, f := range formats {
		p := filepath.Join(dir, base+f.Ext())
		if err := g.Write(f, p); err != nil {
			errs = append(errs, err)
			continue
		}
		written = append(written, p)
	}
	return written, errors.Join(errs...)
}
