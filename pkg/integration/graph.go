// Package integration merges per-file messaging topologies into one
// cross-stack graph of exchanges, queues, services, messages and consumers.
package integration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kuntumseroja/techdocgen/pkg/apperr"
	"github.com/kuntumseroja/techdocgen/pkg/flow"
	"github.com/kuntumseroja/techdocgen/pkg/mermaid"
)

// Kind is the kind of an integration node.
type Kind string

const (
	KindExchange Kind = "exchange"
	KindQueue    Kind = "queue"
	KindService  Kind = "service"
	KindMessage  Kind = "message"
	KindConsumer Kind = "consumer"
)

var kindPrefix = map[Kind]string{
	KindExchange: "EX_",
	KindQueue:    "Q_",
	KindService:  "S_",
	KindMessage:  "M_",
	KindConsumer: "C_",
}

var kindTitle = map[Kind]string{
	KindExchange: "Exchange",
	KindQueue:    "Queue",
	KindService:  "Service",
	KindMessage:  "Message",
	KindConsumer: "Consumer",
}

// Key identifies a node.
type Key struct {
	Kind Kind
	Name string
}

func (k Key) String() string { return string(k.Kind) + ":" + k.Name }

func (k Key) less(o Key) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	return k.Name < o.Name
}

// Node is one entity of the integration graph. Declared is false for nodes
// that were only referenced, never declared, by any topology.
type Node struct {
	Key
	ExchangeType string
	Durable      bool
	Declared     bool
	Files        []string
}

// EdgeKind says what an edge represents.
type EdgeKind string

const (
	EdgeBinding EdgeKind = "binding"
	EdgePublish EdgeKind = "publish"
	EdgeSend    EdgeKind = "send"
	EdgeConsume EdgeKind = "consume"
)

// Edge is a directed relation between two nodes.
type Edge struct {
	From       Key
	To         Key
	Kind       EdgeKind
	RoutingKey string
}

func (e Edge) less(o Edge) bool {
	if e.From != o.From {
		return e.From.less(o.From)
	}
	if e.To != o.To {
		return e.To.less(o.To)
	}
	if e.Kind != o.Kind {
		return e.Kind < o.Kind
	}
	return e.RoutingKey < o.RoutingKey
}

// Record is the topology found in one file.
type Record struct {
	Source   flow.Source
	File     string
	Topology flow.Topology
}

// Graph is the merged integration graph. Nodes are ordered by (kind, name)
// and edges by (from, to, kind, routing key).
type Graph struct {
	Nodes []Node
	Edges []Edge

	index map[Key]int
}

// Node looks up a node.
func (g *Graph) Node(kind Kind, name string) (Node, bool) {
	i, ok := g.index[Key{Kind: kind, Name: name}]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Count returns how many nodes of a kind exist.
func (g *Graph) Count(kind Kind) int {
	n := 0
	for _, node := range g.Nodes {
		if node.Kind == kind {
			n++
		}
	}
	return n
}

// Mermaid renders the graph as a left-to-right flowchart.
func (g *Graph) Mermaid() string {
	ids := mermaid.NewIDs()
	id := func(k Key) string { return ids.ID(k.String(), kindPrefix[k.Kind], k.Name) }

	var b strings.Builder
	b.WriteString("graph LR\n")
	for _, n := range g.Nodes {
		text := kindTitle[n.Kind] + ": " + n.Name
		if n.Kind == KindExchange && n.ExchangeType != "" {
			text += " (" + n.ExchangeType + ")"
		}
		fmt.Fprintf(&b, "  %s\n", mermaid.Node(id(n.Key), mermaid.EscapeLabel(text, mermaid.ShortLabelMax)))
	}
	for _, e := range g.Edges {
		if e.RoutingKey != "" {
			label := mermaid.EscapeLabel("rk:"+e.RoutingKey, mermaid.ShortLabelMax)
			fmt.Fprintf(&b, "  %s -->|\"%s\"| %s\n", id(e.From), label, id(e.To))
			continue
		}
		fmt.Fprintf(&b, "  %s --> %s\n", id(e.From), id(e.To))
	}
	return b.String()
}

// WriteMermaid overwrites path with the Mermaid rendering.
func (g *Graph) WriteMermaid(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Export("mermaid", path, err)
	}
	if err := os.WriteFile(path, []byte(g.Mermaid()), 0o644); err != nil {
		return apperr.Export("mermaid", path, err)
	}
	return nil
}

func (g *Graph) finish() {
	sort.SliceStable(g.Nodes, func(i, j int) bool { return g.Nodes[i].Key.less(g.Nodes[j].Key) })
	sort.SliceStable(g.Edges, func(i, j int) bool { return g.Edges[i].less(g.Edges[j]) })
	g.index = make(map[Key]int, len(g.Nodes))
	for i := range g.Nodes {
		sort.Strings(g.Nodes[i].Files)
		g.index[g.Nodes[i].Key] = i
	}
}
