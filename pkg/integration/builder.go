package integration

import (
	"github.com/kuntumseroja/techdocgen/pkg/flow"
)

// builder accumulates records into a graph in one pass.
type builder struct {
	g     *Graph
	index map[Key]int
	edges map[Edge]bool
	files map[Key]map[string]bool
}

// Build merges records in order. For a node declared more than once, the
// first declaration's exchange type or durability wins; a node that was only
// referenced takes its attributes from the first later declaration. Build
// returns nil when the records carry no messaging facts.
func Build(records []Record) *Graph {
	b := &builder{
		g:     &Graph{},
		index: make(map[Key]int),
		edges: make(map[Edge]bool),
		files: make(map[Key]map[string]bool),
	}
	for _, r := range records {
		b.add(r)
	}
	if len(b.g.Nodes) == 0 {
		return nil
	}
	b.g.finish()
	return b.g
}

func (b *builder) add(r Record) {
	t := r.Topology
	service := func(name string) string {
		if name != "" {
			return name
		}
		return r.File
	}

	for _, ex := range t.Exchanges {
		n := b.node(r.File, KindExchange, ex.Name)
		if !n.Declared {
			n.Declared = true
			n.ExchangeType = ex.Type
		}
	}
	for _, q := range t.Queues {
		n := b.node(r.File, KindQueue, q.Name)
		if !n.Declared {
			n.Declared = true
			n.Durable = q.Durable
		}
	}

	for _, bd := range t.Bindings {
		ex := b.node(r.File, KindExchange, bd.Exchange).Key
		q := b.node(r.File, KindQueue, bd.Queue).Key
		b.edge(Edge{From: ex, To: q, Kind: EdgeBinding, RoutingKey: bd.RoutingKey})
	}

	for _, p := range t.Publishers {
		svc := b.node(r.File, KindService, service(p.Service)).Key
		if p.Exchange != "" {
			ex := b.node(r.File, KindExchange, p.Exchange).Key
			b.edge(Edge{From: svc, To: ex, Kind: EdgePublish, RoutingKey: p.RoutingKey})
		}
		if p.Queue != "" {
			q := b.node(r.File, KindQueue, p.Queue).Key
			b.edge(Edge{From: svc, To: q, Kind: EdgeSend, RoutingKey: p.RoutingKey})
		}
	}

	for _, c := range t.Consumers {
		q := b.node(r.File, KindQueue, c.Queue).Key
		svc := b.node(r.File, KindService, service(c.Service)).Key
		b.edge(Edge{From: q, To: svc, Kind: EdgeConsume})
	}

	for _, m := range t.Messages {
		msg := b.node(r.File, KindMessage, m.Type).Key
		switch m.Kind {
		case flow.MessagePublish:
			svc := b.node(r.File, KindService, service(m.Service)).Key
			b.edge(Edge{From: svc, To: msg, Kind: EdgePublish})
		case flow.MessageSend:
			svc := b.node(r.File, KindService, service(m.Service)).Key
			b.edge(Edge{From: svc, To: msg, Kind: EdgeSend})
		case flow.MessageConsume:
			consumer := b.node(r.File, KindConsumer, service(m.Service)).Key
			b.edge(Edge{From: msg, To: consumer, Kind: EdgeConsume})
		}
	}
}

// node returns the node for (kind, name), inserting it on first sight.
// Services, messages and consumers are declared by being mentioned.
func (b *builder) node(file string, kind Kind, name string) *Node {
	key := Key{Kind: kind, Name: name}
	i, ok := b.index[key]
	if !ok {
		i = len(b.g.Nodes)
		b.index[key] = i
		declared := kind != KindExchange && kind != KindQueue
		b.g.Nodes = append(b.g.Nodes, Node{Key: key, Declared: declared})
		b.files[key] = make(map[string]bool)
	}
	if file != "" && !b.files[key][file] {
		b.files[key][file] = true
		b.g.Nodes[i].Files = append(b.g.Nodes[i].Files, file)
	}
	return &b.g.Nodes[i]
}

func (b *builder) edge(e Edge) {
	if b.edges[e] {
		return
	}
	b.edges[e] = true
	b.g.Edges = append(b.g.Edges, e)
}
