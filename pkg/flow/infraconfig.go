package flow

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// InfraConfig extracts broker declarations from JSON or YAML infrastructure
// files. The broker section lives under "rabbitmq" or, when that is missing
// or empty, "amqp":
//
//	rabbitmq:
//	  exchanges: [{name: orders, type: topic}]
//	  topics:    [{name: audit}]
//	  queues:
//	    - name: order-created
//	      durable: true
//	      binding: {exchange: orders, routing_key: order.created}
//	topics: [{name: billing}]
type InfraConfig struct{}

// Extract implements Extractor. Content that is neither JSON nor YAML, or
// has no broker section, yields an empty Topology.
func (InfraConfig) Extract(content string) Topology {
	var topo Topology

	root, err := decodeConfig(content)
	if err != nil {
		return topo
	}
	broker := section(root, "rabbitmq")
	if len(broker) == 0 {
		broker = section(root, "amqp")
	}
	if len(broker) == 0 {
		return topo
	}

	for _, ex := range entries(broker["exchanges"]) {
		topo.Exchanges = append(topo.Exchanges, Exchange{Name: str(ex["name"]), Type: strOr(ex["type"], "")})
	}
	for _, ex := range entries(broker["topics"]) {
		topo.Exchanges = append(topo.Exchanges, Exchange{Name: str(ex["name"]), Type: strOr(ex["type"], "topic")})
	}
	for _, ex := range entries(root["topics"]) {
		topo.Exchanges = append(topo.Exchanges, Exchange{Name: str(ex["name"]), Type: strOr(ex["type"], "topic")})
	}

	for _, q := range entries(broker["queues"]) {
		name := str(q["name"])
		durable, _ := q["durable"].(bool)
		topo.Queues = append(topo.Queues, Queue{Name: name, Durable: durable})

		b, ok := q["binding"].(map[string]any)
		if !ok {
			continue
		}
		exchange := str(b["exchange"])
		if exchange == "" {
			continue
		}
		topo.Bindings = append(topo.Bindings, Binding{
			Exchange:   exchange,
			Queue:      name,
			RoutingKey: str(b["routing_key"]),
		})
	}

	return topo
}

// decodeConfig parses content as JSON, then YAML, and requires a mapping root.
func decodeConfig(content string) (map[string]any, error) {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		doc = nil
		if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
			return nil, fmt.Errorf("decoding config: %w", err)
		}
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config root is %T, not a mapping", doc)
	}
	return root, nil
}

func section(root map[string]any, key string) map[string]any {
	m, _ := root[key].(map[string]any)
	return m
}

// entries returns the mapping items of a list that carry a non-empty name.
func entries(v any) []map[string]any {
	list, _ := v.([]any)
	var out []map[string]any
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok || str(m["name"]) == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func strOr(v any, def string) string {
	if v == nil {
		return def
	}
	return str(v)
}
