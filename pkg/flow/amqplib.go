package flow

import "regexp"

var (
	amqpAssertExchange = regexp.MustCompile(`assertExchange\(\s*['"]([^'"]+)['"]\s*,\s*['"]([^'"]+)['"]`)
	amqpAssertQueue    = regexp.MustCompile(`assertQueue\(\s*['"]([^'"]+)['"]`)
	amqpBindQueue      = regexp.MustCompile(`bindQueue\(\s*['"]([^'"]+)['"]\s*,\s*['"]([^'"]+)['"]\s*(?:,\s*['"]([^'"]*)['"])?`)
	amqpPublish        = regexp.MustCompile(`publish\(\s*['"]([^'"]+)['"]\s*,\s*['"]([^'"]*)['"]`)
	amqpSendToQueue    = regexp.MustCompile(`sendToQueue\(\s*['"]([^'"]+)['"]`)
	amqpConsume        = regexp.MustCompile(`consume\(\s*['"]([^'"]+)['"]`)
)

// Amqplib extracts channel calls from Node.js code using amqplib. Only
// literal string arguments are recognised.
type Amqplib struct{}

// Extract implements Extractor.
func (Amqplib) Extract(content string) Topology {
	var topo Topology

	for _, m := range amqpAssertExchange.FindAllStringSubmatch(content, -1) {
		topo.Exchanges = append(topo.Exchanges, Exchange{Name: m[1], Type: m[2]})
	}
	// amqplib declares queues durable unless told otherwise.
	for _, m := range amqpAssertQueue.FindAllStringSubmatch(content, -1) {
		topo.Queues = append(topo.Queues, Queue{Name: m[1], Durable: true})
	}
	for _, m := range amqpBindQueue.FindAllStringSubmatch(content, -1) {
		topo.Bindings = append(topo.Bindings, Binding{Queue: m[1], Exchange: m[2], RoutingKey: m[3]})
	}
	for _, m := range amqpPublish.FindAllStringSubmatch(content, -1) {
		topo.Publishers = append(topo.Publishers, Publisher{Exchange: m[1], RoutingKey: m[2]})
	}
	for _, m := range amqpSendToQueue.FindAllStringSubmatch(content, -1) {
		topo.Publishers = append(topo.Publishers, Publisher{Queue: m[1]})
	}
	for _, m := range amqpConsume.FindAllStringSubmatch(content, -1) {
		topo.Consumers = append(topo.Consumers, Consumer{Queue: m[1]})
	}

	return topo
}
