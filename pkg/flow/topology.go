// Package flow extracts message-broker topology from individual files.
//
// Each technology has an Extractor that turns file content into a Topology:
// exchanges, queues, bindings, publishers, consumers and typed messages. The
// Registry picks the extractor for a file with a cheap language and keyword
// check before any pattern matching runs. Extractors are stateless and never
// fail: content they cannot make sense of yields an empty Topology.
package flow

import "sort"

// Source names the technology a Topology was extracted for.
type Source string

const (
	SourceMassTransit Source = "masstransit"
	SourceAmqplib     Source = "amqplib"
	SourceInfraConfig Source = "infra_config"
)

// MessageKind is how a typed message is used.
type MessageKind string

const (
	MessagePublish MessageKind = "publish"
	MessageSend    MessageKind = "send"
	MessageConsume MessageKind = "consume"
)

// Exchange is a named exchange; Type may be empty when not declared.
type Exchange struct {
	Name string
	Type string
}

// Queue is a named queue.
type Queue struct {
	Name    string
	Durable bool
}

// Binding routes an exchange to a queue.
type Binding struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// Publisher writes to an exchange or directly to a queue. An empty Service
// means the file itself.
type Publisher struct {
	Service    string
	Exchange   string
	Queue      string
	RoutingKey string
}

// Consumer reads from a queue. An empty Service means the file itself.
type Consumer struct {
	Queue   string
	Service string
	Saga    bool
}

// Message is a typed message published, sent or consumed. An empty Service
// means the file itself.
type Message struct {
	Kind    MessageKind
	Type    string
	Service string
}

// Topology is everything one extractor found in one file, in discovery order.
type Topology struct {
	Exchanges     []Exchange
	Queues        []Queue
	Bindings      []Binding
	Publishers    []Publisher
	Consumers     []Consumer
	Messages      []Message
	SendEndpoints []string
}

// Empty reports whether the topology carries no messaging facts at all.
func (t Topology) Empty() bool {
	return len(t.Exchanges) == 0 &&
		len(t.Queues) == 0 &&
		len(t.Bindings) == 0 &&
		len(t.Publishers) == 0 &&
		len(t.Consumers) == 0 &&
		len(t.Messages) == 0 &&
		len(t.SendEndpoints) == 0
}

// ConsumersOf returns the non-saga consumer services attached to queue, sorted.
func (t Topology) ConsumersOf(queue string) []string {
	return t.attached(queue, false)
}

// SagasOf returns the saga services attached to queue, sorted.
func (t Topology) SagasOf(queue string) []string {
	return t.attached(queue, true)
}

func (t Topology) attached(queue string, saga bool) []string {
	var out []string
	for _, c := range t.Consumers {
		if c.Queue == queue && c.Saga == saga && c.Service != "" {
			out = append(out, c.Service)
		}
	}
	sort.Strings(out)
	return out
}

// Extractor turns the content of one file into a Topology.
type Extractor interface {
	Extract(content string) Topology
}
