package flow

import (
	"errors"
	"testing"

	"github.com/kuntumseroja/techdocgen/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const busConfig = `using MassTransit;

public class Startup
{
    public void Configure(IBusRegistrationContext context, IRabbitMqBusFactoryConfigurator cfg)
    {
        cfg.ReceiveEndpoint("orders", e =>
        {
            e.Consumer<OrderConsumer>(context);
            e.Consumer<OrderConsumer>(context);
            e.StateMachineSaga<OrderState>(context);
        });

        cfg.ReceiveEndpoint("billing", e =>
        {
            e.Consumer<InvoiceConsumer>(context);
        });
    }

    public async Task Submit(IBus bus, ISendEndpointProvider provider)
    {
        await bus.Publish<OrderSubmitted>(new { Id = 1 });
        await bus.Publish(new OrderAccepted());
        var ep = await provider.GetSendEndpoint(new Uri("queue:shipping"));
        await ep.Send<ShipOrder>(new { Id = 1 });
    }
}

public class OrderConsumer : IConsumer<OrderSubmitted>, IConsumer<OrderCancelled>
{
}`

func TestMassTransit_ScopesConsumersToEndpointBlock(t *testing.T) {
	topo := MassTransit{}.Extract(busConfig)

	assert.Equal(t, []Queue{{Name: "orders", Durable: true}, {Name: "billing", Durable: true}}, topo.Queues)
	assert.Equal(t, []string{"OrderConsumer"}, topo.ConsumersOf("orders"))
	assert.Equal(t, []string{"OrderState"}, topo.SagasOf("orders"))
	assert.Equal(t, []string{"InvoiceConsumer"}, topo.ConsumersOf("billing"))
	assert.Empty(t, topo.SagasOf("billing"))
}

func TestMassTransit_MessagesAndSendEndpoints(t *testing.T) {
	topo := MassTransit{}.Extract(busConfig)

	assert.Equal(t, []Message{
		{Kind: MessagePublish, Type: "OrderAccepted"},
		{Kind: MessagePublish, Type: "OrderSubmitted"},
		{Kind: MessageSend, Type: "ShipOrder"},
		{Kind: MessageConsume, Type: "OrderCancelled", Service: "OrderConsumer"},
		{Kind: MessageConsume, Type: "OrderSubmitted", Service: "OrderConsumer"},
	}, topo.Messages)
	assert.Equal(t, []string{"queue:shipping"}, topo.SendEndpoints)
	assert.Equal(t, []Publisher{{Queue: "shipping"}}, topo.Publishers)
}

func TestMassTransit_UnbalancedBlock(t *testing.T) {
	topo := MassTransit{}.Extract(`cfg.ReceiveEndpoint("orders", e => { e.Consumer<OrderConsumer>(context);`)

	require.Len(t, topo.Queues, 1)
	assert.Empty(t, topo.ConsumersOf("orders"))
}

func TestBlockAfter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		pos     int
		want    string
	}{
		{"nested", "x { a { b } c } tail", 0, "{ a { b } c }"},
		{"starts later", "{ first } x { second }", 9, "{ second }"},
		{"no brace", "nothing here", 0, ""},
		{"unbalanced", "{ { }", 0, ""},
		{"out of range", "{}", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, blockAfter(tt.content, tt.pos))
		})
	}
}

func TestPublisherForURI(t *testing.T) {
	tests := []struct {
		uri  string
		want Publisher
		ok   bool
	}{
		{"queue:orders", Publisher{Queue: "orders"}, true},
		{"exchange:events", Publisher{Exchange: "events"}, true},
		{"topic:audit?durable=true", Publisher{Exchange: "audit"}, true},
		{"rabbitmq://localhost/vhost/shipping", Publisher{Queue: "shipping"}, true},
		{"rabbitmq://localhost", Publisher{}, false},
		{"loopback:foo", Publisher{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, ok := publisherForURI(tt.uri)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAmqplib(t *testing.T) {
	code := `const amqp = require('amqplib');
await ch.assertExchange('orders', 'topic', { durable: true });
await ch.assertQueue("order-created");
await ch.bindQueue('order-created', 'orders', 'order.created');
await ch.bindQueue('audit', 'orders');
ch.publish('orders', 'order.created', Buffer.from(body));
ch.sendToQueue('emails', Buffer.from(body));
ch.consume('order-created', handler);`

	topo := Amqplib{}.Extract(code)

	assert.Equal(t, []Exchange{{Name: "orders", Type: "topic"}}, topo.Exchanges)
	assert.Equal(t, []Queue{{Name: "order-created", Durable: true}}, topo.Queues)
	assert.Equal(t, []Binding{
		{Exchange: "orders", Queue: "order-created", RoutingKey: "order.created"},
		{Exchange: "orders", Queue: "audit"},
	}, topo.Bindings)
	assert.Equal(t, []Publisher{
		{Exchange: "orders", RoutingKey: "order.created"},
		{Queue: "emails"},
	}, topo.Publishers)
	assert.Equal(t, []Consumer{{Queue: "order-created"}}, topo.Consumers)
}

func TestInfraConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Topology
	}{
		{
			name: "yaml with all sections",
			content: `rabbitmq:
  exchanges:
    - name: orders
      type: direct
  topics:
    - name: audit
  queues:
    - name: order-created
      durable: true
      binding:
        exchange: orders
        routing_key: order.created
    - name: scratch
topics:
  - name: billing
    type: fanout
`,
			want: Topology{
				Exchanges: []Exchange{
					{Name: "orders", Type: "direct"},
					{Name: "audit", Type: "topic"},
					{Name: "billing", Type: "fanout"},
				},
				Queues: []Queue{
					{Name: "order-created", Durable: true},
					{Name: "scratch", Durable: false},
				},
				Bindings: []Binding{{Exchange: "orders", Queue: "order-created", RoutingKey: "order.created"}},
			},
		},
		{
			name:    "json amqp section",
			content: `{"amqp": {"exchanges": [{"name": "events"}], "queues": [{"name": "q1"}]}}`,
			want: Topology{
				Exchanges: []Exchange{{Name: "events", Type: ""}},
				Queues:    []Queue{{Name: "q1"}},
			},
		},
		{
			name:    "empty rabbitmq section falls back to amqp",
			content: "rabbitmq: {}\namqp:\n  queues:\n    - name: fallback\n      durable: true\n",
			want: Topology{
				Queues: []Queue{{Name: "fallback", Durable: true}},
			},
		},
		{
			name:    "no broker section",
			content: `{"name": "web", "version": "1.0.0"}`,
		},
		{
			name:    "broker section is a list",
			content: "rabbitmq:\n  - a\n",
		},
		{
			name:    "root is a list",
			content: `[1, 2, 3]`,
		},
		{
			name:    "malformed",
			content: "rabbitmq: [unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InfraConfig{}.Extract(tt.content))
		})
	}
}

type panicky struct{}

func (panicky) Extract(string) Topology { panic("boom") }

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()

	t.Run("masstransit trigger", func(t *testing.T) {
		src, topo, ok, err := reg.Extract("Bus.cs", "csharp", busConfig)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, SourceMassTransit, src)
		assert.NotEmpty(t, topo.Queues)
	})

	t.Run("csharp without trigger keyword", func(t *testing.T) {
		_, _, ok, err := reg.Extract("Plain.cs", "csharp", `class Plain { void Publish(){} }`)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("amqplib on typescript", func(t *testing.T) {
		src, _, ok, err := reg.Extract("pub.ts", "typescript", `channel.sendToQueue('emails', buf)`)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, SourceAmqplib, src)
	})

	t.Run("empty config is dropped", func(t *testing.T) {
		src, _, ok, err := reg.Extract("package.json", "config", `{"name": "web"}`)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, SourceInfraConfig, src)
	})

	t.Run("unknown language", func(t *testing.T) {
		src, _, ok, err := reg.Extract("Main.java", "java", `MassTransit`)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, src)
	})

	t.Run("panic becomes extraction error", func(t *testing.T) {
		r := DefaultRegistry()
		r.Register(Rule{Source: "custom", Languages: []string{"go"}, Extractor: panicky{}})
		src, _, ok, err := r.Extract("main.go", "go", "package main")
		assert.Equal(t, Source("custom"), src)
		assert.False(t, ok)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrExtraction))
	})
}
