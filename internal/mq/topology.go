package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeEvents Exchange = "graphflow.events"
	ExchangeDLQ    Exchange = "graphflow.dlq"
)

// Queues — имена очередей.
const (
	QueueAudit    Queue = "events.audit"
	QueueDLQAudit Queue = "dlq.audit"
)

// Routing keys.
const (
	RoutingKeyWorkflowSaved RoutingKey = RoutingKey(MessageTypeWorkflowSaved)
	RoutingKeyNodeExecuted  RoutingKey = RoutingKey(MessageTypeNodeExecuted)
	RoutingKeyAllEvents     RoutingKey = "#"
	RoutingKeyDLQAudit      RoutingKey = "audit"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// exchanges — обменники топологии.
func exchanges() []exchangeDecl {
	return []exchangeDecl{
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}
}

// queues — очереди топологии. Аудит отправляет отвергнутые сообщения в DLQ.
func queues() []queueDecl {
	return []queueDecl{
		{QueueAudit, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQAudit),
		}},
		{QueueDLQAudit, nil},
	}
}

// bindings — привязки очередей к обменникам.
func bindings() []bindingDecl {
	return []bindingDecl{
		{QueueAudit, RoutingKeyAllEvents, ExchangeEvents},
		{QueueDLQAudit, RoutingKeyDLQAudit, ExchangeDLQ},
	}
}

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range exchanges() {
			err := ch.ExchangeDeclare(
				string(ex.name), // name
				ex.kind,         // type
				true,            // durable
				false,           // auto-deleted
				false,           // internal
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex.name, err)
			}
		}

		for _, q := range queues() {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		for _, b := range bindings() {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Graphflow RabbitMQ Topology:

    graphflow.events (topic)
    └── events.audit [routing: #]
            Consumer: graphflow-audit
            DLQ: dlq.audit

    graphflow.dlq (direct)
    └── dlq.audit [routing: audit]
            Manual processing
  `
}
