package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/restaurantia/api/internal/enum"
)

// KitchenExchange is the topic exchange external kitchen displays bind to.
// Routing keys are event types, e.g. "pedido.creado".
const KitchenExchange = "pedidos_topic"

type AMQPConnection interface {
	Channel() (AMQPChannel, error)
	Close() error
}

type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpConnection struct {
	conn *amqp.Connection
}

// DialAMQP connects to RabbitMQ.
func DialAMQP(url string) (AMQPConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return &amqpConnection{conn: conn}, nil
}

func (c *amqpConnection) Channel() (AMQPChannel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return ch, nil
}

func (c *amqpConnection) Close() error {
	if c.conn.IsClosed() {
		return nil
	}
	return c.conn.Close()
}

// AMQPPublisher publishes order events to KitchenExchange. Events of other
// topics are ignored.
type AMQPPublisher struct {
	conn AMQPConnection
}

func NewAMQPPublisher(conn AMQPConnection) *AMQPPublisher {
	return &AMQPPublisher{conn: conn}
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	if e.Topic != enum.TopicOrders {
		return nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(KitchenExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = ch.PublishWithContext(ctx, KitchenExchange, e.Type, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}
