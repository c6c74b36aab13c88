// Package events publishes order and payment events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/joue-zero/homemade-dishes/internal/middleware"
	"github.com/joue-zero/homemade-dishes/internal/order"
	"github.com/joue-zero/homemade-dishes/internal/payment"
)

const (
	OrderPlacedQueue        = "order.placed"
	OrderStatusChangedQueue = "order.status_changed"
	PaymentSettledQueue     = "payment.settled"

	defaultProducer = "homemade-client"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	ch       Channel
	producer string
	log      zerolog.Logger
	now      func() time.Time
}

var (
	_ order.Notifier   = (*Publisher)(nil)
	_ payment.Notifier = (*Publisher)(nil)
)

// Dial connects to the broker.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	return conn, nil
}

func NewPublisher(conn *amqp.Connection, logger zerolog.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewChannelPublisher(ch, logger)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

// NewChannelPublisher declares the queues on ch so publish never fails due
// to missing infra.
func NewChannelPublisher(ch Channel, logger zerolog.Logger) (*Publisher, error) {
	for _, q := range []string{OrderPlacedQueue, OrderStatusChangedQueue, PaymentSettledQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare %s: %w", q, err)
		}
	}
	return &Publisher{ch: ch, producer: defaultProducer, log: logger, now: time.Now}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) OrderPlaced(ctx context.Context, o order.Order) error {
	env := BuildOrderPlaced(o, p.producer, middleware.GetCorrelationID(ctx), p.now())
	return p.publish(ctx, OrderPlacedQueue, env.EventID, env)
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, o order.Order, from order.Status) error {
	env := BuildOrderStatusChanged(o, from, p.producer, middleware.GetCorrelationID(ctx), p.now())
	return p.publish(ctx, OrderStatusChangedQueue, env.EventID, env)
}

func (p *Publisher) PaymentSettled(ctx context.Context, s payment.Settlement) error {
	env := BuildPaymentSettled(s, p.producer, middleware.GetCorrelationID(ctx), p.now())
	return p.publish(ctx, PaymentSettledQueue, env.EventID, env)
}

func (p *Publisher) publish(ctx context.Context, queue, eventID string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", queue, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(
		pubCtx,
		"",    // default exchange
		queue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    eventID,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", queue, err)
	}
	p.log.Debug().Str("queue", queue).Str("event_id", eventID).Msg("event published")
	return nil
}
