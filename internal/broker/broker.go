// Package broker ships auth events to RabbitMQ and consumes them back for the
// audit worker.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/casetrack/internal/core/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "auth.events"

// Publisher writes events to a durable queue on the default exchange.
type Publisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	logger *slog.Logger
	mu     sync.Mutex
}

func NewPublisher(url, queue string, lg *slog.Logger) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, ch, err := open(url, queue)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue, logger: lg}, nil
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType(), err)
	}
	return nil
}

// Forward adapts the publisher to an event bus handler.
func (p *Publisher) Forward() events.Handler {
	return func(ctx context.Context, event events.Event) error {
		return p.Publish(ctx, event)
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.ch.Close(), p.conn.Close())
}

func buildPublishing(event events.Event) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event %s: %w", event.EventID(), err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID(),
		Type:         event.EventType(),
		Timestamp:    event.OccurredAt(),
		Body:         body,
	}, nil
}

func open(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return conn, ch, nil
}
