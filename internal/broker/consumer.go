package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/casetrack/internal/core/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

const prefetch = 16

// Consumer reads auth events from the queue and hands them to a handler.
type Consumer struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	tag    string
	logger *slog.Logger
}

func NewConsumer(url, queue, tag string, lg *slog.Logger) (*Consumer, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, ch, err := open(url, queue)
	if err != nil {
		return nil, err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: queue, tag: tag, logger: lg}, nil
}

// Run blocks until ctx is done or the delivery channel closes. Malformed
// messages are dropped; handler failures are requeued once.
func (c *Consumer) Run(ctx context.Context, handle events.Handler) error {
	deliveries, err := c.ch.ConsumeWithContext(ctx, c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.dispatch(ctx, d, handle)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery, handle events.Handler) {
	event, err := decodeEvent(d.Body)
	if err != nil {
		c.logger.Warn("dropping malformed event", "message_id", d.MessageId, "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handle(ctx, event); err != nil {
		c.logger.Error("event handler failed", "event_id", event.EventID(), "error", err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) Close() error {
	return errors.Join(c.ch.Close(), c.conn.Close())
}

func decodeEvent(body []byte) (*events.AuthEvent, error) {
	var event events.AuthEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, errors.New("event without id or type")
	}
	return &event, nil
}
