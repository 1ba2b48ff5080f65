package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"wordreminder/internal/logger"
	"wordreminder/internal/push"
)

// DispatchQueue is the durable queue holding pending push events.
const DispatchQueue = "word_reminder.dispatch"

// AMQP publishes events to RabbitMQ so that any instance can deliver them.
type AMQP struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex
	ch *amqp.Channel
}

func DialAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		DispatchQueue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", DispatchQueue, err)
	}
	return &AMQP{conn: conn, ch: ch, queue: DispatchQueue}, nil
}

func (q *AMQP) Enqueue(ctx context.Context, ev push.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch == nil {
		return ErrClosed
	}
	return q.ch.Publish(
		"",
		q.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

// Consume delivers queued events with handler until ctx is cancelled or the
// connection drops. Handler errors and malformed messages are logged and
// dropped; per device failures never reach here.
func (q *AMQP) Consume(ctx context.Context, prefetch int, handler Handler) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consumer channel: %w", err)
	}
	defer ch.Close()

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}
	deliveries, err := ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			var ev push.Event
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				logger.Error("dropping malformed dispatch message", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			if err := handler(ctx, ev); err != nil {
				logger.Error("dispatch failed", "user_id", ev.UserID, "error", err)
			}
			_ = d.Ack(false)
		}
	}
}

func (q *AMQP) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ch != nil {
		_ = q.ch.Close()
		q.ch = nil
	}
	if q.conn == nil {
		return nil
	}
	err := q.conn.Close()
	q.conn = nil
	return err
}
