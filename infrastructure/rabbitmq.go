package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"resume-analyzer/domain"
	"resume-analyzer/logger"
)

const DefaultEventsQueue = "analysis_events"

// RabbitMQ publishes analysis status events to a durable queue.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *zap.Logger
}

func NewRabbitMQ(url, queue string, l *zap.Logger) (*RabbitMQ, error) {
	if queue == "" {
		queue = DefaultEventsQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	l = logger.WithFields(l, zap.String(logger.FieldBackend, "rabbitmq"), zap.String("queue", q.Name))
	l.Info("connected to RabbitMQ")

	return &RabbitMQ{conn: conn, channel: ch, queue: q, logger: l}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, event domain.StatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.Time,
			Body:         body,
		},
	)
}

// Consume delivers events to handler until ctx is cancelled or the
// channel closes. Undecodable messages are logged and skipped.
func (r *RabbitMQ) Consume(ctx context.Context, handler func(domain.StatusEvent)) error {
	msgs, err := r.channel.ConsumeWithContext(
		ctx,
		r.queue.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			var event domain.StatusEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				r.logger.Warn("invalid event format", zap.Error(err))
				continue
			}
			handler(event)
		}
	}
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}
