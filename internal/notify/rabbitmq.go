package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// amqpPublisher is the subset of *amqp.Channel used for publishing.
type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitNotifier struct {
	conn     io.Closer
	ch       amqpPublisher
	exchange string
	logger   zerolog.Logger
}

// NewRabbitMQ connects to RabbitMQ and declares a durable topic exchange.
// Events are routed by their type.
func NewRabbitMQ(url, exchange string, logger zerolog.Logger) (Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	n := newRabbitNotifier(ch, exchange, logger)
	n.conn = conn
	return n, nil
}

func newRabbitNotifier(ch amqpPublisher, exchange string, logger zerolog.Logger) *rabbitNotifier {
	return &rabbitNotifier{
		ch:       ch,
		exchange: exchange,
		logger:   logger.With().Str("notifier", "rabbitmq").Str("exchange", exchange).Logger(),
	}
}

func (n *rabbitNotifier) Notify(ctx context.Context, event Event) error {
	body, err := event.encode()
	if err != nil {
		return err
	}

	err = n.ch.PublishWithContext(ctx, n.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.Type + ":" + event.key(),
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s for order %d: %w", event.Type, event.OrderID, err)
	}

	n.logger.Debug().Str("event", event.Type).Int64("order_id", event.OrderID).Msg("event published")
	return nil
}

// Close closes the channel and then the connection. The connection is
// closed even when the channel close fails.
func (n *rabbitNotifier) Close() error {
	var errs []error
	if err := n.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close rabbitmq channel: %w", err))
	}
	if n.conn != nil {
		if err := n.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close rabbitmq connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
