// Package notify publishes order lifecycle events. Delivery is best-effort:
// callers log failures and never roll back an order because of them.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookstore/internal/config"
	"bookstore/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Event types.
const (
	EventOrderPaid   = "order.paid"
	EventOrderFailed = "order.failed"
)

// Event is published once per order state transition.
type Event struct {
	Type          string              `json:"type"`
	OrderID       int64               `json:"order_id"`
	Status        model.PaymentStatus `json:"status"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	CustomerName  string              `json:"customer_name"`
	CustomerEmail string              `json:"customer_email"`
	TransactionID string              `json:"transaction_id,omitempty"`
	PaymentID     string              `json:"payment_id,omitempty"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// NewOrderEvent builds the event for an order that just reached status.
func NewOrderEvent(order *model.Order) Event {
	e := Event{
		Type:          EventOrderFailed,
		OrderID:       order.ID,
		Status:        order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		OccurredAt:    time.Now().UTC(),
	}
	if order.PaymentStatus == model.PaymentStatusPaid {
		e.Type = EventOrderPaid
	}
	if order.TransactionID != nil {
		e.TransactionID = *order.TransactionID
	}
	if order.PaymentID != nil {
		e.PaymentID = *order.PaymentID
	}
	return e
}

func (e Event) key() string {
	return fmt.Sprintf("%d", e.OrderID)
}

func (e Event) encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", e.Type, err)
	}
	return body, nil
}

// Notifier delivers order events to customers or downstream systems.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
	Close() error
}

// New returns the notifier selected by configuration.
func New(cfg config.NotifyConfig, logger zerolog.Logger) (Notifier, error) {
	switch cfg.Backend {
	case config.NotifyBackendRabbitMQ:
		return NewRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
	case config.NotifyBackendKafka:
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	case config.NotifyBackendLog, "":
		return NewLog(logger), nil
	default:
		return nil, fmt.Errorf("unsupported notify backend: %s", cfg.Backend)
	}
}

// logNotifier records events in the application log. It stands in for the
// confirmation email when no broker is configured.
type logNotifier struct {
	logger zerolog.Logger
}

// NewLog creates a notifier that only logs.
func NewLog(logger zerolog.Logger) Notifier {
	return &logNotifier{logger: logger.With().Str("notifier", "log").Logger()}
}

func (n *logNotifier) Notify(ctx context.Context, event Event) error {
	n.logger.Info().
		Str("event", event.Type).
		Int64("order_id", event.OrderID).
		Str("customer_email", event.CustomerEmail).
		Str("total_amount", event.TotalAmount.StringFixed(2)).
		Msg("order notification")
	return nil
}

func (n *logNotifier) Close() error { return nil }
