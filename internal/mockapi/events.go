package mockapi

import (
	"context"
	"log/slog"
	"time"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Event topics.
var (
	TopicPaymentProcessed = pkgkafka.Topic("payment", "processed")
	TopicCartCleared      = pkgkafka.Topic("cart", "cleared")
)

const (
	eventSource    = "storefront-mockapi"
	publishTimeout = 2 * time.Second
)

// Publisher sends events to a broker. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
	Close() error
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *pkgkafka.Event) error { return nil }
func (NopPublisher) Close() error                                           { return nil }

// PaymentProcessedData is the payload of a payment.processed event.
type PaymentProcessedData struct {
	UserID string        `json:"user_id"`
	Order  *domain.Order `json:"order"`
}

// CartClearedData is the payload of a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// Events publishes mock API domain events. Publishing is best effort:
// failures are logged and never fail the request.
type Events struct {
	pub    Publisher
	logger *slog.Logger
}

// NewEvents creates an event publisher over pub.
func NewEvents(pub Publisher, log *slog.Logger) *Events {
	if pub == nil {
		pub = NopPublisher{}
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Events{pub: pub, logger: log}
}

// PaymentProcessed publishes an approved order.
func (e *Events) PaymentProcessed(ctx context.Context, userID string, order *domain.Order) {
	e.publish(ctx, TopicPaymentProcessed, order.OrderID, "order", PaymentProcessedData{UserID: userID, Order: order})
}

// CartCleared publishes that userID's cart was emptied.
func (e *Events) CartCleared(ctx context.Context, userID string) {
	e.publish(ctx, TopicCartCleared, userID, "cart", CartClearedData{UserID: userID})
}

func (e *Events) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, eventSource, data)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to build event", slog.String("topic", topic), slog.String("error", err.Error()))
		return
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := e.pub.Publish(ctx, topic, event); err != nil {
		e.logger.WarnContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("aggregate_id", aggregateID),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the underlying publisher.
func (e *Events) Close() error {
	return e.pub.Close()
}
