package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seansyed/parafort-sub010/internal/domain"
	pkgkafka "github.com/seansyed/parafort-sub010/pkg/kafka"
)

// Kafka topics for formation order events. The topic doubles as the
// event type.
var (
	TopicOrderCreated       = pkgkafka.Topic("order", "created")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
)

// AggregateTypeOrder is the aggregate type of order events.
const AggregateTypeOrder = "formation_order"

// SourceService identifies events originating from this service.
const SourceService = "parafort-api"

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	UserID        string `json:"user_id,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	BusinessName  string `json:"business_name,omitempty"`
	EntityType    string `json:"entity_type,omitempty"`
	State         string `json:"state,omitempty"`
	Status        string `json:"status"`
	TotalAmount   int64  `json:"total_amount"`
	Currency      string `json:"currency"`
	IsExpedited   bool   `json:"is_expedited"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	CustomerEmail string `json:"customer_email,omitempty"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	Progress      int    `json:"progress"`
}

// Producer publishes formation order events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event with the order snapshot.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.FormationOrder) error {
	data := OrderCreatedData{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		CustomerEmail: order.Contact().Email,
		BusinessName:  order.BusinessName,
		EntityType:    order.EntityType,
		State:         order.State,
		Status:        order.Status,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		IsExpedited:   order.IsExpedited,
	}

	event, err := pkgkafka.NewEvent(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, SourceService, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}
	event.WithMetadata("payment_intent_id", order.PaymentIntentID)

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
	)
	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.FormationOrder, oldStatus string) error {
	data := OrderStatusChangedData{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.Contact().Email,
		OldStatus:     oldStatus,
		NewStatus:     order.Status,
		Progress:      order.CurrentProgress,
	}

	event, err := pkgkafka.NewEvent(ctx, TopicOrderStatusChanged, order.ID, AggregateTypeOrder, SourceService, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", order.ID),
		slog.String("old_status", oldStatus),
		slog.String("new_status", order.Status),
	)
	return nil
}
