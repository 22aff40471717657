package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/metrics"
	"github.com/seansyed/parafort-sub010/internal/sender"
	pkgkafka "github.com/seansyed/parafort-sub010/pkg/kafka"
)

// ConsumerGroupID is the default group for the notification consumers.
const ConsumerGroupID = "parafort-notifications"

// NotificationHandler turns order events into customer emails.
type NotificationHandler struct {
	sender sender.Sender
	logger *slog.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(s sender.Sender, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{sender: s, logger: logger}
}

// Handle routes an event by type. Unknown types are ignored.
func (h *NotificationHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicOrderCreated:
		return h.handleOrderCreated(ctx, event)
	case TopicOrderStatusChanged:
		return h.handleOrderStatusChanged(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (h *NotificationHandler) handleOrderCreated(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderCreatedData
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.ErrorContext(ctx, "malformed order.created payload, skipping",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if data.CustomerEmail == "" {
		h.logger.WarnContext(ctx, "order.created without customer email, skipping",
			slog.String("order_id", data.OrderID),
		)
		return nil
	}

	msg, err := sender.OrderCreatedEmail(data.CustomerEmail, &domain.FormationOrder{
		OrderNumber:  data.OrderNumber,
		BusinessName: data.BusinessName,
		TotalAmount:  data.TotalAmount,
		IsExpedited:  data.IsExpedited,
	})
	if err != nil {
		return fmt.Errorf("render order confirmation: %w", err)
	}
	return h.send(ctx, "order_created", msg)
}

func (h *NotificationHandler) handleOrderStatusChanged(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderStatusChangedData
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.ErrorContext(ctx, "malformed order.status_changed payload, skipping",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if data.CustomerEmail == "" {
		h.logger.WarnContext(ctx, "order.status_changed without customer email, skipping",
			slog.String("order_id", data.OrderID),
		)
		return nil
	}

	msg, err := sender.OrderStatusEmail(data.CustomerEmail, data.OrderNumber, data.NewStatus, data.Progress)
	if err != nil {
		return fmt.Errorf("render status email: %w", err)
	}
	return h.send(ctx, "order_status_changed", msg)
}

func (h *NotificationHandler) send(ctx context.Context, template string, msg *sender.Message) error {
	err := h.sender.Send(ctx, msg)
	metrics.EmailsSent.WithLabelValues(template, metrics.ResultLabel(err)).Inc()
	if err != nil {
		return fmt.Errorf("send %s email: %w", template, err)
	}
	return nil
}

// ConsumerSettings configures the notification consumers.
type ConsumerSettings struct {
	Brokers []string
	GroupID string
}

// NewConsumers creates one consumer per order topic. Every handler runs
// behind the idempotency guard, and exhausted messages go to dlq when set.
func NewConsumers(
	settings ConsumerSettings,
	handler *NotificationHandler,
	store pkgkafka.IdempotencyStore,
	dlq pkgkafka.DeadLetterPublisher,
	logger *slog.Logger,
) []*pkgkafka.Consumer {
	group := settings.GroupID
	if group == "" {
		group = ConsumerGroupID
	}

	guarded := pkgkafka.IdempotentHandler(store, group, handler.Handle, logger)

	topics := []string{TopicOrderCreated, TopicOrderStatusChanged}
	consumers := make([]*pkgkafka.Consumer, 0, len(topics))
	for _, topic := range topics {
		cfg := pkgkafka.ConsumerConfig{
			Brokers:  settings.Brokers,
			GroupID:  group,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}
		consumer := pkgkafka.NewConsumer(cfg, guarded, logger)
		if dlq != nil {
			consumer = consumer.WithDeadLetter(dlq)
		}
		consumers = append(consumers, consumer)
	}
	return consumers
}
