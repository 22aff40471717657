package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/metrics"
	"github.com/seansyed/parafort-sub010/internal/provider"
	"github.com/seansyed/parafort-sub010/internal/repository"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/pagination"
)

// Completion sources recorded in metrics.
const (
	SourceClient  = "client"
	SourceWebhook = "webhook"
)

// OrderEvents publishes formation order lifecycle events.
type OrderEvents interface {
	PublishOrderCreated(ctx context.Context, order *domain.FormationOrder) error
	PublishOrderStatusChanged(ctx context.Context, order *domain.FormationOrder, oldStatus string) error
}

// CompleteOrderInput identifies a paid PaymentIntent to turn into an order.
type CompleteOrderInput struct {
	PaymentIntentID  string `json:"paymentIntentId" validate:"required,max=255"`
	BusinessEntityID string `json:"businessEntityId" validate:"omitempty,uuid"`
}

// UpdateStatusInput is the admin status change request.
type UpdateStatusInput struct {
	Status          string `json:"status" validate:"required"`
	CurrentProgress *int   `json:"currentProgress,omitempty"`
}

// ListOrdersInput filters the admin order list.
type ListOrdersInput struct {
	Status  string
	UserID  string
	Page    int
	PerPage int
}

// OrderService creates formation orders from paid PaymentIntents and moves
// them through the filing workflow.
type OrderService struct {
	orders   repository.OrderRepository
	entities repository.EntityRepository
	sessions repository.CheckoutSessionStore
	payments provider.Provider
	events   OrderEvents
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orders repository.OrderRepository,
	entities repository.EntityRepository,
	sessions repository.CheckoutSessionStore,
	payments provider.Provider,
	events OrderEvents,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		entities: entities,
		sessions: sessions,
		payments: payments,
		events:   events,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CompleteFormationOrder records the order for a succeeded PaymentIntent.
// Repeated or concurrent calls for one PaymentIntent return the same order;
// created reports whether this call inserted it. A business entity may only
// be linked when it belongs to the user who paid.
func (s *OrderService) CompleteFormationOrder(ctx context.Context, input CompleteOrderInput, source string) (*domain.FormationOrder, bool, error) {
	if input.PaymentIntentID == "" {
		return nil, false, apperrors.InvalidInput("paymentIntentId is required")
	}

	pi, err := s.payments.GetPaymentIntent(ctx, input.PaymentIntentID)
	if err != nil {
		return nil, false, err
	}
	if !pi.Succeeded() {
		return nil, false, apperrors.PaymentFailed(fmt.Sprintf("payment has not succeeded (status %s)", pi.Status))
	}
	if input.BusinessEntityID != "" {
		if err := s.checkEntityOwner(ctx, input.BusinessEntityID, pi.Metadata[domain.MetaUserID]); err != nil {
			return nil, false, err
		}
	}

	order := s.orderFromIntent(ctx, pi)
	if input.BusinessEntityID != "" {
		order.BusinessEntityID = &input.BusinessEntityID
	}

	saved, created, err := s.orders.CreateOrGet(ctx, order)
	if err != nil {
		return nil, false, fmt.Errorf("create formation order: %w", err)
	}
	if !created {
		if input.BusinessEntityID != "" {
			saved, err = s.linkEntity(ctx, saved, input.BusinessEntityID)
			if err != nil {
				return nil, false, err
			}
		}
		return saved, false, nil
	}

	metrics.OrdersCreated.WithLabelValues(source).Inc()
	s.logger.InfoContext(ctx, "formation order created",
		slog.String("order_id", saved.ID),
		slog.String("order_number", saved.OrderNumber),
		slog.String("payment_intent_id", saved.PaymentIntentID),
		slog.String("source", source),
	)

	if err := s.events.PublishOrderCreated(ctx, saved); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order created event",
			slog.String("order_id", saved.ID),
			slog.String("error", err.Error()),
		)
	}

	if sid := pi.Metadata[domain.MetaCheckoutSessionID]; sid != "" && s.sessions != nil {
		if err := s.sessions.Delete(ctx, sid); err != nil {
			s.logger.WarnContext(ctx, "failed to delete checkout session",
				slog.String("session_id", sid),
				slog.String("error", err.Error()),
			)
		}
	}
	return saved, true, nil
}

func (s *OrderService) checkEntityOwner(ctx context.Context, entityID, userID string) error {
	e, err := s.entities.GetByID(ctx, entityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("business entity", entityID)
		}
		return fmt.Errorf("get business entity %s: %w", entityID, err)
	}
	if userID == "" || e.UserID != userID {
		return apperrors.NotFound("business entity", entityID)
	}
	return nil
}

// linkEntity attaches entityID to an order recorded without one, typically by
// the webhook.
func (s *OrderService) linkEntity(ctx context.Context, order *domain.FormationOrder, entityID string) (*domain.FormationOrder, error) {
	if order.BusinessEntityID != nil {
		if *order.BusinessEntityID == entityID {
			return order, nil
		}
		return nil, apperrors.Conflict("formation order is already linked to another business entity")
	}
	linked, err := s.orders.AttachEntity(ctx, order.ID, entityID)
	if err != nil {
		return nil, fmt.Errorf("link business entity: %w", err)
	}
	s.logger.InfoContext(ctx, "business entity linked to formation order",
		slog.String("order_id", linked.ID),
		slog.String("business_entity_id", entityID),
	)
	return linked, nil
}

// orderFromIntent builds the order from the intent's metadata, enriched with
// the checkout session's answers when the session is still around.
func (s *OrderService) orderFromIntent(ctx context.Context, pi *domain.PaymentIntent) *domain.FormationOrder {
	meta := pi.Metadata
	now := s.now().UTC()
	order := &domain.FormationOrder{
		ID:              s.newID(),
		OrderNumber:     domain.NewOrderNumber(now),
		UserID:          meta[domain.MetaUserID],
		Status:          domain.OrderStatusPending,
		CurrentProgress: domain.ProgressForStatus(domain.OrderStatusPending),
		TotalAmount:     pi.Amount,
		Currency:        pi.Currency,
		PaymentIntentID: pi.ID,
		EntityType:      meta[domain.MetaEntityType],
		State:           meta[domain.MetaState],
		BusinessName:    meta[domain.MetaBusinessName],
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.IsExpedited, _ = strconv.ParseBool(meta[domain.MetaExpedited])
	if id := meta[domain.MetaServiceID]; id != "" {
		order.ServiceID = &id
	}

	contact := domain.CustomerContact{
		Email:     meta[domain.MetaCustomerEmail],
		FirstName: meta[domain.MetaCustomerFirstName],
		LastName:  meta[domain.MetaCustomerLastName],
		Phone:     meta[domain.MetaCustomerPhone],
	}
	if contact != (domain.CustomerContact{}) {
		order.CustomerInfo, _ = json.Marshal(contact)
	}

	sid := meta[domain.MetaCheckoutSessionID]
	if sid == "" || s.sessions == nil {
		return order
	}
	cs, err := s.sessions.Get(ctx, sid)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to load checkout session for order",
				slog.String("session_id", sid),
				slog.String("error", err.Error()),
			)
		}
		return order
	}
	info, err := json.Marshal(struct {
		Questions         *domain.ServiceQuestions  `json:"serviceQuestions,omitempty"`
		ClientInformation *domain.ClientInformation `json:"clientInformation,omitempty"`
	}{cs.Questions, cs.ClientInformation})
	if err == nil {
		order.BusinessInfo = info
	}
	return order
}

// GetOrder retrieves a formation order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.FormationOrder, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get formation order %s: %w", id, err)
	}
	return order, nil
}

// ListOrders returns a page of orders and the total count.
func (s *OrderService) ListOrders(ctx context.Context, input ListOrdersInput) ([]domain.FormationOrder, int, error) {
	p := pagination.Normalize(input.Page, input.PerPage)
	filter := repository.OrderFilter{Page: p.Page, PerPage: p.PerPage}
	if input.Status != "" {
		if !domain.IsValidStatus(input.Status) {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid status: %s", input.Status))
		}
		filter.Status = &input.Status
	}
	if input.UserID != "" {
		filter.UserID = &input.UserID
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list formation orders: %w", err)
	}
	return orders, total, nil
}

// ListForEntity returns a page of orders for a business entity.
func (s *OrderService) ListForEntity(ctx context.Context, entityID string, page, perPage int) ([]domain.FormationOrder, int, error) {
	p := pagination.Normalize(page, perPage)
	orders, total, err := s.orders.List(ctx, repository.OrderFilter{
		BusinessEntityID: &entityID,
		Page:             p.Page,
		PerPage:          p.PerPage,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list entity orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus moves an order along the workflow. Illegal transitions are
// rejected; the stored progress always comes from the status table.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, input UpdateStatusInput) (*domain.FormationOrder, error) {
	if !domain.IsValidStatus(input.Status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status: %s", input.Status))
	}
	if p := input.CurrentProgress; p != nil && (*p < 0 || *p > 100) {
		return nil, apperrors.InvalidInput("currentProgress must be between 0 and 100")
	}

	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get formation order %s: %w", id, err)
	}
	if !current.CanTransitionTo(input.Status) {
		return nil, apperrors.InvalidInput(
			fmt.Sprintf("cannot transition order from %s to %s", current.Status, input.Status),
		).WithCode("INVALID_TRANSITION")
	}

	updated, err := s.orders.UpdateStatus(ctx, id, current.Status, input.Status, domain.ProgressForStatus(input.Status))
	if err != nil {
		return nil, fmt.Errorf("update formation order status: %w", err)
	}

	metrics.OrderStatusTransitions.WithLabelValues(current.Status, updated.Status).Inc()
	s.logger.InfoContext(ctx, "formation order status updated",
		slog.String("order_id", id),
		slog.String("from", current.Status),
		slog.String("to", updated.Status),
	)

	if err := s.events.PublishOrderStatusChanged(ctx, updated, current.Status); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order status changed event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}
	return updated, nil
}
