package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/metrics"
	"github.com/seansyed/parafort-sub010/internal/provider"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/validator"
)

// Payment environments reported to the client.
const (
	EnvironmentTest = "test"
	EnvironmentLive = "live"
)

// OrderCompleter turns a succeeded PaymentIntent into a formation order.
type OrderCompleter interface {
	CompleteFormationOrder(ctx context.Context, input CompleteOrderInput, source string) (*domain.FormationOrder, bool, error)
}

// PaymentConfig holds the client-facing payment settings.
type PaymentConfig struct {
	PublishableKey     string
	Currency           string
	DefaultExpediteFee int64
}

// StripeConfig is returned to the browser to initialize Stripe.js.
type StripeConfig struct {
	PublishableKey string `json:"publishableKey"`
	Environment    string `json:"environment"`
}

// PaymentService creates PaymentIntents outside the checkout session flow and
// reconciles orders from provider webhooks.
type PaymentService struct {
	payments provider.Provider
	catalog  ServiceLookup
	orders   OrderCompleter
	webhooks provider.WebhookParser
	cfg      PaymentConfig
	logger   *slog.Logger
}

// NewPaymentService creates a new PaymentService. webhooks may be nil when no
// webhook secret is configured.
func NewPaymentService(
	payments provider.Provider,
	catalog ServiceLookup,
	orders OrderCompleter,
	webhooks provider.WebhookParser,
	cfg PaymentConfig,
	logger *slog.Logger,
) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.DefaultExpediteFee <= 0 {
		cfg.DefaultExpediteFee = domain.DefaultExpediteFee
	}
	return &PaymentService{
		payments: payments,
		catalog:  catalog,
		orders:   orders,
		webhooks: webhooks,
		cfg:      cfg,
		logger:   logger,
	}
}

// StripeConfig returns the publishable key and whether it is a test key.
func (s *PaymentService) StripeConfig() (*StripeConfig, error) {
	key := strings.TrimSpace(s.cfg.PublishableKey)
	if key == "" {
		return nil, domain.ErrPaymentNotReady
	}
	env := EnvironmentLive
	if strings.HasPrefix(key, "pk_test_") {
		env = EnvironmentTest
	}
	return &StripeConfig{PublishableKey: key, Environment: env}, nil
}

// CreatePaymentIntent prices draft from the catalog and creates an intent.
// Any client-supplied amount is ignored.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, draft domain.OrderDraft, userID, idempotencyKey string) (*PaymentIntentResult, error) {
	draft.State = strings.ToUpper(draft.State)
	draft.CustomerEmail = domain.NormalizeEmail(draft.CustomerEmail)
	if err := validator.Validate(draft); err != nil {
		return nil, err
	}
	if len(idempotencyKey) > 255 {
		return nil, apperrors.InvalidInput("Idempotency-Key must be at most 255 characters")
	}

	svc, err := s.catalog.GetActiveService(ctx, draft.ServiceID)
	if err != nil {
		return nil, err
	}

	total := domain.CalculateTotal(svc.OneTimePrice, svc.ExpediteFee(s.cfg.DefaultExpediteFee), draft.IsExpedited)
	pi, err := s.payments.CreatePaymentIntent(ctx, &domain.PaymentIntentParams{
		Amount:       total,
		Currency:     s.cfg.Currency,
		Description:  svc.Name,
		ReceiptEmail: draft.CustomerEmail,
		Metadata: map[string]string{
			domain.MetaServiceID:         svc.ID,
			domain.MetaUserID:            userID,
			domain.MetaAmount:            domain.FormatAmount(total),
			domain.MetaExpedited:         strconv.FormatBool(draft.IsExpedited),
			domain.MetaEntityType:        draft.EntityType,
			domain.MetaState:             draft.State,
			domain.MetaBusinessName:      draft.BusinessName,
			domain.MetaCustomerEmail:     draft.CustomerEmail,
			domain.MetaCustomerFirstName: draft.FirstName,
			domain.MetaCustomerLastName:  draft.LastName,
			domain.MetaCustomerPhone:     draft.Phone,
		},
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentIntentsCreated.WithLabelValues(s.payments.Name()).Inc()
	s.logger.InfoContext(ctx, "payment intent created",
		slog.String("payment_intent_id", pi.ID),
		slog.String("service_id", svc.ID),
		slog.Int64("amount", pi.Amount),
	)
	return &PaymentIntentResult{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
		Amount:          domain.FormatAmount(pi.Amount),
	}, nil
}

// HandleWebhook verifies a provider delivery and completes the order for
// succeeded payments. Other event types are acknowledged and ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhooks == nil {
		return apperrors.ServiceUnavailable("webhooks are not configured")
	}
	evt, err := s.webhooks.ParseEvent(payload, signature)
	if err != nil {
		return err
	}

	l := s.logger.With(slog.String("event_id", evt.ID), slog.String("event_type", evt.Type))
	switch evt.Type {
	case provider.EventPaymentIntentSucceeded:
		if evt.PaymentIntent == nil || evt.PaymentIntent.ID == "" {
			return apperrors.InvalidInput("webhook event has no payment intent")
		}
		order, created, err := s.orders.CompleteFormationOrder(ctx, CompleteOrderInput{PaymentIntentID: evt.PaymentIntent.ID}, SourceWebhook)
		if err != nil {
			return err
		}
		l.InfoContext(ctx, "payment reconciled",
			slog.String("order_id", order.ID),
			slog.Bool("created", created),
		)
	case provider.EventPaymentIntentPaymentFailed:
		if evt.PaymentIntent != nil {
			l.WarnContext(ctx, "payment failed", slog.String("payment_intent_id", evt.PaymentIntent.ID))
		}
	default:
		l.DebugContext(ctx, "ignoring webhook event")
	}
	return nil
}
