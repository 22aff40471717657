package provider

import (
	"context"

	"github.com/seansyed/parafort-sub010/internal/domain"
)

// Provider defines the interface for payment provider integrations.
type Provider interface {
	// Name returns the provider name (e.g., "mock", "stripe").
	Name() string

	// CreatePaymentIntent opens a new intent for params.Amount. Calls that
	// repeat params.IdempotencyKey return the original intent.
	CreatePaymentIntent(ctx context.Context, params *domain.PaymentIntentParams) (*domain.PaymentIntent, error)

	// GetPaymentIntent fetches the current state of an intent.
	GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
}

// Webhook event types handled by the service.
const (
	EventPaymentIntentSucceeded     = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed = "payment_intent.payment_failed"
)

// WebhookEvent is a verified webhook delivery. PaymentIntent is set for
// payment_intent.* events.
type WebhookEvent struct {
	ID            string
	Type          string
	PaymentIntent *domain.PaymentIntent
}

// WebhookParser authenticates and decodes a raw webhook delivery.
type WebhookParser interface {
	ParseEvent(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
