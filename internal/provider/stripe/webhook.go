package stripe

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/seansyed/parafort-sub010/internal/provider"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

// SignatureHeader carries the webhook signature.
const SignatureHeader = "Stripe-Signature"

// WebhookVerifier authenticates webhook deliveries with the endpoint secret.
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

var _ provider.WebhookParser = (*WebhookVerifier)(nil)

// NewWebhookVerifier creates a verifier. A non-positive tolerance uses
// webhook.DefaultTolerance.
func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &WebhookVerifier{secret: secret, tolerance: tolerance}
}

// ParseEvent verifies header against payload and decodes the event.
func (v *WebhookVerifier) ParseEvent(payload []byte, header string) (*provider.WebhookEvent, error) {
	if v.secret == "" {
		return nil, apperrors.ServiceUnavailable("webhook secret is not configured")
	}

	raw, err := webhook.ConstructEventWithOptions(payload, header, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, signatureError(err)
	}

	evt := &provider.WebhookEvent{ID: raw.ID, Type: string(raw.Type)}
	if strings.HasPrefix(evt.Type, "payment_intent.") && raw.Data != nil && len(raw.Data.Raw) > 0 {
		var pi paymentIntentResponse
		if err := json.Unmarshal(raw.Data.Raw, &pi); err != nil {
			return nil, apperrors.InvalidInput("malformed payment intent in webhook payload")
		}
		evt.PaymentIntent = pi.toDomain()
	}
	return evt, nil
}

func signatureError(err error) error {
	switch {
	case errors.Is(err, webhook.ErrNotSigned), errors.Is(err, webhook.ErrInvalidHeader):
		return apperrors.Unauthorized("missing webhook signature")
	case errors.Is(err, webhook.ErrTooOld):
		return apperrors.Unauthorized("webhook timestamp outside tolerance")
	case errors.Is(err, webhook.ErrNoValidSignature):
		return apperrors.Unauthorized("webhook signature mismatch")
	default:
		return apperrors.InvalidInput("malformed webhook payload")
	}
}
