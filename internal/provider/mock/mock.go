package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/seansyed/parafort-sub010/internal/domain"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

// Provider is an in-memory payment provider whose intents succeed
// immediately. It is intended for development and testing purposes.
type Provider struct {
	mu        sync.Mutex
	intents   map[string]*domain.PaymentIntent
	byIdemKey map[string]string
}

// NewProvider creates a new mock payment provider.
func NewProvider() *Provider {
	return &Provider{
		intents:   make(map[string]*domain.PaymentIntent),
		byIdemKey: make(map[string]string),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "mock"
}

// CreatePaymentIntent records a succeeded intent. A repeated idempotency key
// returns the intent created first.
func (p *Provider) CreatePaymentIntent(_ context.Context, params *domain.PaymentIntentParams) (*domain.PaymentIntent, error) {
	if params.Amount <= 0 {
		return nil, apperrors.InvalidInput("amount must be positive")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if params.IdempotencyKey != "" {
		if id, ok := p.byIdemKey[params.IdempotencyKey]; ok {
			cpy := *p.intents[id]
			return &cpy, nil
		}
	}

	id := "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	metadata := make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	pi := &domain.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_mock",
		Amount:       params.Amount,
		Currency:     params.Currency,
		Status:       domain.PaymentStatusSucceeded,
		Metadata:     metadata,
	}
	p.intents[id] = pi
	if params.IdempotencyKey != "" {
		p.byIdemKey[params.IdempotencyKey] = id
	}

	cpy := *pi
	return &cpy, nil
}

// GetPaymentIntent returns a previously created intent.
func (p *Provider) GetPaymentIntent(_ context.Context, id string) (*domain.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pi, ok := p.intents[id]
	if !ok {
		return nil, apperrors.NotFound("payment intent", id)
	}
	cpy := *pi
	return &cpy, nil
}

// SetStatus overrides an intent's status, for exercising failed payments.
func (p *Provider) SetStatus(id, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pi, ok := p.intents[id]; ok {
		pi.Status = status
	}
}
