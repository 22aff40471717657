package provider

import (
	"context"
	"sync"

	"github.com/seansyed/parafort-sub010/internal/domain"
)

// Factory builds the concrete provider on first use.
type Factory func() (Provider, error)

// Lazy defers building a Provider until the first payment call and builds it
// at most once, even under concurrent first calls. A factory error is sticky:
// every later call returns it.
type Lazy struct {
	factory Factory

	once     sync.Once
	provider Provider
	err      error
}

var _ Provider = (*Lazy)(nil)

// NewLazy wraps factory.
func NewLazy(factory Factory) *Lazy {
	return &Lazy{factory: factory}
}

// Get returns the initialized provider. A nil provider from the factory is
// reported as domain.ErrPaymentNotReady.
func (l *Lazy) Get() (Provider, error) {
	l.once.Do(func() {
		l.provider, l.err = l.factory()
		if l.err == nil && l.provider == nil {
			l.err = domain.ErrPaymentNotReady
		}
	})
	return l.provider, l.err
}

// Ready reports whether the provider initialized successfully.
func (l *Lazy) Ready() bool {
	_, err := l.Get()
	return err == nil
}

// Name returns the underlying provider's name, or "unavailable".
func (l *Lazy) Name() string {
	p, err := l.Get()
	if err != nil {
		return "unavailable"
	}
	return p.Name()
}

// CreatePaymentIntent delegates to the initialized provider.
func (l *Lazy) CreatePaymentIntent(ctx context.Context, params *domain.PaymentIntentParams) (*domain.PaymentIntent, error) {
	p, err := l.Get()
	if err != nil {
		return nil, err
	}
	return p.CreatePaymentIntent(ctx, params)
}

// GetPaymentIntent delegates to the initialized provider.
func (l *Lazy) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	p, err := l.Get()
	if err != nil {
		return nil, err
	}
	return p.GetPaymentIntent(ctx, id)
}
