package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/seansyed/parafort-sub010/internal/config"
	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/provider"
	mockprovider "github.com/seansyed/parafort-sub010/internal/provider/mock"
	"github.com/seansyed/parafort-sub010/internal/provider/stripe"
	"github.com/seansyed/parafort-sub010/internal/sender"
	"github.com/seansyed/parafort-sub010/internal/sender/smtp"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/httpclient"
)

// newPaymentProvider returns the factory behind the lazily built payment
// provider. A missing Stripe secret leaves payments not ready instead of
// failing startup.
func newPaymentProvider(cfg *config.Config, logger *slog.Logger) provider.Factory {
	return func() (provider.Provider, error) {
		switch cfg.PaymentProvider {
		case "mock":
			logger.Warn("using mock payment provider")
			return mockprovider.NewProvider(), nil
		case "stripe":
			if cfg.StripeSecretKey == "" {
				logger.Error("STRIPE_SECRET_KEY not set, payments unavailable")
				return nil, domain.ErrPaymentNotReady
			}
			httpCfg := httpclient.DefaultConfig()
			if cfg.StripeTimeout > 0 {
				httpCfg.Timeout = cfg.StripeTimeout
			}
			doer := httpclient.NewCircuitBreakerClient(
				httpclient.New(httpCfg),
				httpclient.DefaultCircuitBreakerConfig("stripe"),
				logger,
			).WithFallback(func(context.Context, error) (*http.Response, error) {
				return nil, apperrors.ServiceUnavailable("payment provider temporarily unavailable")
			})
			logger.Info("stripe payment provider initialized", slog.String("base_url", cfg.StripeBaseURL))
			return stripe.NewClient(stripe.Config{
				SecretKey: cfg.StripeSecretKey,
				BaseURL:   cfg.StripeBaseURL,
			}, doer, logger), nil
		default:
			return nil, fmt.Errorf("unknown payment provider %q", cfg.PaymentProvider)
		}
	}
}

func newWebhookVerifier(cfg *config.Config) provider.WebhookParser {
	return stripe.NewWebhookVerifier(cfg.StripeWebhookSecret, 0)
}

// newSender picks the outbound email transport.
func newSender(cfg *config.Config, logger *slog.Logger) (sender.Sender, error) {
	switch cfg.EmailSender {
	case "smtp":
		s, err := smtp.New(smtp.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init smtp sender: %w", err)
		}
		return s, nil
	default:
		return sender.NewLogSender(logger), nil
	}
}
