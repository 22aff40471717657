// Package stripe talks to the Stripe PaymentIntents REST API through the
// shared retrying, circuit-broken HTTP client.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/provider"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/httpclient"
)

const upstreamName = "stripe"

// DefaultBaseURL is the production Stripe API endpoint.
const DefaultBaseURL = "https://api.stripe.com"

// Config configures a Client.
type Config struct {
	SecretKey string
	BaseURL   string
}

// Client implements provider.Provider against the Stripe API.
type Client struct {
	http      httpclient.Doer
	secretKey string
	baseURL   string
	logger    *slog.Logger
}

// NewClient creates a Stripe client that sends requests through doer.
func NewClient(cfg Config, doer httpclient.Doer, logger *slog.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		http:      doer,
		secretKey: cfg.SecretKey,
		baseURL:   base,
		logger:    logger,
	}
}

var _ provider.Provider = (*Client)(nil)

// Name returns the provider name.
func (c *Client) Name() string {
	return "stripe"
}

type paymentIntentResponse struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

func (r *paymentIntentResponse) toDomain() *domain.PaymentIntent {
	return &domain.PaymentIntent{
		ID:           r.ID,
		ClientSecret: r.ClientSecret,
		Amount:       r.Amount,
		Currency:     r.Currency,
		Status:       r.Status,
		Metadata:     r.Metadata,
	}
}

// CreatePaymentIntent creates an intent with automatic payment methods.
func (c *Client) CreatePaymentIntent(ctx context.Context, params *domain.PaymentIntentParams) (*domain.PaymentIntent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(params.Amount, 10))
	form.Set("currency", strings.ToLower(params.Currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	if params.Description != "" {
		form.Set("description", params.Description)
	}
	if params.ReceiptEmail != "" {
		form.Set("receipt_email", params.ReceiptEmail)
	}
	for k, v := range params.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build create payment intent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if params.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", params.IdempotencyKey)
	}

	var out paymentIntentResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	c.logger.InfoContext(ctx, "payment intent created",
		slog.String("payment_intent_id", out.ID),
		slog.Int64("amount", out.Amount),
	)
	return out.toDomain(), nil
}

// GetPaymentIntent retrieves an intent by id.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/payment_intents/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build get payment intent request: %w", err)
	}

	var out paymentIntentResponse
	if err := c.do(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("get payment intent %s: %w", id, err)
	}
	return out.toDomain(), nil
}

func (c *Client) do(ctx context.Context, req *http.Request, dst any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		var serverErr *httpclient.ServerError
		if errors.Is(err, httpclient.ErrCircuitOpen) || errors.As(err, &serverErr) {
			c.logger.WarnContext(ctx, "payment provider unavailable", slog.String("error", err.Error()))
			return &apperrors.AppError{
				Code:    "PAYMENT_PROVIDER_UNAVAILABLE",
				Message: "payment provider is temporarily unavailable",
				Status:  http.StatusServiceUnavailable,
				Err:     errors.Join(apperrors.ErrServiceUnavail, err),
			}
		}
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, upstreamName)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
