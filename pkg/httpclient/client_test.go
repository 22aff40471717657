package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

func fastConfig() Config {
	return Config{
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	}
}

func TestClient_RetriesServerErrorsAndReplaysBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "amount=32500", string(body))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), fastConfig())
	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("amount=32500"))
	require.NoError(t, err)

	resp, err := c.Do(t.Context(), req)

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	resp, err := NewWithHTTPClient(srv.Client(), fastConfig()).Get(t.Context(), srv.URL)

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ReturnsLastServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := NewWithHTTPClient(srv.Client(), fastConfig()).Get(t.Context(), srv.URL)

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestClient_StopsOnCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.RetryWaitMin = time.Minute
	cfg.RetryWaitMax = time.Minute
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	_, err := NewWithHTTPClient(srv.Client(), cfg).Get(ctx, srv.URL)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type doerFunc func(ctx context.Context, req *http.Request) (*http.Response, error)

func (f doerFunc) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return f(ctx, req)
}

func TestCircuitBreaker_TripsOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	doer := doerFunc(func(context.Context, *http.Request) (*http.Response, error) {
		calls.Add(1)
		return &http.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       io.NopCloser(strings.NewReader("upstream down")),
		}, nil
	})
	cfg := DefaultCircuitBreakerConfig("test-trip")
	cfg.MinRequests = 2
	cb := NewCircuitBreakerClient(doer, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := httptest.NewRequest(http.MethodGet, "http://stripe.test/v1/payment_intents", nil)

	for i := 0; i < 2; i++ {
		_, err := cb.Do(t.Context(), req)
		var serverErr *ServerError
		require.True(t, errors.As(err, &serverErr))
		assert.Equal(t, "upstream down", serverErr.Body)
	}

	_, err := cb.Do(t.Context(), req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, int32(2), calls.Load())
}

func TestCircuitBreaker_Fallback(t *testing.T) {
	doer := doerFunc(func(context.Context, *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
	cfg := DefaultCircuitBreakerConfig("test-fallback")
	cfg.MinRequests = 1
	cb := NewCircuitBreakerClient(doer, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithFallback(func(context.Context, error) (*http.Response, error) {
			return nil, apperrors.ServiceUnavailable("payments temporarily unavailable")
		})
	req := httptest.NewRequest(http.MethodGet, "http://stripe.test", nil)

	_, err := cb.Do(t.Context(), req)
	require.Error(t, err)

	_, err = cb.Do(t.Context(), req)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

func TestParseResponseError(t *testing.T) {
	tests := []struct {
		status   int
		body     string
		sentinel error
	}{
		{http.StatusPaymentRequired, `{"error":{"code":"card_declined","message":"Your card was declined.","type":"card_error"}}`, apperrors.ErrPaymentFailed},
		{http.StatusNotFound, `{"error":{"code":"resource_missing","message":"No such payment_intent"}}`, apperrors.ErrNotFound},
		{http.StatusBadRequest, `{"error":{"code":"parameter_invalid_integer","message":"Invalid integer"}}`, apperrors.ErrInvalidInput},
		{http.StatusTooManyRequests, `{"error":{"code":"rate_limit","message":"Too many requests"}}`, apperrors.ErrRateLimited},
	}

	for _, tt := range tests {
		resp := &http.Response{StatusCode: tt.status, Body: io.NopCloser(strings.NewReader(tt.body))}
		err := ParseResponseError(resp, "stripe")
		assert.ErrorIs(t, err, tt.sentinel, tt.body)
	}

	declined := ParseResponseError(&http.Response{
		StatusCode: http.StatusPaymentRequired,
		Body:       io.NopCloser(strings.NewReader(tests[0].body)),
	}, "stripe")
	var appErr *apperrors.AppError
	require.True(t, errors.As(declined, &appErr))
	assert.Equal(t, "Your card was declined.", appErr.Message)

	plain := ParseResponseError(&http.Response{
		StatusCode: http.StatusBadGateway,
		Body:       io.NopCloser(strings.NewReader("<html>bad gateway</html>")),
	}, "stripe")
	assert.Contains(t, plain.Error(), "stripe returned status 502")
}
