package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/provider/stripe"
	"github.com/seansyed/parafort-sub010/internal/service"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
	"github.com/seansyed/parafort-sub010/pkg/middleware"
)

// maxWebhookBytes caps webhook payloads.
const maxWebhookBytes = 64 << 10

// PaymentHandler serves the payment endpoints used by the frontend and the
// provider's webhook.
type PaymentHandler struct {
	payments *service.PaymentService
	orders   *service.OrderService
	logger   *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(payments *service.PaymentService, orders *service.OrderService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, orders: orders, logger: logger}
}

// --- Request DTOs ---

// CreatePaymentIntentRequest is the JSON request body for creating an intent.
type CreatePaymentIntentRequest struct {
	OrderData domain.OrderDraft `json:"orderData"`
}

// CompleteOrderResponse is returned after an order is recorded. Order is
// only filled in for the order's owner or an admin.
type CompleteOrderResponse struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message"`
	OrderNumber string                 `json:"orderNumber"`
	Order       *domain.FormationOrder `json:"order,omitempty"`
}

// --- Handlers ---

// StripeConfig handles GET /api/stripe/config
func (h *PaymentHandler) StripeConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.payments.StripeConfig()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cfg)
}

// CreatePaymentIntent handles POST /api/create-payment-intent
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentIntentRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.payments.CreatePaymentIntent(
		r.Context(),
		req.OrderData,
		middleware.UserIDFromContext(r.Context()),
		r.Header.Get("Idempotency-Key"),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// CompleteFormationOrder handles POST /api/complete-formation-order
func (h *PaymentHandler) CompleteFormationOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CompleteOrderInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	order, created, err := h.orders.CompleteFormationOrder(r.Context(), req, service.SourceClient)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status, message := http.StatusCreated, "formation order created"
	if !created {
		status, message = http.StatusOK, "formation order already recorded"
	}
	resp := CompleteOrderResponse{Success: true, Message: message, OrderNumber: order.OrderNumber}
	if callerFrom(r).CanSee(order.UserID) {
		resp.Order = order
	}
	httputil.WriteData(w, status, resp)
}

// Webhook handles POST /api/stripe/webhook
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("webhook payload too large or unreadable"), h.logger)
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), payload, r.Header.Get(stripe.SignatureHeader)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]bool{"received": true})
}
