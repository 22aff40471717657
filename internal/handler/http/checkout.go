package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/service"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
)

// CheckoutHandler exposes the checkout wizard.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// StartCheckoutRequest is the JSON request body for opening a session.
type StartCheckoutRequest struct {
	ServiceID string `json:"serviceId" validate:"required,uuid"`
}

// SendCodeRequest is the JSON request body for the email step.
type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyCodeRequest is the JSON request body for checking the code.
type VerifyCodeRequest struct {
	Code string `json:"code"`
}

// --- Response types ---

// AccountResponse carries the session and the new account's credentials.
type AccountResponse struct {
	Session     *domain.CheckoutSession `json:"session"`
	User        *domain.User            `json:"user,omitempty"`
	AccessToken string                  `json:"accessToken,omitempty"`
	ExpiresIn   int64                   `json:"expiresIn,omitempty"`
}

// --- Handlers ---

// Start handles POST /api/checkout/sessions
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartCheckoutRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	cs, err := h.service.Start(r.Context(), req.ServiceID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, cs)
}

// Get handles GET /api/checkout/sessions/{id}
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	h.writeSession(w, r, cs, err)
}

// SendCode handles POST /api/checkout/sessions/{id}/send-code
func (h *CheckoutHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req SendCodeRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	cs, err := h.service.SendCode(r.Context(), chi.URLParam(r, "id"), req.Email)
	h.writeSession(w, r, cs, err)
}

// VerifyEmail handles POST /api/checkout/sessions/{id}/verify-email
func (h *CheckoutHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	cs, err := h.service.VerifyEmail(r.Context(), chi.URLParam(r, "id"), req.Code)
	h.writeSession(w, r, cs, err)
}

// CreateAccount handles POST /api/checkout/sessions/{id}/account
func (h *CheckoutHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req service.AccountInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	cs, result, err := h.service.CreateAccount(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if result == nil {
		httputil.WriteData(w, http.StatusOK, AccountResponse{Session: cs})
		return
	}
	httputil.WriteData(w, http.StatusCreated, AccountResponse{
		Session:     cs,
		User:        result.User,
		AccessToken: result.AccessToken,
		ExpiresIn:   result.ExpiresIn,
	})
}

// SetServiceQuestions handles PUT /api/checkout/sessions/{id}/service-questions
func (h *CheckoutHandler) SetServiceQuestions(w http.ResponseWriter, r *http.Request) {
	var req service.ServiceQuestionsInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	cs, err := h.service.SetServiceQuestions(r.Context(), chi.URLParam(r, "id"), req)
	h.writeSession(w, r, cs, err)
}

// SetClientInformation handles PUT /api/checkout/sessions/{id}/client-information
func (h *CheckoutHandler) SetClientInformation(w http.ResponseWriter, r *http.Request) {
	var req domain.ClientInformation
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	cs, err := h.service.SetClientInformation(r.Context(), chi.URLParam(r, "id"), req)
	h.writeSession(w, r, cs, err)
}

// Next handles POST /api/checkout/sessions/{id}/next
func (h *CheckoutHandler) Next(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.Next(r.Context(), chi.URLParam(r, "id"))
	h.writeSession(w, r, cs, err)
}

// Back handles POST /api/checkout/sessions/{id}/back
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.Back(r.Context(), chi.URLParam(r, "id"))
	h.writeSession(w, r, cs, err)
}

// Review handles GET /api/checkout/sessions/{id}/review
func (h *CheckoutHandler) Review(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.Review(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}

// CreatePaymentIntent handles POST /api/checkout/sessions/{id}/payment-intent
func (h *CheckoutHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.CreatePaymentIntent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

func (h *CheckoutHandler) writeSession(w http.ResponseWriter, r *http.Request, cs *domain.CheckoutSession, err error) {
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, cs)
}
