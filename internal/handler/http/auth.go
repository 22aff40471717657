package http

import (
	"log/slog"
	"net/http"

	"github.com/seansyed/parafort-sub010/internal/service"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
)

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// SendVerificationRequest is the JSON request body for sending a code.
type SendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyEmailRequest is the JSON request body for checking a code.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code"`
}

// MessageResponse is returned by endpoints with nothing else to report.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// --- Handlers ---

// SendVerification handles POST /api/auth/send-verification
func (h *AuthHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	var req SendVerificationRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.service.SendVerificationCode(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, MessageResponse{Success: true, Message: "verification code sent"})
}

// VerifyEmail handles POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, MessageResponse{Success: true, Message: "email verified"})
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, result)
}
