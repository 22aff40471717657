package domain

import (
	"net/http"

	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

// Checkout and payment errors with stable API codes.
var (
	ErrStepIncomplete = &apperrors.AppError{
		Code:    "STEP_INCOMPLETE",
		Message: "the current step is not complete",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
	ErrStepOutOfOrder = &apperrors.AppError{
		Code:    "STEP_OUT_OF_ORDER",
		Message: "this step has not been reached yet",
		Status:  http.StatusConflict,
		Err:     apperrors.ErrConflict,
	}
	ErrSessionExpired   = apperrors.Gone("checkout session expired").WithCode("SESSION_EXPIRED")
	ErrEmailNotVerified = apperrors.Forbidden("email address has not been verified").WithCode("EMAIL_NOT_VERIFIED")
	ErrPasswordMismatch = &apperrors.AppError{
		Code:    "PASSWORD_MISMATCH",
		Message: "passwords do not match",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
	ErrPaymentNotReady = apperrors.ServiceUnavailable("payment system not ready").WithCode("PAYMENT_NOT_READY")
	ErrInvalidCode     = apperrors.InvalidInput("invalid or expired verification code").WithCode("INVALID_CODE")
	ErrTooManyAttempts = apperrors.TooManyRequests("too many incorrect attempts, request a new code").WithCode("TOO_MANY_ATTEMPTS")
	ErrResendCooldown  = apperrors.TooManyRequests("a code was sent recently, please wait before requesting another").WithCode("RESEND_COOLDOWN")
)
