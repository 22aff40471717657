package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

// UpstreamErrorResponse matches error bodies shaped like
// {"error": {"code": "...", "message": "...", "type": "..."}}, which covers
// both our own envelope and the payment provider's API errors.
type UpstreamErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response and converts it
// into an AppError preserving the upstream semantics where possible.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", upstream, resp.StatusCode, err)
	}

	var parsed UpstreamErrorResponse
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		return mapUpstreamError(resp.StatusCode, parsed.Error.Code, parsed.Error.Message, upstream)
	}

	return fmt.Errorf("%s returned status %d: %s", upstream, resp.StatusCode, string(body))
}

func mapUpstreamError(status int, code, message, upstream string) error {
	qualified := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(upstream+" resource", code)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusGone:
		return apperrors.Gone(qualified)
	case status == http.StatusPaymentRequired, status == http.StatusUnprocessableEntity:
		return apperrors.PaymentFailed(message)
	case status == http.StatusTooManyRequests:
		return apperrors.TooManyRequests(qualified)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", upstream, status, code, message)
	default:
		return &apperrors.AppError{Code: code, Message: qualified, Status: status}
	}
}
