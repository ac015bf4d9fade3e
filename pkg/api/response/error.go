package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/cardforge/cardforge/pkg/catalog"
	"github.com/cardforge/cardforge/pkg/sms"
)

// ErrorResponse is the error body shared by every route.
type ErrorResponse struct {
	// Error is the HTTP status text, e.g. "Not Found".
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Code      string   `json:"code"`
	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"request_id,omitempty"`

	// Stack is only populated outside production.
	Stack string `json:"stack,omitempty"`

	// AvailableRoutes hints at valid routes on 404 and 405.
	AvailableRoutes []string `json:"availableRoutes,omitempty"`
}

// NewError builds an ErrorResponse for status.
func NewError(status int, message, requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      ErrorCodeFromStatus(status),
		RequestID: requestID,
	}
}

// Common error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, catalog.ErrMerchantNotFound),
		errors.Is(err, catalog.ErrCardNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrMerchantUnavailable),
		errors.Is(err, catalog.ErrAmountOutOfRange),
		errors.Is(err, catalog.ErrInvalidProductURL),
		errors.Is(err, catalog.ErrInvalidPlatform),
		errors.Is(err, sms.ErrInvalidNumber),
		errors.Is(err, sms.ErrEmptyBody),
		errors.Is(err, sms.ErrNoRecipients):
		return http.StatusBadRequest
	case errors.Is(err, sms.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCodeFromStatus returns an error code for the given HTTP status.
func ErrorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrCodeBadRequest
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusMethodNotAllowed:
		return ErrCodeMethodNotAllowed
	case http.StatusTooManyRequests:
		return ErrCodeRateLimited
	case http.StatusServiceUnavailable:
		return ErrCodeServiceUnavailable
	case http.StatusGatewayTimeout:
		return ErrCodeGatewayTimeout
	default:
		return ErrCodeInternalServer
	}
}

// HandleError writes err with the status HTTPStatusFromError picks.
func HandleError(w http.ResponseWriter, err error, requestID string) {
	status := HTTPStatusFromError(err)
	Error(w, status, err.Error(), requestID)
}
