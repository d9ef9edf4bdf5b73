package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNetwork          = errors.New("network failure")
	ErrAuthExpired      = errors.New("authentication expired")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("resource not found")
	ErrOrderNotPayable  = errors.New("order is not payable")
	ErrInitiationFailed = errors.New("payment initiation failed")
	ErrProviderDeclined = errors.New("payment declined by provider")
	ErrPaymentPending   = errors.New("payment still pending")
	ErrEligibility      = errors.New("order not eligible for refund")
)

// AppError represents a structured client error. Status carries the HTTP
// status of the failed call when the error originated from the remote API;
// it is zero for errors resolved locally before any network call.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Status  int               `json:"-"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Network creates an error for a transport-level failure.
func Network(err error) *AppError {
	return &AppError{
		Code:    "NETWORK_ERROR",
		Message: "request could not reach the marketplace API",
		Err:     fmt.Errorf("%w: %w", ErrNetwork, err),
	}
}

// AuthExpired creates an error for a session whose refresh also failed.
func AuthExpired(message string) *AppError {
	return &AppError{
		Code:    "AUTH_EXPIRED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrAuthExpired,
	}
}

// Unauthorized creates a 401 error for rejected credentials.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Validation creates an error for input rejected before any network call.
func Validation(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Err:     ErrValidation,
	}
}

// ValidationFields creates a validation error carrying per-field messages.
func ValidationFields(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Fields:  fields,
		Err:     ErrValidation,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// OrderNotPayable creates an error for a payment attempted against an order
// outside the pending_payment status.
func OrderNotPayable(orderID, status string) *AppError {
	return &AppError{
		Code:    "ORDER_NOT_PAYABLE",
		Message: fmt.Sprintf("order %s cannot be paid in status %q", orderID, status),
		Err:     ErrOrderNotPayable,
	}
}

// InitiationFailed creates an error for a non-2xx response from payment initiation.
func InitiationFailed(status int, message string) *AppError {
	return &AppError{
		Code:    "INITIATION_FAILED",
		Message: message,
		Status:  status,
		Err:     ErrInitiationFailed,
	}
}

// ProviderDeclined creates an error for a terminal failed or cancelled payment.
func ProviderDeclined(message string) *AppError {
	return &AppError{
		Code:    "PROVIDER_DECLINED",
		Message: message,
		Err:     ErrProviderDeclined,
	}
}

// PaymentPending creates an error for a payment that exhausted its polling
// budget without reaching a terminal status.
func PaymentPending(paymentID string) *AppError {
	return &AppError{
		Code:    "PAYMENT_PENDING",
		Message: fmt.Sprintf("payment %s is still pending confirmation", paymentID),
		Err:     ErrPaymentPending,
	}
}

// Eligibility creates an error for a refund requested against an ineligible
// or already-claimed order.
func Eligibility(message string) *AppError {
	return &AppError{
		Code:    "NOT_ELIGIBLE",
		Message: message,
		Err:     ErrEligibility,
	}
}

// FromStatus creates an error carrying the HTTP status and server message of
// a failed call that does not map to a more specific case.
func FromStatus(status int, code, message string, fields map[string]string) *AppError {
	appErr := &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Fields:  fields,
	}
	switch status {
	case http.StatusUnauthorized:
		appErr.Err = ErrUnauthorized
	case http.StatusNotFound:
		appErr.Err = ErrNotFound
	case http.StatusBadRequest:
		appErr.Err = ErrValidation
	}
	return appErr
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status carried by the error, or 0 when the
// error never reached the network.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

// IsLocal reports whether the error was resolved locally, before any
// network call was made.
func IsLocal(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrEligibility) ||
		errors.Is(err, ErrOrderNotPayable)
}
