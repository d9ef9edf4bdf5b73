package domain

import "time"

// Payment status constants. Transitions out of pending are made by the
// provider and observed by the client, never set directly.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusSuccessful = "successful"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
)

// Payment method constants.
const (
	PaymentMethodCard        = "card"
	PaymentMethodPayPal      = "paypal"
	PaymentMethodMobileMoney = "mobile_money"
)

// Payment represents a payment transaction against an order.
type Payment struct {
	ID               string         `json:"id"`
	OrderID          string         `json:"order"`
	Method           string         `json:"method"`
	Amount           int64          `json:"amount"`
	Currency         string         `json:"currency"`
	Status           string         `json:"status"`
	TransactionID    string         `json:"transaction_id,omitempty"`
	ProviderResponse map[string]any `json:"provider_response,omitempty"`
	FailureReason    string         `json:"failure_reason,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ValidPaymentStatuses returns all valid payment statuses.
func ValidPaymentStatuses() []string {
	return []string{
		PaymentStatusPending,
		PaymentStatusSuccessful,
		PaymentStatusFailed,
		PaymentStatusCancelled,
	}
}

// IsValidPaymentStatus checks whether the given status is a valid payment status.
func IsValidPaymentStatus(status string) bool {
	for _, s := range ValidPaymentStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidPaymentMethods returns all valid payment methods.
func ValidPaymentMethods() []string {
	return []string{
		PaymentMethodCard,
		PaymentMethodPayPal,
		PaymentMethodMobileMoney,
	}
}

// IsValidPaymentMethod checks whether the given method is a valid payment method.
func IsValidPaymentMethod(method string) bool {
	for _, m := range ValidPaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the payment has reached a status from which no
// further automatic transition occurs.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccessful ||
		p.Status == PaymentStatusFailed ||
		p.Status == PaymentStatusCancelled
}
