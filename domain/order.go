package domain

import "time"

// Order status constants.
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusProcessing     = "processing"
	OrderStatusShipped        = "shipped"
	OrderStatusDelivered      = "delivered"
	OrderStatusPaid           = "paid"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
	OrderStatusRefunded       = "refunded"
)

// Order represents a buyer's order as returned by the marketplace API.
// Orders are created and mutated by the remote API only; the client reads
// them and triggers status changes indirectly through payment and refund
// actions.
type Order struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"order_number"`
	Status         string          `json:"status"`
	Items          []OrderItem     `json:"items"`
	Subtotal       int64           `json:"subtotal"`
	ShippingFee    int64           `json:"shipping_fee"`
	TotalAmount    int64           `json:"total_amount"`
	Currency       string          `json:"currency"`
	RefundRequests []RefundRequest `json:"refund_requests,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// OrderItem represents a single artwork line on an order.
type OrderItem struct {
	ID         string `json:"id"`
	ArtworkID  string `json:"artwork_id"`
	Title      string `json:"title"`
	ArtistName string `json:"artist_name"`
	Price      int64  `json:"price"`
	Quantity   int    `json:"quantity"`
}

// ValidOrderStatuses returns all valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPendingPayment,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusPaid,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunded,
	}
}

// IsValidOrderStatus checks whether the given status is a valid order status.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsPayable reports whether a payment may be initiated against the order.
func (o *Order) IsPayable() bool {
	return o.Status == OrderStatusPendingPayment
}

// refundEligibleStatuses are the order statuses a refund request may be
// opened against.
var refundEligibleStatuses = map[string]struct{}{
	OrderStatusPaid:       {},
	OrderStatusCompleted:  {},
	OrderStatusDelivered:  {},
	OrderStatusShipped:    {},
	OrderStatusProcessing: {},
}

// IsRefundEligible reports whether the order's status allows a refund request.
// It does not consider existing refund requests; see HasActiveRefundRequest.
func (o *Order) IsRefundEligible() bool {
	_, ok := refundEligibleStatuses[o.Status]
	return ok
}

// HasActiveRefundRequest reports whether the order already carries a refund
// request in pending or approved status. Such a request blocks a new one;
// rejected and processed requests do not.
func (o *Order) HasActiveRefundRequest() bool {
	for i := range o.RefundRequests {
		if o.RefundRequests[i].IsActive() {
			return true
		}
	}
	return false
}
