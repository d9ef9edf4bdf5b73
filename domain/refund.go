package domain

import "time"

// Refund request status constants.
const (
	RefundStatusPending   = "pending"
	RefundStatusApproved  = "approved"
	RefundStatusRejected  = "rejected"
	RefundStatusProcessed = "processed"
)

// Refund reason constants.
const (
	RefundReasonDamaged        = "damaged"
	RefundReasonWrongItem      = "wrong_item"
	RefundReasonNotAsDescribed = "not_as_described"
	RefundReasonChangedMind    = "changed_mind"
	RefundReasonOther          = "other"
)

// RefundRequest represents a buyer's refund request against an order.
type RefundRequest struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order"`
	Reason        string     `json:"reason"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	RefundAmount  int64      `json:"refund_amount"`
	AdminResponse string     `json:"admin_response,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ValidRefundStatuses returns all valid refund request statuses.
func ValidRefundStatuses() []string {
	return []string{
		RefundStatusPending,
		RefundStatusApproved,
		RefundStatusRejected,
		RefundStatusProcessed,
	}
}

// IsValidRefundStatus checks whether the given status is a valid refund request status.
func IsValidRefundStatus(status string) bool {
	for _, s := range ValidRefundStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidRefundReasons returns all valid refund reasons.
func ValidRefundReasons() []string {
	return []string{
		RefundReasonDamaged,
		RefundReasonWrongItem,
		RefundReasonNotAsDescribed,
		RefundReasonChangedMind,
		RefundReasonOther,
	}
}

// IsValidRefundReason checks whether the given reason is a valid refund reason.
func IsValidRefundReason(reason string) bool {
	for _, r := range ValidRefundReasons() {
		if r == reason {
			return true
		}
	}
	return false
}

// refundTransitions defines which review transitions are valid.
func refundTransitions() map[string][]string {
	return map[string][]string{
		RefundStatusPending:   {RefundStatusApproved, RefundStatusRejected},
		RefundStatusApproved:  {RefundStatusProcessed},
		RefundStatusRejected:  {},
		RefundStatusProcessed: {},
	}
}

// CanTransitionTo checks if the request can transition to the target status.
func (r *RefundRequest) CanTransitionTo(target string) bool {
	allowed, ok := refundTransitions()[r.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsActive reports whether the request blocks a new refund request on the
// same order (pending or approved).
func (r *RefundRequest) IsActive() bool {
	return r.Status == RefundStatusPending || r.Status == RefundStatusApproved
}

// IsTerminal reports whether the request has reached a final status.
func (r *RefundRequest) IsTerminal() bool {
	return r.Status == RefundStatusRejected || r.Status == RefundStatusProcessed
}
