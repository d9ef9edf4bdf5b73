// Package refund manages the refund request lifecycle: buyers open requests
// against eligible orders, admins review them, approved refunds get
// processed. Eligibility is decided locally from the order snapshot so an
// ineligible request costs no network round trip.
package refund

import (
	"context"
	"log/slog"

	"github.com/arnaud-devs/hangart-sub000/domain"
	apperrors "github.com/arnaud-devs/hangart-sub000/errors"
	"github.com/arnaud-devs/hangart-sub000/gateway"
	"github.com/arnaud-devs/hangart-sub000/validator"
)

// Coordinator drives refund requests through the gateway.
type Coordinator struct {
	gw     *gateway.Gateway
	logger *slog.Logger
}

// NewCoordinator creates a refund coordinator.
func NewCoordinator(gw *gateway.Gateway, log *slog.Logger) *Coordinator {
	return &Coordinator{gw: gw, logger: log}
}

// CreateInput opens a refund request against an order. The full order
// snapshot is required because eligibility is evaluated client-side.
type CreateInput struct {
	Order       *domain.Order
	Reason      string `json:"reason" validate:"required,oneof=damaged wrong_item not_as_described changed_mind other"`
	Description string `json:"description" validate:"required,min=10"`
}

// Create validates eligibility locally, then submits the request. The
// server re-validates and remains authoritative; the local check only
// spares the network an obviously doomed request.
func (c *Coordinator) Create(ctx context.Context, input CreateInput) (*domain.RefundRequest, error) {
	if input.Order == nil {
		return nil, apperrors.Validation("order is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	if !input.Order.IsRefundEligible() {
		return nil, apperrors.Eligibility(
			"order in status \"" + input.Order.Status + "\" is not eligible for a refund")
	}
	if input.Order.HasActiveRefundRequest() {
		return nil, apperrors.Eligibility("order already has a refund request under review")
	}

	body := map[string]string{
		"order":       input.Order.ID,
		"reason":      input.Reason,
		"description": input.Description,
	}
	resp, err := c.gw.Post(ctx, "/refund-requests/", gateway.WithBody(body))
	if err != nil {
		return nil, err
	}

	var request domain.RefundRequest
	if err := resp.Decode(&request); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "refund request created",
		slog.String("refund_id", request.ID),
		slog.String("order_id", input.Order.ID),
		slog.String("reason", input.Reason),
	)
	return &request, nil
}

// ReviewInput records an admin decision on a refund request.
type ReviewInput struct {
	Status        string `json:"status" validate:"required,oneof=approved rejected processed"`
	AdminResponse string `json:"admin_response" validate:"required"`
}

// Review applies an admin decision. The target status must be reachable
// from the request's current status, and a written response is mandatory;
// both are enforced locally before any network call.
func (c *Coordinator) Review(ctx context.Context, request *domain.RefundRequest, input ReviewInput) (*domain.RefundRequest, error) {
	if request == nil {
		return nil, apperrors.Validation("refund request is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, err
	}
	if !request.CanTransitionTo(input.Status) {
		return nil, apperrors.Validation(
			"refund request in status \"" + request.Status + "\" cannot move to \"" + input.Status + "\"")
	}

	resp, err := c.gw.Patch(ctx, "/refund-requests/"+request.ID+"/review/", gateway.WithBody(input))
	if err != nil {
		return nil, err
	}

	var updated domain.RefundRequest
	if err := resp.Decode(&updated); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "refund request reviewed",
		slog.String("refund_id", updated.ID),
		slog.String("status", updated.Status),
	)
	return &updated, nil
}

// Get fetches a single refund request.
func (c *Coordinator) Get(ctx context.Context, id string) (*domain.RefundRequest, error) {
	resp, err := c.gw.Get(ctx, "/refund-requests/"+id+"/")
	if err != nil {
		return nil, err
	}

	var request domain.RefundRequest
	if err := resp.Decode(&request); err != nil {
		return nil, err
	}
	return &request, nil
}

// ListFilter narrows a refund request listing. Zero values mean no filter.
type ListFilter struct {
	OrderID string
	Status  string
}

// List fetches refund requests, normalized regardless of whether the server
// pages the collection.
func (c *Coordinator) List(ctx context.Context, filter ListFilter) (gateway.List[domain.RefundRequest], error) {
	opts := []gateway.RequestOption{}
	if filter.OrderID != "" {
		opts = append(opts, gateway.WithQuery("order", filter.OrderID))
	}
	if filter.Status != "" {
		opts = append(opts, gateway.WithQuery("status", filter.Status))
	}

	resp, err := c.gw.Get(ctx, "/refund-requests/", opts...)
	if err != nil {
		return gateway.List[domain.RefundRequest]{}, err
	}
	return gateway.DecodeList[domain.RefundRequest](resp.Body)
}
