// Package order reads and updates order resources. Orders are created and
// owned by the marketplace API; this client only fetches them and applies
// the status updates the API permits.
package order

import (
	"context"
	"log/slog"

	"github.com/arnaud-devs/hangart-sub000/domain"
	apperrors "github.com/arnaud-devs/hangart-sub000/errors"
	"github.com/arnaud-devs/hangart-sub000/gateway"
)

// Client fetches orders through the gateway.
type Client struct {
	gw     *gateway.Gateway
	logger *slog.Logger
}

// NewClient creates an order client.
func NewClient(gw *gateway.Gateway, log *slog.Logger) *Client {
	return &Client{gw: gw, logger: log}
}

// Get fetches a single order, refund requests included.
func (c *Client) Get(ctx context.Context, id string) (*domain.Order, error) {
	resp, err := c.gw.Get(ctx, "/orders/"+id+"/")
	if err != nil {
		return nil, err
	}

	var o domain.Order
	if err := resp.Decode(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListFilter narrows an order listing. Zero values mean no filter.
type ListFilter struct {
	Status string
	Page   string
}

// List fetches orders visible to the current user.
func (c *Client) List(ctx context.Context, filter ListFilter) (gateway.List[domain.Order], error) {
	return c.list(ctx, "/orders/", filter)
}

// MyOrders fetches the signed-in buyer's own orders.
func (c *Client) MyOrders(ctx context.Context, filter ListFilter) (gateway.List[domain.Order], error) {
	return c.list(ctx, "/orders/my-orders/", filter)
}

func (c *Client) list(ctx context.Context, path string, filter ListFilter) (gateway.List[domain.Order], error) {
	opts := []gateway.RequestOption{}
	if filter.Status != "" {
		opts = append(opts, gateway.WithQuery("status", filter.Status))
	}
	if filter.Page != "" {
		opts = append(opts, gateway.WithQuery("page", filter.Page))
	}

	resp, err := c.gw.Get(ctx, path, opts...)
	if err != nil {
		return gateway.List[domain.Order]{}, err
	}
	return gateway.DecodeList[domain.Order](resp.Body)
}

// UpdateStatus moves an order to a new status. The target must be a known
// status; the server enforces which transitions the caller may perform.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.Validation("unknown order status \"" + status + "\"")
	}

	resp, err := c.gw.Patch(ctx, "/orders/"+id+"/update-status/",
		gateway.WithBody(map[string]string{"status": status}))
	if err != nil {
		return nil, err
	}

	var o domain.Order
	if err := resp.Decode(&o); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", o.ID), slog.String("status", o.Status))
	return &o, nil
}
