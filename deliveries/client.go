package deliveries

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/farm-admin/gateway"
	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
)

// Resource is the cache resource name for delivery reads. Keys are per order.
const Resource = "deliveries"

type Client struct {
	api gateway.Doer
}

func NewClient(api gateway.Doer) *Client {
	return &Client{api: api}
}

func (c *Client) GetByOrder(ctx context.Context, orderID string) (Delivery, error) {
	var d Delivery
	err := c.api.Do(ctx, http.MethodGet, "/deliveries/order/"+url.PathEscape(orderID), nil, nil, &d)
	return d, err
}

func (c *Client) Update(ctx context.Context, orderID string, req UpdateRequest) (Delivery, error) {
	if req.Status != nil && !req.Status.Valid() {
		return Delivery{}, fmt.Errorf("[deliveries Update] unknown status %q: %w", *req.Status, apperrors.ErrValidation)
	}
	var d Delivery
	err := c.api.Do(ctx, http.MethodPatch, "/deliveries/order/"+url.PathEscape(orderID), nil, req, &d)
	return d, err
}
