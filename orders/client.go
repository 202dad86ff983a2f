package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/farm-admin/gateway"
	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
)

// Resource is the cache resource name for order reads.
const Resource = "orders"

type ListParams struct {
	Limit    int
	Offset   int
	Status   Status
	FarmerID string
	ShopID   string
}

func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Status != "" {
		v.Set("status", string(p.Status))
	}
	if p.FarmerID != "" {
		v.Set("farmer_id", p.FarmerID)
	}
	if p.ShopID != "" {
		v.Set("shop_id", p.ShopID)
	}
	return v
}

type Client struct {
	api gateway.Doer
}

func NewClient(api gateway.Doer) *Client {
	return &Client{api: api}
}

func (c *Client) List(ctx context.Context, params ListParams) (ListResponse, error) {
	var resp ListResponse
	if err := c.api.Do(ctx, http.MethodGet, "/orders", params.Values(), nil, &resp); err != nil {
		return ListResponse{}, err
	}
	if resp.Items == nil {
		resp.Items = []Order{}
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, id string) (Order, error) {
	var o Order
	err := c.api.Do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &o)
	return o, err
}

// UpdateStatus moves an order to status. Unknown statuses are rejected without a request.
func (c *Client) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	if !status.Valid() {
		return Order{}, fmt.Errorf("[orders UpdateStatus] unknown status %q: %w", status, apperrors.ErrValidation)
	}
	return c.Update(ctx, id, UpdateRequest{Status: &status})
}

func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (Order, error) {
	var o Order
	err := c.api.Do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(id), nil, req, &o)
	return o, err
}
