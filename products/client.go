package products

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/farm-admin/gateway"
)

// Resource is the cache resource name for product reads.
const Resource = "products"

// ListParams filters a product listing. Zero values are omitted from the request.
type ListParams struct {
	Limit    int
	Offset   int
	Category Category
	FarmerID string
	Search   string
	MinPrice *float64
	MaxPrice *float64
}

// Values encodes the parameters as the API expects them.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Category != "" {
		v.Set("category", string(p.Category))
	}
	if p.FarmerID != "" {
		v.Set("farmer_id", p.FarmerID)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.MinPrice != nil {
		v.Set("min_price", strconv.FormatFloat(*p.MinPrice, 'f', -1, 64))
	}
	if p.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*p.MaxPrice, 'f', -1, 64))
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
	if err := c.api.Do(ctx, http.MethodGet, "/products", params.Values(), nil, &resp); err != nil {
		return ListResponse{}, err
	}
	if resp.Items == nil {
		resp.Items = []Product{}
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := c.api.Do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &p)
	return p, err
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (Product, error) {
	var p Product
	err := c.api.Do(ctx, http.MethodPost, "/products", nil, req, &p)
	return p, err
}

func (c *Client) Update(ctx context.Context, id string, req UpdateRequest) (Product, error) {
	var p Product
	err := c.api.Do(ctx, http.MethodPatch, "/products/"+url.PathEscape(id), nil, req, &p)
	return p, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.api.Do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil, nil)
}
