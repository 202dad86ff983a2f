package users

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/farm-admin/gateway"
	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	// Resource is the cache resource name for the user listing.
	Resource = "users"
	// ProfileResource is the cache resource name for the signed in user's profile.
	ProfileResource = "users/me"
)

type ListParams struct {
	Role   RoleType
	Limit  int
	Offset int
}

func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Role != "" {
		v.Set("role", string(p.Role))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

type Client struct {
	api gateway.Doer
}

func NewClient(api gateway.Doer) *Client {
	return &Client{api: api}
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	err := c.api.Do(ctx, http.MethodGet, "/users/me", nil, nil, &u)
	return u, err
}

func (c *Client) UpdateMe(ctx context.Context, req UpdateRequest) (User, error) {
	var u User
	err := c.api.Do(ctx, http.MethodPatch, "/users/me", nil, req, &u)
	return u, err
}

// List returns the user directory. Deployments that do not expose it, or do not let the
// caller see it, answer 403 or 404; both are reported as an empty listing.
func (c *Client) List(ctx context.Context, params ListParams) (ListResponse, error) {
	var resp ListResponse
	err := c.api.Do(ctx, http.MethodGet, "/users", params.Values(), nil, &resp)
	switch {
	case apperrors.Is(err, apperrors.ErrForbidden), apperrors.Is(err, apperrors.ErrNotFound):
		log.Debug().Err(err).Msg("User listing unavailable, showing empty list")
		return ListResponse{Items: []User{}, Limit: params.Limit, Offset: params.Offset}, nil
	case err != nil:
		return ListResponse{}, err
	}
	if resp.Items == nil {
		resp.Items = []User{}
	}
	return resp, nil
}
