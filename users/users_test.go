package users_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jrsteele09/farm-admin/gateway"
	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
	"github.com/jrsteele09/farm-admin/internal/fakeapi"
	"github.com/jrsteele09/farm-admin/internal/utils"
	"github.com/jrsteele09/farm-admin/sessions"
	fakesessionrepo "github.com/jrsteele09/farm-admin/sessions/repofakes"
	"github.com/jrsteele09/farm-admin/users"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*fakeapi.Server, *users.Client) {
	t.Helper()
	api := fakeapi.New()
	t.Cleanup(api.Close)

	store := sessions.New(fakesessionrepo.NewFakeSessionRepo())
	require.NoError(t, store.Save(sessions.Tokens{AccessToken: api.IssueToken(), RefreshToken: "r"}, "admin"))
	return api, users.NewClient(gateway.New(api.URL, store))
}

func TestClient_ListFallback(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusNotFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			api, client := setup(t)
			api.FailUsersList(status)

			resp, err := client.List(context.Background(), users.ListParams{Role: users.RoleFarmer, Limit: 20})
			require.NoError(t, err)
			require.NotNil(t, resp.Items)
			require.Empty(t, resp.Items)
			require.Zero(t, resp.Total)
		})
	}

	t.Run("other errors propagate", func(t *testing.T) {
		api, client := setup(t)
		api.FailUsersList(http.StatusInternalServerError)

		_, err := client.List(context.Background(), users.ListParams{})
		require.ErrorIs(t, err, apperrors.ErrInternal)
	})
}

func TestClient_List(t *testing.T) {
	api, client := setup(t)
	api.AddUser(users.User{PhoneNumber: "+998900000010", Role: users.RoleFarmer})
	api.AddUser(users.User{PhoneNumber: "+998900000011", Role: users.RoleShop})

	resp, err := client.List(context.Background(), users.ListParams{Role: users.RoleFarmer})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "+998900000010", resp.Items[0].PhoneNumber)
}

func TestClient_MeAndUpdate(t *testing.T) {
	_, client := setup(t)
	ctx := context.Background()

	me, err := client.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, me.Role)
	require.Equal(t, me.PhoneNumber, me.DisplayName())

	updated, err := client.UpdateMe(ctx, users.UpdateRequest{
		LegalName:  utils.Ptr("Green Valley LLC"),
		EntityType: utils.Ptr(users.EntityLegal),
		Email:      utils.Ptr("ops@greenvalley.uz"),
	})
	require.NoError(t, err)
	require.Equal(t, "Green Valley LLC", updated.DisplayName())
	require.Equal(t, users.EntityLegal, utils.Value(updated.EntityType))

	again, err := client.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, updated, again)
}

func TestListResponse_BareArray(t *testing.T) {
	var resp users.ListResponse
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"1","phone_number":"+998900000001","role":"shop"}]`), &resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, 1, resp.Total)
	require.Equal(t, users.RoleShop, resp.Items[0].Role)

	require.NoError(t, json.Unmarshal([]byte(`{"items":[],"total":7,"limit":5,"offset":5}`), &resp))
	require.Equal(t, 7, resp.Total)
	require.Equal(t, 5, resp.Offset)
}
