package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/farm-admin/gateway"
	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
	"github.com/jrsteele09/farm-admin/internal/fakeapi"
	"github.com/jrsteele09/farm-admin/orders"
	"github.com/jrsteele09/farm-admin/sessions"
	fakesessionrepo "github.com/jrsteele09/farm-admin/sessions/repofakes"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*fakeapi.Server, *orders.Client) {
	t.Helper()
	api := fakeapi.New()
	t.Cleanup(api.Close)

	store := sessions.New(fakesessionrepo.NewFakeSessionRepo())
	require.NoError(t, store.Save(sessions.Tokens{AccessToken: api.IssueToken(), RefreshToken: "r"}, "admin"))
	return api, orders.NewClient(gateway.New(api.URL, store))
}

func TestClient_ListFilters(t *testing.T) {
	api, client := setup(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	api.AddOrder(orders.Order{ShopID: "shop-1", FarmerID: "farmer-1", TotalAmount: 100, CreatedAt: base})
	api.AddOrder(orders.Order{ShopID: "shop-2", FarmerID: "farmer-1", TotalAmount: 200, Status: orders.StatusShipped, CreatedAt: base.Add(time.Hour)})
	api.AddOrder(orders.Order{ShopID: "shop-1", FarmerID: "farmer-2", TotalAmount: 300, Status: orders.StatusShipped, CreatedAt: base.Add(2 * time.Hour)})
	ctx := context.Background()

	all, err := client.List(ctx, orders.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 3, all.Total)
	require.Equal(t, 300.0, all.Items[0].TotalAmount)

	shipped, err := client.List(ctx, orders.ListParams{Status: orders.StatusShipped, FarmerID: "farmer-1"})
	require.NoError(t, err)
	require.Len(t, shipped.Items, 1)
	require.Equal(t, "shop-2", shipped.Items[0].ShopID)

	byShop, err := client.List(ctx, orders.ListParams{ShopID: "shop-1", Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Equal(t, 2, byShop.Total)
	require.Len(t, byShop.Items, 1)
	require.Equal(t, 100.0, byShop.Items[0].TotalAmount)
}

func TestClient_UpdateStatus(t *testing.T) {
	api, client := setup(t)
	o := api.AddOrder(orders.Order{ShopID: "shop-1", FarmerID: "farmer-1", TotalAmount: 100})
	ctx := context.Background()

	updated, err := client.UpdateStatus(ctx, o.ID, orders.StatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, orders.StatusConfirmed, updated.Status)

	got, err := client.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, orders.StatusConfirmed, got.Status)

	t.Run("unknown status not sent", func(t *testing.T) {
		before := api.Calls("PATCH", "/orders/"+o.ID)
		_, err := client.UpdateStatus(ctx, o.ID, orders.Status("lost"))
		require.ErrorIs(t, err, apperrors.ErrValidation)
		require.Equal(t, before, api.Calls("PATCH", "/orders/"+o.ID))
	})

	t.Run("business rule", func(t *testing.T) {
		_, err := client.UpdateStatus(ctx, o.ID, orders.StatusCancelled)
		require.NoError(t, err)
		_, err = client.UpdateStatus(ctx, o.ID, orders.StatusShipped)
		require.ErrorIs(t, err, apperrors.ErrBusinessRule)
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := client.UpdateStatus(ctx, "nope", orders.StatusShipped)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestStatus_Rank(t *testing.T) {
	require.Less(t, orders.StatusPending.Rank(), orders.StatusShipped.Rank())
	require.Less(t, orders.StatusCancelled.Rank(), orders.Status("unknown").Rank())
	for _, s := range orders.Statuses() {
		require.True(t, s.Valid())
	}
}
