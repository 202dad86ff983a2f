package server_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/farm-admin/deliveries"
	"github.com/jrsteele09/farm-admin/gateway"
	"github.com/jrsteele09/farm-admin/internal/config"
	"github.com/jrsteele09/farm-admin/internal/fakeapi"
	"github.com/jrsteele09/farm-admin/internal/utils"
	"github.com/jrsteele09/farm-admin/metrics"
	"github.com/jrsteele09/farm-admin/orders"
	"github.com/jrsteele09/farm-admin/products"
	"github.com/jrsteele09/farm-admin/query"
	"github.com/jrsteele09/farm-admin/server"
	"github.com/jrsteele09/farm-admin/sessions"
	fakesessionrepo "github.com/jrsteele09/farm-admin/sessions/repofakes"
	"github.com/jrsteele09/farm-admin/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	api   *fakeapi.Server
	repo  *fakesessionrepo.FakeSessionRepo
	store *sessions.Store
	cache *query.Cache
	srv   *server.Server
}

func setup(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("ENV", "DEV")

	api := fakeapi.New()
	t.Cleanup(api.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	f := &fixture{api: api, repo: fakesessionrepo.NewFakeSessionRepo()}
	f.store = sessions.New(f.repo)
	gw := gateway.New(api.URL, f.store, gateway.WithNavigator(server.Navigator{}), gateway.WithMetrics(m))
	f.cache = query.New(query.WithMetrics(m))

	srv, err := server.New(config.New(), f.store, f.cache, server.NewClients(gw), reg)
	require.NoError(t, err)
	f.srv = srv
	return f
}

// login stores a session the fake API accepts.
func (f *fixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Save(sessions.Tokens{AccessToken: f.api.IssueToken(), RefreshToken: "refresh"}, "admin"))
}

func (f *fixture) get(t *testing.T, path string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func requireRedirect(t *testing.T, rec *httptest.ResponseRecorder, prefix string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), prefix), "redirected to %q", rec.Header().Get("Location"))
}

func TestLanding(t *testing.T) {
	f := setup(t)

	rec := f.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `action="/auth/send-otp"`)

	f.login(t)
	requireRedirect(t, f.get(t, "/"), "/app")
}

func TestOTPLogin(t *testing.T) {
	f := setup(t)

	requireRedirect(t, f.post(t, "/auth/send-otp", url.Values{"phone": {"90 123 45 67"}}), "/")
	require.Equal(t, fakeapi.DefaultOTP, f.api.SentOTP("+998901234567"))

	page := f.get(t, "/").Body.String()
	require.Contains(t, page, `action="/auth/verify-otp"`)
	require.Contains(t, page, "998901234567")
	require.Contains(t, page, fakeapi.DefaultOTP, "debug code shown outside production")

	t.Run("wrong code stays on the code step", func(t *testing.T) {
		requireRedirect(t, f.post(t, "/auth/verify-otp", url.Values{"code": {"000000"}}), "/")
		page := f.get(t, "/").Body.String()
		require.Contains(t, page, "The code is incorrect.")
		require.Contains(t, page, `action="/auth/verify-otp"`)
		require.False(t, f.store.IsAuthenticated())
	})

	t.Run("change number keeps the typed phone", func(t *testing.T) {
		requireRedirect(t, f.post(t, "/auth/change-number", nil), "/")
		page := f.get(t, "/").Body.String()
		require.Contains(t, page, `action="/auth/send-otp"`)
		require.Contains(t, page, "998901234567")
		requireRedirect(t, f.post(t, "/auth/send-otp", url.Values{"phone": {"+998901234567"}}), "/")
	})

	requireRedirect(t, f.post(t, "/auth/verify-otp", url.Values{"code": {fakeapi.DefaultOTP}}), "/app")
	require.True(t, f.store.IsAuthenticated())
	role, _ := f.store.Role()
	require.Equal(t, string(users.RoleAdmin), role)
	require.NotEmpty(t, f.repo.Values()[sessions.AccessTokenKey])
}

func TestOTPLogin_InvalidPhoneNotSent(t *testing.T) {
	f := setup(t)

	requireRedirect(t, f.post(t, "/auth/send-otp", url.Values{"phone": {"12-34"}}), "/")
	require.Zero(t, f.api.Calls(http.MethodPost, "/auth/send-otp"))

	page := f.get(t, "/").Body.String()
	require.Contains(t, page, `class="field-error"`)
	require.Contains(t, page, `action="/auth/send-otp"`)
}

func TestPasswordLogin(t *testing.T) {
	t.Setenv("AUTH_MODE", "password")
	f := setup(t)

	require.Contains(t, f.get(t, "/").Body.String(), `action="/auth/login"`)

	requireRedirect(t, f.post(t, "/auth/login", url.Values{"username": {"admin"}, "password": {"wrong"}}), "/")
	page := f.get(t, "/").Body.String()
	require.Contains(t, page, "Incorrect username or password.")
	require.Contains(t, page, `value="admin"`)
	require.False(t, f.store.IsAuthenticated())

	requireRedirect(t, f.post(t, "/auth/login", url.Values{"username": {fakeapi.DefaultUsername}, "password": {fakeapi.DefaultPassword}}), "/app")
	require.True(t, f.store.IsAuthenticated())
}

func TestPasswordLogin_WrongPasswordWithLiveSession(t *testing.T) {
	t.Setenv("AUTH_MODE", "password")
	f := setup(t)
	f.login(t)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- f.post(t, "/auth/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	}()

	select {
	case rec := <-done:
		requireRedirect(t, rec, "/")
	case <-time.After(2 * time.Second):
		t.Fatal("login request did not complete")
	}
	require.False(t, f.store.IsAuthenticated())

	page := f.get(t, "/").Body.String()
	require.Contains(t, page, "Incorrect username or password.")
	require.Contains(t, page, `value="admin"`)
}

func TestRequireSession(t *testing.T) {
	f := setup(t)

	for _, path := range []string{"/app", "/app/products", "/app/orders", "/app/deliveries", "/app/profile"} {
		requireRedirect(t, f.get(t, path), "/")
	}
	require.Zero(t, f.api.Calls(http.MethodGet, "/products"))

	rec := f.get(t, "/app/products", "HX-Request", "true")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "/", rec.Header().Get("HX-Redirect"))
}

func TestUnauthorizedClearsSession(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.api.AddProduct(products.Product{Name: "Apples", Category: products.CategoryFruits, Price: 2, Unit: products.UnitKilogram, IsActive: true})

	require.Equal(t, http.StatusOK, f.get(t, "/app/products").Code)
	require.NotEmpty(t, f.cache.Keys(products.Resource))

	f.api.RevokeTokens()
	f.cache.Invalidate(products.Resource)

	requireRedirect(t, f.get(t, "/app/products"), "/")
	require.False(t, f.store.IsAuthenticated())
	require.Empty(t, f.repo.Values())
	require.Empty(t, f.cache.Keys(products.Resource), "clearing the session drops cached data")
}

func TestUnauthorizedClearsSession_HTMX(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.api.RevokeTokens()

	rec := f.get(t, "/app/orders", "HX-Request", "true")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "/", rec.Header().Get("HX-Redirect"))
	require.False(t, f.store.IsAuthenticated())
}

func TestProductsPage(t *testing.T) {
	f := setup(t)
	f.login(t)
	for _, p := range []products.Product{
		{Name: "Carrots", Category: products.CategoryVegetables, Price: 1.5, Quantity: 10, Unit: products.UnitKilogram, IsActive: true},
		{Name: "Milk", Category: products.CategoryDairy, Price: 0.9, Quantity: 40, Unit: products.UnitLitre, IsActive: true},
		{Name: "Honey", Category: products.CategoryOther, Price: 7.25, Quantity: 3, Unit: products.UnitPiece, IsActive: false},
	} {
		f.api.AddProduct(p)
	}

	rec := f.get(t, "/app/products?sort=price&dir=desc")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	honey, carrots, milk := strings.Index(body, "Honey"), strings.Index(body, "Carrots"), strings.Index(body, "Milk")
	require.True(t, honey < carrots && carrots < milk, "sorted by price descending")
	require.Contains(t, body, "7.25")
	require.Contains(t, body, `class="active"`)

	t.Run("served from cache until invalidated", func(t *testing.T) {
		f.get(t, "/app/products?dir=desc&sort=price")
		require.Equal(t, 1, f.api.Calls(http.MethodGet, "/products"), "sorting is applied locally on the same key")
	})

	t.Run("filters are sent to the API", func(t *testing.T) {
		body := f.get(t, "/app/products?category=dairy").Body.String()
		require.Contains(t, body, "Milk")
		require.NotContains(t, body, "Carrots")
	})

	t.Run("invalid filters are reported and not sent", func(t *testing.T) {
		rec := f.get(t, "/app/products?min_price=abc")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "Enter a price of zero or more")
	})
}

func TestCreateProduct(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.get(t, "/app/products")
	require.Equal(t, 1, f.api.Calls(http.MethodGet, "/products"))

	t.Run("invalid form is not sent", func(t *testing.T) {
		rec := f.post(t, "/app/products", url.Values{"name": {""}, "category": {"fruits"}, "price": {"0"}, "quantity": {"1"}, "unit": {"kg"}})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, rec.Body.String(), "Name is required.")
		require.Contains(t, rec.Body.String(), "Price must be a number greater than zero.")
		require.Zero(t, f.api.Calls(http.MethodPost, "/products"))
	})

	rec := f.post(t, "/app/products", url.Values{"name": {"Pears"}, "category": {"fruits"}, "price": {"3.10"}, "quantity": {"12"}, "unit": {"kg"}})
	requireRedirect(t, rec, "/app/products?notice=")
	require.Equal(t, 1, f.api.Calls(http.MethodPost, "/products"))

	body := f.get(t, "/app/products").Body.String()
	require.Contains(t, body, "Pears")
	require.Equal(t, 2, f.api.Calls(http.MethodGet, "/products"), "create invalidates the product listing")
}

func TestEditProduct(t *testing.T) {
	f := setup(t)
	f.login(t)
	p := f.api.AddProduct(products.Product{Name: "Plums", Category: products.CategoryFruits, Price: 4, Quantity: 5, Unit: products.UnitKilogram, IsActive: true})

	rec := f.get(t, "/app/products/"+p.ID+"/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `value="Plums"`)
	require.Contains(t, rec.Body.String(), `action="/app/products/`+p.ID+`"`)

	form := url.Values{"name": {"Plums"}, "category": {"fruits"}, "price": {"4.5"}, "quantity": {"5"}, "unit": {"kg"}}
	requireRedirect(t, f.post(t, "/app/products/"+p.ID, form), "/app/products?notice=")

	updated, ok := f.api.Product(p.ID)
	require.True(t, ok)
	require.Equal(t, 4.5, updated.Price)
	require.False(t, updated.IsActive, "unchecked box deactivates")

	t.Run("missing product returns to the list", func(t *testing.T) {
		requireRedirect(t, f.get(t, "/app/products/nope/edit"), "/app/products?error=")
	})
}

func TestDeleteProduct(t *testing.T) {
	f := setup(t)
	f.login(t)
	free := f.api.AddProduct(products.Product{Name: "Beets", Category: products.CategoryVegetables, Price: 1, Unit: products.UnitKilogram})
	busy := f.api.AddProduct(products.Product{Name: "Eggs", Category: products.CategoryOther, Price: 2, Unit: products.UnitPiece})
	f.api.AddOrder(orders.Order{Items: []orders.Item{{ProductID: busy.ID, Quantity: 1, Price: 2}}})

	rec := f.post(t, "/app/products/"+busy.ID+"/delete", url.Values{"return": {"/app/products?category=other"}})
	requireRedirect(t, rec, "/app/products?category=other&error=")
	msg, err := url.QueryUnescape(strings.SplitN(rec.Header().Get("Location"), "error=", 2)[1])
	require.NoError(t, err)
	require.Equal(t, "This product has active orders and cannot be deleted.", msg)
	_, ok := f.api.Product(busy.ID)
	require.True(t, ok)

	requireRedirect(t, f.post(t, "/app/products/"+free.ID+"/delete", url.Values{"return": {"https://elsewhere.example"}}), "/app/products?notice=")
	_, ok = f.api.Product(free.ID)
	require.False(t, ok)
}

func TestOrdersPage(t *testing.T) {
	f := setup(t)
	f.login(t)
	o := f.api.AddOrder(orders.Order{ShopID: "shop-1", FarmerID: "farmer-1", TotalAmount: 42})
	f.api.AddOrder(orders.Order{ShopID: "shop-2", FarmerID: "farmer-1", TotalAmount: 7, Status: orders.StatusDelivered})

	body := f.get(t, "/app/orders?status=pending").Body.String()
	require.Contains(t, body, "shop-1")
	require.NotContains(t, body, "shop-2")
	require.Contains(t, body, "42.00")

	requireRedirect(t, f.post(t, "/app/orders/"+o.ID+"/status", url.Values{"status": {"confirmed"}, "return": {"/app/orders?status=pending"}}), "/app/orders?status=pending&notice=")
	updated, _ := f.api.Order(o.ID)
	require.Equal(t, orders.StatusConfirmed, updated.Status)

	require.NotContains(t, f.get(t, "/app/orders?status=pending").Body.String(), "shop-1", "status change invalidates the listing")

	t.Run("unknown status is rejected before sending", func(t *testing.T) {
		calls := f.api.Calls(http.MethodPatch, "/orders/"+o.ID)
		requireRedirect(t, f.post(t, "/app/orders/"+o.ID+"/status", url.Values{"status": {"teleported"}}), "/app/orders?error=")
		require.Equal(t, calls, f.api.Calls(http.MethodPatch, "/orders/"+o.ID))
	})
}

func TestDeliveriesPage(t *testing.T) {
	f := setup(t)
	f.login(t)
	withDelivery := f.api.AddOrder(orders.Order{ShopID: "shop-1"})
	without := f.api.AddOrder(orders.Order{ShopID: "shop-2"})
	f.api.AddDelivery(deliveries.Delivery{OrderID: withDelivery.ID, DeliveryAddress: "12 Orchard Lane", CourierName: utils.Ptr("Aziz")})

	body := f.get(t, "/app/deliveries?order_id="+withDelivery.ID).Body.String()
	require.Contains(t, body, "12 Orchard Lane")
	require.Contains(t, body, `value="Aziz"`)

	body = f.get(t, "/app/deliveries?order_id="+without.ID).Body.String()
	require.Contains(t, body, "has no delivery yet")

	t.Run("invalid form keeps the input", func(t *testing.T) {
		rec := f.post(t, "/app/deliveries/"+withDelivery.ID, url.Values{"status": {"in_transit"}, "courier_name": {"Bek"}, "estimated_delivery": {"tomorrow"}})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, rec.Body.String(), `value="Bek"`)
		require.Contains(t, rec.Body.String(), "Enter a date and time.")
	})

	form := url.Values{"status": {"in_transit"}, "courier_name": {"Bek"}, "tracking_number": {"TRK-1"}, "estimated_delivery": {"2026-05-01T10:30"}}
	requireRedirect(t, f.post(t, "/app/deliveries/"+withDelivery.ID, form), "/app/deliveries?order_id=")

	body = f.get(t, "/app/deliveries?order_id="+withDelivery.ID).Body.String()
	require.Contains(t, body, "TRK-1")
	require.Contains(t, body, "2026-05-01 10:30")
}

func TestUsersPage(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.api.AddUser(users.User{PhoneNumber: "+998911111111", Role: users.RoleFarmer, LegalName: utils.Ptr("Green Acres")})

	body := f.get(t, "/app").Body.String()
	require.Contains(t, body, "Green Acres")

	t.Run("forbidden listing shows an empty page", func(t *testing.T) {
		f.api.FailUsersList(http.StatusForbidden)
		f.cache.Invalidate(users.Resource)
		rec := f.get(t, "/app")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "No users to show.")
		require.NotContains(t, rec.Body.String(), "alert-error")
	})
}

func TestProfile(t *testing.T) {
	f := setup(t)
	f.login(t)

	rec := f.get(t, "/app/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "998900000000")

	rec = f.post(t, "/app/profile", url.Values{"email": {"not-an-email"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), `value="not-an-email"`)

	requireRedirect(t, f.post(t, "/app/profile", url.Values{"legal_name": {"Farm Admin LLC"}, "email": {"ops@example.com"}}), "/app/profile?notice=")
	require.Contains(t, f.get(t, "/app/profile").Body.String(), `value="Farm Admin LLC"`)
}

func TestLayoutShowsOperator(t *testing.T) {
	f := setup(t)
	f.login(t)

	claims, ok := f.store.Claims()
	require.True(t, ok)

	rec := f.get(t, server.RouteProfile)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), claims.Subject)
	require.Contains(t, rec.Body.String(), "admin")
}

func TestLogout(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.get(t, "/app/products")
	require.NotEmpty(t, f.cache.Keys(products.Resource))

	requireRedirect(t, f.get(t, "/auth/logout"), "/")
	require.False(t, f.store.IsAuthenticated())
	require.Empty(t, f.cache.Keys(products.Resource))
	require.Contains(t, f.get(t, "/").Body.String(), `action="/auth/send-otp"`)
}

func TestHealthAndMetrics(t *testing.T) {
	f := setup(t)

	rec := f.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health["status"])
	require.Equal(t, false, health["authenticated"])

	f.login(t)
	f.get(t, "/app/products")
	rec = f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "farm_admin_api_requests_total")
}

func TestNavigator(t *testing.T) {
	nav := server.Navigator{}
	require.Equal(t, gateway.LandingView, nav.CurrentView(context.Background()))
	nav.Navigate(context.Background(), "/app") // no request, nothing to record
}

func TestStaticAssets(t *testing.T) {
	f := setup(t)

	rec := f.get(t, "/static/console.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/css")

	require.Equal(t, http.StatusNotFound, f.get(t, "/static/missing.css").Code)

	t.Run("gzip", func(t *testing.T) {
		rec := f.get(t, "/static/console.css", "Accept-Encoding", "gzip")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

		zr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		css, err := io.ReadAll(zr)
		require.NoError(t, err)
		require.Contains(t, string(css), "--accent")
	})
}
