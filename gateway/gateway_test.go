package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/farm-admin/gateway"
	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
	"github.com/jrsteele09/farm-admin/sessions"
	fakesessionrepo "github.com/jrsteele09/farm-admin/sessions/repofakes"
	"github.com/stretchr/testify/require"
)

type fakeNavigator struct {
	lock    sync.Mutex
	current string
	visits  []string
}

func (n *fakeNavigator) CurrentView(context.Context) string {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.current
}

func (n *fakeNavigator) Navigate(_ context.Context, view string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.current = view
	n.visits = append(n.visits, view)
}

type gatewayFixture struct {
	repo  *fakesessionrepo.FakeSessionRepo
	store *sessions.Store
	nav   *fakeNavigator
	gw    *gateway.Gateway
	lock  sync.Mutex
	req   *http.Request
}

func (f *gatewayFixture) last() *http.Request {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.req
}

func setupGateway(t *testing.T, handler http.HandlerFunc) *gatewayFixture {
	t.Helper()

	f := &gatewayFixture{
		repo: fakesessionrepo.NewFakeSessionRepo(),
		nav:  &fakeNavigator{current: "/app/products"},
	}
	f.store = sessions.New(f.repo)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.lock.Lock()
		f.req = r.Clone(context.Background())
		f.lock.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	f.gw = gateway.New(srv.URL+"/api/v1", f.store, gateway.WithNavigator(f.nav))
	return f
}

func (f *gatewayFixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Save(sessions.Tokens{AccessToken: "tok-123", RefreshToken: "ref-123"}, "admin"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGateway_RequestDecoration(t *testing.T) {
	f := setupGateway(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	})

	t.Run("no token leaves request unmodified", func(t *testing.T) {
		var out map[string]string
		require.NoError(t, f.gw.Get(context.Background(), "/products", nil, &out))
		require.Empty(t, f.last().Header.Get("Authorization"))
		require.Equal(t, "yes", out["ok"])
	})

	t.Run("token attached as bearer", func(t *testing.T) {
		f.login(t)
		require.NoError(t, f.gw.Get(context.Background(), "/products", url.Values{"limit": {"5"}}, nil))
		require.Equal(t, "Bearer tok-123", f.last().Header.Get("Authorization"))
		require.Equal(t, "/api/v1/products", f.last().URL.Path)
		require.Equal(t, "5", f.last().URL.Query().Get("limit"))
		require.NotEmpty(t, f.last().Header.Get(gateway.RequestIDHeader))
	})

	t.Run("token change visible to next call", func(t *testing.T) {
		require.NoError(t, f.store.Save(sessions.Tokens{AccessToken: "tok-456", RefreshToken: "r"}, "admin"))
		require.NoError(t, f.gw.Get(context.Background(), "/orders", nil, nil))
		require.Equal(t, "Bearer tok-456", f.last().Header.Get("Authorization"))
	})
}

func TestGateway_UnauthorizedClearsSessionAndNavigates(t *testing.T) {
	for _, path := range []string{"/products", "/orders/1", "/deliveries/order/9", "/users/me"} {
		t.Run(path, func(t *testing.T) {
			f := setupGateway(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			})
			f.login(t)

			err := f.gw.Get(context.Background(), path, nil, nil)
			require.ErrorIs(t, err, apperrors.ErrUnauthorized)
			require.False(t, f.store.IsAuthenticated())
			require.Empty(t, f.repo.Values())
			require.Equal(t, []string{gateway.LandingView}, f.nav.visits)
		})
	}
}

func TestGateway_UnauthorizedOnLandingDoesNotNavigate(t *testing.T) {
	f := setupGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f.nav.current = gateway.LandingView
	f.login(t)

	err := f.gw.Post(context.Background(), "/auth/verify-otp", map[string]string{"code": "1"}, nil)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.False(t, f.store.IsAuthenticated())
	require.Empty(t, f.nav.visits)
}

func TestGateway_ErrorsPropagateUnchanged(t *testing.T) {
	t.Run("string detail", func(t *testing.T) {
		f := setupGateway(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Product not found"})
		})
		f.login(t)

		err := f.gw.Get(context.Background(), "/products/x", nil, nil)
		var apiErr *gateway.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusNotFound, apiErr.Status)
		require.Equal(t, "Product not found", apiErr.Detail)
		require.ErrorIs(t, err, apperrors.ErrNotFound)
		require.True(t, f.store.IsAuthenticated())
		require.Empty(t, f.nav.visits)
	})

	t.Run("validation detail list", func(t *testing.T) {
		f := setupGateway(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"detail": []map[string]any{{"loc": []string{"body", "price"}, "msg": "must be greater than 0"}},
			})
		})
		err := f.gw.Post(context.Background(), "/products", map[string]float64{"price": 0}, nil)
		var apiErr *gateway.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "price: must be greater than 0", apiErr.Detail)
		require.ErrorIs(t, err, apperrors.ErrBusinessRule)
	})

	t.Run("forbidden keeps session", func(t *testing.T) {
		f := setupGateway(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "Not authorized"})
		})
		f.login(t)
		err := f.gw.Delete(context.Background(), "/products/1")
		require.ErrorIs(t, err, apperrors.ErrForbidden)
		require.Equal(t, http.StatusForbidden, gateway.StatusOf(err))
		require.True(t, f.store.IsAuthenticated())
	})

	t.Run("server error is not retried", func(t *testing.T) {
		calls := 0
		f := setupGateway(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusBadGateway)
		})
		err := f.gw.Get(context.Background(), "/orders", nil, nil)
		require.ErrorIs(t, err, apperrors.ErrInternal)
		require.Equal(t, 1, calls)
	})
}

func TestGateway_NetworkFailure(t *testing.T) {
	store := sessions.New(fakesessionrepo.NewFakeSessionRepo())
	gw := gateway.New("http://127.0.0.1:1", store)

	err := gw.Get(context.Background(), "/products", nil, nil)
	require.ErrorIs(t, err, apperrors.ErrNetwork)
	require.Zero(t, gateway.StatusOf(err))
}

func TestGateway_TimeoutLeavesCallerClientAlone(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := &http.Client{}
	store := sessions.New(fakesessionrepo.NewFakeSessionRepo())
	gw := gateway.New(srv.URL, store, gateway.WithHTTPClient(client), gateway.WithTimeout(50*time.Millisecond))

	err := gw.Get(context.Background(), "/products", nil, nil)
	require.ErrorIs(t, err, apperrors.ErrNetwork)
	require.Zero(t, client.Timeout)

	gateway.New(srv.URL, store, gateway.WithHTTPClient(http.DefaultClient), gateway.WithTimeout(time.Second))
	require.Zero(t, http.DefaultClient.Timeout)
}

func TestGateway_NoContent(t *testing.T) {
	f := setupGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	var out map[string]any
	require.NoError(t, f.gw.Do(context.Background(), http.MethodDelete, "/products/1", nil, nil, &out))
	require.Nil(t, out)
}

func TestGateway_CustomChainOrder(t *testing.T) {
	var order []string
	store := sessions.New(fakesessionrepo.NewFakeSessionRepo())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Client") != "console" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw := gateway.New(srv.URL, store,
		gateway.WithDecorators(func(req *http.Request) {
			order = append(order, "decorate")
			req.Header.Set("X-Client", "console")
		}),
		gateway.WithInterceptors(func(req *http.Request, resp *http.Response) {
			order = append(order, "intercept")
		}),
	)
	require.NoError(t, gw.Get(context.Background(), "/health", nil, nil))
	require.Equal(t, []string{"decorate", "intercept"}, order)
}
