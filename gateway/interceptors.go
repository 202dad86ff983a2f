package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/jrsteele09/farm-admin/metrics"
	"github.com/jrsteele09/farm-admin/sessions"
	"github.com/rs/zerolog/log"
)

// LandingView is the unauthenticated entry page of the console.
const LandingView = "/"

const RequestIDHeader = "X-Request-ID"

// RequestDecorator mutates an outbound request before it is sent.
type RequestDecorator func(req *http.Request)

// ResponseInterceptor observes every response received through the gateway.
type ResponseInterceptor func(req *http.Request, resp *http.Response)

// Navigator moves the operator between console views.
type Navigator interface {
	CurrentView(ctx context.Context) string
	Navigate(ctx context.Context, view string)
}

// BearerDecorator attaches the session access token, if any.
func BearerDecorator(store *sessions.Store) RequestDecorator {
	return func(req *http.Request) {
		tok, err := store.Token()
		if err != nil {
			return
		}
		tok.SetAuthHeader(req)
	}
}

// RequestIDDecorator tags each call so API and console logs can be correlated.
func RequestIDDecorator() RequestDecorator {
	return func(req *http.Request) {
		if req.Header.Get(RequestIDHeader) == "" {
			req.Header.Set(RequestIDHeader, uuid.NewString())
		}
	}
}

// UnauthorizedInterceptor clears the session on any 401 and sends the operator back to
// the landing view unless they are already there.
func UnauthorizedInterceptor(store *sessions.Store, nav Navigator, m *metrics.Metrics) ResponseInterceptor {
	return func(req *http.Request, resp *http.Response) {
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			return
		}

		log.Info().Str("method", req.Method).Str("path", req.URL.Path).Msg("API rejected credentials, clearing session")
		if err := store.Clear(); err != nil {
			log.Err(err).Msg("Failed to clear session after 401")
		}
		m.ForcedLogout()

		if nav == nil {
			return
		}
		ctx := req.Context()
		if nav.CurrentView(ctx) != LandingView {
			nav.Navigate(ctx, LandingView)
		}
	}
}
