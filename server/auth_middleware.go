package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/jrsteele09/farm-admin/gateway"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyNavigation stores the per-request *navigation
	ContextKeyNavigation ContextKey = "navigation"
)

// navigation is the view a request was made from and where the operator must be sent next.
type navigation struct {
	lock   sync.Mutex
	view   string
	target string
}

func withNavigation(ctx context.Context, view string) context.Context {
	return context.WithValue(ctx, ContextKeyNavigation, &navigation{view: view})
}

func navigationFrom(ctx context.Context) *navigation {
	nav, _ := ctx.Value(ContextKeyNavigation).(*navigation)
	return nav
}

// navigationTarget is the view requested during the call chain, empty when none was.
func navigationTarget(ctx context.Context) string {
	nav := navigationFrom(ctx)
	if nav == nil {
		return ""
	}
	nav.lock.Lock()
	defer nav.lock.Unlock()
	return nav.target
}

var _ gateway.Navigator = Navigator{}

// Navigator is the gateway's view of console navigation. It reads and records state carried
// by the request context, so one value serves every request; outside a console request it
// reports the landing view and ignores navigation.
type Navigator struct{}

func (Navigator) CurrentView(ctx context.Context) string {
	nav := navigationFrom(ctx)
	if nav == nil {
		return gateway.LandingView
	}
	return nav.view
}

func (Navigator) Navigate(ctx context.Context, view string) {
	nav := navigationFrom(ctx)
	if nav == nil {
		return
	}
	nav.lock.Lock()
	nav.target = view
	nav.lock.Unlock()
}

// RequireSession is middleware for console routes. Without a stored session the operator is
// sent to the landing page; the token itself is only judged by the API.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !s.store.IsAuthenticated() {
				log.Debug().Str("path", r.URL.Path).Msg("No session, redirecting to landing")
				redirectSuccess(w, r, RouteLanding)
				return
			}
			next(w, r)
		}
	}
}
