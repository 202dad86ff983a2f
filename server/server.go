package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/farm-admin/auth"
	"github.com/jrsteele09/farm-admin/deliveries"
	"github.com/jrsteele09/farm-admin/gateway"
	"github.com/jrsteele09/farm-admin/internal/config"
	"github.com/jrsteele09/farm-admin/orders"
	"github.com/jrsteele09/farm-admin/products"
	"github.com/jrsteele09/farm-admin/query"
	"github.com/jrsteele09/farm-admin/sessions"
	"github.com/jrsteele09/farm-admin/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Clients groups the marketplace resource clients the console talks through.
type Clients struct {
	Auth       *auth.Client
	Products   *products.Client
	Orders     *orders.Client
	Deliveries *deliveries.Client
	Users      *users.Client
}

// NewClients builds every resource client on the same gateway.
func NewClients(api gateway.Doer) Clients {
	return Clients{
		Auth:       auth.NewClient(api),
		Products:   products.NewClient(api),
		Orders:     orders.NewClient(api),
		Deliveries: deliveries.NewClient(api),
		Users:      users.NewClient(api),
	}
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	store    *sessions.Store
	cache    *query.Cache
	clients  Clients
	otp      *auth.OTPFlow
	password *auth.PasswordFlow
	metrics  http.Handler
}

// New wires the console. Clearing the session, whether by logout or a 401, drops every cached
// query and restarts the login flows.
func New(config config.Config, store *sessions.Store, cache *query.Cache, clients Clients, gatherer prometheus.Gatherer) (*Server, error) {
	if store == nil || cache == nil {
		return nil, fmt.Errorf("[Server New] session store and query cache are required")
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		store:    store,
		cache:    cache,
		clients:  clients,
		otp:      auth.NewOTPFlow(clients.Auth, store, users.RoleType(config.GetLoginRole())),
		password: auth.NewPasswordFlow(clients.Auth, store),
	}
	if gatherer != nil {
		s.metrics = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}

	store.OnClear(cache.Reset)
	store.OnClear(s.resetLogin)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) resetLogin() {
	s.otp.Reset()
	s.password.Reset()
}

func (s *Server) pageSize() int {
	return s.config.GetListPageSize()
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
