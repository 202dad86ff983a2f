package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
	"github.com/jrsteele09/farm-admin/metrics"
	"github.com/jrsteele09/farm-admin/sessions"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	contentTypeJSON = "application/json"
	maxErrorBody    = 64 << 10
	tracerName      = "github.com/jrsteele09/farm-admin/gateway"
)

// Doer is the single call surface resource clients depend on.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

var _ Doer = (*Gateway)(nil)

// Gateway sends every marketplace API call. Decorators run on each request in order,
// interceptors run on each response in order; 401 handling is always the first interceptor.
type Gateway struct {
	baseURL      string
	client       *http.Client
	timeout      time.Duration
	store        *sessions.Store
	navigator    Navigator
	metrics      *metrics.Metrics
	decorators   []RequestDecorator
	interceptors []ResponseInterceptor
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient sends calls through client. The client is never modified; WithTimeout
// applies to a copy.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = timeout
	}
}

func WithNavigator(nav Navigator) Option {
	return func(g *Gateway) {
		g.navigator = nav
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithDecorators appends request decorators after the built-in ones.
func WithDecorators(decorators ...RequestDecorator) Option {
	return func(g *Gateway) {
		g.decorators = append(g.decorators, decorators...)
	}
}

// WithInterceptors appends response interceptors after the 401 interceptor.
func WithInterceptors(interceptors ...ResponseInterceptor) Option {
	return func(g *Gateway) {
		g.interceptors = append(g.interceptors, interceptors...)
	}
}

// New creates a Gateway for the API rooted at baseURL.
func New(baseURL string, store *sessions.Store, options ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
		store:   store,
	}
	for _, opt := range options {
		opt(g)
	}
	if g.timeout > 0 {
		client := *g.client
		client.Timeout = g.timeout
		g.client = &client
	}

	builtinDecorators := []RequestDecorator{BearerDecorator(store), RequestIDDecorator()}
	g.decorators = append(builtinDecorators, g.decorators...)
	builtinInterceptors := []ResponseInterceptor{UnauthorizedInterceptor(store, g.navigator, g.metrics)}
	g.interceptors = append(builtinInterceptors, g.interceptors...)
	return g
}

// Do sends method path with optional query and JSON body, decoding a JSON answer into out.
// Errors are returned unchanged to the caller: *APIError for non-2xx answers, a wrapped
// ErrNetwork for transport failures. Nothing is retried.
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resource := resourceOf(path)
	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" /"+resource,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	req, err := g.newRequest(ctx, method, path, query, body)
	if err != nil {
		span.RecordError(err)
		return err
	}
	for _, decorate := range g.decorators {
		decorate(req)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := g.client.Do(req)
	took := time.Since(start)
	if err != nil {
		g.metrics.ObserveAPICall(method, resource, 0, took)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("API call failed")
		return fmt.Errorf("%s %s: %w: %v", method, path, apperrors.ErrNetwork, err)
	}
	defer resp.Body.Close()

	g.metrics.ObserveAPICall(method, resource, resp.StatusCode, took)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", took).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Msg("API call")

	for _, intercept := range g.interceptors {
		intercept(req, resp)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Status: resp.StatusCode, Detail: parseDetail(raw), Method: method, Path: path}
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("[Gateway Do] decode %s %s: %w", method, path, err)
	}
	return nil
}

func (g *Gateway) Get(ctx context.Context, path string, query url.Values, out any) error {
	return g.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (g *Gateway) Patch(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (g *Gateway) Delete(ctx context.Context, path string) error {
	return g.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	target := g.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[Gateway Do] encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("[Gateway Do] build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	return req, nil
}

// resourceOf returns the first path segment, used as a low cardinality metric label.
func resourceOf(path string) string {
	path = strings.TrimLeft(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "root"
	}
	return path
}
