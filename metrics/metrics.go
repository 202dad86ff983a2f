package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the console's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	apiRequests   *prometheus.CounterVec
	apiDuration   *prometheus.HistogramVec
	forcedLogouts prometheus.Counter
	cacheLookups  *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_admin",
			Name:      "api_requests_total",
			Help:      "Outbound marketplace API calls by method, resource and status code.",
		}, []string{"method", "resource", "status"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "farm_admin",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of outbound marketplace API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "resource"}),
		forcedLogouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farm_admin",
			Name:      "forced_logouts_total",
			Help:      "Sessions cleared because the API answered 401.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_admin",
			Name:      "query_cache_lookups_total",
			Help:      "Query cache lookups by resource and result (hit, miss, shared).",
		}, []string{"resource", "result"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_admin",
			Name:      "query_cache_invalidations_total",
			Help:      "Query cache invalidations by resource.",
		}, []string{"resource"}),
	}
	reg.MustRegister(m.apiRequests, m.apiDuration, m.forcedLogouts, m.cacheLookups, m.invalidations)
	return m
}

// ObserveAPICall records one outbound call. status 0 means the request never got a response.
func (m *Metrics) ObserveAPICall(method, resource string, status int, took time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(method, resource, code).Inc()
	m.apiDuration.WithLabelValues(method, resource).Observe(took.Seconds())
}

func (m *Metrics) ForcedLogout() {
	if m == nil {
		return
	}
	m.forcedLogouts.Inc()
}

func (m *Metrics) CacheLookup(resource, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(resource, result).Inc()
}

func (m *Metrics) Invalidated(resource string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(resource).Inc()
}
