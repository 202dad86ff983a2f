package metrics_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/farm-admin/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObserveAPICall("GET", "products", 200, 10*time.Millisecond)
	m.ObserveAPICall("GET", "products", 0, time.Millisecond)
	m.ForcedLogout()
	m.CacheLookup("products", "hit")
	m.Invalidated("products")

	count, err := testutil.GatherAndCount(reg,
		"farm_admin_api_requests_total",
		"farm_admin_forced_logouts_total",
		"farm_admin_query_cache_lookups_total",
		"farm_admin_query_cache_invalidations_total",
	)
	require.NoError(t, err)
	require.Equal(t, 5, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.ObserveAPICall("GET", "orders", 500, time.Second)
		m.ForcedLogout()
		m.CacheLookup("orders", "miss")
		m.Invalidated("orders")
	})
}
