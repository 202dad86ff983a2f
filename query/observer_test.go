package query_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/farm-admin/query"
	"github.com/stretchr/testify/require"
)

func TestObserver_AppliesCurrentKey(t *testing.T) {
	obs := query.NewObserver(query.New())
	var got any
	applied := obs.Observe(context.Background(), productsKey("fruits"),
		func(context.Context) (any, error) { return "fruits", nil },
		func(data any, err error) { got = data })
	require.True(t, applied)
	require.Equal(t, "fruits", got)
	require.Equal(t, productsKey("fruits"), obs.Watching())
}

func TestObserver_SupersededKeyDiscarded(t *testing.T) {
	obs := query.NewObserver(query.New())
	started := make(chan struct{})
	release := make(chan struct{})
	result := make(chan bool, 1)

	go func() {
		result <- obs.Observe(context.Background(), productsKey("fruits"),
			func(context.Context) (any, error) {
				close(started)
				<-release
				return "fruits", nil
			},
			func(any, error) { t.Error("superseded result applied") })
	}()
	<-started

	var got any
	require.True(t, obs.Observe(context.Background(), productsKey("dairy"),
		func(context.Context) (any, error) { return "dairy", nil },
		func(data any, err error) { got = data }))
	close(release)

	require.False(t, <-result)
	require.Equal(t, "dairy", got)
}

func TestObserver_ClosedDiscards(t *testing.T) {
	obs := query.NewObserver(query.New())
	started := make(chan struct{})
	release := make(chan struct{})
	result := make(chan bool, 1)

	go func() {
		result <- obs.Observe(context.Background(), productsKey("fruits"),
			func(context.Context) (any, error) {
				close(started)
				<-release
				return "fruits", nil
			},
			func(any, error) { t.Error("result applied after close") })
	}()
	<-started
	obs.Close()
	close(release)

	require.False(t, <-result)
	require.True(t, obs.Closed())
	require.False(t, obs.Observe(context.Background(), productsKey("fruits"),
		func(context.Context) (any, error) { return "x", nil },
		func(any, error) { t.Error("observe on closed observer") }))
}
