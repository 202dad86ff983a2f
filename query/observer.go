package query

import (
	"context"
	"sync"
)

// Observer binds query results to one view. A result is applied only while the observer is
// open and still watching the key it was requested for, so a view that has moved on to other
// filters, or gone away, never sees a late response.
type Observer struct {
	cache *Cache

	lock    sync.Mutex
	watched Key
	ticket  uint64
	closed  bool
}

func NewObserver(cache *Cache) *Observer {
	return &Observer{cache: cache}
}

// Observe fetches key through the cache and calls apply with the outcome unless the
// observer was closed or re-pointed at another request in the meantime. It reports whether
// apply ran.
func (o *Observer) Observe(ctx context.Context, key Key, fetch Fetcher, apply func(data any, err error)) bool {
	o.lock.Lock()
	if o.closed {
		o.lock.Unlock()
		return false
	}
	o.ticket++
	ticket := o.ticket
	o.watched = key
	o.lock.Unlock()

	data, err := o.cache.Fetch(ctx, key, fetch)

	o.lock.Lock()
	defer o.lock.Unlock()
	if o.closed || o.ticket != ticket || o.watched != key {
		return false
	}
	apply(data, err)
	return true
}

// Watching returns the key of the most recent Observe call.
func (o *Observer) Watching() Key {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.watched
}

// Close stops all further results being applied.
func (o *Observer) Close() {
	o.lock.Lock()
	o.closed = true
	o.lock.Unlock()
}

func (o *Observer) Closed() bool {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.closed
}
