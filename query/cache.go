package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/farm-admin/metrics"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads the data for one key.
type Fetcher func(ctx context.Context) (any, error)

type entry struct {
	Entry
	issued      uint64 // sequence of the most recently issued fetch
	staleBefore uint64 // fetches issued at or before this sequence produce stale data
	generation  uint64 // bumped to stop new callers joining an outdated flight
}

// Cache is a keyed read cache with per key fetch deduplication and resource wide
// invalidation. It is safe for concurrent use.
type Cache struct {
	lock      sync.Mutex
	entries   map[Key]*entry
	flights   singleflight.Group
	seq       uint64
	epoch     uint64 // bumped when entries are dropped
	staleTime time.Duration
	nowTime   func() time.Time
	metrics   *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithStaleTime makes successful data stale after d even without an invalidation.
// Zero keeps data fresh until invalidated.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) {
		c.staleTime = d
	}
}

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(c *Cache) {
		c.nowTime = nowFunc
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

func New(options ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]*entry),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Fetch returns fresh cached data for key, or loads it with fetch. Concurrent callers
// for the same key share one in-flight load and observe the same result.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	c.lock.Lock()
	e := c.entryLocked(key)
	if c.freshLocked(e) {
		data := e.Data
		c.lock.Unlock()
		c.metrics.CacheLookup(key.Resource, "hit")
		return data, nil
	}
	flightKey := c.flightKeyLocked(key, e)
	c.lock.Unlock()

	return c.await(ctx, key, flightKey, fetch)
}

// flightKeyLocked names the shared load for key. The epoch keeps a load started before a
// Reset or Remove from being joined by callers that come after it.
func (c *Cache) flightKeyLocked(key Key, e *entry) string {
	return fmt.Sprintf("%s#%d.%d", key, c.epoch, e.generation)
}

// Refetch loads key even if cached data is fresh. Any older in-flight load for the key
// is superseded: its result is returned to its own callers but never stored.
func (c *Cache) Refetch(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	c.lock.Lock()
	e := c.entryLocked(key)
	e.generation++
	flightKey := c.flightKeyLocked(key, e)
	c.lock.Unlock()

	return c.await(ctx, key, flightKey, fetch)
}

func (c *Cache) await(ctx context.Context, key Key, flightKey string, fetch Fetcher) (any, error) {
	// The load is detached from the first caller's context so one caller going away
	// does not fail the others sharing the flight.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(flightKey, func() (any, error) {
		return c.load(loadCtx, key, fetch)
	})

	select {
	case res := <-ch:
		result := "miss"
		if res.Shared {
			result = "shared"
		}
		c.metrics.CacheLookup(key.Resource, result)
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) load(ctx context.Context, key Key, fetch Fetcher) (any, error) {
	c.lock.Lock()
	c.seq++
	seq := c.seq
	e := c.entryLocked(key)
	e.issued = seq
	e.Status = StatusLoading
	c.lock.Unlock()

	data, err := fetch(ctx)

	c.lock.Lock()
	defer c.lock.Unlock()
	e, ok := c.entries[key]
	if !ok || e.issued != seq {
		// Superseded by a later request or dropped by Reset.
		log.Debug().Str("key", key.String()).Uint64("seq", seq).Msg("Discarding superseded query result")
		return data, err
	}

	e.UpdatedAt = c.nowTime()
	e.Stale = seq <= e.staleBefore
	if err != nil {
		e.Status = StatusError
		e.Err = err
		return data, err
	}
	e.Status = StatusSuccess
	e.Data = data
	e.Err = nil
	return data, nil
}

// Invalidate marks every key of resource stale, whatever its parameters.
func (c *Cache) Invalidate(resource string) {
	c.lock.Lock()
	n := 0
	for key, e := range c.entries {
		if key.Resource != resource {
			continue
		}
		c.invalidateLocked(e)
		n++
	}
	c.lock.Unlock()

	c.metrics.Invalidated(resource)
	log.Debug().Str("resource", resource).Int("keys", n).Msg("Invalidated queries")
}

// InvalidateKey marks a single key stale.
func (c *Cache) InvalidateKey(key Key) {
	c.lock.Lock()
	if e, ok := c.entries[key]; ok {
		c.invalidateLocked(e)
	}
	c.lock.Unlock()
}

// Reset drops every entry. Loads still in flight are discarded when they complete.
func (c *Cache) Reset() {
	c.lock.Lock()
	c.entries = make(map[Key]*entry)
	c.epoch++
	c.lock.Unlock()
}

// Remove drops every key of resource. Used when a view holding those keys goes away.
func (c *Cache) Remove(resource string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for key := range c.entries {
		if key.Resource == resource {
			delete(c.entries, key)
		}
	}
	c.epoch++
}

// Snapshot returns the current state of key. Unknown keys are idle.
func (c *Cache) Snapshot(key Key) Entry {
	c.lock.Lock()
	defer c.lock.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{Status: StatusIdle}
	}
	snap := e.Entry
	if snap.Status == StatusSuccess && !c.freshLocked(e) {
		snap.Stale = true
	}
	return snap
}

// Keys lists the cached keys of resource.
func (c *Cache) Keys(resource string) []Key {
	c.lock.Lock()
	defer c.lock.Unlock()
	var keys []Key
	for key := range c.entries {
		if key.Resource == resource {
			keys = append(keys, key)
		}
	}
	return keys
}

func (c *Cache) invalidateLocked(e *entry) {
	e.Stale = true
	e.staleBefore = c.seq
	e.generation++
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{Entry: Entry{Status: StatusIdle}}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) freshLocked(e *entry) bool {
	if e.Status != StatusSuccess || e.Stale {
		return false
	}
	if c.staleTime > 0 && c.nowTime().Sub(e.UpdatedAt) > c.staleTime {
		return false
	}
	return true
}

// Get is the typed form of Cache.Fetch.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("[query Get] %s holds %T", key, v)
	}
	return t, nil
}
