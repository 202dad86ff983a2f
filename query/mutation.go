package query

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// MutationStatus is the lifecycle of a write.
type MutationStatus int

const (
	MutationIdle MutationStatus = iota
	MutationPending
	MutationSuccess
	MutationError
)

func (s MutationStatus) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationSuccess:
		return "success"
	case MutationError:
		return "error"
	default:
		return "idle"
	}
}

// Mutation runs a write and, when it succeeds, invalidates every cached key of the
// resources it affects. Results are never merged into cached data.
type Mutation[In, Out any] struct {
	cache       *Cache
	fn          func(ctx context.Context, in In) (Out, error)
	invalidates []string

	lock   sync.Mutex
	status MutationStatus
	err    error
}

func NewMutation[In, Out any](cache *Cache, fn func(ctx context.Context, in In) (Out, error), invalidates ...string) *Mutation[In, Out] {
	return &Mutation[In, Out]{
		cache:       cache,
		fn:          fn,
		invalidates: invalidates,
	}
}

// Run performs the write. On failure nothing is invalidated and the error is returned as is.
func (m *Mutation[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	m.setState(MutationPending, nil)

	out, err := m.fn(ctx, in)
	if err != nil {
		m.setState(MutationError, err)
		return out, err
	}

	for _, resource := range m.invalidates {
		m.cache.Invalidate(resource)
	}
	m.setState(MutationSuccess, nil)
	log.Debug().Strs("invalidated", m.invalidates).Msg("Mutation succeeded")
	return out, nil
}

func (m *Mutation[In, Out]) Status() MutationStatus {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.status
}

func (m *Mutation[In, Out]) Err() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.err
}

// Reset returns the mutation to idle, clearing a previous error.
func (m *Mutation[In, Out]) Reset() {
	m.setState(MutationIdle, nil)
}

func (m *Mutation[In, Out]) setState(status MutationStatus, err error) {
	m.lock.Lock()
	m.status = status
	m.err = err
	m.lock.Unlock()
}
