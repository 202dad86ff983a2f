package fakesessionrepo

import (
	"errors"
	"maps"
	"sync"

	"github.com/jrsteele09/farm-admin/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

// ErrInjected is returned by the fake when a failure was requested.
var ErrInjected = errors.New("injected repo failure")

type FakeSessionRepo struct {
	values    map[string]string
	lock      sync.RWMutex
	FailSave  bool
	FailClear bool
	Saves     int
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{values: make(map[string]string)}
}

// NewFakeSessionRepoWith starts the fake with pre-existing stored values.
func NewFakeSessionRepoWith(values map[string]string) *FakeSessionRepo {
	return &FakeSessionRepo{values: maps.Clone(values)}
}

func (r *FakeSessionRepo) Load() (map[string]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return maps.Clone(r.values), nil
}

func (r *FakeSessionRepo) Save(values map[string]string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.FailSave {
		return ErrInjected
	}
	r.values = maps.Clone(values)
	r.Saves++
	return nil
}

func (r *FakeSessionRepo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.FailClear {
		return ErrInjected
	}
	r.values = make(map[string]string)
	return nil
}

// Values returns a copy of what is currently stored.
func (r *FakeSessionRepo) Values() map[string]string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return maps.Clone(r.values)
}
