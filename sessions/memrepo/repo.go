// Package memrepo keeps the session in process memory. A restart signs the operator out.
package memrepo

import (
	"maps"
	"sync"

	"github.com/jrsteele09/farm-admin/sessions"
)

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	lock   sync.RWMutex
	values map[string]string
}

func New() *Repo {
	return &Repo{values: make(map[string]string)}
}

func (r *Repo) Load() (map[string]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return maps.Clone(r.values), nil
}

func (r *Repo) Save(values map[string]string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.values = maps.Clone(values)
	return nil
}

func (r *Repo) Clear() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	clear(r.values)
	return nil
}
