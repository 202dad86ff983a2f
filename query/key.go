package query

import (
	"net/url"
	"slices"
)

// Key addresses one cached read: a resource name plus its canonical filter parameters.
// Keys are comparable, so equal tuples always land on the same cache entry.
type Key struct {
	Resource string
	Params   string
}

// NewKey builds a canonical key. Empty values are dropped and both parameter names and
// values are sorted, so the order filters were set in does not matter.
func NewKey(resource string, params url.Values) Key {
	canonical := url.Values{}
	for name, values := range params {
		for _, v := range values {
			if v == "" {
				continue
			}
			canonical.Add(name, v)
		}
	}
	for name := range canonical {
		slices.Sort(canonical[name])
	}
	return Key{Resource: resource, Params: canonical.Encode()}
}

// DetailKey addresses a single entity of a resource.
func DetailKey(resource, id string) Key {
	return NewKey(resource, url.Values{"id": {id}})
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}
