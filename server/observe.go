package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/farm-admin/query"
	"github.com/rs/zerolog/log"
)

// observe reads key through the cache for the lifetime of the request. When the request
// goes away first, applied is false and the handler must not write anything.
func observe[T any](s *Server, r *http.Request, key query.Key, fetch func(context.Context) (T, error)) (data T, applied bool, err error) {
	obs := query.NewObserver(s.cache)
	stop := context.AfterFunc(r.Context(), obs.Close)
	defer stop()

	applied = obs.Observe(r.Context(), key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, func(result any, fetchErr error) {
		err = fetchErr
		if v, ok := result.(T); ok {
			data = v
		}
	})
	if !applied {
		log.Debug().Str("key", key.String()).Msg("Request ended before its data arrived")
	}
	return data, applied, err
}
