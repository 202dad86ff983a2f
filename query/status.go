package query

import "time"

// Status is the lifecycle of a cached read.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// Entry is a point in time view of one cache key.
type Entry struct {
	Status    Status
	Data      any   // last successful result, kept while refetching or after an error
	Err       error // set when Status is StatusError
	Stale     bool  // invalidated or past the fresh window; the next read refetches
	UpdatedAt time.Time
}
