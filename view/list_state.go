package view

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameters reserved for list state. Everything else is a filter.
const (
	ParamSort = "sort"
	ParamDir  = "dir"
	ParamPage = "page"

	dirDesc = "desc"
)

// ListState is the filter, sort and page selection of one list page. It lives only in the
// page URL, so leaving the page resets it.
type ListState struct {
	Filters   url.Values
	SortField string
	SortDesc  bool
	Page      int // 1 based
	PageSize  int
}

// ParseListState reads the state from a request query. Only the named filters are kept and
// sort fields outside sortable fall back to no sorting.
func ParseListState(q url.Values, pageSize int, filters []string, sortable []string) ListState {
	s := ListState{
		Filters:  url.Values{},
		Page:     1,
		PageSize: pageSize,
	}
	for _, name := range filters {
		if v := strings.TrimSpace(q.Get(name)); v != "" {
			s.Filters.Set(name, v)
		}
	}
	for _, field := range sortable {
		if q.Get(ParamSort) == field {
			s.SortField = field
			s.SortDesc = q.Get(ParamDir) == dirDesc
		}
	}
	if page, err := strconv.Atoi(q.Get(ParamPage)); err == nil && page > 1 {
		s.Page = page
	}
	return s
}

func (s ListState) Filter(name string) string {
	return s.Filters.Get(name)
}

func (s ListState) Offset() int {
	return (s.Page - 1) * s.PageSize
}

// QueryValues encodes the state back into a query string.
func (s ListState) QueryValues() url.Values {
	v := url.Values{}
	for name, values := range s.Filters {
		for _, value := range values {
			v.Add(name, value)
		}
	}
	if s.SortField != "" {
		v.Set(ParamSort, s.SortField)
		if s.SortDesc {
			v.Set(ParamDir, dirDesc)
		}
	}
	if s.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(s.Page))
	}
	return v
}

// SortLink is the query for clicking a column header: ascending on first click, toggled after.
// Changing the sort returns to the first page.
func (s ListState) SortLink(field string) string {
	next := s
	next.Page = 1
	next.SortDesc = s.SortField == field && !s.SortDesc
	next.SortField = field
	return "?" + next.QueryValues().Encode()
}

// PageLink is the query for page n with the current filters and sort.
func (s ListState) PageLink(n int) string {
	next := s
	next.Page = max(n, 1)
	return "?" + next.QueryValues().Encode()
}

// SortIndicator is the arrow shown next to the active sort column.
func (s ListState) SortIndicator(field string) string {
	switch {
	case s.SortField != field:
		return ""
	case s.SortDesc:
		return "↓"
	default:
		return "↑"
	}
}
