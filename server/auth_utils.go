package server

import (
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/farm-admin/internal/errors"
)

const (
	paramNotice = "notice"
	paramError  = "error"
)

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, withParam(path, paramError, errorMsg))
}

// redirectWithNotice redirects after a successful change, carrying the confirmation text
func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	redirectSuccess(w, r, withParam(path, paramNotice, notice))
}

func withParam(path, name, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + name + "=" + url.QueryEscape(value)
}

func pathWithQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirectOnNavigation finishes a request whose API call ended in a navigation, reporting
// whether it did. A 401 on a flight shared with another request only marks that request, so
// a cleared session is also treated as a move to the landing page.
func (s *Server) redirectOnNavigation(w http.ResponseWriter, r *http.Request, err error) bool {
	target := navigationTarget(r.Context())
	if target == "" && apperrors.Is(err, apperrors.ErrUnauthorized) && !s.store.IsAuthenticated() {
		target = RouteLanding
	}
	if target == "" {
		return false
	}
	redirectSuccess(w, r, target)
	return true
}

// returnPath is where a form post goes back to. Only console paths are accepted.
func returnPath(r *http.Request, fallback string) string {
	back := r.PostFormValue("return")
	if strings.HasPrefix(back, RouteApp) {
		return back
	}
	return fallback
}
