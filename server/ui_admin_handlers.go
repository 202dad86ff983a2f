package server

import (
	"html/template"
	"net/http"
)

const contentTypeHTML = "text/html; charset=utf-8"

// Crumb is one breadcrumb. The last crumb of a page has no link.
type Crumb struct {
	Label string
	Href  string
}

// Page is what the console layout renders. Data carries the page specific content.
type Page struct {
	AppName    string
	ActivePage string
	PageTitle  string
	Crumbs     []Crumb
	Operator   string
	Role       string
	Notice     string
	Error      string
	Data       any
}

// newPage builds the layout data for the signed in operator. Notices and errors arrive in the
// query string after a redirect.
func (s *Server) newPage(r *http.Request, activePage, pageTitle string, data any, parents ...Crumb) Page {
	q := r.URL.Query()
	page := Page{
		AppName:    s.config.GetAppName(),
		ActivePage: activePage,
		PageTitle:  pageTitle,
		Notice:     q.Get(paramNotice),
		Error:      q.Get(paramError),
		Data:       data,
	}
	page.Crumbs = append([]Crumb{{Label: "Console", Href: RouteApp}}, parents...)
	page.Crumbs = append(page.Crumbs, Crumb{Label: pageTitle})

	if claims, ok := s.store.Claims(); ok {
		page.Operator = claims.Subject
	}
	if role, ok := s.store.Role(); ok {
		page.Role = role
	}
	return page
}

// renderAdminPage renders a page with the console layout
func (s *Server) renderAdminPage(w http.ResponseWriter, status int, tmpl *template.Template, page Page) {
	renderTemplate(w, status, tmpl, layoutTemplate, page)
}
