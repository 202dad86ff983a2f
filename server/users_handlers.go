package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/farm-admin/query"
	"github.com/jrsteele09/farm-admin/users"
	"github.com/jrsteele09/farm-admin/view"
)

var userFilters = []string{"role"}

type UsersPageData struct {
	State        view.ListState
	Items        []users.User
	Pager        view.Pager
	FilterErrors view.FieldErrors
	LoadError    string
}

type ProfilePageData struct {
	User      *users.User
	Form      view.ProfileForm
	Errors    view.FieldErrors
	Error     string
	LoadError string
}

// UsersPageHandler lists marketplace users, the console home (GET /app). An API that does not
// offer the listing yields an empty page rather than an error.
func (s *Server) UsersPageHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("users.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		state := view.ParseListState(r.URL.Query(), s.pageSize(), userFilters, nil)
		params := users.ListParams{Limit: state.PageSize, Offset: state.Offset()}
		data := UsersPageData{State: state}
		if role := users.RoleType(state.Filter("role")); role != "" {
			if role.Valid() {
				params.Role = role
			} else {
				data.FilterErrors = view.FieldErrors{"role": "Unknown role"}
			}
		}

		list, applied, err := observe(s, r, query.NewKey(users.Resource, params.Values()), func(ctx context.Context) (users.ListResponse, error) {
			return s.clients.Users.List(ctx, params)
		})
		if !applied {
			return
		}
		if err != nil {
			if s.redirectOnNavigation(w, r, err) {
				return
			}
			data.LoadError = view.Message(err)
		}
		data.Items = list.Items
		data.Pager = view.Pager{Total: list.Total, Limit: params.Limit, Offset: params.Offset}

		s.renderAdminPage(w, http.StatusOK, tmpl, s.newPage(r, "users", "Users", data))
	}
}

// ProfilePageHandler shows the signed in operator's profile (GET /app/profile)
func (s *Server) ProfilePageHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("profile.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		data, ok := s.loadProfile(w, r)
		if !ok {
			return
		}
		if data.User != nil {
			data.Form = view.FromUser(*data.User)
		}
		s.renderAdminPage(w, http.StatusOK, tmpl, s.newPage(r, "profile", "Profile", data))
	}
}

// UpdateProfileHandler saves the operator's own profile (POST /app/profile)
func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	tmpl := mustParse(ParsePage("profile.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		form := view.ParseProfileForm(r.PostForm)

		status := http.StatusUnprocessableEntity
		errs := form.Validate()
		var writeErr error
		if errs == nil {
			update := query.NewMutation(s.cache, s.clients.Users.UpdateMe, users.ProfileResource, users.Resource)
			if _, writeErr = update.Run(r.Context(), form.UpdateRequest()); writeErr == nil {
				redirectWithNotice(w, r, RouteProfile, "Profile saved")
				return
			}
			if s.redirectOnNavigation(w, r, writeErr) {
				return
			}
			status = statusFor(writeErr)
		}

		data, ok := s.loadProfile(w, r)
		if !ok {
			return
		}
		data.Form = form
		data.Errors = errs
		if writeErr != nil {
			data.Error = view.Message(writeErr)
		}
		s.renderAdminPage(w, status, tmpl, s.newPage(r, "profile", "Profile", data))
	}
}

func (s *Server) loadProfile(w http.ResponseWriter, r *http.Request) (ProfilePageData, bool) {
	var data ProfilePageData
	me, applied, err := observe(s, r, query.NewKey(users.ProfileResource, nil), s.clients.Users.Me)
	if !applied {
		return data, false
	}
	if err != nil {
		if s.redirectOnNavigation(w, r, err) {
			return data, false
		}
		data.LoadError = view.Message(err)
		return data, true
	}
	data.User = &me
	return data, true
}
