package server

import (
	"net/http"

	"github.com/jrsteele09/farm-admin/auth"
	"github.com/jrsteele09/farm-admin/internal/config"
	"github.com/jrsteele09/farm-admin/view"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName  string
	Mode     config.AuthMode
	State    auth.State
	Phone    string // Preserve the number while a code is pending or after an error
	DebugOTP string // Only shown outside production
	Username string
	Errors   map[string]string // Keyed by auth field name
	Error    string
}

// LandingHandler is the entry page. A signed in operator goes straight to the console;
// everyone else gets the login form for the configured mode.
func (s *Server) LandingHandler() http.HandlerFunc {
	tmpl := mustParse(ParseTemplate("login.html"))

	return func(w http.ResponseWriter, r *http.Request) {
		if s.store.IsAuthenticated() {
			redirectSuccess(w, r, RouteApp)
			return
		}
		renderTemplate(w, http.StatusOK, tmpl, "login.html", s.loginPageData(r))
	}
}

func (s *Server) loginPageData(r *http.Request) LoginPageData {
	data := LoginPageData{
		AppName: s.config.GetAppName(),
		Mode:    s.config.GetAuthMode(),
		Errors:  map[string]string{},
		Error:   r.URL.Query().Get(paramError),
	}

	if data.Mode == config.AuthModePassword {
		data.State = s.password.State()
		data.Username = s.password.Username()
		for _, field := range []string{auth.FieldUsername, auth.FieldPassword, auth.FieldForm} {
			if err := s.password.FieldError(field); err != nil {
				data.Errors[field] = view.Message(err)
			}
		}
		return data
	}

	data.State = s.otp.State()
	data.Phone = s.otp.Phone()
	if s.env != "PROD" {
		data.DebugOTP = s.otp.DebugOTP()
	}
	for _, field := range []string{auth.FieldPhone, auth.FieldCode, auth.FieldForm} {
		if err := s.otp.FieldError(field); err != nil {
			data.Errors[field] = view.Message(err)
		}
	}
	return data
}
