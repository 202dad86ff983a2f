package server

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// The login handlers post and redirect back to the landing page. The flows keep the step,
// the typed values and any field errors, so the landing page renders the outcome.

// SendOTPHandler requests a code for the submitted phone number (POST /auth/send-otp)
func (s *Server) SendOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		if err := s.otp.SubmitPhone(r.Context(), r.PostFormValue("phone")); err != nil {
			log.Debug().Err(err).Msg("Send OTP failed")
		}
		redirectSuccess(w, r, RouteLanding)
	}
}

// VerifyOTPHandler checks the code and opens the console on success (POST /auth/verify-otp)
func (s *Server) VerifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		if err := s.otp.SubmitCode(r.Context(), r.PostFormValue("code")); err != nil {
			log.Debug().Err(err).Msg("Verify OTP failed")
			redirectSuccess(w, r, RouteLanding)
			return
		}
		redirectSuccess(w, r, RouteApp)
	}
}

// ChangeNumberHandler goes back to phone entry (POST /auth/change-number)
func (s *Server) ChangeNumberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.otp.ChangeNumber()
		redirectSuccess(w, r, RouteLanding)
	}
}

// PasswordLoginHandler signs in with a username and password (POST /auth/login)
func (s *Server) PasswordLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		if err := s.password.Submit(r.Context(), r.PostFormValue("username"), r.PostFormValue("password")); err != nil {
			log.Debug().Err(err).Msg("Password login failed")
			redirectSuccess(w, r, RouteLanding)
			return
		}
		redirectSuccess(w, r, RouteApp)
	}
}

// LogoutHandler clears the session, which also drops cached data and restarts login
// (GET /auth/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Clear(); err != nil {
			log.Err(err).Msg("Failed to clear session on logout")
		}
		s.resetLogin()
		redirectSuccess(w, r, RouteLanding)
	}
}
