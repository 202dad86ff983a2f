package server

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	Env           string `json:"env"`
}

// HealthHandler reports liveness and whether an operator session is held (GET /health)
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:        "ok",
			Authenticated: s.store.IsAuthenticated(),
			Env:           s.env,
		})
	}
}
