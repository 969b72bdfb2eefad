package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/energystats/foxgate/pkg/log"
)

type authStatus struct {
	Demo bool `json:"demo"`
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, authStatus{Demo: s.gateway.IsDemo(r.Context())})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSONError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	if err := s.gateway.Login(ctx, req.Username, req.Password); err != nil {
		writeGatewayError(ctx, w, err)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "login succeeded", slog.String("username", req.Username))
	writeJSON(w, authStatus{Demo: s.gateway.IsDemo(ctx)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.gateway.Logout(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to logout", slog.Any("error", err))
		writeJSONError(w, "failed to logout", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
