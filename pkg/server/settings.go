package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/energystats/foxgate/pkg/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.gateway.Settings())
}

// handleUpdateSettings merges the posted fields into the current settings
// and applies them to the whole gateway chain.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings := s.gateway.Settings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode settings", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if settings.TimeZone != "" {
		if _, err := time.LoadLocation(settings.TimeZone); err != nil {
			writeJSONError(w, "invalid time zone", http.StatusBadRequest)
			return
		}
	}

	if err := s.gateway.ApplySettings(ctx, settings); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to apply settings", slog.Any("error", err))
		writeJSONError(w, "failed to apply settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, s.gateway.Settings())
}
