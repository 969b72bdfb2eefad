package server

import (
	"net/http"

	"github.com/energystats/foxgate/pkg/gateway"
)

// handleDebugResponses exports the latest raw vendor response per endpoint.
func (s *Server) handleDebugResponses(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		writeJSON(w, []gateway.Recording{})
		return
	}
	writeJSON(w, s.recorder.Latest())
}

func (s *Server) handleResetDebugResponses(w http.ResponseWriter, r *http.Request) {
	if s.recorder != nil {
		s.recorder.Reset()
	}
	w.WriteHeader(http.StatusNoContent)
}
