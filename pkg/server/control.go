package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/types"
)

func (s *Server) handleGetBatterySOC(w http.ResponseWriter, r *http.Request) {
	soc, err := s.gateway.GetBatterySOC(r.Context(), r.PathValue("sn"))
	if err != nil {
		writeGatewayError(r.Context(), w, err)
		return
	}
	writeJSON(w, soc)
}

func (s *Server) handleSetBatterySOC(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var soc types.BatterySOC
	if err := json.NewDecoder(r.Body).Decode(&soc); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode battery soc", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if soc.MinSOC < 0 || soc.MinSOC > 100 || soc.MinSOCOnGrid < 0 || soc.MinSOCOnGrid > 100 {
		writeJSONError(w, "soc must be between 0 and 100", http.StatusBadRequest)
		return
	}
	if err := s.gateway.SetBatterySOC(ctx, r.PathValue("sn"), soc); err != nil {
		writeGatewayError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetSchedulerFlag(w http.ResponseWriter, r *http.Request) {
	flag, err := s.gateway.GetSchedulerFlag(r.Context(), r.PathValue("sn"))
	if err != nil {
		writeGatewayError(r.Context(), w, err)
		return
	}
	writeJSON(w, flag)
}

func (s *Server) handleSetSchedulerFlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Enable bool `json:"enable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode scheduler flag", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.gateway.SetSchedulerFlag(ctx, r.PathValue("sn"), req.Enable); err != nil {
		writeGatewayError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := s.gateway.GetSchedule(r.Context(), r.PathValue("sn"))
	if err != nil {
		writeGatewayError(r.Context(), w, err)
		return
	}
	writeJSON(w, schedule)
}

func (s *Server) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var schedule types.Schedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to decode schedule", slog.Any("error", err))
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(schedule.Groups) == 0 {
		writeJSONError(w, "schedule needs at least one group", http.StatusBadRequest)
		return
	}
	if err := s.gateway.SaveSchedule(ctx, r.PathValue("sn"), schedule); err != nil {
		writeGatewayError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
