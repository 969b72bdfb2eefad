package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/energystats/foxgate/pkg/types"
	"golang.org/x/sync/errgroup"
)

const maxHistoryRange = 24 * time.Hour

func (s *Server) handleDeviceList(w http.ResponseWriter, r *http.Request) {
	devices, err := s.gateway.DeviceList(r.Context())
	if err != nil {
		writeGatewayError(r.Context(), w, err)
		return
	}
	if devices == nil {
		devices = []types.Device{}
	}
	writeJSON(w, devices)
}

func (s *Server) handleDeviceDetail(w http.ResponseWriter, r *http.Request) {
	detail, err := s.gateway.DeviceDetail(r.Context(), r.PathValue("sn"))
	if err != nil {
		writeGatewayError(r.Context(), w, err)
		return
	}
	writeJSON(w, detail)
}

// parseVariables splits the comma-separated variables parameter. No
// parameter means every variable.
func parseVariables(r *http.Request) []string {
	var out []string
	for _, v := range strings.Split(r.URL.Query().Get("variables"), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *Server) handleRealQuery(w http.ResponseWriter, r *http.Request) {
	data, err := s.gateway.RealQuery(r.Context(), r.PathValue("sn"), parseVariables(r))
	if err != nil {
		writeGatewayError(r.Context(), w, err)
		return
	}
	writeJSON(w, data)
}

func (s *Server) parseTimeRange(r *http.Request) (time.Time, time.Time, error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		// Default to the last hour if not specified
		end := s.now()
		start := end.Add(-time.Hour)
		return start, end, nil
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time: %w", err)
	}

	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time: %w", err)
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("start time must be before end time")
	}

	if end.Sub(start) > maxHistoryRange {
		return time.Time{}, time.Time{}, fmt.Errorf("time range cannot exceed 24 hours")
	}

	return start, end, nil
}

func (s *Server) handleHistoryQuery(w http.ResponseWriter, r *http.Request) {
	start, end, err := s.parseTimeRange(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := s.gateway.HistoryQuery(r.Context(), r.PathValue("sn"), parseVariables(r), start, end)
	if err != nil {
		writeGatewayError(r.Context(), w, err)
		return
	}
	writeJSON(w, data)
}

func (s *Server) handleReportQuery(w http.ResponseWriter, r *http.Request) {
	dimension := types.ReportDimension(r.URL.Query().Get("dimension"))
	if dimension == "" {
		dimension = types.ReportDimensionDay
	}
	if !dimension.Valid() {
		writeJSONError(w, "invalid dimension", http.StatusBadRequest)
		return
	}
	date := s.now()
	if d := r.URL.Query().Get("date"); d != "" {
		var err error
		date, err = time.Parse(time.DateOnly, d)
		if err != nil {
			writeJSONError(w, "invalid date", http.StatusBadRequest)
			return
		}
	}
	data, err := s.gateway.ReportQuery(r.Context(), r.PathValue("sn"), dimension, date, parseVariables(r))
	if err != nil {
		writeGatewayError(r.Context(), w, err)
		return
	}
	writeJSON(w, data)
}

type overview struct {
	Device     types.DeviceDetail `json:"device"`
	Real       []types.RealData   `json:"real"`
	BatterySOC types.BatterySOC   `json:"batterySoc"`
}

// handleOverview fetches the detail, current readings and battery limits of
// a device concurrently.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	sn := r.PathValue("sn")
	var res overview

	eg, ctx := errgroup.WithContext(r.Context())
	eg.Go(func() error {
		var err error
		res.Device, err = s.gateway.DeviceDetail(ctx, sn)
		return err
	})
	eg.Go(func() error {
		var err error
		res.Real, err = s.gateway.RealQuery(ctx, sn, nil)
		return err
	})
	eg.Go(func() error {
		var err error
		res.BatterySOC, err = s.gateway.GetBatterySOC(ctx, sn)
		return err
	})
	if err := eg.Wait(); err != nil {
		writeGatewayError(r.Context(), w, err)
		return
	}
	writeJSON(w, res)
}
