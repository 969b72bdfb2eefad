package types

import (
	"encoding/json"
	"strconv"
	"time"
)

// RealDatum is a single real-time reading.
type RealDatum struct {
	Variable string  `json:"variable"`
	Unit     string  `json:"unit,omitempty"`
	Name     string  `json:"name,omitempty"`
	Value    float64 `json:"value"`
	// Text holds the raw value for readings that are not numeric, such as
	// running state descriptions.
	Text string `json:"text,omitempty"`
}

// UnmarshalJSON accepts numeric, numeric-string and free text values.
func (d *RealDatum) UnmarshalJSON(b []byte) error {
	type alias RealDatum
	var raw struct {
		alias
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = RealDatum(raw.alias)
	d.Value = 0
	if len(raw.Value) == 0 || string(raw.Value) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw.Value, &d.Value); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.Value, &s); err != nil {
		return err
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		d.Value = f
		return nil
	}
	d.Text = s
	return nil
}

// RealData is the real-time telemetry of one device.
type RealData struct {
	DeviceSN string      `json:"deviceSN"`
	Time     string      `json:"time"`
	Datas    []RealDatum `json:"datas"`
}

// Find returns the reading for the given variable.
func (r RealData) Find(variable string) (RealDatum, bool) {
	for _, d := range r.Datas {
		if d.Variable == variable {
			return d, true
		}
	}
	return RealDatum{}, false
}

// HistoryPoint is one sample of a historical series.
type HistoryPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// HistorySeries is the history of a single variable.
type HistorySeries struct {
	Variable string         `json:"variable"`
	Unit     string         `json:"unit,omitempty"`
	Name     string         `json:"name,omitempty"`
	Data     []HistoryPoint `json:"data"`
}

// HistoryData is the historical telemetry of one device.
type HistoryData struct {
	DeviceSN string          `json:"deviceSN"`
	Datas    []HistorySeries `json:"datas"`
}

// ReportDimension selects the aggregation bucket of a report.
type ReportDimension string

const (
	ReportDimensionYear  ReportDimension = "year"
	ReportDimensionMonth ReportDimension = "month"
	ReportDimensionDay   ReportDimension = "day"
)

// Valid returns true for the dimensions the vendor understands.
func (d ReportDimension) Valid() bool {
	switch d {
	case ReportDimensionYear, ReportDimensionMonth, ReportDimensionDay:
		return true
	}
	return false
}

// Buckets returns how many values a report of this dimension holds for the
// period containing date.
func (d ReportDimension) Buckets(date time.Time) int {
	switch d {
	case ReportDimensionYear:
		return 12
	case ReportDimensionMonth:
		return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	default:
		return 24
	}
}

// ReportVariable is the aggregate of one variable over a report period.
type ReportVariable struct {
	Variable string    `json:"variable"`
	Unit     string    `json:"unit,omitempty"`
	Values   []float64 `json:"values"`
}
