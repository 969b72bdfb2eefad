package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/energystats/foxgate/pkg/types"
)

// API is the method surface shared by the network gateway and every layer
// wrapped around it (cache, value repair, demo routing) so layers can be
// composed in any order.
type API interface {
	// ApplySettings updates the layer and everything it wraps.
	ApplySettings(ctx context.Context, settings types.Settings) error

	// Login exchanges a username and password for a session token.
	Login(ctx context.Context, username, password string) error
	// Logout forgets the session and stored credentials.
	Logout(ctx context.Context) error

	DeviceList(ctx context.Context) ([]types.Device, error)
	DeviceDetail(ctx context.Context, sn string) (types.DeviceDetail, error)

	// RealQuery returns the current values of the given variables.
	RealQuery(ctx context.Context, sn string, variables []string) ([]types.RealData, error)
	// HistoryQuery returns the samples of the given variables between begin and end.
	HistoryQuery(ctx context.Context, sn string, variables []string, begin, end time.Time) ([]types.HistoryData, error)
	// ReportQuery returns aggregated totals for the period of dimension containing date.
	ReportQuery(ctx context.Context, sn string, dimension types.ReportDimension, date time.Time, variables []string) ([]types.ReportVariable, error)

	GetBatterySOC(ctx context.Context, sn string) (types.BatterySOC, error)
	SetBatterySOC(ctx context.Context, sn string, soc types.BatterySOC) error

	GetSchedulerFlag(ctx context.Context, sn string) (types.SchedulerFlag, error)
	SetSchedulerFlag(ctx context.Context, sn string, enable bool) error
	GetSchedule(ctx context.Context, sn string) (types.Schedule, error)
	SaveSchedule(ctx context.Context, sn string, schedule types.Schedule) error
}

// requireSN rejects an empty serial number before any I/O happens.
func requireSN(sn string) error {
	if strings.TrimSpace(sn) == "" {
		return &Error{Kind: KindMissingData, Message: "device serial number is required"}
	}
	return nil
}
