package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/storage"
	"github.com/energystats/foxgate/pkg/types"
)

// Router sends every call either to the real chain or to the demo data
// source. The decision is made again on every call from the demo-mode
// setting and the stored demo-user flag.
type Router struct {
	real  API
	demo  API
	store storage.CredentialStore

	mu       sync.RWMutex
	demoMode bool
}

var _ API = (*Router)(nil)

// NewRouter returns a Router in front of real and demo.
func NewRouter(real, demo API, store storage.CredentialStore) *Router {
	return &Router{
		real:  real,
		demo:  demo,
		store: store,
	}
}

// IsDemo returns true when the next call will be served by the demo source.
func (r *Router) IsDemo(ctx context.Context) bool {
	r.mu.RLock()
	demoMode := r.demoMode
	r.mu.RUnlock()
	if demoMode {
		return true
	}
	demo, err := r.store.IsDemoUser(ctx)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to read demo flag", slog.Any("error", err))
		return false
	}
	return demo
}

func (r *Router) route(ctx context.Context) API {
	if r.IsDemo(ctx) {
		metricRoutes.WithLabelValues("demo").Inc()
		return r.demo
	}
	metricRoutes.WithLabelValues("real").Inc()
	return r.real
}

// ApplySettings updates the demo mode and passes settings to both sources.
func (r *Router) ApplySettings(ctx context.Context, settings types.Settings) error {
	r.mu.Lock()
	r.demoMode = settings.DemoMode
	r.mu.Unlock()
	if err := r.real.ApplySettings(ctx, settings); err != nil {
		return err
	}
	return r.demo.ApplySettings(ctx, settings)
}

// Login with the demo credentials flags the session as demo without any
// network access. Any other login goes to the real chain and clears the flag
// once it succeeds.
func (r *Router) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == DemoUsername && password == DemoPassword {
		if err := r.store.SetDemoUser(ctx, true); err != nil {
			return fmt.Errorf("failed to store demo flag: %w", err)
		}
		log.Ctx(ctx).InfoContext(ctx, "logged in as demo user")
		return nil
	}
	if err := r.real.Login(ctx, username, password); err != nil {
		return err
	}
	if err := r.store.SetDemoUser(ctx, false); err != nil {
		return fmt.Errorf("failed to store demo flag: %w", err)
	}
	return nil
}

// Logout forgets the session on whichever source served it and then clears
// the store, including the demo flag.
func (r *Router) Logout(ctx context.Context) error {
	if err := r.route(ctx).Logout(ctx); err != nil {
		return err
	}
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

func (r *Router) DeviceList(ctx context.Context) ([]types.Device, error) {
	return r.route(ctx).DeviceList(ctx)
}

func (r *Router) DeviceDetail(ctx context.Context, sn string) (types.DeviceDetail, error) {
	return r.route(ctx).DeviceDetail(ctx, sn)
}

func (r *Router) RealQuery(ctx context.Context, sn string, variables []string) ([]types.RealData, error) {
	return r.route(ctx).RealQuery(ctx, sn, variables)
}

func (r *Router) HistoryQuery(ctx context.Context, sn string, variables []string, begin, end time.Time) ([]types.HistoryData, error) {
	return r.route(ctx).HistoryQuery(ctx, sn, variables, begin, end)
}

func (r *Router) ReportQuery(ctx context.Context, sn string, dimension types.ReportDimension, date time.Time, variables []string) ([]types.ReportVariable, error) {
	return r.route(ctx).ReportQuery(ctx, sn, dimension, date, variables)
}

func (r *Router) GetBatterySOC(ctx context.Context, sn string) (types.BatterySOC, error) {
	return r.route(ctx).GetBatterySOC(ctx, sn)
}

func (r *Router) SetBatterySOC(ctx context.Context, sn string, soc types.BatterySOC) error {
	return r.route(ctx).SetBatterySOC(ctx, sn, soc)
}

func (r *Router) GetSchedulerFlag(ctx context.Context, sn string) (types.SchedulerFlag, error) {
	return r.route(ctx).GetSchedulerFlag(ctx, sn)
}

func (r *Router) SetSchedulerFlag(ctx context.Context, sn string, enable bool) error {
	return r.route(ctx).SetSchedulerFlag(ctx, sn, enable)
}

func (r *Router) GetSchedule(ctx context.Context, sn string) (types.Schedule, error) {
	return r.route(ctx).GetSchedule(ctx, sn)
}

func (r *Router) SaveSchedule(ctx context.Context, sn string, schedule types.Schedule) error {
	return r.route(ctx).SaveSchedule(ctx, sn, schedule)
}
