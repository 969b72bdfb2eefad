package gateway

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/types"
)

// RepairValue removes the spurious high bits the vendor occasionally sets in
// a reading. The reading is treated as a fixed-point register with one
// decimal and the bits selected by the ceiling's mask are subtracted again.
// Readings <= 0 and readings with none of the masked bits set are returned
// unchanged.
func RepairValue(v float64, ceiling types.DataCeiling) float64 {
	mask := ceiling.Mask()
	if v <= 0 || mask == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scaled := math.Floor(v * 10)
	if scaled >= math.MaxInt64 {
		return v
	}
	masked := int64(scaled) & int64(mask)
	if masked == 0 {
		return v
	}
	return v - round3(float64(masked)/10)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Repair applies RepairValue to real-time and historical readings returned by
// the wrapped API.
type Repair struct {
	API

	mu      sync.RWMutex
	ceiling types.DataCeiling
}

var _ API = (*Repair)(nil)

// NewRepair wraps api using ceiling until ApplySettings changes it.
func NewRepair(api API, ceiling types.DataCeiling) *Repair {
	return &Repair{
		API:     api,
		ceiling: ceiling,
	}
}

func (r *Repair) currentCeiling() types.DataCeiling {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ceiling
}

func (r *Repair) ApplySettings(ctx context.Context, settings types.Settings) error {
	r.mu.Lock()
	r.ceiling = settings.DataCeiling
	r.mu.Unlock()
	return r.API.ApplySettings(ctx, settings)
}

func (r *Repair) repair(ctx context.Context, variable string, v float64, ceiling types.DataCeiling) float64 {
	fixed := RepairValue(v, ceiling)
	if fixed != v {
		metricRepairs.Inc()
		log.Ctx(ctx).DebugContext(ctx, "repaired reading",
			slog.String("variable", variable),
			slog.Float64("raw", v),
			slog.Float64("repaired", fixed),
		)
	}
	return fixed
}

func (r *Repair) RealQuery(ctx context.Context, sn string, variables []string) ([]types.RealData, error) {
	res, err := r.API.RealQuery(ctx, sn, variables)
	if err != nil {
		return nil, err
	}
	ceiling := r.currentCeiling()
	if ceiling == types.DataCeilingNone {
		return res, nil
	}
	for i := range res {
		for j := range res[i].Datas {
			d := &res[i].Datas[j]
			d.Value = r.repair(ctx, d.Variable, d.Value, ceiling)
		}
	}
	return res, nil
}

func (r *Repair) HistoryQuery(ctx context.Context, sn string, variables []string, begin, end time.Time) ([]types.HistoryData, error) {
	res, err := r.API.HistoryQuery(ctx, sn, variables, begin, end)
	if err != nil {
		return nil, err
	}
	ceiling := r.currentCeiling()
	if ceiling == types.DataCeilingNone {
		return res, nil
	}
	for i := range res {
		for j := range res[i].Datas {
			series := &res[i].Datas[j]
			for k := range series.Data {
				series.Data[k].Value = r.repair(ctx, series.Variable, series.Data[k].Value, ceiling)
			}
		}
	}
	return res, nil
}
