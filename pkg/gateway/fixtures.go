package gateway

import (
	"context"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/energystats/foxgate/pkg/types"
)

// Demo login credentials. Logging in with them switches the session to the
// demo fixtures.
const (
	DemoUsername = "demo"
	DemoPassword = "user"
)

const (
	demoHistoryStep    = 5 * time.Minute
	demoMaxHistorySpan = 7 * 24 * time.Hour
	demoMaxGroups      = 8
	demoTimeFormat     = "2006-01-02 15:04:05 MST-0700"
)

var demoWorkModes = []string{"SelfUse", "Feedin", "Backup", "ForceCharge", "ForceDischarge"}

type demoDevice struct {
	types.DeviceDetail
	// scale multiplies every power of the model
	scale float64
}

var demoDevices = []demoDevice{
	{
		DeviceDetail: types.DeviceDetail{
			Device: types.Device{
				DeviceSN:    "DEMO60A1B2C3D4E",
				ModuleSN:    "609W5EUF4DEMO01",
				StationID:   "demo-station-1",
				StationName: "Demo House",
				ProductType: "H3",
				DeviceType:  "H3-10.0-E",
				HasBattery:  true,
				HasPV:       true,
				Status:      1,
				Function:    types.DeviceFunction{Scheduler: true},
			},
			MasterVersion:   "1.57",
			SlaveVersion:    "1.02",
			ManagerVersion:  "1.71",
			HardwareVersion: "--",
			CapacityKW:      10,
		},
		scale: 1,
	},
	{
		DeviceDetail: types.DeviceDetail{
			Device: types.Device{
				DeviceSN:    "DEMO30F5E6D7C8B",
				ModuleSN:    "609W5EUF4DEMO02",
				StationID:   "demo-station-2",
				StationName: "Demo Garage",
				ProductType: "H1",
				DeviceType:  "H1-5.0-E",
				HasBattery:  true,
				HasPV:       true,
				Status:      1,
			},
			MasterVersion:   "1.48",
			SlaveVersion:    "1.00",
			ManagerVersion:  "1.60",
			HardwareVersion: "--",
			CapacityKW:      5,
		},
		scale: 0.5,
	},
}

type demoVariable struct {
	name string
	unit string
}

var demoVariables = map[string]demoVariable{
	"pvPower":              {"PV Power", "kW"},
	"generationPower":      {"Output Power", "kW"},
	"loadsPower":           {"Load Power", "kW"},
	"gridConsumptionPower": {"Grid Consumption Power", "kW"},
	"feedinPower":          {"Feed-in Power", "kW"},
	"batChargePower":       {"Charge Power", "kW"},
	"batDischargePower":    {"Discharge Power", "kW"},
	"SoC":                  {"SoC", "%"},
	"ambientTemperation":   {"Ambient Temperature", "℃"},
	"runningState":         {"Running State", ""},
}

var demoReportVariables = map[string]string{
	"generation":           "kWh",
	"feedin":               "kWh",
	"gridConsumption":      "kWh",
	"chargeEnergyToTal":    "kWh",
	"dischargeEnergyToTal": "kWh",
	"loads":                "kWh",
}

// Demo serves deterministic data without any network access. Readings are
// derived from the device and the requested time. Battery and schedule
// writes are kept in memory so later reads reflect them.
type Demo struct {
	now func() time.Time

	mu        sync.Mutex
	location  *time.Location
	soc       map[string]types.BatterySOC
	flags     map[string]bool
	schedules map[string]types.Schedule
}

var _ API = (*Demo)(nil)

// NewDemo returns the demo data source using the wall clock.
func NewDemo() *Demo {
	return newDemo(time.Now)
}

func newDemo(now func() time.Time) *Demo {
	return &Demo{
		now:       now,
		location:  time.UTC,
		soc:       make(map[string]types.BatterySOC),
		flags:     make(map[string]bool),
		schedules: make(map[string]types.Schedule),
	}
}

func (d *Demo) device(sn string) (demoDevice, error) {
	if err := requireSN(sn); err != nil {
		return demoDevice{}, err
	}
	for _, dev := range demoDevices {
		if dev.DeviceSN == sn {
			return dev, nil
		}
	}
	return demoDevice{}, &Error{Kind: KindMissingData, Message: "unknown device " + sn}
}

func (d *Demo) loc() *time.Location {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location
}

func (d *Demo) ApplySettings(ctx context.Context, settings types.Settings) error {
	settings = settings.WithDefaults()
	loc, err := time.LoadLocation(settings.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.location = loc
	return nil
}

// Login only accepts the demo credentials.
func (d *Demo) Login(ctx context.Context, username, password string) error {
	if username != DemoUsername || password != DemoPassword {
		return &Error{Kind: KindBadCredentials}
	}
	return nil
}

func (d *Demo) Logout(ctx context.Context) error {
	return nil
}

func (d *Demo) DeviceList(ctx context.Context) ([]types.Device, error) {
	out := make([]types.Device, len(demoDevices))
	for i, dev := range demoDevices {
		out[i] = dev.Device
	}
	return out, nil
}

func (d *Demo) DeviceDetail(ctx context.Context, sn string) (types.DeviceDetail, error) {
	dev, err := d.device(sn)
	if err != nil {
		return types.DeviceDetail{}, err
	}
	return dev.DeviceDetail, nil
}

// demoPower is the state of the model at a point in time, all in kW except
// soc.
type demoPower struct {
	solar, load, charge, discharge, grid, feedin, soc float64
}

func hourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// powerAt evaluates the model: load follows a sine wave between 1 and 2 kW,
// solar a bell curve peaking at 12:30. The battery covers the difference
// within its charge limit and the grid takes the rest.
func (d *Demo) powerAt(dev demoDevice, t time.Time, minSOC int) demoPower {
	hour := hourOfDay(t)

	load := max(1.0, 1.5+0.5*math.Sin(hour*math.Pi))
	solar := 0.0
	if hour >= 6 && hour <= 19 {
		solar = 6.0 * math.Sin((hour-6)/13*math.Pi)
	}
	// the battery fills over the day and drains in the evening
	soc := 55 + 40*math.Sin((hour-8)/24*2*math.Pi)
	soc = math.Max(float64(minSOC), math.Min(100, soc))

	p := demoPower{
		solar: solar * dev.scale,
		load:  load * dev.scale,
		soc:   math.Round(soc),
	}
	const maxRate = 3.0
	net := p.solar - p.load
	switch {
	case net > 0:
		if p.soc < 100 {
			p.charge = math.Min(net, maxRate*dev.scale)
		}
		p.feedin = net - p.charge
	default:
		if p.soc > float64(minSOC) {
			p.discharge = math.Min(-net, maxRate*dev.scale)
		}
		p.grid = -net - p.discharge
	}
	return p
}

func (p demoPower) value(variable string) (float64, bool) {
	switch variable {
	case "pvPower":
		return p.solar, true
	case "generationPower":
		return p.solar + p.discharge - p.charge, true
	case "loadsPower":
		return p.load, true
	case "gridConsumptionPower":
		return p.grid, true
	case "feedinPower":
		return p.feedin, true
	case "batChargePower":
		return p.charge, true
	case "batDischargePower":
		return p.discharge, true
	case "SoC":
		return p.soc, true
	case "ambientTemperation":
		return 18 + p.solar, true
	}
	return 0, false
}

func (d *Demo) minSOC(sn string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.socLocked(sn).MinSOC
}

func (d *Demo) socLocked(sn string) types.BatterySOC {
	if soc, ok := d.soc[sn]; ok {
		return soc
	}
	return types.BatterySOC{MinSOC: 10, MinSOCOnGrid: 10}
}

// variablesOrAll returns every model variable in a stable order when none
// were requested.
func variablesOrAll(variables []string) []string {
	if len(variables) > 0 {
		return variables
	}
	all := make([]string, 0, len(demoVariables))
	for v := range demoVariables {
		all = append(all, v)
	}
	slices.Sort(all)
	return all
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (d *Demo) RealQuery(ctx context.Context, sn string, variables []string) ([]types.RealData, error) {
	dev, err := d.device(sn)
	if err != nil {
		return nil, err
	}
	now := d.now().In(d.loc())
	p := d.powerAt(dev, now, d.minSOC(sn))

	data := types.RealData{
		DeviceSN: sn,
		Time:     now.Format(demoTimeFormat),
	}
	for _, v := range variablesOrAll(variables) {
		meta, ok := demoVariables[v]
		if !ok {
			continue
		}
		datum := types.RealDatum{
			Variable: v,
			Unit:     meta.unit,
			Name:     meta.name,
		}
		if v == "runningState" {
			datum.Text = "163"
		} else {
			val, _ := p.value(v)
			datum.Value = round2(val)
		}
		data.Datas = append(data.Datas, datum)
	}
	return []types.RealData{data}, nil
}

func (d *Demo) HistoryQuery(ctx context.Context, sn string, variables []string, begin, end time.Time) ([]types.HistoryData, error) {
	dev, err := d.device(sn)
	if err != nil {
		return nil, err
	}
	if !end.After(begin) || end.Sub(begin) > demoMaxHistorySpan {
		return nil, invalidParameter()
	}
	loc := d.loc()
	minSOC := d.minSOC(sn)

	data := types.HistoryData{DeviceSN: sn}
	for _, v := range variablesOrAll(variables) {
		meta, ok := demoVariables[v]
		if !ok || meta.unit == "" {
			continue
		}
		series := types.HistorySeries{
			Variable: v,
			Unit:     meta.unit,
			Name:     meta.name,
		}
		for t := begin.Truncate(demoHistoryStep); !t.After(end); t = t.Add(demoHistoryStep) {
			if t.Before(begin) {
				continue
			}
			local := t.In(loc)
			val, _ := d.powerAt(dev, local, minSOC).value(v)
			series.Data = append(series.Data, types.HistoryPoint{
				Time:  local.Format(demoTimeFormat),
				Value: round2(val),
			})
		}
		data.Datas = append(data.Datas, series)
	}
	return []types.HistoryData{data}, nil
}

// hourlyEnergy integrates the model over the hour starting at t, sampling at
// the midpoint.
func (d *Demo) hourlyEnergy(dev demoDevice, t time.Time, minSOC int, variable string) float64 {
	p := d.powerAt(dev, t.Add(30*time.Minute), minSOC)
	switch variable {
	case "generation":
		return p.solar
	case "feedin":
		return p.feedin
	case "gridConsumption":
		return p.grid
	case "chargeEnergyToTal":
		return p.charge
	case "dischargeEnergyToTal":
		return p.discharge
	case "loads":
		return p.load
	}
	return 0
}

func (d *Demo) ReportQuery(ctx context.Context, sn string, dimension types.ReportDimension, date time.Time, variables []string) ([]types.ReportVariable, error) {
	dev, err := d.device(sn)
	if err != nil {
		return nil, err
	}
	if !dimension.Valid() {
		return nil, invalidParameter()
	}
	loc := d.loc()
	minSOC := d.minSOC(sn)
	date = date.In(loc)

	if len(variables) == 0 {
		for v := range demoReportVariables {
			variables = append(variables, v)
		}
		slices.Sort(variables)
	}

	// every day of the model is identical, so a day's total is enough to
	// build months and years
	dayTotal := func(v string) float64 {
		var sum float64
		midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
		for h := range 24 {
			sum += d.hourlyEnergy(dev, midnight.Add(time.Duration(h)*time.Hour), minSOC, v)
		}
		return sum
	}

	var out []types.ReportVariable
	for _, v := range variables {
		unit, ok := demoReportVariables[v]
		if !ok {
			continue
		}
		buckets := dimension.Buckets(date)
		values := make([]float64, buckets)
		switch dimension {
		case types.ReportDimensionDay:
			midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
			for h := range values {
				values[h] = round2(d.hourlyEnergy(dev, midnight.Add(time.Duration(h)*time.Hour), minSOC, v))
			}
		case types.ReportDimensionMonth:
			daily := round2(dayTotal(v))
			for i := range values {
				values[i] = daily
			}
		case types.ReportDimensionYear:
			daily := dayTotal(v)
			for i := range values {
				days := types.ReportDimensionMonth.Buckets(time.Date(date.Year(), time.Month(i+1), 1, 0, 0, 0, 0, loc))
				values[i] = round2(daily * float64(days))
			}
		}
		out = append(out, types.ReportVariable{
			Variable: v,
			Unit:     unit,
			Values:   values,
		})
	}
	return out, nil
}

func (d *Demo) GetBatterySOC(ctx context.Context, sn string) (types.BatterySOC, error) {
	if _, err := d.device(sn); err != nil {
		return types.BatterySOC{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.socLocked(sn), nil
}

func (d *Demo) SetBatterySOC(ctx context.Context, sn string, soc types.BatterySOC) error {
	if _, err := d.device(sn); err != nil {
		return err
	}
	if soc.MinSOC < 10 || soc.MinSOC > 100 || soc.MinSOCOnGrid < soc.MinSOC || soc.MinSOCOnGrid > 100 {
		return invalidParameter()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.soc[sn] = soc
	return nil
}

func (d *Demo) GetSchedulerFlag(ctx context.Context, sn string) (types.SchedulerFlag, error) {
	dev, err := d.device(sn)
	if err != nil {
		return types.SchedulerFlag{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return types.SchedulerFlag{
		Enable:  d.flags[sn],
		Support: dev.Function.Scheduler,
	}, nil
}

func (d *Demo) SetSchedulerFlag(ctx context.Context, sn string, enable bool) error {
	dev, err := d.device(sn)
	if err != nil {
		return err
	}
	if !dev.Function.Scheduler {
		return invalidParameter()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flags[sn] = enable
	return nil
}

func (d *Demo) GetSchedule(ctx context.Context, sn string) (types.Schedule, error) {
	dev, err := d.device(sn)
	if err != nil {
		return types.Schedule{}, err
	}
	if !dev.Function.Scheduler {
		return types.Schedule{}, invalidParameter()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.schedules[sn]; ok {
		s.Groups = slices.Clone(s.Groups)
		return s, nil
	}
	return types.Schedule{
		Groups: []types.ScheduleGroup{{
			StartHour:    0,
			StartMinute:  0,
			EndHour:      23,
			EndMinute:    59,
			WorkMode:     "SelfUse",
			MinSOCOnGrid: 10,
			FDSOC:        10,
			FDPower:      0,
		}},
	}, nil
}

func (d *Demo) SaveSchedule(ctx context.Context, sn string, schedule types.Schedule) error {
	dev, err := d.device(sn)
	if err != nil {
		return err
	}
	if !dev.Function.Scheduler || !validSchedule(schedule.Groups) {
		return invalidParameter()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.schedules[sn] = types.Schedule{
		Enable: 1,
		Groups: slices.Clone(schedule.Groups),
	}
	d.flags[sn] = true
	return nil
}

// validSchedule checks the bounds of every group and that the enabled groups
// do not overlap.
func validSchedule(groups []types.ScheduleGroup) bool {
	if len(groups) == 0 || len(groups) > demoMaxGroups {
		return false
	}
	type span struct{ start, end int }
	var spans []span
	for _, g := range groups {
		if g.StartHour < 0 || g.StartHour > 23 || g.EndHour < 0 || g.EndHour > 23 ||
			g.StartMinute < 0 || g.StartMinute > 59 || g.EndMinute < 0 || g.EndMinute > 59 {
			return false
		}
		if !slices.Contains(demoWorkModes, g.WorkMode) {
			return false
		}
		if g.MinSOCOnGrid < 10 || g.MinSOCOnGrid > 100 || g.FDSOC < 10 || g.FDSOC > 100 || g.FDPower < 0 {
			return false
		}
		s := span{g.StartHour*60 + g.StartMinute, g.EndHour*60 + g.EndMinute}
		if s.end <= s.start {
			return false
		}
		if g.Enable != 0 {
			spans = append(spans, s)
		}
	}
	slices.SortFunc(spans, func(a, b span) int { return a.start - b.start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return false
		}
	}
	return true
}
