package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/energystats/foxgate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDemo(hour int) *Demo {
	now := time.Date(2024, 6, 21, hour, 0, 0, 0, time.UTC)
	return newDemo(func() time.Time { return now })
}

func TestDemoDevices(t *testing.T) {
	ctx := context.Background()
	d := newTestDemo(12)

	devices, err := d.DeviceList(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)

	detail, err := d.DeviceDetail(ctx, devices[0].DeviceSN)
	require.NoError(t, err)
	assert.Equal(t, devices[0], detail.Device)

	_, err = d.DeviceDetail(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrMissingData)
	_, err = d.DeviceDetail(ctx, "")
	assert.ErrorIs(t, err, ErrMissingData)
}

func TestDemoRealQuery(t *testing.T) {
	ctx := context.Background()
	sn := demoDevices[0].DeviceSN

	noon := newTestDemo(12)
	res, err := noon.RealQuery(ctx, sn, []string{"pvPower", "loadsPower", "unknownVariable"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	require.Len(t, res[0].Datas, 2)
	pv, ok := res[0].Find("pvPower")
	require.True(t, ok)
	assert.Greater(t, pv.Value, 4.0)
	assert.Equal(t, "kW", pv.Unit)

	again, err := noon.RealQuery(ctx, sn, []string{"pvPower", "loadsPower"})
	require.NoError(t, err)
	assert.Equal(t, res[0].Datas, again[0].Datas, "same time gives the same readings")

	night := newTestDemo(2)
	res, err = night.RealQuery(ctx, sn, []string{"pvPower", "gridConsumptionPower", "batDischargePower", "loadsPower"})
	require.NoError(t, err)
	pv, _ = res[0].Find("pvPower")
	assert.Zero(t, pv.Value)
	load, _ := res[0].Find("loadsPower")
	grid, _ := res[0].Find("gridConsumptionPower")
	discharge, _ := res[0].Find("batDischargePower")
	assert.InDelta(t, load.Value, grid.Value+discharge.Value, 0.02, "load is covered by grid and battery")

	res, err = noon.RealQuery(ctx, sn, nil)
	require.NoError(t, err)
	assert.Len(t, res[0].Datas, len(demoVariables))
	state, ok := res[0].Find("runningState")
	require.True(t, ok)
	assert.Equal(t, "163", state.Text)
}

func TestDemoHistoryQuery(t *testing.T) {
	ctx := context.Background()
	d := newTestDemo(12)
	sn := demoDevices[1].DeviceSN
	begin := time.Date(2024, 6, 21, 10, 0, 0, 0, time.UTC)

	res, err := d.HistoryQuery(ctx, sn, []string{"pvPower", "SoC"}, begin, begin.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, res[0].Datas, 2)
	assert.Len(t, res[0].Datas[0].Data, 13)
	assert.Equal(t, "SoC", res[0].Datas[1].Variable)

	_, err = d.HistoryQuery(ctx, sn, nil, begin, begin)
	assert.ErrorIs(t, err, ErrVendor)
	_, err = d.HistoryQuery(ctx, sn, nil, begin, begin.Add(8*24*time.Hour))
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, errnoInvalidParameter, gwErr.Code)
}

func TestDemoReportQuery(t *testing.T) {
	ctx := context.Background()
	d := newTestDemo(12)
	sn := demoDevices[0].DeviceSN
	date := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	day, err := d.ReportQuery(ctx, sn, types.ReportDimensionDay, date, []string{"generation"})
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Len(t, day[0].Values, 24)
	assert.Zero(t, day[0].Values[0])
	assert.Positive(t, day[0].Values[12])

	month, err := d.ReportQuery(ctx, sn, types.ReportDimensionMonth, date, []string{"generation"})
	require.NoError(t, err)
	assert.Len(t, month[0].Values, 29)

	year, err := d.ReportQuery(ctx, sn, types.ReportDimensionYear, date, nil)
	require.NoError(t, err)
	assert.Len(t, year, len(demoReportVariables))
	for _, v := range year {
		assert.Len(t, v.Values, 12)
	}

	_, err = d.ReportQuery(ctx, sn, types.ReportDimension("week"), date, nil)
	assert.ErrorIs(t, err, ErrVendor)
}

func TestDemoBatterySOC(t *testing.T) {
	ctx := context.Background()
	d := newTestDemo(12)
	sn := demoDevices[0].DeviceSN

	soc, err := d.GetBatterySOC(ctx, sn)
	require.NoError(t, err)
	assert.Equal(t, types.BatterySOC{MinSOC: 10, MinSOCOnGrid: 10}, soc)

	require.NoError(t, d.SetBatterySOC(ctx, sn, types.BatterySOC{MinSOC: 20, MinSOCOnGrid: 30}))
	soc, err = d.GetBatterySOC(ctx, sn)
	require.NoError(t, err)
	assert.Equal(t, types.BatterySOC{MinSOC: 20, MinSOCOnGrid: 30}, soc)

	err = d.SetBatterySOC(ctx, sn, types.BatterySOC{MinSOC: 5, MinSOCOnGrid: 30})
	assert.ErrorIs(t, err, ErrVendor)
	err = d.SetBatterySOC(ctx, sn, types.BatterySOC{MinSOC: 30, MinSOCOnGrid: 20})
	assert.ErrorIs(t, err, ErrVendor)

	// the other device is unaffected
	soc, err = d.GetBatterySOC(ctx, demoDevices[1].DeviceSN)
	require.NoError(t, err)
	assert.Equal(t, 10, soc.MinSOC)
}

func TestDemoScheduler(t *testing.T) {
	ctx := context.Background()
	d := newTestDemo(12)
	sn := demoDevices[0].DeviceSN

	flag, err := d.GetSchedulerFlag(ctx, sn)
	require.NoError(t, err)
	assert.Equal(t, types.SchedulerFlag{Enable: false, Support: true}, flag)

	schedule, err := d.GetSchedule(ctx, sn)
	require.NoError(t, err)
	assert.Len(t, schedule.Groups, 1)

	groups := []types.ScheduleGroup{
		{Enable: 1, StartHour: 1, EndHour: 5, WorkMode: "ForceCharge", MinSOCOnGrid: 10, FDSOC: 10},
		{Enable: 1, StartHour: 17, EndHour: 20, WorkMode: "ForceDischarge", MinSOCOnGrid: 20, FDSOC: 20, FDPower: 3000},
	}
	require.NoError(t, d.SaveSchedule(ctx, sn, types.Schedule{Groups: groups}))
	schedule, err = d.GetSchedule(ctx, sn)
	require.NoError(t, err)
	assert.Equal(t, 1, schedule.Enable)
	assert.Equal(t, groups, schedule.Groups)
	flag, err = d.GetSchedulerFlag(ctx, sn)
	require.NoError(t, err)
	assert.True(t, flag.Enable)

	require.NoError(t, d.SetSchedulerFlag(ctx, sn, false))
	flag, err = d.GetSchedulerFlag(ctx, sn)
	require.NoError(t, err)
	assert.False(t, flag.Enable)

	overlapping := []types.ScheduleGroup{
		{Enable: 1, StartHour: 1, EndHour: 5, WorkMode: "SelfUse", MinSOCOnGrid: 10, FDSOC: 10},
		{Enable: 1, StartHour: 4, EndHour: 6, WorkMode: "SelfUse", MinSOCOnGrid: 10, FDSOC: 10},
	}
	assert.ErrorIs(t, d.SaveSchedule(ctx, sn, types.Schedule{Groups: overlapping}), ErrVendor)
	badMode := []types.ScheduleGroup{{Enable: 1, StartHour: 1, EndHour: 5, WorkMode: "Turbo", MinSOCOnGrid: 10, FDSOC: 10}}
	assert.ErrorIs(t, d.SaveSchedule(ctx, sn, types.Schedule{Groups: badMode}), ErrVendor)

	// the second device has no scheduler
	other := demoDevices[1].DeviceSN
	flag, err = d.GetSchedulerFlag(ctx, other)
	require.NoError(t, err)
	assert.False(t, flag.Support)
	assert.ErrorIs(t, d.SetSchedulerFlag(ctx, other, true), ErrVendor)
}

func TestDemoLogin(t *testing.T) {
	ctx := context.Background()
	d := newTestDemo(12)
	assert.NoError(t, d.Login(ctx, DemoUsername, DemoPassword))
	assert.ErrorIs(t, d.Login(ctx, DemoUsername, "nope"), ErrBadCredentials)
	assert.NoError(t, d.Logout(ctx))
}

func TestDemoTimeZone(t *testing.T) {
	ctx := context.Background()
	d := newTestDemo(12)
	require.NoError(t, d.ApplySettings(ctx, types.Settings{TimeZone: "Asia/Tokyo"}))

	// 12:00 UTC is 21:00 in Tokyo, after sunset
	res, err := d.RealQuery(ctx, demoDevices[0].DeviceSN, []string{"pvPower"})
	require.NoError(t, err)
	assert.Zero(t, res[0].Datas[0].Value)
	assert.Contains(t, res[0].Time, "JST")

	require.NoError(t, d.ApplySettings(ctx, types.Settings{TimeZone: "Not/AZone"}))
	res, err = d.RealQuery(ctx, demoDevices[0].DeviceSN, []string{"pvPower"})
	require.NoError(t, err)
	assert.Positive(t, res[0].Datas[0].Value)
}
