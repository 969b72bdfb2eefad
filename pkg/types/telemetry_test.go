package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealDatumUnmarshal(t *testing.T) {
	var rd RealData
	require.NoError(t, json.Unmarshal([]byte(`{
		"deviceSN": "SN1",
		"time": "2024-01-01 12:00:00 CET+0100",
		"datas": [
			{"variable": "pvPower", "unit": "kW", "value": 3.25},
			{"variable": "SoC", "unit": "%", "value": "87"},
			{"variable": "runningState", "value": "163"},
			{"variable": "invBatVolt", "value": null},
			{"variable": "currentFault", "value": "Grid Lost"}
		]
	}`), &rd))

	require.Len(t, rd.Datas, 5)
	assert.Equal(t, 3.25, rd.Datas[0].Value)
	assert.Equal(t, "kW", rd.Datas[0].Unit)
	assert.Equal(t, 87.0, rd.Datas[1].Value)
	assert.Equal(t, 163.0, rd.Datas[2].Value)
	assert.Equal(t, 0.0, rd.Datas[3].Value)
	assert.Equal(t, "Grid Lost", rd.Datas[4].Text)
	assert.Equal(t, 0.0, rd.Datas[4].Value)

	soc, ok := rd.Find("SoC")
	require.True(t, ok)
	assert.Equal(t, 87.0, soc.Value)
	_, ok = rd.Find("missing")
	assert.False(t, ok)
}

func TestReportDimensionBuckets(t *testing.T) {
	feb := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 12, ReportDimensionYear.Buckets(feb))
	assert.Equal(t, 29, ReportDimensionMonth.Buckets(feb))
	assert.Equal(t, 24, ReportDimensionDay.Buckets(feb))
	assert.True(t, ReportDimensionMonth.Valid())
	assert.False(t, ReportDimension("week").Valid())
}
