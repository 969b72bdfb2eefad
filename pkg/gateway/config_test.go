package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/energystats/foxgate/pkg/storage"
	"github.com/energystats/foxgate/pkg/types"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack(t *testing.T) {
	ctx := context.Background()
	f := newFakeVendor(t)
	f.handle(pathRealQuery, func(r *http.Request, body map[string]any) any {
		return realResult("SN1", 20153976.9)
	})
	store := storage.NewMemoryStore()
	s := New(f.URL, store, types.Settings{DataCeiling: types.DataCeilingMild})
	t.Cleanup(s.Close)

	assert.Equal(t, "en", s.Settings().Language)
	require.NoError(t, s.Login(ctx, "alice", "secret"))

	res, err := s.RealQuery(ctx, "SN1", []string{"pvPower"})
	require.NoError(t, err)
	assert.InDelta(t, 21317.7, res[0].Datas[0].Value, 1e-6)
	_, err = s.RealQuery(ctx, "SN1", []string{"pvPower"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(pathRealQuery), "second read is cached")

	require.NoError(t, s.ApplySettings(ctx, types.Settings{DataCeiling: types.DataCeilingNone}))
	assert.Equal(t, types.DataCeilingNone, s.Settings().DataCeiling)
	res, err = s.RealQuery(ctx, "SN1", []string{"pvPower"})
	require.NoError(t, err)
	assert.Equal(t, 20153976.9, res[0].Datas[0].Value)
	assert.Equal(t, 2, f.count(pathRealQuery))

	require.NoError(t, s.Login(ctx, DemoUsername, DemoPassword))
	assert.True(t, s.IsDemo(ctx))
	devices, err := s.DeviceList(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, len(demoDevices))
	assert.Zero(t, f.count(pathDeviceList))

	recs := s.Recorder.Latest()
	assert.NotEmpty(t, recs)
}

func cacheLookups(t *testing.T, result string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metricCacheLookups.WithLabelValues(result).Write(&m))
	return m.GetCounter().GetValue()
}

func TestStackDemoSkipsCache(t *testing.T) {
	ctx := context.Background()
	f := newFakeVendor(t)
	f.handle(pathRealQuery, func(r *http.Request, body map[string]any) any {
		return realResult("SN1", 1)
	})
	s := New(f.URL, loggedInStore(t, "T"), types.Settings{})
	t.Cleanup(s.Close)

	_, err := s.RealQuery(ctx, "SN1", []string{"pvPower"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(pathRealQuery))

	require.NoError(t, s.Login(ctx, DemoUsername, DemoPassword))
	hits, misses := cacheLookups(t, "hit"), cacheLookups(t, "miss")
	for range 3 {
		res, err := s.RealQuery(ctx, demoDevices[0].DeviceSN, []string{"pvPower"})
		require.NoError(t, err)
		assert.Equal(t, demoDevices[0].DeviceSN, res[0].DeviceSN)
	}
	assert.Equal(t, hits, cacheLookups(t, "hit"))
	assert.Equal(t, misses, cacheLookups(t, "miss"))
	assert.Equal(t, 1, f.count(pathRealQuery))

	var keys int
	s.Cache.entries.Range(func(k, v any) bool {
		keys++
		return true
	})
	assert.LessOrEqual(t, keys, 1, "demo reads are never cached")
}

func TestStackLoginFromFlags(t *testing.T) {
	ctx := context.Background()
	f := newFakeVendor(t)
	store := storage.NewMemoryStore()
	s := New(f.URL, store, types.Settings{})
	t.Cleanup(s.Close)

	require.NoError(t, s.LoginFromFlags(ctx))
	assert.Zero(t, f.loginCount(), "nothing configured")

	s.username = "alice"
	s.password = "secret"
	require.NoError(t, s.LoginFromFlags(ctx))
	assert.Equal(t, 1, f.loginCount())

	require.NoError(t, s.LoginFromFlags(ctx))
	assert.Equal(t, 1, f.loginCount(), "stored session is reused")
}
