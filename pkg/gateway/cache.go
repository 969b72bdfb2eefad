package gateway

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/types"
)

// DefaultCacheTTL is how long a real-time reading is served from the cache.
const DefaultCacheTTL = 5 * time.Second

type cacheEntry struct {
	value    []types.RealData
	captured time.Time
}

type cacheWrite struct {
	key   string
	entry cacheEntry
	// purge drops every entry instead of storing one
	purge bool
	ack   chan struct{}
}

// Cache memoizes RealQuery for a short window. Everything else passes through
// to the wrapped API.
//
// Reads hit the map without locking. All writes are applied in order by a
// single writer goroutine so concurrent fetches of different keys cannot
// interleave their updates.
type Cache struct {
	API

	ttl time.Duration
	now func() time.Time

	entries sync.Map
	writes  chan cacheWrite
	done    chan struct{}
	closing sync.Once
}

var _ API = (*Cache)(nil)

// NewCache wraps api and starts the writer. Call Close to stop it.
func NewCache(api API, ttl time.Duration) *Cache {
	return newCache(api, ttl, time.Now)
}

func newCache(api API, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{
		API:    api,
		ttl:    ttl,
		now:    now,
		writes: make(chan cacheWrite),
		done:   make(chan struct{}),
	}
	go c.writer()
	return c
}

func (c *Cache) writer() {
	for {
		select {
		case w := <-c.writes:
			select {
			case <-c.done:
			default:
				c.apply(w)
			}
			close(w.ack)
		case <-c.done:
			return
		}
	}
}

func (c *Cache) apply(w cacheWrite) {
	if w.purge {
		c.entries.Range(func(k, _ any) bool {
			c.entries.Delete(k)
			return true
		})
		return
	}
	if v, ok := c.entries.Load(w.key); ok && v.(cacheEntry).captured.After(w.entry.captured) {
		// a slower fetch must not replace a newer one
		return
	}
	c.entries.Store(w.key, w.entry)
}

// submit hands w to the writer and waits until it was applied. After Close
// writes are dropped.
func (c *Cache) submit(w cacheWrite) {
	select {
	case <-c.done:
		return
	default:
	}
	w.ack = make(chan struct{})
	select {
	case c.writes <- w:
	case <-c.done:
		return
	}
	select {
	case <-w.ack:
	case <-c.done:
	}
}

// Close stops the writer goroutine. The cache keeps serving reads afterwards
// but stores nothing new.
func (c *Cache) Close() {
	c.closing.Do(func() {
		close(c.done)
	})
}

// cacheKey identifies a RealQuery regardless of the order variables were
// passed in.
func cacheKey(sn string, variables []string) string {
	vars := slices.Clone(variables)
	slices.Sort(vars)
	vars = slices.Compact(vars)
	return "real|" + sn + "|" + strings.Join(vars, ",")
}

func (c *Cache) RealQuery(ctx context.Context, sn string, variables []string) ([]types.RealData, error) {
	key := cacheKey(sn, variables)
	if v, ok := c.entries.Load(key); ok {
		entry := v.(cacheEntry)
		if c.now().Sub(entry.captured) < c.ttl {
			metricCacheLookups.WithLabelValues("hit").Inc()
			return cloneRealData(entry.value), nil
		}
	}
	metricCacheLookups.WithLabelValues("miss").Inc()

	res, err := c.API.RealQuery(ctx, sn, variables)
	if err != nil {
		return nil, err
	}
	c.submit(cacheWrite{
		key: key,
		entry: cacheEntry{
			value:    cloneRealData(res),
			captured: c.now(),
		},
	})
	return res, nil
}

// Login drops cached readings of the previous session.
func (c *Cache) Login(ctx context.Context, username, password string) error {
	err := c.API.Login(ctx, username, password)
	c.purge(ctx)
	return err
}

func (c *Cache) Logout(ctx context.Context) error {
	err := c.API.Logout(ctx)
	c.purge(ctx)
	return err
}

// ApplySettings drops cached readings since they were repaired with the old
// ceiling.
func (c *Cache) ApplySettings(ctx context.Context, settings types.Settings) error {
	err := c.API.ApplySettings(ctx, settings)
	c.purge(ctx)
	return err
}

func (c *Cache) purge(ctx context.Context) {
	log.Ctx(ctx).DebugContext(ctx, "purging response cache", slog.String("reason", "session or settings changed"))
	c.submit(cacheWrite{purge: true})
}

func cloneRealData(in []types.RealData) []types.RealData {
	if in == nil {
		return nil
	}
	out := make([]types.RealData, len(in))
	for i, d := range in {
		out[i] = d
		out[i].Datas = slices.Clone(d.Datas)
	}
	return out
}
