package gateway

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/energystats/foxgate/pkg/log"
)

// catalogMessages maps language -> errno -> message.
type catalogMessages map[string]map[string]string

// catalog fetches the vendor's error message catalog once per process in the
// background. A failed fetch is not retried and every lookup then returns
// "Unknown".
type catalog struct {
	once     sync.Once
	loaded   chan struct{}
	fetch    func(ctx context.Context) (catalogMessages, error)
	messages catalogMessages
}

func newCatalog(fetch func(ctx context.Context) (catalogMessages, error)) *catalog {
	return &catalog{fetch: fetch, loaded: make(chan struct{})}
}

// load starts the fetch on first use and returns a channel that is closed
// once it has finished.
func (c *catalog) load(ctx context.Context) <-chan struct{} {
	c.once.Do(func() {
		// the fetch outlives whichever caller started it
		ctx := context.WithoutCancel(ctx)
		go func() {
			defer close(c.loaded)
			msgs, err := c.fetch(ctx)
			if err != nil {
				log.Ctx(ctx).WarnContext(ctx, "failed to fetch error message catalog", slog.Any("error", err))
				return
			}
			c.messages = msgs
		}()
	})
	return c.loaded
}

// Message returns the localized message for errno, falling back to the base
// language ("de" for "de-AT") and then to "Unknown". It waits for the catalog
// no longer than ctx allows.
func (c *catalog) Message(ctx context.Context, language string, errno int) string {
	loaded := c.load(ctx)
	select {
	case <-loaded:
	default:
		select {
		case <-loaded:
		case <-ctx.Done():
			return unknownMessage
		}
	}
	code := strconv.Itoa(errno)
	for _, lang := range languageCandidates(language) {
		if msg, ok := c.messages[lang][code]; ok && msg != "" {
			return msg
		}
	}
	return unknownMessage
}

func languageCandidates(language string) []string {
	language = strings.TrimSpace(language)
	if language == "" {
		return []string{"en"}
	}
	out := []string{language}
	if i := strings.IndexAny(language, "-_"); i > 0 {
		out = append(out, language[:i])
	}
	return out
}
