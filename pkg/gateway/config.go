package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/storage"
	"github.com/energystats/foxgate/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// Stack is the composed gateway chain:
//
//	Router -> Cache -> Repair -> Network
//	       \-> Demo
//
// It implements API by delegating to the Router and remembers the last
// applied settings.
type Stack struct {
	API

	Router   *Router
	Cache    *Cache
	Repair   *Repair
	Network  *Network
	Demo     *Demo
	Recorder *Recorder

	store    storage.CredentialStore
	username string
	password string

	mu       sync.RWMutex
	settings types.Settings
}

// New composes the chain against baseURL using store for the session.
func New(baseURL string, store storage.CredentialStore, settings types.Settings) *Stack {
	s := &Stack{}
	s.init(baseURL, store, settings)
	return s
}

func (s *Stack) init(baseURL string, store storage.CredentialStore, settings types.Settings) {
	settings = settings.WithDefaults()

	s.store = store
	s.Recorder = NewRecorder()
	s.Network = NewNetwork(baseURL, store, s.Recorder)
	s.Repair = NewRepair(s.Network, settings.DataCeiling)
	s.Cache = NewCache(s.Repair, DefaultCacheTTL)
	s.Demo = NewDemo()
	s.Router = NewRouter(s.Cache, s.Demo, store)
	s.API = s.Router

	// none of the layers can fail applying settings at construction
	_ = s.Router.ApplySettings(context.Background(), settings)
	s.settings = settings
}

// Configured registers the gateway flags and composes the chain once flags
// are parsed.
func Configured(store storage.CredentialStore) *Stack {
	baseURL := lflag.String("fox-base-url", DefaultBaseURL, "Base URL of the FoxESS cloud API")
	username := lflag.String("fox-username", "", "FoxESS cloud username used to login at startup")
	password := lflag.String("fox-password", "", "FoxESS cloud password used to login at startup")
	demoMode := lflag.Bool("demo-mode", false, "Serve demo data instead of calling the FoxESS cloud")
	dataCeiling := lflag.String("data-ceiling", "none", "Sensitivity of the telemetry repair filter (none, mild, enhanced)")
	language := lflag.String("language", "en", "Language for vendor messages")
	timezone := lflag.String("timezone", "UTC", "IANA timezone sent to the vendor")

	s := &Stack{}

	lflag.Do(func() {
		ceiling, err := types.ParseDataCeiling(*dataCeiling)
		if err != nil {
			panic(fmt.Sprintf("invalid data-ceiling: %v", err))
		}
		s.init(*baseURL, store, types.Settings{
			DemoMode:    *demoMode,
			DataCeiling: ceiling,
			Language:    *language,
			TimeZone:    *timezone,
		})
		s.username = *username
		s.password = *password
	})

	return s
}

// Settings returns the settings last applied to the chain.
func (s *Stack) Settings() types.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// ApplySettings applies settings to the whole chain.
func (s *Stack) ApplySettings(ctx context.Context, settings types.Settings) error {
	settings = settings.WithDefaults()
	if err := s.Router.ApplySettings(ctx, settings); err != nil {
		return err
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	log.Ctx(ctx).InfoContext(ctx, "applied settings",
		slog.Bool("demoMode", settings.DemoMode),
		slog.String("dataCeiling", settings.DataCeiling.String()),
		slog.String("language", settings.Language),
		slog.String("timeZone", settings.TimeZone),
	)
	return nil
}

// IsDemo returns true when calls are currently served by the demo source.
func (s *Stack) IsDemo(ctx context.Context) bool {
	return s.Router.IsDemo(ctx)
}

// LoginFromFlags logs in with the configured username and password unless a
// session is already stored.
func (s *Stack) LoginFromFlags(ctx context.Context) error {
	if s.username == "" || s.password == "" {
		return nil
	}
	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}
	if creds.Token != "" && creds.Username == s.username {
		log.Ctx(ctx).DebugContext(ctx, "reusing stored session", slog.String("username", s.username))
		return nil
	}
	return s.Login(ctx, s.username, s.password)
}

// Close stops the cache writer.
func (s *Stack) Close() {
	s.Cache.Close()
}
