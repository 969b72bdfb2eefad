package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/energystats/foxgate/pkg/gateway"
	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/types"
	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gateway is what the server needs from the gateway chain.
type Gateway interface {
	gateway.API

	Settings() types.Settings
	IsDemo(ctx context.Context) bool
}

// Server exposes the gateway chain as a local JSON API for dashboards.
type Server struct {
	gateway  Gateway
	recorder *gateway.Recorder

	listenAddr string
	httpServer *http.Server
	serverName string
	now        func() time.Time
}

// Configured initializes the Server with the gateway stack.
// It uses lflag to register command-line flags for configuration.
func Configured(gw *gateway.Stack) *Server {
	srv := &Server{
		serverName: "foxgate",
		now:        time.Now,
	}

	// get the port from PORT when running in a container
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}
	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")

	lflag.Do(func() {
		srv.gateway = gw
		srv.recorder = gw.Recorder
		srv.listenAddr = *listenAddr
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/devices", s.handleDeviceList)
	apiMux.HandleFunc("GET /api/devices/{sn}", s.handleDeviceDetail)
	apiMux.HandleFunc("GET /api/devices/{sn}/real", s.handleRealQuery)
	apiMux.HandleFunc("GET /api/devices/{sn}/history", s.handleHistoryQuery)
	apiMux.HandleFunc("GET /api/devices/{sn}/report", s.handleReportQuery)
	apiMux.HandleFunc("GET /api/devices/{sn}/overview", s.handleOverview)
	apiMux.HandleFunc("GET /api/devices/{sn}/battery/soc", s.handleGetBatterySOC)
	apiMux.HandleFunc("POST /api/devices/{sn}/battery/soc", s.handleSetBatterySOC)
	apiMux.HandleFunc("GET /api/devices/{sn}/scheduler/flag", s.handleGetSchedulerFlag)
	apiMux.HandleFunc("POST /api/devices/{sn}/scheduler/flag", s.handleSetSchedulerFlag)
	apiMux.HandleFunc("GET /api/devices/{sn}/scheduler", s.handleGetSchedule)
	apiMux.HandleFunc("POST /api/devices/{sn}/scheduler", s.handleSaveSchedule)
	apiMux.HandleFunc("GET /api/settings", s.handleGetSettings)
	apiMux.HandleFunc("POST /api/settings", s.handleUpdateSettings)
	apiMux.HandleFunc("GET /api/auth/status", s.handleAuthStatus)
	apiMux.HandleFunc("POST /api/auth/login", s.handleLogin)
	apiMux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	apiMux.HandleFunc("GET /api/debug/responses", s.handleDebugResponses)
	apiMux.HandleFunc("DELETE /api/debug/responses", s.handleResetDebugResponses)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.requestMiddleware(apiMux))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * gateway.DefaultTimeout,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
