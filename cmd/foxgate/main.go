package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/energystats/foxgate/pkg/gateway"
	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/server"
	"github.com/energystats/foxgate/pkg/storage"

	"github.com/levenlabs/go-lflag"
)

func main() {
	// init packages
	s := storage.Configured()
	gw := gateway.Configured(s)

	// init server
	srv := server.Configured(gw)

	// parse flags
	lflag.Configure()

	level, err := log.FlagLevel()
	if err != nil {
		panic(err)
	}
	log.SetDefaultLogLevel(level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// If initialization inside lflag.Do failed, we wouldn't be here (panic).
	defer func() {
		gw.Close()
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", slog.Any("error", err))
		}
	}()

	// a failed login is not fatal, the dashboard can still login later
	if err := gw.LoginFromFlags(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to login with configured credentials", slog.Any("error", err))
	}

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
