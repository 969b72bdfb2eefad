package main

import (
	"context"
	"os"

	"github.com/energystats/foxgate/pkg/gateway"
	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/storage"
	"github.com/levenlabs/go-lflag"
)

// seed writes an account into the credential store of the local Firestore
// emulator so a development server starts logged in.
func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured()
	username := lflag.String("seed-username", gateway.DemoUsername, "Username to store, the demo user by default")
	password := lflag.String("seed-password", gateway.DemoPassword, "Password to store")
	lflag.Configure()

	ctx := context.Background()
	defer s.Close()

	if err := s.Clear(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to clear credentials", "error", err)
		os.Exit(1)
	}

	if *username == gateway.DemoUsername && *password == gateway.DemoPassword {
		if err := s.SetDemoUser(ctx, true); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to store demo flag", "error", err)
			os.Exit(1)
		}
		log.Ctx(ctx).InfoContext(ctx, "seeded demo user")
		return
	}

	// no token is stored, the first call logs in with these
	if err := s.SetCredentials(ctx, *username, gateway.HashPassword(*password)); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to store credentials", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "seeded credentials", "username", *username)
}
