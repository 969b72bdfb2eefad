package storage

import (
	"context"
	"fmt"

	"github.com/energystats/foxgate/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// CredentialStore persists the vendor session across process restarts. It
// holds the account credentials, the opaque session token and whether the
// user is a demo user.
type CredentialStore interface {
	// Credentials returns everything currently stored.
	Credentials(ctx context.Context) (types.Credentials, error)
	// SetCredentials stores the username and hashed password used to login.
	SetCredentials(ctx context.Context, username, md5Password string) error

	// Token returns the stored session token or an empty string.
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error

	IsDemoUser(ctx context.Context) (bool, error)
	SetDemoUser(ctx context.Context, demo bool) error

	// Clear removes everything, used on logout.
	Clear(ctx context.Context) error

	// Lifecycle
	Close() error
}

// Configured sets up the CredentialStore based on flags.
func Configured() CredentialStore {
	provider := lflag.String("credential-store", "memory", "Credential store to use (available: memory, firestore)")

	var p struct{ CredentialStore }

	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "memory":
			p.CredentialStore = NewMemoryStore()
		case "firestore":
			if err := fs.Validate(); err != nil {
				panic(fmt.Sprintf("firestore validation failed: %v", err))
			}
			p.CredentialStore = fs
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
		default:
			panic(fmt.Sprintf("unknown credential store: %s", *provider))
		}
	})

	return &p
}
