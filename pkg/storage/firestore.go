package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/energystats/foxgate/pkg/common"
	"github.com/energystats/foxgate/pkg/log"
	"github.com/energystats/foxgate/pkg/types"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements CredentialStore using Google Cloud Firestore.
// Each profile is one document in the "credentials" collection holding the
// AES-GCM encrypted JSON of the credentials.
type FirestoreStore struct {
	client        *firestore.Client
	projectID     string
	database      string
	profile       string
	encryptionKey string

	mu     sync.Mutex
	cached *types.Credentials
}

var _ CredentialStore = (*FirestoreStore)(nil)

// configuredFirestore sets up the Firestore store.
// It registers flags for configuration.
func configuredFirestore() *FirestoreStore {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")
	profile := lflag.String("firestore-profile", "default", "Document ID the credentials are stored under")
	encryptionKey := lflag.String("credentials-encryption-key", "", "Key for encrypting credentials (32 bytes)")

	f := &FirestoreStore{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.profile = *profile
		f.encryptionKey = *encryptionKey

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the store is properly configured.
func (f *FirestoreStore) Validate() error {
	if f.profile == "" {
		return errors.New("firestore-profile cannot be empty")
	}
	if len(f.encryptionKey) != 32 {
		return errors.New("credentials-encryption-key must be 32 characters")
	}
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the store methods.
func (f *FirestoreStore) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database, option.WithUserAgent(common.UserAgent()))
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreStore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreStore) doc() *firestore.DocumentRef {
	return f.client.Collection("credentials").Doc(f.profile)
}

func (f *FirestoreStore) decode(ctx context.Context, doc *firestore.DocumentSnapshot, err error) (types.Credentials, error) {
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Credentials{}, nil
		}
		return types.Credentials{}, fmt.Errorf("failed to fetch credentials doc: %w", err)
	}
	val, err := doc.DataAt("encrypted")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "credentials doc missing encrypted", slog.String("profile", f.profile))
		return types.Credentials{}, fmt.Errorf("credentials document missing 'encrypted' field: %w", err)
	}
	encrypted, ok := val.([]byte)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "credentials doc encrypted not bytes", slog.String("profile", f.profile))
		return types.Credentials{}, errors.New("credentials 'encrypted' field is not bytes")
	}
	return decryptCredentials(ctx, f.encryptionKey, encrypted)
}

// Credentials returns the stored credentials, reading through to Firestore
// the first time.
func (f *FirestoreStore) Credentials(ctx context.Context) (types.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != nil {
		return *f.cached, nil
	}
	doc, err := f.doc().Get(ctx)
	creds, err := f.decode(ctx, doc, err)
	if err != nil {
		return types.Credentials{}, err
	}
	f.cached = &creds
	return creds, nil
}

// update applies fn to the stored credentials inside a transaction.
func (f *FirestoreStore) update(ctx context.Context, fn func(*types.Credentials)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ref := f.doc()
	var updated types.Credentials
	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		creds, err := f.decode(ctx, doc, err)
		if err != nil {
			return err
		}
		fn(&creds)
		encrypted, err := encryptCredentials(ctx, f.encryptionKey, creds)
		if err != nil {
			return err
		}
		updated = creds
		return tx.Set(ref, map[string]interface{}{
			"encrypted": encrypted,
			"updated":   firestore.ServerTimestamp,
		})
	})
	if err != nil {
		// drop the cache, we no longer know what is stored
		f.cached = nil
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	f.cached = &updated
	return nil
}

func (f *FirestoreStore) SetCredentials(ctx context.Context, username, md5Password string) error {
	return f.update(ctx, func(c *types.Credentials) {
		c.Username = username
		c.MD5Password = md5Password
	})
}

func (f *FirestoreStore) Token(ctx context.Context) (string, error) {
	creds, err := f.Credentials(ctx)
	if err != nil {
		return "", err
	}
	return creds.Token, nil
}

func (f *FirestoreStore) SetToken(ctx context.Context, token string) error {
	return f.update(ctx, func(c *types.Credentials) {
		c.Token = token
	})
}

func (f *FirestoreStore) ClearToken(ctx context.Context) error {
	return f.SetToken(ctx, "")
}

func (f *FirestoreStore) IsDemoUser(ctx context.Context) (bool, error) {
	creds, err := f.Credentials(ctx)
	if err != nil {
		return false, err
	}
	return creds.DemoUser, nil
}

func (f *FirestoreStore) SetDemoUser(ctx context.Context, demo bool) error {
	return f.update(ctx, func(c *types.Credentials) {
		c.DemoUser = demo
	})
}

// Clear deletes the profile document.
func (f *FirestoreStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.doc().Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		f.cached = nil
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	f.cached = &types.Credentials{}
	return nil
}
