package storage

import (
	"context"
	"sync"

	"github.com/energystats/foxgate/pkg/types"
)

// MemoryStore is a CredentialStore that only lives as long as the process.
type MemoryStore struct {
	mu    sync.RWMutex
	creds types.Credentials
}

var _ CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Credentials(ctx context.Context) (types.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

func (m *MemoryStore) SetCredentials(ctx context.Context, username, md5Password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.Username = username
	m.creds.MD5Password = md5Password
	return nil
}

func (m *MemoryStore) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.Token, nil
}

func (m *MemoryStore) SetToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.Token = token
	return nil
}

func (m *MemoryStore) ClearToken(ctx context.Context) error {
	return m.SetToken(ctx, "")
}

func (m *MemoryStore) IsDemoUser(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.DemoUser, nil
}

func (m *MemoryStore) SetDemoUser(ctx context.Context, demo bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.DemoUser = demo
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = types.Credentials{}
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
