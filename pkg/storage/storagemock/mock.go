package storagemock

import (
	"context"

	"github.com/energystats/foxgate/pkg/storage"
	"github.com/energystats/foxgate/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

var _ storage.CredentialStore = (*MockStore)(nil)

func (m *MockStore) Credentials(ctx context.Context) (types.Credentials, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).(types.Credentials), args.Error(1)
	}
	return types.Credentials{}, nil
}

func (m *MockStore) SetCredentials(ctx context.Context, username, md5Password string) error {
	args := m.Called(ctx, username, md5Password)
	return args.Error(0)
}

func (m *MockStore) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.String(0), args.Error(1)
	}
	return "", nil
}

func (m *MockStore) SetToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockStore) ClearToken(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) IsDemoUser(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Bool(0), args.Error(1)
	}
	return false, nil
}

func (m *MockStore) SetDemoUser(ctx context.Context, demo bool) error {
	args := m.Called(ctx, demo)
	return args.Error(0)
}

func (m *MockStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
