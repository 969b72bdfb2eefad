package storage

import (
	"context"
	"testing"

	"github.com/energystats/foxgate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "0123456789abcdef0123456789abcdef"

func TestCredentialsEncryption(t *testing.T) {
	ctx := context.Background()
	creds := types.Credentials{
		Username:    "user@example.com",
		MD5Password: "hash",
		Token:       "tok",
		DemoUser:    true,
	}

	t.Run("RoundTrip", func(t *testing.T) {
		enc, err := encryptCredentials(ctx, testEncryptionKey, creds)
		require.NoError(t, err)
		assert.NotContains(t, string(enc), "user@example.com")

		dec, err := decryptCredentials(ctx, testEncryptionKey, enc)
		require.NoError(t, err)
		assert.Equal(t, creds, dec)
	})

	t.Run("Empty", func(t *testing.T) {
		dec, err := decryptCredentials(ctx, testEncryptionKey, nil)
		require.NoError(t, err)
		assert.Equal(t, types.Credentials{}, dec)
	})

	t.Run("WrongKey", func(t *testing.T) {
		enc, err := encryptCredentials(ctx, testEncryptionKey, creds)
		require.NoError(t, err)
		_, err = decryptCredentials(ctx, "fedcba9876543210fedcba9876543210", enc)
		assert.ErrorContains(t, err, "failed to decrypt credentials")
	})

	t.Run("BadKeyLength", func(t *testing.T) {
		_, err := encryptCredentials(ctx, "short", creds)
		assert.ErrorContains(t, err, "must be 32 bytes")
		_, err = encryptCredentials(ctx, "", creds)
		assert.ErrorContains(t, err, "no credentials encryption key")
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := decryptCredentials(ctx, testEncryptionKey, []byte{1, 2, 3})
		assert.ErrorContains(t, err, "malformed encrypted credentials")
	})
}
