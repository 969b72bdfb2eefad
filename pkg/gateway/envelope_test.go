package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := decodeEnvelope([]byte(`{"errno":0,"msg":"success","result":{"token":"x"}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, env.Errno)
	assert.True(t, env.hasResult())
	assert.Contains(t, string(env.Raw), `"token":"x"`)

	env, err = decodeEnvelope([]byte(`{"errno":0,"result":null}`))
	require.NoError(t, err)
	assert.False(t, env.hasResult())

	env, err = decodeEnvelope([]byte(`{"errno":41808}`))
	require.NoError(t, err)
	assert.Equal(t, 41808, env.Errno)
	assert.False(t, env.hasResult())

	_, err = decodeEnvelope([]byte(`<html>bad gateway</html>`))
	assert.Error(t, err)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyTransport(t *testing.T) {
	const u = "https://example.com/op/v0/device/list"

	err := classifyTransport(u, fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
	assert.True(t, IsKind(err, KindTimedOut))

	err = classifyTransport(u, timeoutErr{})
	assert.True(t, IsKind(err, KindTimedOut))

	err = classifyTransport(u, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED})
	assert.True(t, IsKind(err, KindOffline))
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, u, gwErr.URL)

	err = classifyTransport(u, &net.DNSError{Err: "no such host", Name: "example.com"})
	assert.True(t, IsKind(err, KindOffline))

	// cancellation and anything else propagate unchanged
	assert.Equal(t, context.Canceled, classifyTransport(u, context.Canceled))
	other := errors.New("tls: bad certificate")
	assert.Equal(t, other, classifyTransport(u, other))
}
