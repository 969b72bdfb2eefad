package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"syscall"
)

// envelope is the wrapper the vendor puts around every payload.
type envelope struct {
	Errno  int             `json:"errno"`
	Msg    string          `json:"msg"`
	Result json.RawMessage `json:"result"`
	// Raw is the undecoded response body.
	Raw []byte `json:"-"`
}

func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, err
	}
	env.Raw = body
	return env, nil
}

// hasResult returns false when result is missing or null.
func (e envelope) hasResult() bool {
	trimmed := bytes.TrimSpace(e.Result)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// classifyTransport turns a failed exchange into offline or timed-out. Any
// other failure is returned unchanged.
func classifyTransport(url string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimedOut, URL: url, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimedOut, URL: url, Err: err}
	}
	if isOffline(err) {
		return &Error{Kind: KindOffline, URL: url, Err: err}
	}
	return err
}

func isOffline(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETDOWN):
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
