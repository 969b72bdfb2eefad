package gateway

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories a gateway call can produce.
type Kind int

const (
	KindUnknown Kind = iota
	KindBadCredentials
	KindInvalidToken
	KindTryLater
	KindRequestLimitExhausted
	KindMaintenance
	KindVendor
	KindInvalidResponse
	KindMissingData
	KindOffline
	KindTimedOut
	KindRequiresSignature
)

var kindNames = map[Kind]string{
	KindUnknown:               "unknown",
	KindBadCredentials:        "bad_credentials",
	KindInvalidToken:          "invalid_token",
	KindTryLater:              "try_later",
	KindRequestLimitExhausted: "request_limit_exhausted",
	KindMaintenance:           "maintenance",
	KindVendor:                "vendor",
	KindInvalidResponse:       "invalid_response",
	KindMissingData:           "missing_data",
	KindOffline:               "offline",
	KindTimedOut:              "timed_out",
	KindRequiresSignature:     "requires_signature",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Error is the typed error returned by every gateway call. Which fields are
// populated depends on Kind:
//   - KindVendor: Code, Message
//   - KindInvalidResponse: URL, Status
//   - KindOffline, KindTimedOut: URL, Err
//   - KindUnknown: Message
//
// The mapped vendor kinds (bad credentials, invalid token, try later, ...)
// also carry the errno they were classified from in Code.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	URL     string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBadCredentials:
		return "bad credentials"
	case KindInvalidToken:
		return "invalid or expired token"
	case KindTryLater:
		return "server busy, try later"
	case KindRequestLimitExhausted:
		return "api request limit exhausted"
	case KindMaintenance:
		return "server under maintenance"
	case KindVendor:
		return fmt.Sprintf("vendor error %d: %s", e.Code, e.Message)
	case KindInvalidResponse:
		if e.Err != nil {
			return fmt.Sprintf("invalid response from %s (status %d): %v", e.URL, e.Status, e.Err)
		}
		return fmt.Sprintf("invalid response from %s (status %d)", e.URL, e.Status)
	case KindMissingData:
		if e.Message != "" {
			return "missing data: " + e.Message
		}
		return "missing data"
	case KindOffline:
		return "offline"
	case KindTimedOut:
		return "request timed out"
	case KindRequiresSignature:
		return "request requires signature"
	default:
		if e.Message != "" {
			return "unknown error: " + e.Message
		}
		if e.Err != nil {
			return "unknown error: " + e.Err.Error()
		}
		return "unknown error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets the Err* sentinels match any error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Code == 0 && t.Message == "" && t.URL == "" && t.Status == 0 && t.Err == nil
}

// Sentinels for use with errors.Is.
var (
	ErrUnknown               = &Error{Kind: KindUnknown}
	ErrBadCredentials        = &Error{Kind: KindBadCredentials}
	ErrInvalidToken          = &Error{Kind: KindInvalidToken}
	ErrTryLater              = &Error{Kind: KindTryLater}
	ErrRequestLimitExhausted = &Error{Kind: KindRequestLimitExhausted}
	ErrMaintenance           = &Error{Kind: KindMaintenance}
	ErrVendor                = &Error{Kind: KindVendor}
	ErrInvalidResponse       = &Error{Kind: KindInvalidResponse}
	ErrMissingData           = &Error{Kind: KindMissingData}
	ErrOffline               = &Error{Kind: KindOffline}
	ErrTimedOut              = &Error{Kind: KindTimedOut}
	ErrRequiresSignature     = &Error{Kind: KindRequiresSignature}
)

// KindOf returns the kind of err, or KindUnknown if err is not a gateway error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind returns true if err is a gateway error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

const unknownMessage = "Unknown"

// vendor errno values with a dedicated kind
const (
	errnoMaintenance           = 30000
	errnoTryLater              = 40401
	errnoRequestLimitExhausted = 40402
	errnoInvalidParameter      = 40257
	errnoBadCredentials        = 41807
	errnoInvalidToken          = 41808
	errnoTokenExpired          = 41809
	errnoTokenMissing          = 41810
)

var errnoKinds = map[int]Kind{
	errnoBadCredentials:        KindBadCredentials,
	errnoInvalidToken:          KindInvalidToken,
	errnoTokenExpired:          KindInvalidToken,
	errnoTokenMissing:          KindInvalidToken,
	errnoTryLater:              KindTryLater,
	errnoRequestLimitExhausted: KindRequestLimitExhausted,
	errnoMaintenance:           KindMaintenance,
}

const invalidParameterMessage = "Parameter does not meet expectations"

// invalidParameter is the vendor's rejection of a request argument, raised
// locally for arguments that are known to be rejected.
func invalidParameter() error {
	return Classify(errnoInvalidParameter, invalidParameterMessage)
}

// Classify maps a non-zero vendor errno to an Error. message is the localized
// text for the code; an empty message becomes "Unknown".
func Classify(errno int, message string) *Error {
	if kind, ok := errnoKinds[errno]; ok {
		return &Error{Kind: kind, Code: errno}
	}
	if message == "" {
		message = unknownMessage
	}
	if errno > 0 {
		return &Error{Kind: KindVendor, Code: errno, Message: message}
	}
	return &Error{Kind: KindUnknown, Code: errno, Message: message}
}
