package types

import (
	"fmt"
	"strings"
)

// DataCeiling controls how aggressively suspicious telemetry readings are
// repaired before they are returned to callers.
type DataCeiling int

const (
	DataCeilingNone DataCeiling = iota
	DataCeilingMild
	DataCeilingEnhanced
)

// String returns the flag/JSON name of the ceiling.
func (d DataCeiling) String() string {
	switch d {
	case DataCeilingNone:
		return "none"
	case DataCeilingMild:
		return "mild"
	case DataCeilingEnhanced:
		return "enhanced"
	default:
		return fmt.Sprintf("DataCeiling(%d)", int(d))
	}
}

// Mask returns the bit mask applied to the fixed-point register of a reading.
func (d DataCeiling) Mask() uint32 {
	switch d {
	case DataCeilingMild:
		return 0xFFF00000
	case DataCeilingEnhanced:
		return 0xFFFF0000
	default:
		return 0x00000000
	}
}

// ParseDataCeiling parses the name of a data ceiling level.
func ParseDataCeiling(s string) (DataCeiling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return DataCeilingNone, nil
	case "mild":
		return DataCeilingMild, nil
	case "enhanced":
		return DataCeilingEnhanced, nil
	default:
		return DataCeilingNone, fmt.Errorf("unknown data ceiling: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d DataCeiling) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DataCeiling) UnmarshalText(b []byte) error {
	v, err := ParseDataCeiling(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Settings represents the client configuration injected into the gateway.
// These can be changed at runtime without rebuilding the gateway chain.
type Settings struct {
	// DemoMode forces every call onto the demo fixtures regardless of the
	// stored credentials.
	DemoMode bool `json:"demoMode"`

	// DataCeiling is the sensitivity of the sensor value repair filter.
	DataCeiling DataCeiling `json:"dataCeiling"`

	// Language is sent in the lang/Accept-Language headers and selects the
	// error message catalog.
	Language string `json:"language"`

	// TimeZone is the IANA name sent in the timezone header.
	TimeZone string `json:"timeZone"`
}

// WithDefaults fills in any unset fields.
func (s Settings) WithDefaults() Settings {
	if s.Language == "" {
		s.Language = "en"
	}
	if s.TimeZone == "" {
		s.TimeZone = "UTC"
	}
	return s
}

// Credentials are what the credential store persists for the vendor account.
type Credentials struct {
	Username    string `json:"username,omitempty"`
	MD5Password string `json:"md5Password,omitempty"`
	// Token is the opaque session token. It is never interpreted, only sent
	// back to the vendor or cleared when the vendor rejects it.
	Token    string `json:"token,omitempty"`
	DemoUser bool   `json:"demoUser,omitempty"`
}
