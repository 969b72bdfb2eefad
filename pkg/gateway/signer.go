package gateway

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/energystats/foxgate/pkg/common"
	"github.com/energystats/foxgate/pkg/types"
)

// Signer builds the header set for outbound requests.
type Signer struct {
	userAgent string
	now       func() time.Time
}

// NewSigner returns a Signer using the application user-agent and the wall
// clock.
func NewSigner() *Signer {
	return &Signer{
		userAgent: common.UserAgent(),
		now:       time.Now,
	}
}

// Signature returns the hex MD5 of path, token and timestamp joined by CRLF.
// token is empty for unauthenticated requests.
func Signature(path, token, timestamp string) string {
	sum := md5.Sum([]byte(path + "\r\n" + token + "\r\n" + timestamp))
	return hex.EncodeToString(sum[:])
}

// Headers returns the headers for req. The timestamp is taken from the clock
// on every call so no two requests share a signature.
func (s *Signer) Headers(req Request, token string, settings types.Settings) http.Header {
	settings = settings.WithDefaults()
	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)

	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", settings.Language)
	h.Set("User-Agent", s.userAgent)
	if token != "" {
		h.Set("token", token)
	}
	h.Set("lang", settings.Language)
	h.Set("timezone", settings.TimeZone)
	h.Set("timestamp", timestamp)
	h.Set("signature", Signature(req.Path, token, timestamp))
	return h
}
