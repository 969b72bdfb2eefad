package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/energystats/foxgate/pkg/gateway"
	"github.com/energystats/foxgate/pkg/log"
)

type errorResponse struct {
	Error  string       `json:"error"`
	Kind   gateway.Kind `json:"kind"`
	Code   int          `json:"code,omitempty"`
	URL    string       `json:"url,omitempty"`
	Status int          `json:"status,omitempty"`
}

// statusForKind maps a gateway error kind to the status returned to
// dashboard clients.
func statusForKind(kind gateway.Kind) int {
	switch kind {
	case gateway.KindBadCredentials, gateway.KindInvalidToken:
		return http.StatusUnauthorized
	case gateway.KindRequiresSignature:
		return http.StatusBadRequest
	case gateway.KindTryLater, gateway.KindRequestLimitExhausted:
		return http.StatusTooManyRequests
	case gateway.KindMaintenance:
		return http.StatusServiceUnavailable
	case gateway.KindOffline, gateway.KindInvalidResponse:
		return http.StatusBadGateway
	case gateway.KindTimedOut:
		return http.StatusGatewayTimeout
	case gateway.KindMissingData:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeGatewayError renders err with the structured detail of its kind.
func writeGatewayError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		// client went away, nobody is listening
		return
	}
	resp := errorResponse{
		Error: err.Error(),
		Kind:  gateway.KindOf(err),
	}
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		resp.Code = gwErr.Code
		resp.URL = gwErr.URL
		resp.Status = gwErr.Status
	}
	code := statusForKind(resp.Kind)
	if code >= http.StatusInternalServerError {
		log.Ctx(ctx).ErrorContext(ctx, "gateway call failed", slog.Any("error", err))
	} else {
		log.Ctx(ctx).WarnContext(ctx, "gateway call failed", slog.Any("error", err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, resp)
}
