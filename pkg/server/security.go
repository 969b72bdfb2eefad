package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/energystats/foxgate/pkg/log"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME-sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// readings change every few seconds
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requestMiddleware tags the request with an id, puts a logger carrying it
// into the context and records the outcome.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := log.WithAttrs(r.Context(),
			slog.String("requestID", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		r = r.WithContext(ctx)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metricHTTPRequests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		log.Ctx(ctx).DebugContext(ctx, "handled request",
			slog.Int("status", sw.status),
			slog.Duration("took", time.Since(start)),
		)
	})
}
