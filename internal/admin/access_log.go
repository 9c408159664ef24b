package admin

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/emperorhan/incentives-indexer/internal/metrics"
)

const requestIDHeader = "X-Request-Id"

// AccessLogMiddleware logs every request and counts it by matched route and
// status code. An incoming X-Request-Id is kept, otherwise one is assigned.
func AccessLogMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	accessLogger := logger.With("component", "admin_access")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)

		// The mux records the matched pattern on the request it was handed.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.AdminRequestsTotal.WithLabelValues(route, strconv.Itoa(sw.statusCode)).Inc()

		level := slog.LevelDebug
		if sw.statusCode >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		accessLogger.Log(r.Context(), level, "admin API request",
			"request_id", requestID,
			"remote_addr", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"response_status", sw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.written {
		sw.statusCode = code
		sw.written = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if !sw.written {
		sw.written = true
	}
	return sw.ResponseWriter.Write(b)
}
