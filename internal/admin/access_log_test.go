package admin

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/emperorhan/incentives-indexer/internal/metrics"
)

func TestAccessLogMiddleware_LogsAndCountsRoute(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := AccessLogMiddleware(logger, mux)

	counter := metrics.AdminRequestsTotal.WithLabelValues("GET /v1/things/{id}", "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/things/abc", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("expected route counter to increase by 1, got %v", got)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("expected request id header")
	}
	logOutput := logBuf.String()
	if !strings.Contains(logOutput, "admin API request") {
		t.Error("expected access log entry")
	}
	if !strings.Contains(logOutput, "/v1/things/abc") {
		t.Error("expected path in access log")
	}
}

func TestAccessLogMiddleware_KeepsIncomingRequestID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	handler := AccessLogMiddleware(logger, okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "req-123" {
		t.Errorf("expected request id req-123, got %q", got)
	}
}

func TestAccessLogMiddleware_WarnsOnServerErrors(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	handler := AccessLogMiddleware(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/status", nil))

	logOutput := logBuf.String()
	if !strings.Contains(logOutput, `"level":"WARN"`) {
		t.Error("expected warn-level access log for 500")
	}
	if !strings.Contains(logOutput, "500") {
		t.Error("expected response status 500 in access log")
	}
}
