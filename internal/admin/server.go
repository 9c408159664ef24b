package admin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/emperorhan/incentives-indexer/internal/domain/model"
	"github.com/emperorhan/incentives-indexer/internal/pipeline"
	"github.com/emperorhan/incentives-indexer/internal/store"
)

// reserveIDLength is the length of underlying || pool, both 0x-prefixed.
const reserveIDLength = 2 * 42

// HealthProvider returns per-stream pipeline health. In production this is
// satisfied by *pipeline.Registry.
type HealthProvider interface {
	HealthSnapshots() []pipeline.HealthSnapshot
}

// Server exposes the read-only query API over the reconciled snapshot.
type Server struct {
	reader         store.Reader
	healthProvider HealthProvider
	streams        []string
	logger         *slog.Logger
}

// ServerOption configures optional dependencies for the query server.
type ServerOption func(*Server)

// WithHealthProvider sets the health provider used by /v1/status.
func WithHealthProvider(hp HealthProvider) ServerOption {
	return func(s *Server) { s.healthProvider = hp }
}

// WithStreams sets the streams whose ingest cursors /v1/status reports.
func WithStreams(streams ...string) ServerOption {
	return func(s *Server) { s.streams = append(s.streams, streams...) }
}

func NewServer(reader store.Reader, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		reader: reader,
		logger: logger.With("component", "admin"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the HTTP handler for the query API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/reserves/{id}", s.handleGetReserve)
	mux.HandleFunc("GET /v1/users/{address}", s.handleGetUser)
	mux.HandleFunc("GET /v1/users/{address}/reserves/{reserveID}", s.handleGetUserReserve)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	return mux
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func validAddress(addr string) bool {
	return strings.HasPrefix(addr, "0x") && common.IsHexAddress(addr)
}

func validReserveID(id string) bool {
	if len(id) != reserveIDLength {
		return false
	}
	return validAddress(id[:42]) && validAddress(id[42:])
}

func (s *Server) handleGetReserve(w http.ResponseWriter, r *http.Request) {
	id := model.NormalizeAddress(r.PathValue("id"))
	if !validReserveID(id) {
		writeError(w, http.StatusBadRequest, "reserve id must be underlying asset followed by pool address")
		return
	}

	reserve, err := s.reader.GetReserve(r.Context(), id)
	if err != nil {
		s.logger.Error("get reserve failed", "reserve_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if reserve == nil {
		writeError(w, http.StatusNotFound, "reserve not found")
		return
	}
	writeJSON(w, http.StatusOK, reserve)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	address := model.NormalizeAddress(r.PathValue("address"))
	if !validAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid user address")
		return
	}

	user, err := s.reader.GetUser(r.Context(), address)
	if err != nil {
		s.logger.Error("get user failed", "user", address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUserReserve(w http.ResponseWriter, r *http.Request) {
	address := model.NormalizeAddress(r.PathValue("address"))
	reserveID := model.NormalizeAddress(r.PathValue("reserveID"))
	if !validAddress(address) || !validReserveID(reserveID) {
		writeError(w, http.StatusBadRequest, "invalid user address or reserve id")
		return
	}

	id := model.UserReserveID(address, reserveID)
	ur, err := s.reader.GetUserReserve(r.Context(), id)
	if err != nil {
		s.logger.Error("get user reserve failed", "user_reserve_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if ur == nil {
		writeError(w, http.StatusNotFound, "user reserve not found")
		return
	}
	writeJSON(w, http.StatusOK, ur)
}

type streamStatus struct {
	Stream string                   `json:"stream"`
	Cursor *model.IngestCursor      `json:"cursor,omitempty"`
	Health *pipeline.HealthSnapshot `json:"health,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	health := make(map[string]pipeline.HealthSnapshot)
	if s.healthProvider != nil {
		for _, snap := range s.healthProvider.HealthSnapshots() {
			health[snap.Stream] = snap
		}
	}

	resp := make([]streamStatus, 0, len(s.streams))
	for _, stream := range s.streams {
		st, err := s.streamStatus(r.Context(), stream, health)
		if err != nil {
			s.logger.Error("get status failed", "stream", stream, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		resp = append(resp, st)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) streamStatus(ctx context.Context, stream string, health map[string]pipeline.HealthSnapshot) (streamStatus, error) {
	cursor, err := s.reader.GetCursor(ctx, stream)
	if err != nil {
		return streamStatus{}, err
	}
	st := streamStatus{Stream: stream, Cursor: cursor}
	if snap, ok := health[stream]; ok {
		st.Health = &snap
	}
	return st, nil
}
