// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/lorkus/scholarledger/internal/app"
	"github.com/lorkus/scholarledger/internal/domain/model"
	"github.com/lorkus/scholarledger/internal/domain/scoring"
)

const defaultMaxBodyBytes = 4 << 20

// EngineDependencies are the synchronous engine operations.
type EngineDependencies interface {
	Totals(ctx context.Context, req service.TotalsRequest) (model.AggregatedTotals, error)
	Payout(ctx context.Context, req service.PayoutRequest) (service.PayoutResult, error)
	SeriesLeaderboard(ctx context.Context, req service.SeriesRequest) (service.SeriesResult, error)
	Schemes() []scoring.Scheme
}

// SyncDependencies are the season record operations.
type SyncDependencies interface {
	EnqueueSync(ctx context.Context, req service.SyncRequest) (jobID string, duplicate bool, err error)
	History(ctx context.Context, username string) ([]service.HistoryEntry, error)
	UpdateCurrency(ctx context.Context, username string, seasonID int, currency string) error
}

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	EngineDependencies
	SyncDependencies
}

var _ Dependencies = (*service.Service)(nil)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	engineHandler *EngineHandler
	syncHandler   *SyncHandler
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxBodyBytes int64
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		engineHandler: NewEngineHandler(deps, cfg.maxBodyBytes),
		syncHandler:   NewSyncHandler(deps, cfg.maxBodyBytes),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /totals", MetricsMiddleware(s.engineHandler.HandleTotals, "totals"))
	mux.HandleFunc("POST /payout", MetricsMiddleware(s.engineHandler.HandlePayout, "payout"))
	mux.HandleFunc("POST /series/leaderboard", MetricsMiddleware(s.engineHandler.HandleSeries, "series_leaderboard"))
	mux.HandleFunc("GET /schemes", MetricsMiddleware(s.engineHandler.HandleSchemes, "schemes"))

	mux.HandleFunc("POST /sync", MetricsMiddleware(s.syncHandler.HandleSync, "sync"))
	mux.HandleFunc("GET /history/{username}", MetricsMiddleware(s.syncHandler.HandleHistory, "history"))
	mux.HandleFunc("PUT /history/{username}/{season}/currency",
		MetricsMiddleware(s.syncHandler.HandleUpdateCurrency, "history_currency"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes the matching error response.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

// decodeBody reads a single JSON document of at most limit bytes into v.
// Numbers are kept as json.Number so raw price payloads keep their precision.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("decode body: %w", err)
	}
	if dec.More() {
		return errors.New("body must contain a single JSON document")
	}
	return nil
}
