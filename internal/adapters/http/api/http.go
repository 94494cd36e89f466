// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/salary-insight/internal/domain/model"
	"github.com/okian/salary-insight/internal/domain/pipeline"
	"github.com/okian/salary-insight/internal/domain/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Error kind tags that are not pipeline kinds.
const (
	kindBadRequest = "bad_request"
	kindNotReady   = "not_ready"
	kindNotFound   = "not_found"
	kindInternal   = "internal_error"
	kindRateLimit  = "rate_limited"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predict(ctx context.Context, raws []model.RawRecord) ([]float64, error)
	Insight(ctx context.Context, raw model.RawRecord) (types.InsightResult, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	homeHandler    *HomeHandler
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	insightHandler *InsightHandler

	apiKey  string
	limiter *clientLimiter
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAPIKey sets the shared key expected in the x-api-key header. An empty
// key rejects every protected request.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithRateLimit limits protected routes to rps requests per second per
// client with the given burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = newClientLimiter(rps, burst)
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		homeHandler:    NewHomeHandler(),
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		predictHandler: NewPredictHandler(deps),
		insightHandler: NewInsightHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/", s.public(s.homeHandler.HandleHome, "home"))
	mux.HandleFunc("/healthz", s.public(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", s.protected(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/predict", s.protected(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/insight", s.protected(s.insightHandler.HandleInsight, "insight"))
}

func (s *Server) public(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return MetricsMiddleware(RequestIDMiddleware(next), endpoint)
}

func (s *Server) protected(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	h := APIKeyMiddleware(next, s.apiKey, endpoint)
	if s.limiter != nil {
		h = RateLimitMiddleware(h, s.limiter, endpoint)
	}
	return MetricsMiddleware(RequestIDMiddleware(h), endpoint)
}

type errorResponse struct {
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type unauthorizedResponse struct {
	Error string `json:"error"`
}

type homeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Status: types.StatusError, Kind: kind, Message: msg})
}

// writeServiceError maps a dependency failure to a response. Pipeline
// failures are client errors carrying the cause message.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, kindNotReady, err)
	case errors.Is(err, pipeline.ErrMapping),
		errors.Is(err, pipeline.ErrTransformation),
		errors.Is(err, pipeline.ErrAttribution):
		writeError(w, http.StatusBadRequest, pipeline.KindOf(err), err)
	default:
		writeError(w, http.StatusInternalServerError, kindInternal, err)
	}
}

// decodeBody reads a JSON document keeping numbers in their textual form.
func decodeBody(w http.ResponseWriter, r *http.Request) (any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after JSON body")
	}
	return body, nil
}
