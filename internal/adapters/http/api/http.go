// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crashcompass/compass/internal/adapters/upstream"
	service "github.com/crashcompass/compass/internal/app"
	"github.com/crashcompass/compass/internal/domain/attribution"
	"github.com/crashcompass/compass/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	DashboardDependencies
	CategoryDependencies
	HistoryDependencies
	ExplainDependencies
	FormatDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *DashboardHandler
	categoryHandler  *CategoryHandler
	historyHandler   *HistoryHandler
	explainHandler   *ExplainHandler
	formatHandler    *FormatHandler

	limiter *RateLimiter
	log     logger.Logger
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithRateLimit enables token-bucket rate limiting on the /v1 routes.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 && burst > 0 {
			s.limiter = NewRateLimiter(rps, burst, s.log)
		}
	}
}

// WithServerLogger sets the logger used by handlers and middleware.
func WithServerLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
			if s.limiter != nil {
				s.limiter.log = l
			}
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	s := &Server{log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.dashboardHandler = NewDashboardHandler(deps, s.log)
	s.categoryHandler = NewCategoryHandler(deps, s.log)
	s.historyHandler = NewHistoryHandler(deps, s.log)
	s.explainHandler = NewExplainHandler(deps)
	s.formatHandler = NewFormatHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.Handle("/v1/dashboard", s.v1(s.dashboardHandler.HandleGetDashboard, "dashboard"))
	mux.Handle("/v1/categories/", s.v1(s.categoryHandler.HandleGetCategory, "category"))
	mux.Handle("/v1/history", s.v1(s.historyHandler.HandleGetHistory, "history"))
	mux.Handle("/v1/explain", s.v1(s.explainHandler.HandlePostExplain, "explain"))
	mux.Handle("/v1/format", s.v1(s.formatHandler.HandleGetFormat, "format"))
}

// v1 chains request id, metrics and rate limiting around a business handler.
func (s *Server) v1(h http.HandlerFunc, endpoint string) http.Handler {
	var next http.Handler = h
	if s.limiter != nil {
		next = s.limiter.Handler(next, endpoint)
	}
	return RequestID(MetricsMiddleware(next.ServeHTTP, endpoint))
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

// writeServiceError translates service and upstream failures to responses.
func writeServiceError(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound), errors.Is(err, upstream.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", Wrap(op, err))
	case errors.Is(err, upstream.ErrUnavailable), errors.Is(err, upstream.ErrDecode), isStatusError(err):
		log.Warn(ctx, "upstream failure", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusBadGateway, "upstream_error", WrapKind(op, ErrUpstream, err))
	default:
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func isStatusError(err error) bool {
	var se *upstream.StatusError
	return errors.As(err, &se)
}

// Explanation mirrors the explain response shape.
type Explanation = attribution.Explanation
