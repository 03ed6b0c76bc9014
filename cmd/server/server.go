package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/horiken1977/roic-sub001/pkg/analysis"
	"github.com/horiken1977/roic-sub001/pkg/db"
	"github.com/horiken1977/roic-sub001/pkg/edinet"
	"github.com/horiken1977/roic-sub001/pkg/facts"
	"github.com/horiken1977/roic-sub001/pkg/filing"
	"github.com/horiken1977/roic-sub001/pkg/xbrl"
)

const defaultSearchLimit = 20

type Server struct {
	service    *analysis.Service
	db         *db.DB
	corsOrigin string
	logger     *log.Logger
}

// NewServer builds the HTTP API. database may be nil, in which case the
// company search and cache listing endpoints answer 503.
func NewServer(service *analysis.Service, database *db.DB, corsOrigin string, logger *log.Logger) *Server {
	return &Server{
		service:    service,
		db:         database,
		corsOrigin: corsOrigin,
		logger:     logger,
	}
}

// Handler returns the routed API wrapped in request logging and CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/roic", s.handleROIC)
	mux.HandleFunc("GET /api/financials", s.handleFinancials)
	mux.HandleFunc("GET /api/companies", s.handleCompanies)
	mux.HandleFunc("GET /api/cached", s.handleCached)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.withRequestID(s.withCORS(s.withRecovery(mux)))
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// handleROIC handles GET /api/roic?company=&year=&fyEndMonth=&debug=
func (s *Server) handleROIC(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.service.Analyze(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, report)
}

// handleFinancials handles GET /api/financials with the same parameters as
// /api/roic and returns the fact set without ROIC.
func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ex, err := s.service.ExtractFinancials(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, ex)
}

// handleCompanies handles GET /api/companies?q=&limit= against the filers
// seen in cached filing lists.
func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, errCacheDisabled)
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.writeError(w, r, fmt.Errorf("%w: q is required", analysis.ErrInvalidRequest))
		return
	}
	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", analysis.ErrInvalidRequest))
			return
		}
		limit = n
	}
	companies, err := s.db.SearchCompanies(q, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if companies == nil {
		companies = []db.Company{}
	}
	s.writeJSON(w, r, http.StatusOK, companies)
}

// handleCached handles GET /api/cached
func (s *Server) handleCached(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, errCacheDisabled)
		return
	}
	sets, err := s.db.ListFactSets()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sets == nil {
		sets = []db.FactSetSummary{}
	}
	s.writeJSON(w, r, http.StatusOK, sets)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

func parseRequest(r *http.Request) (analysis.Request, error) {
	q := r.URL.Query()
	req := analysis.Request{CompanyID: strings.TrimSpace(q.Get("company"))}
	if req.CompanyID == "" {
		return req, fmt.Errorf("%w: company is required", analysis.ErrInvalidRequest)
	}

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		return req, fmt.Errorf("%w: year must be an integer", analysis.ErrInvalidRequest)
	}
	req.FiscalYear = year

	if v := q.Get("fyEndMonth"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return req, fmt.Errorf("%w: fyEndMonth must be between 1 and 12", analysis.ErrInvalidRequest)
		}
		req.EndMonth = time.Month(m)
	}
	if v := q.Get("debug"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("%w: debug must be a boolean", analysis.ErrInvalidRequest)
		}
		req.Debug = debug
	}
	return req, nil
}

var errCacheDisabled = errors.New("cache is disabled")

// classify maps pipeline failures to an HTTP status and a stable kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, filing.ErrNotFound):
		return http.StatusNotFound, "filing_not_found"
	case errors.Is(err, edinet.ErrDocumentUnavailable):
		return http.StatusBadGateway, "document_unavailable"
	case errors.Is(err, xbrl.ErrContextResolution):
		return http.StatusUnprocessableEntity, "context_resolution_failed"
	case errors.Is(err, facts.ErrTaxRateUndefined):
		return http.StatusUnprocessableEntity, "tax_rate_undefined"
	case errors.Is(err, facts.ErrExtraction):
		return http.StatusUnprocessableEntity, "extraction_failed"
	case errors.Is(err, errCacheDisabled):
		return http.StatusServiceUnavailable, "cache_disabled"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	id := requestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", id).Str("kind", kind).Msg("request failed")
	} else {
		s.logger.Info().Err(err).Str("request_id", id).Str("kind", kind).Msg("request rejected")
	}
	s.writeJSON(w, r, status, errorResponse{Error: err.Error(), Kind: kind, RequestID: id})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Str("request_id", requestID(r.Context())).Msg("failed to encode response")
	}
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID tags every request with an X-Request-Id, reusing the
// caller's when present, and logs the outcome.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))

		s.logger.Info().Str("request_id", id).Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", rec.status).Dur("elapsed", time.Since(start)).Msg("request")
	})
}

// withRecovery turns a handler panic into a 500.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error().Str("panic", fmt.Sprint(v)).Str("request_id", requestID(r.Context())).
					Str("path", r.URL.Path).Msg("panic recovered")
				s.writeJSON(w, r, http.StatusInternalServerError, errorResponse{
					Error:     "internal server error",
					Kind:      "internal",
					RequestID: requestID(r.Context()),
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
