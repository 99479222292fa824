package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finquery/internal/domain/query"
	"github.com/kailas-cloud/finquery/internal/domain/transform"
	healthuc "github.com/kailas-cloud/finquery/internal/usecase/health"
	searchuc "github.com/kailas-cloud/finquery/internal/usecase/search"
)

// Error codes returned to API clients.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeProviderError    = "MODEL_PROVIDER_ERROR"
	CodeIndexError       = "SEARCH_BACKEND_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeUnauthorized     = "UNAUTHORIZED"
)

// ErrorResponse is the JSON body for all error replies.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchRequest is the JSON body for POST /v1/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the JSON body for a successful search. Exactly one of
// Answer or Query is present.
type SearchResponse struct {
	Answer      string                 `json:"answer,omitempty"`
	Explanation string                 `json:"explanation,omitempty"`
	Query       *query.StructuredQuery `json:"query,omitempty"`
	Hits        []HitItem              `json:"hits,omitempty"`
	Total       *int                   `json:"total,omitempty"`
}

// HitItem is a single index hit.
type HitItem struct {
	Score  float64        `json:"score"`
	Fields map[string]any `json:"fields"`
}

// errorHandler tries to handle a known error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the search and health use cases over HTTP.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(transform.ErrProviderFailure, http.StatusBadGateway, CodeProviderError),
	}
	return s
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), req.Query)
	if err != nil {
		s.handleError(w, err)
		return
	}

	if resp.Answered {
		writeJSON(w, http.StatusOK, SearchResponse{Answer: resp.Answer})
		return
	}

	total := len(resp.Hits)
	hits := make([]HitItem, len(resp.Hits))
	for i, h := range resp.Hits {
		hits[i] = HitItem{Score: h.Score, Fields: h.Fields}
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Explanation: resp.Answer,
		Query:       resp.Query,
		Hits:        hits,
		Total:       &total,
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	s.logger.Warn("request failed", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	writeError(w, http.StatusBadGateway, CodeIndexError, "search backend unavailable")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}
