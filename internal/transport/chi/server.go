package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	healthuc "github.com/kailas-cloud/studysearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/studysearch/internal/usecase/search"
)

const maxBodyBytes = 16 << 10

// QueryHandler runs the search pipeline for one query.
type QueryHandler interface {
	HandleQuery(ctx context.Context, text string) searchuc.Reply
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers of the study search API.
type Server struct {
	search QueryHandler
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates a Server.
func NewServer(search QueryHandler, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{search: search, health: health, logger: logger}
}

// Search handles POST /v1/search. Rejected and empty searches are
// successful responses; the outcome field tells them apart.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeBadRequest, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "query is required")
		return
	}

	reply := s.search.HandleQuery(r.Context(), req.Query)

	chunks := reply.Chunks
	if chunks == nil {
		chunks = []string{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Outcome: string(reply.Outcome),
		Chunks:  chunks,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
