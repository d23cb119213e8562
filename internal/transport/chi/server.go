// Package chi exposes the question answering services over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knowme/internal/chat"
	"github.com/kailas-cloud/knowme/internal/domain"
	logpkg "github.com/kailas-cloud/knowme/internal/logger"
	"github.com/kailas-cloud/knowme/internal/metrics"
)

// Knowledge source selectors accepted by the ask endpoints.
const (
	SourceWebsite = "website"
	SourceCV      = "cv"
	SourceAgent   = "agent"
)

// ErrorCode identifies an API error class in responses.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidation       ErrorCode = "validation_failed"
	CodeRetrievalFailed  ErrorCode = "retrieval_failed"
	CodeStoreFailed      ErrorCode = "index_storage_failed"
	CodeIngestFailed     ErrorCode = "ingest_failed"
	CodeEmbeddingError   ErrorCode = "embedding_provider_error"
	CodeModelUnavailable ErrorCode = "model_unavailable"
	CodeAgentLoop        ErrorCode = "agent_loop_exceeded"
	CodeInternalError    ErrorCode = "internal_error"
)

// HealthChecker verifies downstream availability for /healthz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes ask requests to the website, CV, and agent backends.
type Server struct {
	site          chat.Answerer
	cv            chat.Answerer
	agent         chat.Answerer
	health        HealthChecker
	apiKeys       []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server.
func NewServer(site, cv, agent chat.Answerer, logger *zap.Logger) *Server {
	s := &Server{
		site:   site,
		cv:     cv,
		agent:  agent,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrAgentLoopExceeded, http.StatusBadGateway, CodeAgentLoop),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusServiceUnavailable, CodeModelUnavailable),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, CodeEmbeddingError),
		sentinelHandler(domain.ErrRetrieval, http.StatusInternalServerError, CodeRetrievalFailed),
		sentinelHandler(domain.ErrStore, http.StatusInternalServerError, CodeStoreFailed),
		sentinelHandler(domain.ErrIngest, http.StatusInternalServerError, CodeIngestFailed),
	}
	return s
}

// WithHealthChecker adds a downstream check to /healthz.
func (s *Server) WithHealthChecker(hc HealthChecker) *Server {
	s.health = hc
	return s
}

// WithAPIKeys enables bearer token authentication on the ask endpoints.
func (s *Server) WithAPIKeys(keys []string) *Server {
	s.apiKeys = keys
	return s
}

// Router assembles the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.Post("/v1/ask", s.handleAsk)
	r.Post("/v1/ask/stream", s.handleAskStream)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type askRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
}

type askResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// parseAsk validates the request body and fills defaults: a fresh session
// ID when none is supplied and the agent source when none is named.
func (s *Server) parseAsk(w http.ResponseWriter, r *http.Request) (askRequest, chat.Answerer, bool) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return askRequest{}, nil, false
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "query is required")
		return askRequest{}, nil, false
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.Source == "" {
		req.Source = SourceAgent
	}

	var backend chat.Answerer
	switch req.Source {
	case SourceWebsite:
		backend = s.site
	case SourceCV:
		backend = s.cv
	case SourceAgent:
		backend = s.agent
	default:
		writeError(w, http.StatusBadRequest, CodeValidation,
			"source must be one of: website, cv, agent")
		return askRequest{}, nil, false
	}
	return req, backend, true
}

// handleAsk handles POST /v1/ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	req, backend, ok := s.parseAsk(w, r)
	if !ok {
		return
	}

	answer, err := backend.Answer(r.Context(), req.SessionID, req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: answer, SessionID: req.SessionID})
}

// handleAskStream handles POST /v1/ask/stream. The answer is sent as a
// chunked plain-text body, one word increment per flush. Errors that occur
// before the first increment still produce a JSON error response.
func (s *Server) handleAskStream(w http.ResponseWriter, r *http.Request) {
	req, backend, ok := s.parseAsk(w, r)
	if !ok {
		return
	}

	increments, err := chat.AnswerStream(r.Context(), backend, req.SessionID, req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Session-Id", req.SessionID)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for inc := range increments {
		if _, err := w.Write([]byte(inc)); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health.HealthCheck(r.Context()); err != nil {
			logpkg.FromContext(r.Context()).Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrAgentLoopExceeded,
		domain.ErrModelUnavailable,
		domain.ErrEmbedding,
		domain.ErrRetrieval,
		domain.ErrStore,
		domain.ErrIngest,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// handleDomainError logs through the request-scoped logger injected by
// wideEventMiddleware so every error carries the request ID.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
