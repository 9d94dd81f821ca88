package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ca-srg/novelsearch/internal/search"
	"github.com/ca-srg/novelsearch/internal/types"
)

const maxRequestBody = 1 << 20 // 1MB

// HealthChecker reports whether the search backend is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server exposes the novel search service over HTTP.
type Server struct {
	service    *search.Service
	health     HealthChecker
	httpServer *http.Server
	logger     *log.Logger
}

func New(cfg *types.Config, service *search.Service, health HealthChecker) *Server {
	s := &Server{
		service: service,
		health:  health,
		logger:  log.Default(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/search", s.handleSearch)
	r.Get("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
	}

	return s
}

// Handler returns the underlying HTTP handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Printf("novelsearch API listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation error: failed to read request body")
		return
	}

	resp, err := s.service.Search(r.Context(), body)
	if err != nil {
		s.writeSearchError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.HealthCheck(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "search backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeSearchError maps the error taxonomy onto HTTP statuses: validation
// failures are the caller's to fix (400), everything else is a server-side
// failure (500) with a generic message. Causes go to the log, never the body.
func (s *Server) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	var validationErr *search.ValidationError
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, "Validation error: "+validationErr.Error())
		return
	}

	var serviceErr *search.ServiceError
	if errors.As(err, &serviceErr) {
		s.logger.Printf("[%s] search failed (%s): %v", reqID, serviceErr.Category, serviceErr.Cause)
		writeError(w, http.StatusInternalServerError, serviceErr.Message)
		return
	}

	s.logger.Printf("[%s] search failed with unclassified error: %v", reqID, err)
	writeError(w, http.StatusInternalServerError, "Unexpected error")
}

type errorResponse struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
