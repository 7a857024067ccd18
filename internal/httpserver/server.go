package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/qepting91/reddit-grid/internal/config"
	"github.com/qepting91/reddit-grid/internal/domain"
	"github.com/qepting91/reddit-grid/internal/ingest"
)

// GridService is what the handlers need from grid.Service.
type GridService interface {
	Fetch(ctx context.Context, req domain.ListingRequest) ([]domain.Post, error)
	Normalize(ctx context.Context, payload []byte) ([]domain.Post, error)
	Star(ctx context.Context, target domain.GroupTarget, id string) (string, error)
	Group(ctx context.Context, name string) ([]domain.Post, error)
	Groups(ctx context.Context) ([]string, error)
}

// Server is the JSON API in front of the grid service.
type Server struct {
	grid         GridService
	logger       *slog.Logger
	defaultLimit int
	httpServer   *http.Server
}

// queueAllowance is how long a listing request may wait for fetches queued
// ahead of its own, on top of its own upstream timeout.
const queueAllowance = 30 * time.Second

// NewServer wires the routes. stats serves the dashboard page.
func NewServer(cfg *config.Config, grid GridService, stats http.Handler, logger *slog.Logger) *Server {
	s := &Server{
		grid:         grid,
		logger:       logger,
		defaultLimit: cfg.DefaultLimit,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /r/{subject}", s.handleListing)
	mux.HandleFunc("GET /r/{subject}/{sort}", s.handleListing)
	mux.HandleFunc("POST /render", s.handleRender)
	mux.HandleFunc("GET /s", s.handleGroups)
	mux.HandleFunc("GET /s/{group}", s.handleGroup)
	mux.HandleFunc("POST /s/add/{id}", s.handleStarNew)
	mux.HandleFunc("POST /s/{group}/add/{id}", s.handleStar)
	mux.Handle("GET /stats", stats)

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     withLogging(logger, mux),
		ReadTimeout: 10 * time.Second,
		// A listing request waits for every fetch queued ahead of it. If the
		// queue holds more than queueAllowance of work the response is cut
		// off; the worker still finishes the fetch and its posts still reach
		// the star cache.
		WriteTimeout: cfg.Collector.Timeout + queueAllowance,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the routed handler, logging included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := ingest.ParseListingRequest(r.PathValue("subject"), r.PathValue("sort"), q.Get("t"), q.Get("limit"), s.defaultLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	posts, err := s.grid.Fetch(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

// handleRender classifies a listing the browser fetched from reddit itself.
// sort and t are only validated; they shape nothing server-side.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if _, err := domain.ParseSort(q.Get("sort")); err != nil {
		s.fail(w, r, err)
		return
	}
	if _, err := domain.ParseTimeWindow(q.Get("t")); err != nil {
		s.fail(w, r, err)
		return
	}

	payload, err := ingest.ReadPayload(r.Body, ingest.MaxPayloadBytes)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	posts, err := s.grid.Normalize(r.Context(), payload)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.grid.Groups(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("group")
	if err := ingest.ValidateGroupName(name); err != nil {
		s.fail(w, r, err)
		return
	}

	posts, err := s.grid.Group(r.Context(), name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"group": name, "posts": posts})
}

func (s *Server) handleStarNew(w http.ResponseWriter, r *http.Request) {
	s.star(w, r, domain.NewGroup())
}

func (s *Server) handleStar(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("group")
	if err := ingest.ValidateGroupName(name); err != nil {
		s.fail(w, r, err)
		return
	}
	s.star(w, r, domain.ExistingGroup(name))
}

func (s *Server) star(w http.ResponseWriter, r *http.Request, target domain.GroupTarget) {
	id := r.PathValue("id")
	if id == "" {
		s.fail(w, r, fmt.Errorf("%w: post id is required", domain.ErrInvalidRequest))
		return
	}

	group, err := s.grid.Star(r.Context(), target, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"group": group, "id": id})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, errType, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, errType, message)
}

// classifyError maps an error kind to a status. Internal failures get a
// generic message; the detail goes to the log only.
func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "InvalidRequest", err.Error()
	case errors.Is(err, domain.ErrNotCached):
		return http.StatusNotFound, "NotCached", domain.ErrNotCached.Error()
	case errors.Is(err, domain.ErrClassification):
		return http.StatusBadGateway, "ClassificationError", err.Error()
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "UpstreamError", err.Error()
	case errors.Is(err, domain.ErrWorkerUnavailable):
		return http.StatusServiceUnavailable, "Unavailable", domain.ErrWorkerUnavailable.Error()
	case errors.Is(err, domain.ErrStore):
		return http.StatusInternalServerError, "StoreError", "failed to access group store"
	default:
		return http.StatusInternalServerError, "InternalError", "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]string{
		"error":   errType,
		"message": message,
	})
}

func withLogging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
