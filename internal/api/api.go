// Package api implements the gateway's HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vmunix/cinego/internal/catalog"
	"github.com/vmunix/cinego/internal/gateway"
	"github.com/vmunix/cinego/internal/ratelimit"
)

// Config holds API server configuration.
type Config struct {
	Version string
}

// Server is the HTTP API server.
type Server struct {
	gateway *gateway.Gateway
	store   *catalog.Store
	limiter *ratelimit.Limiter
	cfg     Config
	log     *slog.Logger
	started time.Time
}

// New creates a new API server.
func New(gw *gateway.Gateway, store *catalog.Store, limiter *ratelimit.Limiter, cfg Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		gateway: gw,
		store:   store,
		limiter: limiter,
		cfg:     cfg,
		log:     log,
		started: time.Now(),
	}
}

// RegisterRoutes registers API routes on the given mux.
// Only the lookup endpoint is rate limited.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /search", s.rateLimited(http.HandlerFunc(s.search)))
	mux.HandleFunc("GET /api/movies", s.listMovies)
	mux.HandleFunc("GET /api/status", s.getStatus)
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	movies, err := s.gateway.Lookup(r.Context(), query)
	if err != nil {
		var notFound *gateway.NotFoundError
		switch {
		case errors.Is(err, gateway.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, "Query parameter is required")
		case errors.As(err, &notFound):
			writeError(w, http.StatusNotFound, notFound.Message)
		case errors.Is(err, context.Canceled):
			// Caller went away; nothing useful to write.
			s.log.Debug("lookup canceled", "query", query)
		default:
			s.log.Error("lookup failed", "query", query, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	if movies == nil {
		movies = []*catalog.Movie{}
	}
	writeJSON(w, http.StatusOK, movies)
}

func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	movies, total, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		s.log.Error("list movies failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if movies == nil {
		movies = []*catalog.Movie{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"movies": movies,
		"total":  total,
	})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.log.Error("status failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.cfg.Version,
		"movies":  count,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}
