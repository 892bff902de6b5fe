// Package server exposes the status query service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazz-dev/appstatus/internal/status"
	"github.com/hazz-dev/appstatus/internal/store"
)

// StatusService defines the query operations the server needs.
type StatusService interface {
	RecordStatus(ctx context.Context, r status.Record) (store.RecordID, error)
	GetAll(ctx context.Context) (map[string]status.Record, error)
	GetOne(ctx context.Context, name string) (status.Record, error)
}

// Server holds the chi router and its dependencies.
type Server struct {
	svc    StatusService
	router chi.Router
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Server and registers all routes. Pass nil logger to use the
// default logger.
func New(svc StatusService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		router: chi.NewRouter(),
		logger: logger,
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Post("/add", s.handleAdd)
	r.Get("/healthcheck", s.handleHealthcheck)
	r.Get("/healthcheck/{name}", s.handleHealthcheckService)
}

// --- Response helpers ---

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, tag, msg string) {
	writeJSON(w, code, errorResponse{
		Error:     tag,
		Message:   msg,
		Timestamp: s.timestamp(),
	})
}

// mapError translates service errors to the HTTP taxonomy: validation → 400,
// unknown name → 404, unreachable store → 503, anything else → 500.
func (s *Server) mapError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *status.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, "bad_request", verr.Error())
	case errors.Is(err, store.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, "service_unavailable", "status store is unavailable")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal_server_error", "an unexpected error occurred")
	}
}

// --- Handlers ---

type addRequest struct {
	ServiceName   string `json:"service_name"`
	ServiceStatus string `json:"service_status"`
	HostName      string `json:"host_name"`
	Timestamp     string `json:"timestamp"`
}

type addResponse struct {
	Message     string `json:"message"`
	ServiceName string `json:"service_name"`
	Timestamp   string `json:"timestamp"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "request body must be JSON")
		return
	}

	var ts time.Time
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "bad_request", "timestamp must be RFC 3339")
			return
		}
		ts = parsed
	}

	rec := status.Record{
		ServiceName: req.ServiceName,
		Status:      status.Status(req.ServiceStatus),
		HostName:    req.HostName,
		Timestamp:   ts,
	}
	if _, err := s.svc.RecordStatus(r.Context(), rec); err != nil {
		s.mapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, addResponse{
		Message:     "status recorded",
		ServiceName: req.ServiceName,
		Timestamp:   s.timestamp(),
	})
}

type healthcheckResponse struct {
	Services  map[string]status.Status `json:"services"`
	Timestamp string                   `json:"timestamp"`
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	all, err := s.svc.GetAll(r.Context())
	if err != nil {
		s.mapError(w, r, err)
		return
	}

	services := make(map[string]status.Status, len(all))
	for name, rec := range all {
		services[name] = rec.Status
	}

	writeJSON(w, http.StatusOK, healthcheckResponse{
		Services:  services,
		Timestamp: s.timestamp(),
	})
}

type serviceResponse struct {
	ServiceName   string `json:"service_name"`
	ServiceStatus string `json:"service_status"`
	HostName      string `json:"host_name"`
	LastUpdated   string `json:"last_updated"`
	Timestamp     string `json:"timestamp"`
}

func (s *Server) handleHealthcheckService(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rec, err := s.svc.GetOne(r.Context(), name)
	if err != nil {
		s.mapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, serviceResponse{
		ServiceName:   rec.ServiceName,
		ServiceStatus: string(rec.Status),
		HostName:      rec.HostName,
		LastUpdated:   rec.Timestamp.UTC().Format(time.RFC3339Nano),
		Timestamp:     s.timestamp(),
	})
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}
