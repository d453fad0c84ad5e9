// Package api exposes the read-only browse interface over the catalog.
// It is a projection of the four catalog tables; nothing here mutates state.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mwhitaker/foia-archive/internal/archive"
)

const defaultListLimit = 100

// Server wires HTTP handlers to the catalog reader.
type Server struct {
	router chi.Router
	store  archive.CatalogReader
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store archive.CatalogReader, logger *zap.Logger) *Server {
	s := &Server{store: store, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/agencies", s.listAgencies)
		r.Get("/offices", s.listOffices)
		r.Get("/reading-rooms", s.listReadingRooms)
		r.Get("/documents", s.listDocuments)
		r.Get("/stats", s.stats)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listAgencies(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	agencies, err := s.store.ListAgencies(r.Context(), limit, offset)
	if err != nil {
		s.serverError(w, "list agencies", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"agencies": emptyIfNil(agencies)})
}

func (s *Server) listOffices(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	agencyID, _ := strconv.ParseInt(r.URL.Query().Get("agency_id"), 10, 64)
	offices, err := s.store.ListOffices(r.Context(), agencyID, limit, offset)
	if err != nil {
		s.serverError(w, "list offices", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"offices": emptyIfNil(offices)})
}

func (s *Server) listReadingRooms(w http.ResponseWriter, r *http.Request) {
	limit, _ := listParams(r)
	rooms, err := s.store.ListReadingRooms(r.Context(), limit)
	if err != nil {
		s.serverError(w, "list reading rooms", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"reading_rooms": emptyIfNil(rooms)})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	filter := archive.DocumentFilter{
		Search: r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	}
	if raw := r.URL.Query().Get("reading_room_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid reading_room_id")
			return
		}
		filter.ReadingRoomID = &id
	}
	docs, err := s.store.ListDocuments(r.Context(), filter)
	if err != nil {
		s.serverError(w, "list documents", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"documents": emptyIfNil(docs)})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.serverError(w, "catalog stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("query failed", zap.String("op", op), zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "internal server error")
}

func listParams(r *http.Request) (limit, offset int) {
	limit = defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}

// emptyIfNil keeps list payloads as [] instead of null.
func emptyIfNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := contextWithRequestID(r.Context(), reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
