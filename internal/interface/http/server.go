// Package http serves the worker's read-only status API: health probes and
// JSON views of the family held in memory.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/champtrack/champtrack-hub/config"
	"github.com/champtrack/champtrack-hub/internal/application/store"
	"github.com/champtrack/champtrack-hub/internal/domain/child"
	"github.com/champtrack/champtrack-hub/internal/domain/document"
	"github.com/champtrack/champtrack-hub/internal/domain/family"
	"github.com/champtrack/champtrack-hub/internal/domain/gamification"
	"github.com/champtrack/champtrack-hub/internal/domain/nutrition"
	"github.com/champtrack/champtrack-hub/internal/domain/schedule"
	"github.com/champtrack/champtrack-hub/internal/interface/http/handlers"
	"github.com/champtrack/champtrack-hub/pkg/logger"
	"github.com/champtrack/champtrack-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// FamilyReader is the read side of the domain store.
type FamilyReader interface {
	Family() (family.Family, bool)
	Snapshot() document.Snapshot
	GetChild(id string) (child.Child, bool)
	Level(childID string) (store.LevelInfo, bool)
	GetUnlockedAchievements(childID string) []gamification.Achievement
	GetMeals(childID string, date time.Time) []nutrition.Meal
	GetDailyNutrition(childID string, date time.Time) nutrition.Macros
	GetNutritionTarget(childID string) (nutrition.Target, bool)
	GetUpcomingClasses(limit int) []schedule.Class
	GetClassesForDate(date time.Time) []schedule.Class
	DetectConflicts(date time.Time) []schedule.Conflict
}

var _ FamilyReader = (*store.Store)(nil)

// Dependencies are the collaborators the server reads from.
type Dependencies struct {
	Store  FamilyReader
	Health handlers.HealthChecker
	Logger *logger.Logger

	// Location resolves ?date= parameters and "today".
	Location *time.Location
	Clock    timeutil.Clock
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the status API.
type Server struct {
	config  config.HTTPConfig
	deps    Dependencies
	log     *logger.Logger
	handler http.Handler
}

// NewServer builds the routes and middleware chain.
func NewServer(cfg config.HTTPConfig, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Health == nil {
		deps.Health = handlers.NewCompositeHealthChecker("")
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.SystemClock()
	}

	s := &Server{config: cfg, deps: deps, log: deps.Logger.Named("http")}
	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = s.chain(mux)
	return s
}

// Handler exposes the full handler, middleware included.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /live", s.handleLive)

	mux.HandleFunc("GET /api/v1/family", s.handleFamily)
	mux.HandleFunc("GET /api/v1/children/{id}", s.handleChild)
	mux.HandleFunc("GET /api/v1/children/{id}/level", s.handleLevel)
	mux.HandleFunc("GET /api/v1/children/{id}/nutrition", s.handleNutrition)
	mux.HandleFunc("GET /api/v1/classes/upcoming", s.handleUpcoming)
	mux.HandleFunc("GET /api/v1/conflicts", s.handleConflicts)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Address(),
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

func (s *Server) chain(h http.Handler) http.Handler {
	h = s.recoveryMiddleware(h)
	h = s.loggingMiddleware(h)
	return s.requestIDMiddleware(h)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyRequestID, id)))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.log.Debug("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Latency(time.Since(start)),
			logger.String("request_id", requestID(r.Context())),
		)
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error("panic recovered",
					logger.F("panic", rec),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
					logger.String("request_id", requestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSES
// ══════════════════════════════════════════════════════════════════════════════

// Response is the envelope of every API reply.
type Response struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Success: status < 300, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: &APIError{Code: code, Message: message}})
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY PARAMETERS
// ══════════════════════════════════════════════════════════════════════════════

// dateParam parses ?key=YYYY-MM-DD in the server location, defaulting to today.
func (s *Server) dateParam(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return timeutil.StartOfDay(s.deps.Clock(), s.deps.Location), nil
	}
	return time.ParseInLocation(time.DateOnly, v, s.deps.Location)
}

func intParam(r *http.Request, key string, def, max int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	if n > max {
		n = max
	}
	return n, nil
}
