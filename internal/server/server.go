package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/planweave/planweave/internal/export"
	"github.com/planweave/planweave/internal/storage"
	"github.com/planweave/planweave/internal/types"
)

// PlanService is the planner surface the API needs.
type PlanService interface {
	Generate(ctx context.Context, name, vision string) (*types.Project, *types.PlanTree, error)
	Reconcile(ctx context.Context, projectID int64, edit types.FieldEdit) (*types.PlanTree, int64, error)
}

// Config holds server configuration.
type Config struct {
	Addr string // e.g. ":8080"
}

// Server is the planweave HTTP server.
type Server struct {
	store   storage.Storage
	planner PlanService
	llm     export.Completer // nil: document exports use their defaults
	config  Config
	mux     *http.ServeMux
	http    *http.Server
}

// NewServer creates a server and registers all routes.
func NewServer(store storage.Storage, planner PlanService, llm export.Completer, config Config) *Server {
	s := &Server{
		store:   store,
		planner: planner,
		llm:     llm,
		config:  config,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the mux wrapped in the middleware chain,
// outermost to innermost: recovery -> logging -> handler.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)
	return h
}

// ListenAndServe starts the server and shuts down gracefully when the
// context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.config.Addr
	if addr == "" {
		addr = ":8080"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.http = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	s.mux.HandleFunc("GET /api/projects", s.handleListProjects)
	s.mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	s.mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)
	s.mux.HandleFunc("POST /api/projects/{id}/edit", s.handleEdit)

	s.mux.HandleFunc("GET /api/projects/{id}/gantt.svg", s.handleGantt)
	s.mux.HandleFunc("GET /api/projects/{id}/export/document", s.handleExportDocument)
	s.mux.HandleFunc("GET /api/projects/{id}/export/plan.csv", s.handleExportPlanCSV)
	s.mux.HandleFunc("GET /api/projects/{id}/export/communication-plan.md", s.handleExportCommPlan)
	s.mux.HandleFunc("GET /api/projects/{id}/export/financial-plan.md", s.handleExportFinancialPlan)
}

// recoveryMiddleware catches panics, logs the stack trace, and returns a
// 500 error envelope.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				WriteError(w, ErrInternal, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sr, r)
		slog.Info("req",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.code,
			"dur", time.Since(start).String(),
		)
	})
}
