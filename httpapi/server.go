// Package httpapi serves the compile-and-run operations over plain HTTP.
//
// Each language has one POST endpoint taking the raw source text as the
// request body and answering with the program output (or a failure
// description) as text/plain.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/isdmx/compilebox/config"
	"github.com/isdmx/compilebox/sandbox"
)

// MaxSourceBytes caps the request body
const MaxSourceBytes = 1 << 20

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front end of the sandbox
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	compiler sandbox.Compiler
	router   chi.Router

	mu   sync.Mutex
	http *http.Server
}

// New creates a new Server
func New(cfg *config.Config, logger *zap.Logger, compiler sandbox.Compiler) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger,
		compiler: compiler,
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})

	r.Route("/compiler", func(r chi.Router) {
		r.Post("/c", s.handleCompile(sandbox.LanguageC))
		r.Post("/java", s.handleCompile(sandbox.LanguageJava))
	})
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleCompile(language sandbox.Language) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxSourceBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, fmt.Sprintf("source exceeds %d bytes", MaxSourceBytes), http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		result := s.compiler.Compile(r.Context(), sandbox.CompilationRequest{
			Language: language,
			Source:   string(body),
		})

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, result.Output)
	}
}

// accessLog logs one line per request with zap
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// Start listens on the configured port and blocks until the server stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Server.HTTPPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()

	s.logger.Info("starting HTTP API", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("shutting down HTTP API")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
