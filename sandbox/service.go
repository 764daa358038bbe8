package sandbox

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type route struct {
	pipeline   Pipeline
	workspaces *WorkspaceManager
}

// Service is the compile-and-run facade. Every request gets its own workspace,
// which is released on every exit path before the result is returned.
type Service struct {
	logger   *zap.Logger
	routes   map[Language]route
	gate     *semaphore.Weighted
	messages Messages
}

// ServiceOption defines a functional option for Service
type ServiceOption func(*Service)

// WithPipeline routes requests for p.Language() to p, allocating workspaces from workspaces
func WithPipeline(p Pipeline, workspaces *WorkspaceManager) ServiceOption {
	return func(s *Service) {
		s.routes[p.Language()] = route{pipeline: p, workspaces: workspaces}
	}
}

// WithAdmissionLimit caps the number of requests compiling or running at once.
// Zero or negative leaves admission unbounded.
func WithAdmissionLimit(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.gate = semaphore.NewWeighted(int64(n))
		} else {
			s.gate = nil
		}
	}
}

// WithMessages sets the catalog used to describe failures
func WithMessages(m Messages) ServiceOption {
	return func(s *Service) {
		s.messages = m
	}
}

// NewService creates a Service; pipelines are registered with WithPipeline
func NewService(logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		logger:   logger,
		routes:   make(map[Language]route),
		messages: MessagesFor("en"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Compile runs req and renders the outcome as text. It never returns an error
// value: failures become a localized message with Failed set.
func (s *Service) Compile(ctx context.Context, req CompilationRequest) CompilationResult {
	output, err := s.Execute(ctx, req)
	if err != nil {
		return CompilationResult{Output: s.messages.Describe(err), Failed: true}
	}
	return CompilationResult{Output: output}
}

// CompileC compiles and runs C-family source
func (s *Service) CompileC(ctx context.Context, source string) CompilationResult {
	return s.Compile(ctx, CompilationRequest{Language: LanguageC, Source: source})
}

// CompileJava compiles and runs Java source
func (s *Service) CompileJava(ctx context.Context, source string) CompilationResult {
	return s.Compile(ctx, CompilationRequest{Language: LanguageJava, Source: source})
}

// Execute runs one request through its pipeline and returns the program
// output or a *Error describing the failed stage.
func (s *Service) Execute(ctx context.Context, req CompilationRequest) (output string, err error) {
	start := time.Now()
	log := s.logger.With(zap.String("language", string(req.Language)))

	defer func() {
		if r := recover(); r != nil {
			err = newError(KindInternal, "", fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			log.Info("compilation request failed",
				zap.String("kind", string(KindOf(err))),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			return
		}
		log.Info("compilation request completed",
			zap.Int("output_len", len(output)),
			zap.Duration("duration", time.Since(start)))
	}()

	rt, ok := s.routes[req.Language]
	if !ok {
		return "", newError(KindInternal, "", fmt.Errorf("unsupported language: %q", req.Language))
	}

	if s.gate != nil {
		if acquireErr := s.gate.Acquire(ctx, 1); acquireErr != nil {
			return "", newError(KindCanceled, "", acquireErr)
		}
		defer s.gate.Release(1)
	}

	ws, allocErr := rt.workspaces.Allocate()
	if allocErr != nil {
		return "", newError(KindWorkspaceError, "", allocErr)
	}
	defer func() {
		_ = rt.workspaces.Release(ws)
	}()

	log.Debug("compilation request started", zap.String("workspace", ws.Path))

	return rt.pipeline.Run(ctx, ws, req.Source)
}

// Languages returns the languages this service has pipelines for
func (s *Service) Languages() []Language {
	langs := make([]Language, 0, len(s.routes))
	for _, l := range []Language{LanguageC, LanguageJava} {
		if _, ok := s.routes[l]; ok {
			langs = append(langs, l)
		}
	}
	return langs
}
