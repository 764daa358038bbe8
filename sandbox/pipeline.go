package sandbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Pipeline compiles source inside a workspace and runs the produced artifact.
// Compile always completes before execute starts.
type Pipeline interface {
	Language() Language
	Run(ctx context.Context, ws *Workspace, source string) (string, error)
}

// stages holds what every pipeline needs to drive the compile and execute stages
type stages struct {
	logger    *zap.Logger
	budgets   Budgets
	cmdRunner CommandRunner
	fs        FileSystem
}

// PipelineOption defines a functional option shared by all pipelines
type PipelineOption func(*stages)

// WithCommandRunner sets the CommandRunner used for compiler and program processes
func WithCommandRunner(cmdRunner CommandRunner) PipelineOption {
	return func(s *stages) {
		s.cmdRunner = cmdRunner
	}
}

// WithFileSystem sets the FileSystem used to write sources and probe artifacts
func WithFileSystem(fs FileSystem) PipelineOption {
	return func(s *stages) {
		s.fs = fs
	}
}

func newStages(logger *zap.Logger, budgets Budgets, opts []PipelineOption) stages {
	s := stages{
		logger:    logger,
		budgets:   budgets,
		cmdRunner: RealCommandRunner{},
		fs:        RealFileSystem{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s *stages) writeSource(path, source string) error {
	if err := s.fs.WriteFile(path, []byte(source), FilePermission); err != nil {
		return newError(KindWorkspaceError, "", fmt.Errorf("failed to write source: %w", err))
	}
	return nil
}

// compile runs the compiler under the compile budget.
func (s *stages) compile(ctx context.Context, cmd Command) error {
	cmd.Timeout = s.budgets.Compile

	outcome, err := s.cmdRunner.RunCommand(ctx, cmd)
	if err != nil {
		return spawnError(ctx, outcome, err)
	}

	if outcome.TimedOut {
		s.logger.Warn("compiler timed out", zap.String("compiler", cmd.Name), zap.Duration("budget", cmd.Timeout))
		return newError(KindCompileTimeout, outcome.Output, nil)
	}

	if outcome.ExitCode != 0 {
		diagnostics := outcome.Output
		if diagnostics == "" {
			diagnostics = fmt.Sprintf("%s exited with status %d", cmd.Name, outcome.ExitCode)
		}
		return newError(KindCompileError, diagnostics, nil)
	}

	return nil
}

// verifyArtifact guards against a compiler that reports success without output.
func (s *stages) verifyArtifact(path string) error {
	exists, err := s.fs.FileExists(path)
	if err != nil {
		return newError(KindArtifactMissing, "", fmt.Errorf("failed to stat %s: %w", path, err))
	}
	if !exists {
		return newError(KindArtifactMissing, "", nil)
	}
	return nil
}

// execute runs the artifact under the execute budget. The program's own exit
// status is not a failure; its output is returned either way.
func (s *stages) execute(ctx context.Context, cmd Command) (string, error) {
	cmd.Timeout = s.budgets.Execute

	outcome, err := s.cmdRunner.RunCommand(ctx, cmd)
	if err != nil {
		return "", spawnError(ctx, outcome, err)
	}

	if outcome.TimedOut {
		s.logger.Warn("program timed out", zap.String("program", cmd.Name), zap.Duration("budget", cmd.Timeout))
		return "", newError(KindExecuteTimeout, outcome.Output, nil)
	}

	if outcome.Truncated {
		s.logger.Warn("program output truncated",
			zap.String("program", cmd.Name),
			zap.Int("output_len", len(outcome.Output)))
	}

	s.logger.Debug("program exited",
		zap.String("program", cmd.Name),
		zap.Int("exit_code", outcome.ExitCode),
		zap.Int("output_len", len(outcome.Output)))

	return outcome.Output, nil
}

func spawnError(ctx context.Context, outcome ProcessOutcome, err error) error {
	if ctx.Err() != nil {
		return newError(KindCanceled, outcome.Output, err)
	}
	return newError(KindExecuteError, outcome.Output, err)
}
