package sandbox

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContainerConfig holds configuration for container backed execution
type ContainerConfig struct {
	Engine         string // "docker" or "podman"
	Image          string
	MemoryMB       int
	NetworkEnabled bool
}

// containerRemoveTimeout bounds the forced removal of a timed out container
const containerRemoveTimeout = 10 * time.Second

// ContainerCommandRunner implements CommandRunner by rewriting every command
// into "<engine> run ... <image> <command>" and delegating to another runner.
// The workspace is bind-mounted at the same path, memory is capped, the
// network is off unless enabled and all capabilities are dropped.
type ContainerCommandRunner struct {
	logger    *zap.Logger
	config    ContainerConfig
	cmdRunner CommandRunner
}

// ContainerOption defines a functional option for ContainerCommandRunner
type ContainerOption func(*ContainerCommandRunner)

// WithContainerHostRunner sets the runner that invokes the container engine CLI
func WithContainerHostRunner(cmdRunner CommandRunner) ContainerOption {
	return func(c *ContainerCommandRunner) {
		c.cmdRunner = cmdRunner
	}
}

// NewContainerCommandRunner creates a ContainerCommandRunner with default implementations and optional interfaces
func NewContainerCommandRunner(logger *zap.Logger, config ContainerConfig, opts ...ContainerOption) *ContainerCommandRunner {
	runner := &ContainerCommandRunner{
		logger:    logger,
		config:    config,
		cmdRunner: RealCommandRunner{},
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// RunCommand runs cmd inside a fresh container. On timeout the container is
// force-removed because killing the engine CLI does not stop it.
func (c *ContainerCommandRunner) RunCommand(ctx context.Context, cmd Command) (ProcessOutcome, error) {
	dir, err := filepath.Abs(cmd.Dir)
	if err != nil {
		return ProcessOutcome{}, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	containerName := "compilebox-" + uuid.NewString()
	args := c.runArgs(containerName, dir, cmd)

	outcome, err := c.cmdRunner.RunCommand(ctx, Command{
		Name:    c.config.Engine,
		Args:    args,
		Dir:     dir,
		Timeout: cmd.Timeout,
	})

	if outcome.TimedOut || err != nil {
		c.removeContainer(containerName)
	}

	return outcome, err
}

func (c *ContainerCommandRunner) runArgs(containerName, dir string, cmd Command) []string {
	network := "none"
	if c.config.NetworkEnabled {
		network = "bridge"
	}

	args := []string{
		"run",
		"--name", containerName,
		"--rm",
		"-v", fmt.Sprintf("%s:%s", dir, dir),
		"--workdir", dir,
		"--memory", fmt.Sprintf("%dm", c.config.MemoryMB),
		"--network", network,
		"--security-opt", "no-new-privileges:true",
		"--cap-drop", "ALL",
	}

	for _, kv := range cmd.Env {
		args = append(args, "-e", kv)
	}

	args = append(args, c.config.Image, cmd.Name)
	return append(args, cmd.Args...)
}

func (c *ContainerCommandRunner) removeContainer(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), containerRemoveTimeout)
	defer cancel()

	outcome, err := c.cmdRunner.RunCommand(ctx, Command{
		Name:    c.config.Engine,
		Args:    []string{"rm", "-f", name},
		Timeout: containerRemoveTimeout,
	})
	if err != nil || outcome.ExitCode != 0 {
		c.logger.Warn("failed to remove container",
			zap.String("container", name),
			zap.String("output", outcome.Output),
			zap.Error(err))
	}
}
