package sandbox

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/isdmx/compilebox/config"
)

// NewCommandRunner creates the process runner for the configured backend
func NewCommandRunner(logger *zap.Logger, cfg *config.Config) (CommandRunner, error) {
	host := RealCommandRunner{MaxOutput: cfg.Sandbox.MaxOutputBytes}

	switch cfg.Sandbox.Backend {
	case "local":
		return host, nil
	case "docker", "podman":
		return NewContainerCommandRunner(logger, ContainerConfig{
			Engine:         cfg.Sandbox.Backend,
			Image:          cfg.Sandbox.ContainerImage,
			MemoryMB:       cfg.Sandbox.MemoryMB,
			NetworkEnabled: cfg.Sandbox.NetworkEnabled,
		}, WithContainerHostRunner(host)), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", cfg.Sandbox.Backend)
	}
}

// NewServiceFromConfig wires the C and Java pipelines, their workspace roots,
// the admission gate and the message catalog described by cfg
func NewServiceFromConfig(logger *zap.Logger, cfg *config.Config) (*Service, error) {
	cmdRunner, err := NewCommandRunner(logger, cfg)
	if err != nil {
		return nil, err
	}

	budgets := Budgets{
		Compile: cfg.CompileTimeout(),
		Execute: cfg.ExecuteTimeout(),
	}

	cpp := NewCPPPipeline(logger.Named("cpp"), budgets, CPPToolchain{
		Compiler:      cfg.Toolchain.CPP.Compiler,
		StdFlag:       cfg.Toolchain.CPP.StdFlag,
		ExecutableExt: cfg.Toolchain.CPP.ExecutableExt,
		Env:           cfg.Toolchain.CPP.Environment,
	}, WithCommandRunner(cmdRunner))

	java := NewJavaPipeline(logger.Named("java"), budgets, JavaToolchain{
		Compiler: cfg.Toolchain.Java.Compiler,
		Runtime:  cfg.Toolchain.Java.Runtime,
		Encoding: cfg.Toolchain.Java.Encoding,
		Env:      cfg.Toolchain.Java.Environment,
	}, WithCommandRunner(cmdRunner))

	logger.Info("sandbox configured",
		zap.String("backend", cfg.Sandbox.Backend),
		zap.Duration("compile_timeout", budgets.Compile),
		zap.Duration("execute_timeout", budgets.Execute),
		zap.Int("max_concurrent", cfg.Sandbox.MaxConcurrent),
		zap.Int("max_output_bytes", cfg.Sandbox.MaxOutputBytes),
		zap.String("c_root", cfg.Workspace.CRoot),
		zap.String("java_root", cfg.Workspace.JavaRoot))

	return NewService(logger,
		WithPipeline(cpp, NewWorkspaceManager(logger.Named("workspace"), cfg.Workspace.CRoot)),
		WithPipeline(java, NewWorkspaceManager(logger.Named("workspace"), cfg.Workspace.JavaRoot)),
		WithAdmissionLimit(cfg.Sandbox.MaxConcurrent),
		WithMessages(MessagesFor(cfg.Sandbox.Locale)),
	), nil
}
