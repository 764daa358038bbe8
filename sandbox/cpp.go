package sandbox

import (
	"context"

	"go.uber.org/zap"
)

// CPPToolchain describes the C-family compiler invocation
type CPPToolchain struct {
	Compiler      string
	StdFlag       string
	ExecutableExt string
	Env           []string
}

// CPPPipeline compiles <name>.cpp into <name><ext> and runs it
type CPPPipeline struct {
	stages
	toolchain CPPToolchain
}

// NewCPPPipeline creates a CPPPipeline with default implementations and optional interfaces
func NewCPPPipeline(logger *zap.Logger, budgets Budgets, toolchain CPPToolchain, opts ...PipelineOption) *CPPPipeline {
	return &CPPPipeline{
		stages:    newStages(logger, budgets, opts),
		toolchain: toolchain,
	}
}

func (*CPPPipeline) Language() Language {
	return LanguageC
}

// Run writes the source verbatim, compiles it, checks the executable exists and runs it
func (p *CPPPipeline) Run(ctx context.Context, ws *Workspace, source string) (string, error) {
	sourcePath := ws.File(ws.Name + ExtensionCPP)
	executablePath := ws.File(ws.Name + p.toolchain.ExecutableExt)

	if err := p.writeSource(sourcePath, source); err != nil {
		return "", err
	}

	args := make([]string, 0, 4)
	if p.toolchain.StdFlag != "" {
		args = append(args, p.toolchain.StdFlag)
	}
	args = append(args, sourcePath, "-o", executablePath)

	if err := p.compile(ctx, Command{
		Name: p.toolchain.Compiler,
		Args: args,
		Dir:  ws.Path,
		Env:  p.toolchain.Env,
	}); err != nil {
		return "", err
	}

	if err := p.verifyArtifact(executablePath); err != nil {
		return "", err
	}

	return p.execute(ctx, Command{
		Name: executablePath,
		Dir:  ws.Path,
		Env:  p.toolchain.Env,
	})
}
