package sandbox

import (
	"context"

	"go.uber.org/zap"
)

// JavaToolchain describes the Java compiler and runtime invocations
type JavaToolchain struct {
	Compiler string
	Runtime  string
	Encoding string
	Env      []string
}

// JavaPipeline compiles <Class>.java and runs <Class> from the workspace classpath.
// The source file must be named after its public class.
type JavaPipeline struct {
	stages
	toolchain JavaToolchain
}

// NewJavaPipeline creates a JavaPipeline with default implementations and optional interfaces
func NewJavaPipeline(logger *zap.Logger, budgets Budgets, toolchain JavaToolchain, opts ...PipelineOption) *JavaPipeline {
	return &JavaPipeline{
		stages:    newStages(logger, budgets, opts),
		toolchain: toolchain,
	}
}

func (*JavaPipeline) Language() Language {
	return LanguageJava
}

// Run extracts the class name, writes <Class>.java, compiles it, checks the
// bytecode exists and runs it
func (p *JavaPipeline) Run(ctx context.Context, ws *Workspace, source string) (string, error) {
	className, ok := ExtractClassName(source)
	if !ok {
		return "", newError(KindNoPublicClass, "", nil)
	}

	sourcePath := ws.File(className + ExtensionJava)
	if err := p.writeSource(sourcePath, source); err != nil {
		return "", err
	}

	args := make([]string, 0, 3)
	if p.toolchain.Encoding != "" {
		args = append(args, "-encoding", p.toolchain.Encoding)
	}
	args = append(args, sourcePath)

	if err := p.compile(ctx, Command{
		Name: p.toolchain.Compiler,
		Args: args,
		Dir:  ws.Path,
		Env:  p.toolchain.Env,
	}); err != nil {
		return "", err
	}

	if err := p.verifyArtifact(ws.File(className + ExtensionClass)); err != nil {
		return "", err
	}

	return p.execute(ctx, Command{
		Name: p.toolchain.Runtime,
		Args: []string{"-cp", ws.Path, className},
		Dir:  ws.Path,
		Env:  p.toolchain.Env,
	})
}
