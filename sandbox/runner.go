package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// DefaultWaitDelay bounds how long output is drained after a process is killed.
const DefaultWaitDelay = 500 * time.Millisecond

// RealCommandRunner implements CommandRunner using actual exec commands.
// stdout and stderr are captured into one buffer of at most MaxOutput bytes;
// zero means unlimited.
type RealCommandRunner struct {
	WaitDelay time.Duration
	MaxOutput int
}

// RunCommand executes cmd, killing it (and on Unix its whole process group)
// once cmd.Timeout elapses. Processes the command left behind are killed when
// it returns, whatever the outcome.
func (r RealCommandRunner) RunCommand(ctx context.Context, c Command) (ProcessOutcome, error) {
	if c.Name == "" {
		return ProcessOutcome{}, fmt.Errorf("no command provided")
	}
	if err := ctx.Err(); err != nil {
		return ProcessOutcome{}, fmt.Errorf("command not started: %w", err)
	}

	stageCtx, cancel := withOptionalTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(stageCtx, c.Name, c.Args...) //nolint:gosec // running submitted programs is the point
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	output := &cappedBuffer{limit: r.MaxOutput}
	cmd.Stdout = output
	cmd.Stderr = output

	configureProcessGroup(cmd)
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	err := cmd.Run()
	_ = killProcessGroup(cmd)

	if ctx.Err() != nil {
		return ProcessOutcome{ExitCode: -1, Output: output.String(), Truncated: output.truncated},
			fmt.Errorf("command %s canceled: %w", c.Name, ctx.Err())
	}

	if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		return ProcessOutcome{ExitCode: -1, TimedOut: true, Output: output.String(), Truncated: output.truncated}, nil
	}

	if err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return ProcessOutcome{ExitCode: exitError.ExitCode(), Output: output.String(), Truncated: output.truncated}, nil
		}
		return ProcessOutcome{}, fmt.Errorf("failed to run %s: %w", c.Name, err)
	}

	return ProcessOutcome{ExitCode: 0, Output: output.String(), Truncated: output.truncated}, nil
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// cappedBuffer keeps the first limit bytes written and discards the rest.
// Writes always report success so the process is not killed by a short write.
// exec.Cmd serializes writes when Stdout and Stderr are the same writer.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if b.limit <= 0 {
		return b.buf.Write(p)
	}
	room := b.limit - b.buf.Len()
	if room <= 0 {
		b.truncated = b.truncated || len(p) > 0
		return len(p), nil
	}
	if len(p) > room {
		b.buf.Write(p[:room])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
