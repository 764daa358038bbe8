package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubPipeline records the workspace it ran in and delegates to run
type stubPipeline struct {
	language Language
	run      func(ctx context.Context, ws *Workspace, source string) (string, error)

	mu    sync.Mutex
	paths []string
}

func (p *stubPipeline) Language() Language {
	return p.language
}

func (p *stubPipeline) Run(ctx context.Context, ws *Workspace, source string) (string, error) {
	p.mu.Lock()
	p.paths = append(p.paths, ws.Path)
	p.mu.Unlock()
	return p.run(ctx, ws, source)
}

func (p *stubPipeline) Paths() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...)
}

func newStubService(t *testing.T, p *stubPipeline, opts ...ServiceOption) *Service {
	t.Helper()
	logger := zaptest.NewLogger(t)
	opts = append([]ServiceOption{WithPipeline(p, NewWorkspaceManager(logger, t.TempDir()))}, opts...)
	return NewService(logger, opts...)
}

func TestServiceCompile(t *testing.T) {
	t.Run("SuccessRemovesWorkspace", func(t *testing.T) {
		p := &stubPipeline{language: LanguageC, run: func(_ context.Context, ws *Workspace, source string) (string, error) {
			require.DirExists(t, ws.Path)
			return "echo: " + source, nil
		}}
		svc := newStubService(t, p)

		result := svc.CompileC(context.Background(), "x")
		assert.False(t, result.Failed)
		assert.Equal(t, "echo: x", result.Output)

		require.Len(t, p.Paths(), 1)
		assert.NoDirExists(t, p.Paths()[0])
	})

	failures := []ErrorKind{
		KindNoPublicClass,
		KindCompileTimeout,
		KindCompileError,
		KindArtifactMissing,
		KindExecuteTimeout,
		KindExecuteError,
	}
	for _, kind := range failures {
		t.Run(string(kind)+"RemovesWorkspace", func(t *testing.T) {
			p := &stubPipeline{language: LanguageJava, run: func(_ context.Context, ws *Workspace, _ string) (string, error) {
				touch(ws.File("Foo.class"))
				return "", newError(kind, "diag", nil)
			}}
			svc := newStubService(t, p)

			result := svc.CompileJava(context.Background(), "public class Foo {}")
			assert.True(t, result.Failed)
			assert.Contains(t, result.Output, "server error: ")
			assert.Equal(t, MessagesFor("en").Describe(newError(kind, "diag", nil)), result.Output)

			require.Len(t, p.Paths(), 1)
			assert.NoDirExists(t, p.Paths()[0])
		})
	}

	t.Run("PanicBecomesInternal", func(t *testing.T) {
		p := &stubPipeline{language: LanguageC, run: func(context.Context, *Workspace, string) (string, error) {
			panic("toolchain exploded")
		}}
		svc := newStubService(t, p)

		_, err := svc.Execute(context.Background(), CompilationRequest{Language: LanguageC})
		require.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Contains(t, err.Error(), "toolchain exploded")
		assert.NoDirExists(t, p.Paths()[0])
	})

	t.Run("UnsupportedLanguage", func(t *testing.T) {
		p := &stubPipeline{language: LanguageC}
		svc := newStubService(t, p)

		result := svc.Compile(context.Background(), CompilationRequest{Language: LanguageJava})
		assert.True(t, result.Failed)
		assert.Contains(t, result.Output, "unsupported language")
		assert.Empty(t, p.Paths())
	})

	t.Run("LocalizedMessages", func(t *testing.T) {
		p := &stubPipeline{language: LanguageC, run: func(context.Context, *Workspace, string) (string, error) {
			return "", newError(KindExecuteTimeout, "", nil)
		}}
		svc := newStubService(t, p, WithMessages(MessagesFor("zh")))

		result := svc.CompileC(context.Background(), "")
		assert.Equal(t, CompilationResult{Output: "服务器错误: 执行超时", Failed: true}, result)
	})

	t.Run("WorkspaceAllocationFailure", func(t *testing.T) {
		logger := zaptest.NewLogger(t)
		blocker := t.TempDir() + "/file"
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))

		p := &stubPipeline{language: LanguageC}
		svc := NewService(logger, WithPipeline(p, NewWorkspaceManager(logger, blocker+"/root")))

		_, err := svc.Execute(context.Background(), CompilationRequest{Language: LanguageC})
		assert.Equal(t, KindWorkspaceError, KindOf(err))
		assert.Empty(t, p.Paths())
	})

	t.Run("ReleaseFailureDoesNotChangeResult", func(t *testing.T) {
		logger := zaptest.NewLogger(t)
		fs := &MockFileSystem{removeAllErrors: map[string]error{"*": errors.New("busy")}}
		p := &stubPipeline{language: LanguageC, run: func(context.Context, *Workspace, string) (string, error) {
			return "ok", nil
		}}
		svc := NewService(logger, WithPipeline(p,
			NewWorkspaceManager(logger, t.TempDir(), WithWorkspaceFileSystem(fs))))

		result := svc.CompileC(context.Background(), "")
		assert.Equal(t, CompilationResult{Output: "ok"}, result)
		assert.Len(t, fs.removed, 1)
	})
}

func TestServiceConcurrency(t *testing.T) {
	t.Run("IdenticalRequestsAreIsolated", func(t *testing.T) {
		p := &stubPipeline{language: LanguageC, run: func(_ context.Context, ws *Workspace, source string) (string, error) {
			path := ws.File("out.txt")
			if err := os.WriteFile(path, []byte(ws.Name), 0o600); err != nil {
				return "", err
			}
			time.Sleep(10 * time.Millisecond)
			data, err := os.ReadFile(path)
			return source + ":" + string(data), err
		}}
		svc := newStubService(t, p)

		const n = 20
		outputs := make([]string, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result := svc.CompileC(context.Background(), "same")
				outputs[i] = result.Output
			}(i)
		}
		wg.Wait()

		paths := p.Paths()
		require.Len(t, paths, n)
		seen := make(map[string]bool)
		for _, path := range paths {
			assert.False(t, seen[path], "workspace reused: %s", path)
			seen[path] = true
			assert.NoDirExists(t, path)
		}

		distinct := make(map[string]bool)
		for _, out := range outputs {
			assert.Contains(t, out, "same:code_")
			distinct[out] = true
		}
		assert.Len(t, distinct, n)
	})

	t.Run("AdmissionLimitBoundsInFlight", func(t *testing.T) {
		var inFlight, peak int32
		p := &stubPipeline{language: LanguageC, run: func(context.Context, *Workspace, string) (string, error) {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return "", nil
		}}
		svc := newStubService(t, p, WithAdmissionLimit(2))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				svc.CompileC(context.Background(), "")
			}()
		}
		wg.Wait()

		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
		assert.Len(t, p.Paths(), 8)
	})

	t.Run("CanceledWhileWaitingForAdmission", func(t *testing.T) {
		release := make(chan struct{})
		started := make(chan struct{})
		p := &stubPipeline{language: LanguageC, run: func(context.Context, *Workspace, string) (string, error) {
			close(started)
			<-release
			return "", nil
		}}
		svc := newStubService(t, p, WithAdmissionLimit(1))

		done := make(chan struct{})
		go func() {
			defer close(done)
			svc.CompileC(context.Background(), "")
		}()
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := svc.Execute(ctx, CompilationRequest{Language: LanguageC})
		assert.Equal(t, KindCanceled, KindOf(err))

		close(release)
		<-done
		assert.Len(t, p.Paths(), 1)
	})
}

func TestServiceLanguages(t *testing.T) {
	logger := zaptest.NewLogger(t)
	wm := NewWorkspaceManager(logger, t.TempDir())

	svc := NewService(logger,
		WithPipeline(&stubPipeline{language: LanguageJava}, wm),
		WithPipeline(&stubPipeline{language: LanguageC}, wm))
	assert.Equal(t, []Language{LanguageC, LanguageJava}, svc.Languages())

	assert.Empty(t, NewService(logger).Languages())
}

func ExampleMessages_Describe() {
	fmt.Println(MessagesFor("zh").Describe(newError(KindCompileTimeout, "", nil)))
	// Output: 服务器错误: 编译超时
}
