package sandbox

import (
	"context"
	"errors"
	"os"
	"sync"
)

// MockCommandRunner implements CommandRunner for testing. handler decides the
// outcome of every command; calls are recorded in order.
type MockCommandRunner struct {
	mu      sync.Mutex
	calls   []Command
	handler func(ctx context.Context, cmd Command) (ProcessOutcome, error)
}

func (m *MockCommandRunner) RunCommand(ctx context.Context, cmd Command) (ProcessOutcome, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	handler := m.handler
	m.mu.Unlock()

	if handler == nil {
		return ProcessOutcome{}, nil
	}
	return handler(ctx, cmd)
}

func (m *MockCommandRunner) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Command(nil), m.calls...)
}

// MockFileSystem implements FileSystem for testing, delegating to the real
// file system unless an error is configured for a path.
type MockFileSystem struct {
	RealFileSystem

	mu              sync.Mutex
	writeFileErrors map[string]error
	removeAllErrors map[string]error
	fileExistsErr   error
	removed         []string
}

func (m *MockFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	err, exists := m.writeFileErrors[filename]
	m.mu.Unlock()
	if exists {
		return err
	}
	return m.RealFileSystem.WriteFile(filename, data, perm)
}

func (m *MockFileSystem) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, path)
	if err, exists := m.removeAllErrors[path]; exists {
		return err
	}
	if err, exists := m.removeAllErrors["*"]; exists {
		return err
	}
	return m.RealFileSystem.RemoveAll(path)
}

func (m *MockFileSystem) FileExists(path string) (bool, error) {
	if m.fileExistsErr != nil {
		return false, m.fileExistsErr
	}
	return m.RealFileSystem.FileExists(path)
}

var errSpawn = errors.New("exec: \"g++\": executable file not found in $PATH")

// touch simulates a compiler writing its artifact
func touch(path string) {
	_ = os.WriteFile(path, []byte("artifact"), 0o700)
}
