package sandbox

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Workspace is the private directory of one in-flight request
type Workspace struct {
	// Name is "code_<unix millis>_<uuid>"; C sources and executables reuse it as base name.
	Name      string
	Path      string
	CreatedAt time.Time
}

// File returns the path of name inside the workspace
func (w *Workspace) File(name string) string {
	return filepath.Join(w.Path, name)
}

// WorkspaceManager allocates and removes workspaces under one root directory.
// Paths are unique by construction, so no locking is needed.
type WorkspaceManager struct {
	logger *zap.Logger
	root   string
	fs     FileSystem
	now    func() time.Time
	newID  func() string
}

// WorkspaceOption defines a functional option for WorkspaceManager
type WorkspaceOption func(*WorkspaceManager)

// WithWorkspaceFileSystem sets the FileSystem for WorkspaceManager
func WithWorkspaceFileSystem(fs FileSystem) WorkspaceOption {
	return func(m *WorkspaceManager) {
		m.fs = fs
	}
}

// WithWorkspaceClock sets the timestamp source used in workspace names
func WithWorkspaceClock(now func() time.Time) WorkspaceOption {
	return func(m *WorkspaceManager) {
		m.now = now
	}
}

// WithWorkspaceIDGenerator sets the random identifier source used in workspace names
func WithWorkspaceIDGenerator(newID func() string) WorkspaceOption {
	return func(m *WorkspaceManager) {
		m.newID = newID
	}
}

// NewWorkspaceManager creates a WorkspaceManager rooted at root
func NewWorkspaceManager(logger *zap.Logger, root string, opts ...WorkspaceOption) *WorkspaceManager {
	m := &WorkspaceManager{
		logger: logger,
		root:   root,
		fs:     RealFileSystem{},
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Root returns the absolute workspace root, or the configured value if it cannot be resolved
func (m *WorkspaceManager) Root() string {
	abs, err := filepath.Abs(m.root)
	if err != nil {
		return m.root
	}
	return abs
}

// Allocate creates a fresh workspace directory, creating the root if needed.
// Allocation fails rather than reuse a directory that already exists.
func (m *WorkspaceManager) Allocate() (*Workspace, error) {
	root, err := filepath.Abs(m.root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace root %s: %w", m.root, err)
	}

	if err := m.fs.MkdirAll(root, DirPermission); err != nil {
		return nil, fmt.Errorf("failed to create workspace root: %w", err)
	}

	createdAt := m.now()
	name := fmt.Sprintf("code_%d_%s", createdAt.UnixMilli(), m.newID())
	path := filepath.Join(root, name)

	if err := m.fs.Mkdir(path, DirPermission); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", path, err)
	}

	m.logger.Debug("workspace allocated", zap.String("workspace", path))

	return &Workspace{
		Name:      name,
		Path:      path,
		CreatedAt: createdAt,
	}, nil
}

// Release recursively deletes the workspace. Failures are logged and returned
// for inspection; callers are not expected to act on them.
func (m *WorkspaceManager) Release(ws *Workspace) error {
	if ws == nil {
		return nil
	}

	if err := m.fs.RemoveAll(ws.Path); err != nil {
		m.logger.Error("failed to remove workspace", zap.String("workspace", ws.Path), zap.Error(err))
		return err
	}

	m.logger.Debug("workspace removed",
		zap.String("workspace", ws.Path),
		zap.Duration("age", time.Since(ws.CreatedAt)))
	return nil
}
