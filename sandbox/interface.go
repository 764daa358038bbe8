package sandbox

import (
	"context"
	"errors"
	"os"
	"time"
)

// Language identifies a supported source language family
type Language string

// Supported language families
const (
	LanguageC    Language = "c"
	LanguageJava Language = "java"
)

// ParseLanguage maps user input such as "cpp" or "JAVA" onto a Language
func ParseLanguage(s string) (Language, error) {
	switch s {
	case "c", "C", "cpp", "c++", "cc":
		return LanguageC, nil
	case "java", "Java", "JAVA":
		return LanguageJava, nil
	default:
		return "", errors.New("unsupported language: " + s)
	}
}

// CompilationRequest is one submission to compile and run
type CompilationRequest struct {
	Language Language
	Source   string
}

// CompilationResult is the only value handed back across the service boundary.
// Output holds the program output on success or a localized message on failure.
type CompilationResult struct {
	Output string
	Failed bool
}

// Compiler is the facade consumed by the transports
type Compiler interface {
	Compile(ctx context.Context, req CompilationRequest) CompilationResult
}

// Command describes one external process invocation
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string // appended to the host environment
	Timeout time.Duration
}

// ProcessOutcome is the result of one process invocation. ExitCode is -1 when TimedOut.
// Truncated reports that Output was cut at the runner's output cap.
type ProcessOutcome struct {
	ExitCode  int
	TimedOut  bool
	Output    string
	Truncated bool
}

// CommandRunner starts an external process and waits for it to exit or time out.
// Only spawn-level failures and caller cancellation are returned as errors.
type CommandRunner interface {
	RunCommand(ctx context.Context, cmd Command) (ProcessOutcome, error)
}

// FileSystem defines an interface for file system operations
type FileSystem interface {
	Mkdir(path string, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(filename string, data []byte, perm os.FileMode) error
	RemoveAll(path string) error
	FileExists(path string) (bool, error)
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) Mkdir(path string, perm os.FileMode) error {
	return os.Mkdir(path, perm)
}

func (RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (RealFileSystem) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// File permission constants
const (
	DirPermission  = 0755
	FilePermission = 0600
)

// Source and artifact extensions
const (
	ExtensionCPP   = ".cpp"
	ExtensionJava  = ".java"
	ExtensionClass = ".class"
)

// Budgets holds the two independent wall-clock deadlines of a request
type Budgets struct {
	Compile time.Duration
	Execute time.Duration
}

// DefaultBudgets returns the 30s compile and 10s execute budgets
func DefaultBudgets() Budgets {
	return Budgets{
		Compile: 30 * time.Second,
		Execute: 10 * time.Second,
	}
}
