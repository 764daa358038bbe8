package sandbox

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the stage at which a request failed
type ErrorKind string

// Failure kinds
const (
	KindNone            ErrorKind = ""
	KindNoPublicClass   ErrorKind = "NoPublicClass"
	KindCompileTimeout  ErrorKind = "CompileTimeout"
	KindCompileError    ErrorKind = "CompileError"
	KindArtifactMissing ErrorKind = "ArtifactMissing"
	KindExecuteTimeout  ErrorKind = "ExecuteTimeout"
	KindExecuteError    ErrorKind = "ExecuteError"
	KindWorkspaceError  ErrorKind = "WorkspaceError"
	KindCanceled        ErrorKind = "Canceled"
	KindInternal        ErrorKind = "Internal"
)

// Error is a pipeline failure. Output carries compiler diagnostics for
// KindCompileError and whatever was captured before a timeout.
type Error struct {
	Kind   ErrorKind
	Output string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Output != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Output)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, output string, err error) *Error {
	return &Error{Kind: kind, Output: output, Err: err}
}

// KindOf extracts the failure kind from err. Errors that did not come from a
// pipeline stage report KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
