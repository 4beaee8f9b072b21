package probe

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// Kind classifies why a probe produced no value.
type Kind int

const (
	BinaryNotFound Kind = iota + 1
	NonZeroExit
	ParseEmpty
	PermissionDenied
)

func (k Kind) String() string {
	switch k {
	case BinaryNotFound:
		return "binary not found"
	case NonZeroExit:
		return "non-zero exit"
	case ParseEmpty:
		return "empty output"
	case PermissionDenied:
		return "permission denied"
	default:
		return "unknown"
	}
}

// Error is a probe failure. It never escapes the report section that asked.
type Error struct {
	Kind    Kind
	Command string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the Kind of a probe error, or 0 when err is not one.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// classify maps a spawn error or a finished run onto the taxonomy. It returns
// nil when the run succeeded.
func classify(command string, out Output, err error) *Error {
	switch {
	case err != nil && errors.Is(err, exec.ErrNotFound):
		return &Error{Kind: BinaryNotFound, Command: command, Reason: "not found", Err: err}
	case err != nil && errors.Is(err, fs.ErrNotExist):
		return &Error{Kind: BinaryNotFound, Command: command, Reason: "not found", Err: err}
	case err != nil && errors.Is(err, fs.ErrPermission):
		return &Error{Kind: PermissionDenied, Command: command, Reason: "permission denied", Err: err}
	case err != nil:
		return &Error{Kind: NonZeroExit, Command: command, Reason: "failed to run", Err: err}
	case out.ExitCode != 0 && deniedMessage(out.Stderr):
		return &Error{Kind: PermissionDenied, Command: command, Reason: firstLine(out.Stderr)}
	case out.ExitCode != 0:
		return &Error{Kind: NonZeroExit, Command: command, Reason: fmt.Sprintf("exited with status %d", out.ExitCode)}
	}
	return nil
}

func deniedMessage(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "permission denied") || strings.Contains(s, "operation not permitted")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
