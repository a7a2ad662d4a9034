package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable category for application errors.
type Kind string

const (
	// Stable kinds you can switch/branch on across packages.
	InvalidInput Kind = "invalid_input"
	NotFound     Kind = "not_found"
	Timeout      Kind = "timeout"
	Unavailable  Kind = "unavailable" // required external tool missing or unusable
	External     Kind = "external"    // external tool ran and failed (git/etags/python)
	Internal     Kind = "internal"    // programmer bug, invariant broken
)

// E is a rich, chainable error.
type E struct {
	Op   string // where it happened, e.g. "release.Resolve"
	Kind Kind   // category
	Err  error  // wrapped cause
	Msg  string // optional, short context message
	Code int    // optional explicit exit code; 0 means derive from Kind
}

func (e *E) Error() string {
	base := e.Msg
	if base == "" && e.Err != nil {
		base = e.Err.Error()
	}
	if e.Op != "" && base != "" {
		return fmt.Sprintf("%s: %s", e.Op, base)
	}
	if e.Op != "" {
		return e.Op
	}
	return base
}

func (e *E) Unwrap() error { return e.Err }

// Wrap creates an E that wraps the provided error with operation, kind, and message.
func Wrap(op string, kind Kind, err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	return &E{Op: op, Kind: kind, Err: err, Msg: fmt.Sprintf(msg, args...)}
}

// New creates a new E with no wrapped cause.
func New(op string, kind Kind, msg string, args ...any) error {
	return &E{Op: op, Kind: kind, Msg: fmt.Sprintf(msg, args...)}
}

// WithExit creates an E carrying an explicit process exit code. Used where a
// subcommand must pass an external tool's exit status through unchanged.
func WithExit(op string, code int, err error, msg string, args ...any) error {
	return &E{Op: op, Kind: External, Err: err, Msg: fmt.Sprintf(msg, args...), Code: code}
}

// IsKind reports whether any error in the chain is an *E of the provided Kind.
func IsKind(err error, k Kind) bool {
	var e *E
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// ExitCode returns the explicit exit code carried by the error chain, if any.
func ExitCode(err error) (int, bool) {
	var e *E
	if errors.As(err, &e) && e.Code != 0 {
		return e.Code, true
	}
	return 0, false
}
