// Package execx runs external commands behind a narrow interface so callers
// stay testable without the real binaries installed.
package execx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/logger"
)

// Runner abstracts external command execution for ease of testing.
type Runner interface {
	Run(ctx context.Context, opts Options, name string, args ...string) (Result, error)
}

// Options controls execution behavior per call.
type Options struct {
	Dir   string
	Env   []string
	Stdin io.Reader
	// Stdout/Stderr, when set, receive the streams directly instead of the
	// Result capturing them. Used where output must pass through (tags).
	Stdout  io.Writer
	Stderr  io.Writer
	Timeout time.Duration
}

// Result contains the structured outcome of a command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// FirstLine returns the first line of s with trailing whitespace removed.
func (r Result) FirstLine() string {
	s := r.Stdout
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// System is the real implementation shelling out via os/exec.
type System struct {
	// DefaultTimeout applies when Options.Timeout is unset. Zero means no limit.
	DefaultTimeout time.Duration
}

func (s System) Run(ctx context.Context, opts Options, name string, args ...string) (Result, error) {
	if opts.Timeout <= 0 && s.DefaultTimeout > 0 {
		opts.Timeout = s.DefaultTimeout
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	log := logger.FromContext(ctx)
	log.Debug("exec_start", "command", name, "args", strings.Join(args, " "), "dir", opts.Dir)

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	env := os.Environ()
	if len(opts.Env) > 0 {
		env = append(env, opts.Env...)
	}
	cmd.Env = env
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if opts.Stdin != nil {
		cmd.Stdin = opts.Stdin
	}

	var stdout, stderr bytes.Buffer
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	} else {
		cmd.Stdout = &stdout
	}
	if opts.Stderr != nil {
		cmd.Stderr = opts.Stderr
	} else {
		cmd.Stderr = &stderr
	}

	runErr := cmd.Run()
	dur := time.Since(start)

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode, Duration: dur}

	log.Debug("exec_finish", "command", name, "exit_code", exitCode, "duration_ms", dur.Milliseconds(), "err", runErr)

	if runErr != nil {
		kind := apperr.External
		var notFound *exec.Error
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			kind = apperr.Timeout
		case errors.As(runErr, &notFound):
			kind = apperr.Unavailable
		}
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = runErr.Error()
		}
		return res, apperr.Wrap("execx.Run", kind, runErr, "%s: %s", name, msg)
	}
	return res, nil
}
