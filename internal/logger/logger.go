package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// Logger is a small facade over the underlying logging backend.
// Methods accept a message (event name in snake_case) and structured key/value fields.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

// Options controls logger construction.
type Options struct {
	// Out is the primary destination for human-facing logs. Defaults to os.Stderr.
	Out io.Writer
	// Level is one of: "debug", "info", "warn", "error". Defaults to "warn"
	// so one-shot commands stay quiet on stderr unless asked.
	Level string
	// Format controls primary output: "auto" (default), "text", or "json".
	// When "auto", TTY → text; non-TTY → json.
	Format string
	// NoColor disables color in text output. For JSON it has no effect.
	NoColor bool
	// LogFile, when set, enables an additional sink written to this path.
	LogFile string
	// ReportTimestamp toggles timestamps on the primary sink. Default: true.
	ReportTimestamp *bool
}

// New constructs a Logger according to Options. It may create an additional
// file sink when Options.LogFile is provided. The returned closer should be
// invoked on process exit to flush/close any resources (it is a no-op if nil).
func New(opts Options) (Logger, io.Closer, error) {
	primaryOut := opts.Out
	if primaryOut == nil {
		primaryOut = os.Stderr
	}

	var primary Logger
	{
		formatter := chooseFormatter(primaryOut, opts.Format)
		lvl := parseLevel(opts.Level)
		cl := clog.NewWithOptions(primaryOut, clog.Options{})
		cl.SetLevel(lvl)
		cl.SetFormatter(formatter)
		if opts.ReportTimestamp == nil || *opts.ReportTimestamp {
			cl.SetReportTimestamp(true)
		} else {
			cl.SetReportTimestamp(false)
		}
		if opts.NoColor {
			// Best-effort: the Charm libs respect NO_COLOR.
			_ = os.Setenv("NO_COLOR", "1")
		}
		primary = &charmLogger{l: cl}
	}

	var closer io.Closer
	sinks := []Logger{primary}
	if strings.TrimSpace(opts.LogFile) != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		fl := clog.NewWithOptions(f, clog.Options{})
		fl.SetLevel(parseLevel(opts.Level))
		fl.SetFormatter(chooseFormatter(f, opts.Format))
		// File logs default to no timestamps for machine parsing unless a text
		// format was explicitly requested.
		fl.SetReportTimestamp(opts.Format == "text")
		sinks = append(sinks, &charmLogger{l: fl})
		closer = f
	}

	if len(sinks) == 1 {
		return sinks[0], closer, nil
	}
	return &multiLogger{sinks: sinks}, closer, nil
}

func chooseFormatter(w io.Writer, format string) clog.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return clog.JSONFormatter
	case "text", "pretty":
		return clog.TextFormatter
	default:
		if f, ok := w.(*os.File); ok {
			if isatty.IsTerminal(f.Fd()) {
				return clog.TextFormatter
			}
		}
		return clog.JSONFormatter
	}
}

func parseLevel(s string) clog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return clog.DebugLevel
	case "info":
		return clog.InfoLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.WarnLevel
	}
}

type charmLogger struct{ l *clog.Logger }

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }
func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

type multiLogger struct{ sinks []Logger }

func (m *multiLogger) Debug(msg string, keyvals ...any) {
	for _, s := range m.sinks {
		s.Debug(msg, keyvals...)
	}
}
func (m *multiLogger) Info(msg string, keyvals ...any) {
	for _, s := range m.sinks {
		s.Info(msg, keyvals...)
	}
}
func (m *multiLogger) Warn(msg string, keyvals ...any) {
	for _, s := range m.sinks {
		s.Warn(msg, keyvals...)
	}
}
func (m *multiLogger) Error(msg string, keyvals ...any) {
	for _, s := range m.sinks {
		s.Error(msg, keyvals...)
	}
}
func (m *multiLogger) With(keyvals ...any) Logger {
	next := make([]Logger, 0, len(m.sinks))
	for _, s := range m.sinks {
		next = append(next, s.With(keyvals...))
	}
	return &multiLogger{sinks: next}
}

// Step is a helper for emitting started/ok/failed events with consistent keys.
type Step struct {
	logger   Logger
	action   string // snake_case event name, e.g. "doctor_check"
	resource string // resource name, e.g. tool being checked
	started  time.Time
	base     []any // pre-attached stable fields
}

// StartStep logs a started event and returns a Step that can be finalized with OK/Fail.
// Stable keys: status, action, resource, duration_ms.
func StartStep(l Logger, action string, resource string, extra ...any) *Step {
	s := &Step{logger: l, action: action, resource: resource, started: time.Now(), base: extra}
	fields := append([]any{
		"status", "started",
		"action", action,
		"resource", resource,
	}, s.base...)
	s.logger.Info(action, fields...)
	return s
}

// OK marks the step as successful.
func (s *Step) OK(extra ...any) {
	dur := time.Since(s.started).Milliseconds()
	fields := append([]any{
		"status", "ok",
		"action", s.action,
		"resource", s.resource,
		"duration_ms", dur,
	}, extra...)
	s.logger.Info(s.action, fields...)
}

// Fail logs the failure once with error details and returns the provided error unchanged.
func (s *Step) Fail(err error, extra ...any) error {
	dur := time.Since(s.started).Milliseconds()
	fields := append([]any{
		"status", "failed",
		"action", s.action,
		"resource", s.resource,
		"duration_ms", dur,
	}, extra...)
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	s.logger.Error(s.action, fields...)
	return err
}

// Context -----------------------------------------------------------------

type ctxKey struct{}

// WithContext returns a derived context carrying the logger.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger from context or a no-op logger if absent.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return Nop()
	}
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(Logger); ok && l != nil {
			return l
		}
	}
	return Nop()
}

// Nop returns a Logger that discards all logs.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) With(...any) Logger   { return nopLogger{} }

// NewRunID generates a random 12-hex-character run identifier.
func NewRunID() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "run-000000"
	}
	return hex.EncodeToString(b[:])
}
