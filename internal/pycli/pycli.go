// Package pycli probes an external Python interpreter for the facts the
// descriptor builder and path locator need: version tag, installation
// prefix, extension-module suffixes, and the numpy include directory.
package pycli

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/execx"
)

const defaultTimeout = 10 * time.Second

// DefaultInterpreter is used when the manifest does not name one.
const DefaultInterpreter = "python3"

// Client probes one interpreter binary.
type Client struct {
	run         execx.Runner
	interpreter string
}

func New(interpreter string) *Client {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	return &Client{run: execx.System{DefaultTimeout: defaultTimeout}, interpreter: interpreter}
}

// WithRunner substitutes the command runner; used by tests.
func (c *Client) WithRunner(r execx.Runner) *Client {
	c.run = r
	return c
}

// Interpreter returns the binary name this client probes.
func (c *Client) Interpreter() string { return c.interpreter }

var versionTagRe = regexp.MustCompile(`^\d+\.\d+$`)

// VersionTag returns the interpreter's "major.minor" string, e.g. "3.11".
func (c *Client) VersionTag(ctx context.Context) (string, error) {
	out, err := c.eval(ctx, `import sys; print("%d.%d" % sys.version_info[:2])`)
	if err != nil {
		return "", err
	}
	if !versionTagRe.MatchString(out) {
		return "", apperr.New("pycli.VersionTag", apperr.External, "unexpected interpreter output %q", out)
	}
	return out, nil
}

// Prefix returns sys.prefix of the interpreter.
func (c *Client) Prefix(ctx context.Context) (string, error) {
	return c.eval(ctx, `import sys; print(sys.prefix)`)
}

// ExtensionSuffixes returns the filename suffixes compiled extension modules
// may carry, most specific first (e.g. ".cpython-311-x86_64-linux-gnu.so", ".so").
func (c *Client) ExtensionSuffixes(ctx context.Context) ([]string, error) {
	res, err := c.run.Run(ctx, execx.Options{}, c.interpreter, "-c",
		`import importlib.machinery as m; print("\n".join(m.EXTENSION_SUFFIXES))`)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return nil, apperr.New("pycli.ExtensionSuffixes", apperr.External, "interpreter reported no extension suffixes")
	}
	return out, nil
}

// NumpyInclude returns numpy's C header directory, the include path the
// extension is compiled against.
func (c *Client) NumpyInclude(ctx context.Context) (string, error) {
	return c.eval(ctx, `import numpy; print(numpy.get_include())`)
}

// Version returns the interpreter's banner for diagnostics, e.g. "Python 3.11.2".
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.run.Run(ctx, execx.Options{}, c.interpreter, "--version")
	if err != nil {
		return "", err
	}
	if line := res.FirstLine(); line != "" {
		return line, nil
	}
	// Python 2 printed the banner to stderr.
	return strings.TrimSpace(res.Stderr), nil
}

func (c *Client) eval(ctx context.Context, program string) (string, error) {
	res, err := c.run.Run(ctx, execx.Options{}, c.interpreter, "-c", program)
	if err != nil {
		return "", err
	}
	line := res.FirstLine()
	if line == "" {
		return "", apperr.New("pycli.eval", apperr.External, "empty interpreter output")
	}
	return line, nil
}

// DefaultSuffixes is the fallback when no interpreter is available:
// Windows extensions are .pyd, everything else .so.
func DefaultSuffixes(goos string) []string {
	if goos == "windows" {
		return []string{".pyd"}
	}
	return []string{".so"}
}
