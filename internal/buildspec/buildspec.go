// Package buildspec assembles the native-extension build descriptor: the
// source files, include directories, preprocessor definitions, compiler
// flags, and libraries handed to the compiler/linker toolchain.
package buildspec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/logger"
	"github.com/extform/extform/internal/release"
)

// Define is one preprocessor definition, NAME=VALUE.
type Define struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Descriptor is the assembled build input set.
type Descriptor struct {
	Module           string   `json:"module" yaml:"module"`
	Sources          []string `json:"sources" yaml:"sources"`
	IncludeDirs      []string `json:"include_dirs,omitempty" yaml:"include_dirs,omitempty"`
	Defines          []Define `json:"defines" yaml:"defines"`
	ExtraCompileArgs []string `json:"extra_compile_args,omitempty" yaml:"extra_compile_args,omitempty"`
	Libraries        []string `json:"libraries,omitempty" yaml:"libraries,omitempty"`
}

// Switches are the diagnostic build switches consumed from the argument
// list. Each one maps to a preprocessor definition or, for Debug, extra
// compiler flags on the native Windows toolchain.
type Switches struct {
	Assert    bool
	Trace     bool
	LeakCheck bool
	Debug     bool
}

// ParseSwitches removes every occurrence of the known switches from args and
// returns the remaining arguments in their original order. It is pure:
// parsing the returned remainder again yields zero switches and the same
// remainder.
func ParseSwitches(args []string) (Switches, []string) {
	var sw Switches
	rest := make([]string, 0, len(args))
	for _, a := range args {
		switch a {
		case "--assert":
			sw.Assert = true
		case "--trace":
			sw.Trace = true
		case "--leak-check":
			sw.LeakCheck = true
		case "--debug":
			sw.Debug = true
		default:
			rest = append(rest, a)
		}
	}
	return sw, rest
}

// Merge returns the union of both switch sets.
func (s Switches) Merge(o Switches) Switches {
	return Switches{
		Assert:    s.Assert || o.Assert,
		Trace:     s.Trace || o.Trace,
		LeakCheck: s.LeakCheck || o.LeakCheck,
		Debug:     s.Debug || o.Debug,
	}
}

func (s Switches) defines(prefix string) []Define {
	var out []Define
	if s.Assert {
		out = append(out, Define{Name: prefix + "_ASSERT", Value: "1"})
	}
	if s.Trace {
		out = append(out, Define{Name: prefix + "_TRACE", Value: "1"})
	}
	if s.LeakCheck {
		out = append(out, Define{Name: prefix + "_LEAK_CHECK", Value: "1"})
	}
	return out
}

// Family classifies the target operating system for flag selection.
type Family int

const (
	// FamilyWindows is the native Windows toolchain (MSVC).
	FamilyWindows Family = iota
	// FamilyWindowsPosix is a POSIX layer on Windows (cygwin and friends):
	// the OS environment variable says Windows while GOOS does not.
	FamilyWindowsPosix
	FamilyDarwin
	FamilyPosix
)

func (f Family) String() string {
	switch f {
	case FamilyWindows:
		return "windows"
	case FamilyWindowsPosix:
		return "windows-posix"
	case FamilyDarwin:
		return "darwin"
	default:
		return "posix"
	}
}

// DetectFamily picks the OS family from the target GOOS and environment.
// First match wins: native Windows, then the POSIX-on-Windows layer, then
// darwin, then generic POSIX.
func DetectFamily(goos string, getenv func(string) string) Family {
	switch {
	case goos == "windows":
		return FamilyWindows
	case strings.HasPrefix(strings.ToLower(getenv("OS")), "windows"):
		return FamilyWindowsPosix
	case goos == "darwin":
		return FamilyDarwin
	default:
		return FamilyPosix
	}
}

// Interpreter supplies probed interpreter facts. Probe failures degrade the
// descriptor (missing include dirs) instead of failing the build.
type Interpreter interface {
	NumpyInclude(ctx context.Context) (string, error)
	Prefix(ctx context.Context) (string, error)
}

// Params are the inputs to Build.
type Params struct {
	Module       string // extension module name
	SourceDir    string // directory holding the .cpp sources
	MacroPrefix  string // e.g. "PYODBC"; <prefix>_VERSION carries the version name
	Version      release.Info
	FixedDefines []Define // project-constant defines (companion library version)
	Switches     Switches

	// GOOS and Getenv default to the running platform; tests and the
	// --target-os flag override them.
	GOOS   string
	Getenv func(string) string

	// PrefixOverride replaces the probed sys.prefix when set.
	PrefixOverride string
	// Interp may be nil; probed include dirs are then skipped.
	Interp Interpreter
}

var windowsCompileArgs = []string{
	"/Wall",
	"/wd4668",
	"/wd4820",
	"/wd4711", // function selected for automatic inline expansion
	"/wd4100", // unreferenced formal parameter
	"/wd4127", // conditional expression is constant, from compilation constants
	"/wd4191", // casts to PYCFunction without the keywords parameter
}

var windowsDebugArgs = []string{"/Od", "/Ge", "/GS", "/GZ", "/RTC1", "/Wp64", "/Yd"}

// Build assembles the descriptor. The version name is embedded as
// <prefix>_VERSION so the compiled binary reports what was resolved at
// build time.
func Build(ctx context.Context, p Params) (Descriptor, error) {
	log := logger.FromContext(ctx)
	if p.GOOS == "" {
		p.GOOS = runtime.GOOS
	}
	if p.Getenv == nil {
		p.Getenv = os.Getenv
	}
	if p.MacroPrefix == "" {
		p.MacroPrefix = "PYODBC"
	}

	sources, err := Sources(p.SourceDir)
	if err != nil {
		return Descriptor{}, err
	}

	d := Descriptor{Module: p.Module, Sources: sources}

	if p.Interp != nil {
		if inc, err := p.Interp.NumpyInclude(ctx); err == nil {
			d.IncludeDirs = append(d.IncludeDirs, inc)
		} else {
			log.Debug("numpy_include_unavailable", "error", err.Error())
		}
	}
	for _, dir := range filepath.SplitList(p.Getenv("C_INCLUDE_PATH")) {
		if dir != "" {
			d.IncludeDirs = append(d.IncludeDirs, dir)
		}
	}

	d.Defines = append(d.Defines, Define{Name: p.MacroPrefix + "_VERSION", Value: p.Version.Name})
	fixed := append([]Define(nil), p.FixedDefines...)
	sort.Slice(fixed, func(i, j int) bool { return fixed[i].Name < fixed[j].Name })
	d.Defines = append(d.Defines, fixed...)
	d.Defines = append(d.Defines, p.Switches.defines(p.MacroPrefix)...)

	switch DetectFamily(p.GOOS, p.Getenv) {
	case FamilyWindows:
		d.ExtraCompileArgs = append(d.ExtraCompileArgs, windowsCompileArgs...)
		d.Libraries = append(d.Libraries, "odbc32", "advapi32")
		if p.Switches.Debug {
			d.ExtraCompileArgs = append(d.ExtraCompileArgs, windowsDebugArgs...)
		}
	case FamilyWindowsPosix:
		d.Libraries = append(d.Libraries, "odbc32")
	default:
		// darwin and other POSIX: Python headers take a lot of 'char *'
		// that should be const; gcc complains about every one.
		d.ExtraCompileArgs = append(d.ExtraCompileArgs, "-Wno-write-strings")
		if prefix := p.resolvePrefix(ctx, log); prefix != "" {
			d.ExtraCompileArgs = append(d.ExtraCompileArgs, fmt.Sprintf("-I%s/include", prefix))
		}
		d.Libraries = append(d.Libraries, "odbc")
	}

	return d, nil
}

func (p Params) resolvePrefix(ctx context.Context, log logger.Logger) string {
	if p.PrefixOverride != "" {
		return p.PrefixOverride
	}
	if p.Interp == nil {
		return ""
	}
	prefix, err := p.Interp.Prefix(ctx)
	if err != nil {
		log.Debug("interpreter_prefix_unavailable", "error", err.Error())
		return ""
	}
	return prefix
}

// Sources lists the absolute paths of every .cpp file directly inside dir,
// sorted by filename.
func Sources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.Wrap("buildspec.Sources", apperr.NotFound, err, "source directory %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".cpp") {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, apperr.Wrap("buildspec.Sources", apperr.Internal, err, "resolve %s", e.Name())
		}
		out = append(out, abs)
	}
	if len(out) == 0 {
		return nil, apperr.New("buildspec.Sources", apperr.InvalidInput, "no .cpp sources in %s", dir)
	}
	return out, nil
}

// TagFiles lists the .h and .cpp files directly inside dir, joined with dir
// and sorted by filename. The tags command globs here itself because not
// every etags expands wildcards.
func TagFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.Wrap("buildspec.TagFiles", apperr.NotFound, err, "source directory %s", dir)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".h") || strings.HasSuffix(e.Name(), ".cpp") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	if len(out) == 0 {
		return nil, apperr.New("buildspec.TagFiles", apperr.InvalidInput, "no .h or .cpp files in %s", dir)
	}
	return out, nil
}
