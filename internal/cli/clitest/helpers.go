// Package clitest provides stub executables and fixture projects for CLI
// tests, so they run without git, Python, or etags installed.
package clitest

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// Stub scripts for the external tools the commands shell out to. The sh and
// batch variants answer the same queries.
var shStubs = map[string]string{
	"git": `#!/bin/sh
case "$1" in
  describe)
    echo "2.1.4"
    ;;
  symbolic-ref)
    echo "master"
    ;;
  version|--version)
    echo "git version 2.43.0"
    ;;
esac
exit 0
`,
	"python3": `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Python 3.11.2"
  exit 0
fi
prog="$2"
case "$prog" in
  *version_info*)
    echo "3.11"
    ;;
  *EXTENSION_SUFFIXES*)
    printf '.cpython-311-x86_64-linux-gnu.so\n.abi3.so\n.so\n'
    ;;
  *numpy*)
    echo "/usr/lib/python3/dist-packages/numpy/core/include"
    ;;
  *sys.prefix*)
    echo "/usr"
    ;;
esac
exit 0
`,
	"etags": `#!/bin/sh
if [ -n "$TAGS_ARGS_FILE" ]; then
  printf '%s\n' "$@" > "$TAGS_ARGS_FILE"
fi
if [ -n "$TAGS_STDOUT" ]; then
  echo "$TAGS_STDOUT"
fi
if [ -n "$TAGS_STDERR" ]; then
  echo "$TAGS_STDERR" 1>&2
fi
exit "${TAGS_EXIT:-0}"
`,
	"cc": `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "cc (GCC) 13.2.0"
  exit 0
fi
exit 0
`,
}

var batchStubs = map[string]string{
	"git": `@echo off
if "%1"=="describe" (
  echo 2.1.4
  exit /b 0
)
if "%1"=="symbolic-ref" (
  echo master
  exit /b 0
)
if "%1"=="version" (
  echo git version 2.43.0
  exit /b 0
)
if "%1"=="--version" (
  echo git version 2.43.0
  exit /b 0
)
exit /b 0
`,
	"python3": `@echo off
if "%1"=="--version" (
  echo Python 3.11.2
  exit /b 0
)
echo %* | findstr /C:"version_info" >nul && (echo 3.11 & exit /b 0)
echo %* | findstr /C:"EXTENSION_SUFFIXES" >nul && (echo .pyd & exit /b 0)
echo %* | findstr /C:"numpy" >nul && (echo C:\numpy\include & exit /b 0)
echo %* | findstr /C:"sys.prefix" >nul && (echo C:\Python311 & exit /b 0)
exit /b 0
`,
	"etags": `@echo off
if not "%TAGS_ARGS_FILE%"=="" echo %* > "%TAGS_ARGS_FILE%"
if "%TAGS_EXIT%"=="" exit /b 0
exit /b %TAGS_EXIT%
`,
	"cc": `@echo off
if "%1"=="--version" (
  echo cc 13.2.0
  exit /b 0
)
exit /b 0
`,
}

// WriteToolStub writes the standard stub for name into dir and returns its
// path. On Windows the batch variant is written with a .cmd extension.
func WriteToolStub(t *testing.T, dir, name string) string {
	t.Helper()

	var body string
	path := filepath.Join(dir, name)
	if runtime.GOOS == "windows" {
		path += ".cmd"
		body = batchStubs[name]
	} else {
		body = shStubs[name]
	}
	if body == "" {
		t.Fatalf("no stub script for tool %q", name)
	}
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write %s stub: %v", name, err)
	}
	return path
}

// WithStubTools prepends PATH with healthy stubs for every tool the
// commands reach for.
func WithStubTools(t *testing.T) func() {
	return WithTools(t, "git", "python3", "etags", "cc")
}

// WithTools prepends PATH with stubs for just the named tools.
func WithTools(t *testing.T, names ...string) func() {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		WriteToolStub(t, dir, name)
	}
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	return func() { _ = os.Setenv("PATH", oldPath) }
}

// WithExclusiveTools sets PATH to a directory holding only the named tools,
// so everything else is missing. Used by doctor tests.
func WithExclusiveTools(t *testing.T, names ...string) func() {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		WriteToolStub(t, dir, name)
	}
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	return func() { _ = os.Setenv("PATH", oldPath) }
}

// WithCustomStub installs a single custom stub script and prepends PATH
// with its directory.
func WithCustomStub(t *testing.T, name, script string) func() {
	t.Helper()

	if runtime.GOOS == "windows" && strings.HasPrefix(script, "#!/bin/sh") {
		t.Skip("test uses a Unix shell script; skipping on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if runtime.GOOS == "windows" {
		path += ".cmd"
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write %s stub: %v", name, err)
	}
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", dir+string(os.PathListSeparator)+oldPath); err != nil {
		t.Fatalf("set PATH: %v", err)
	}
	return func() { _ = os.Setenv("PATH", oldPath) }
}

// Chdir switches the working directory and returns a restore func.
func Chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	return func() { _ = os.Chdir(old) }
}

// ProjectDir materialises a minimal extension project: a manifest, a source
// tree with one .cpp and one .h, and a packaging manifest carrying a fixed
// version. Returns the project root.
func ProjectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	srcDir := filepath.Join(dir, "pyodbc", "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}
	for _, name := range []string{"connection.cpp", "cursor.cpp"} {
		if err := os.WriteFile(filepath.Join(srcDir, name), []byte("// native source\n"), 0o644); err != nil {
			t.Fatalf("write source %s: %v", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(srcDir, "pyodbc.h"), []byte("// header\n"), 0o644); err != nil {
		t.Fatalf("write header: %v", err)
	}

	pkgInfo := "Metadata-Version: 1.0\nName: pyodbc\nVersion: 2.1.4\n"
	if err := os.WriteFile(filepath.Join(dir, "PKG-INFO"), []byte(pkgInfo), 0o644); err != nil {
		t.Fatalf("write PKG-INFO: %v", err)
	}

	cfg := strings.Join([]string{
		"project:",
		"  name: pyodbc",
		"history:",
		"  enabled: false",
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "extform.yml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write extform.yml: %v", err)
	}
	return dir
}

// BasicConfigPath materialises a ProjectDir and returns its manifest path.
func BasicConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(ProjectDir(t), "extform.yml")
}
