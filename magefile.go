//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir       = "bin"
	mainPkg      = "./cmd/extform"
	buildinfoPkg = "github.com/extform/extform/internal/cli/buildinfo"
)

var Default = Build

// Build compiles the extform binary into bin/ with build metadata embedded.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	out := filepath.Join(binDir, binaryName())
	return sh.RunV("go", "build", "-trimpath", "-ldflags", ldflags(), "-o", out, mainPkg)
}

// Install builds and installs extform into GOBIN.
func Install() error {
	return sh.RunV("go", "install", "-trimpath", "-ldflags", ldflags(), mainPkg)
}

// Test runs the full test suite with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Cover runs the tests with coverage and writes coverage.out.
func Cover() error {
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// Lint vets the module.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// All lints, tests, and builds.
func All() {
	mg.SerialDeps(Lint, Test, Build)
}

// Clean removes build and coverage artifacts.
func Clean() error {
	if err := sh.Rm(binDir); err != nil {
		return err
	}
	return sh.Rm("coverage.out")
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "extform.exe"
	}
	return "extform"
}

func ldflags() string {
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "0.1.0-dev"
	}
	commit, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		commit = "unknown"
	}
	date := time.Now().UTC().Format(time.RFC3339)
	return fmt.Sprintf("-s -w"+
		" -X %[1]s.version=%[2]s"+
		" -X %[1]s.commit=%[3]s"+
		" -X %[1]s.date=%[4]s"+
		" -X %[1]s.builtBy=mage"+
		" -X %[1]s.goVersion=%[5]s",
		buildinfoPkg, version, commit, date, runtime.Version())
}
