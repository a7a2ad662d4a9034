package doctorcmd_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"

	"github.com/extform/extform/internal/cli"
	"github.com/extform/extform/internal/cli/clitest"
)

var update = flag.Bool("update", false, "update golden files")

func TestDoctorCmd_Golden_Healthy(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping golden test on Windows due to output format differences")
	}
	goldenPath := goldenFile(t, "healthy.golden")
	defer clitest.WithStubTools(t)()
	defer clitest.Chdir(t, clitest.ProjectDir(t))()

	root := cli.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"doctor"})

	if err := root.Execute(); err != nil {
		t.Fatalf("doctor on a healthy project: %v", err)
	}

	got := sanitizeDoctorOutput(out.String())

	if *update {
		if err := os.WriteFile(goldenPath, []byte(got), 0644); err != nil {
			t.Fatalf("update golden: %v", err)
		}
		return
	}

	want, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}

	if got != string(want) {
		t.Errorf("output mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func TestDoctorCmd_Golden_PythonMissing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping golden test on Windows due to output format differences")
	}
	goldenPath := goldenFile(t, "python_missing.golden")
	defer clitest.WithExclusiveTools(t, "git", "etags", "cc")()
	defer clitest.Chdir(t, clitest.ProjectDir(t))()

	root := cli.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"doctor"})

	if err := root.Execute(); err == nil {
		t.Fatalf("expected doctor to fail when the interpreter is missing")
	}

	got := sanitizeDoctorOutput(out.String())

	if *update {
		if err := os.WriteFile(goldenPath, []byte(got), 0644); err != nil {
			t.Fatalf("update golden: %v", err)
		}
		return
	}

	want, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}

	if got != string(want) {
		t.Errorf("output mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func TestDoctorCmd_Golden_NoManifest(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping golden test on Windows due to output format differences")
	}
	goldenPath := goldenFile(t, "no_manifest.golden")
	defer clitest.WithStubTools(t)()
	defer clitest.Chdir(t, t.TempDir())()

	root := cli.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"doctor"})

	// The default source directory does not exist here, so doctor fails.
	if err := root.Execute(); err == nil {
		t.Fatalf("expected doctor to fail outside a project")
	}

	got := sanitizeDoctorOutput(out.String())

	if *update {
		if err := os.WriteFile(goldenPath, []byte(got), 0644); err != nil {
			t.Fatalf("update golden: %v", err)
		}
		return
	}

	want, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}

	if got != string(want) {
		t.Errorf("output mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

func TestDoctorCmd_Golden_HistoryEnabled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping golden test on Windows due to output format differences")
	}
	goldenPath := goldenFile(t, "history_enabled.golden")
	defer clitest.WithStubTools(t)()

	dir := clitest.ProjectDir(t)
	cfg := strings.Join([]string{
		"project:",
		"  name: pyodbc",
		"history:",
		"  enabled: true",
		"  path: hist.db",
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "extform.yml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write extform.yml: %v", err)
	}
	defer clitest.Chdir(t, dir)()

	root := cli.NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"doctor"})

	if err := root.Execute(); err != nil {
		t.Fatalf("doctor with history enabled: %v", err)
	}

	got := sanitizeDoctorOutput(out.String())

	if *update {
		if err := os.WriteFile(goldenPath, []byte(got), 0644); err != nil {
			t.Fatalf("update golden: %v", err)
		}
		return
	}

	want, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}

	if got != string(want) {
		t.Errorf("output mismatch\nwant:\n%s\n---\ngot:\n%s", want, got)
	}
}

// goldenFile resolves a golden file path before the test changes directories.
func goldenFile(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("testdata", "doctor", name))
	if err != nil {
		t.Fatalf("golden path: %v", err)
	}
	return p
}

// sanitizeDoctorOutput removes dynamic content (timing, error details) for golden comparison
func sanitizeDoctorOutput(output string) string {
	lines := strings.Split(output, "\n")
	var result []string

	timingPattern := regexp.MustCompile(`^Completed in .+ • exit code \d+$`)

	for _, line := range lines {
		if timingPattern.MatchString(line) {
			continue
		}
		// Error details carry machine-specific paths; the summary line above
		// them is what the golden pins down.
		if strings.HasPrefix(line, "│") {
			continue
		}
		result = append(result, line)
	}

	// Trim trailing empty lines
	for len(result) > 0 && strings.TrimSpace(result[len(result)-1]) == "" {
		result = result[:len(result)-1]
	}

	return strings.Join(result, "\n")
}
