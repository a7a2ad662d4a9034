package historycmd_test

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/extform/extform/internal/cli"
	"github.com/extform/extform/internal/cli/clitest"
)

func TestHistoryCmd_ListsRecordedResolutions(t *testing.T) {
	defer clitest.WithTools(t, "git")()
	cfg, _ := historyConfig(t)

	if _, _, err := runCmd(t, "version", "-c", cfg); err != nil {
		t.Fatalf("version: %v", err)
	}

	stdout, _, err := runCmd(t, "history", "-c", cfg)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for _, want := range []string{"pyodbc", "2.1.4", "2.1.4.9999", "manifest"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("history output missing %q:\n%s", want, stdout)
		}
	}
}

func TestHistoryCmd_NoStore(t *testing.T) {
	defer clitest.WithTools(t, "git")()
	cfg, histPath := historyConfig(t)

	stdout, _, err := runCmd(t, "history", "-c", cfg)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(stdout, "no resolution history at ") {
		t.Errorf("expected a no-store message, got %q", stdout)
	}
	// Listing must not create the database as a side effect.
	if _, err := os.Stat(histPath); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("history db should not exist, stat err = %v", err)
	}
}

func TestHistoryCmd_ClearRemovesEntries(t *testing.T) {
	defer clitest.WithTools(t, "git")()
	cfg, _ := historyConfig(t)

	for i := 0; i < 2; i++ {
		if _, _, err := runCmd(t, "version", "-c", cfg); err != nil {
			t.Fatalf("version: %v", err)
		}
	}

	stdout, _, err := runCmd(t, "history", "clear", "-c", cfg)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	if !strings.Contains(stdout, "removed 2 resolution(s)") {
		t.Errorf("expected removal count, got %q", stdout)
	}

	stdout, _, err = runCmd(t, "history", "-c", cfg)
	if err != nil {
		t.Fatalf("history after clear: %v", err)
	}
	if !strings.Contains(stdout, "no resolutions recorded") {
		t.Errorf("expected empty history, got %q", stdout)
	}
}

func TestHistoryCmd_ProjectFilter(t *testing.T) {
	defer clitest.WithTools(t, "git")()
	cfg, _ := historyConfig(t)

	if _, _, err := runCmd(t, "version", "-c", cfg); err != nil {
		t.Fatalf("version: %v", err)
	}

	stdout, _, err := runCmd(t, "history", "-c", cfg, "--project", "otherproject")
	if err != nil {
		t.Fatalf("history --project: %v", err)
	}
	if !strings.Contains(stdout, "no resolutions recorded") {
		t.Errorf("expected no entries for another project, got %q", stdout)
	}
}

// historyConfig materialises a project with history recording enabled and
// returns the manifest path and the database path it records into.
func historyConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := clitest.ProjectDir(t)
	histPath := filepath.ToSlash(filepath.Join(dir, "hist.db"))
	cfg := strings.Join([]string{
		"project:",
		"  name: pyodbc",
		"history:",
		"  enabled: true",
		"  path: " + histPath,
	}, "\n") + "\n"
	cfgPath := filepath.Join(dir, "extform.yml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write extform.yml: %v", err)
	}
	return cfgPath, histPath
}

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := cli.NewRootCmd()
	var outBuf, errBuf bytes.Buffer
	root.SetOut(&outBuf)
	root.SetErr(&errBuf)
	root.SetIn(bytes.NewBuffer(nil))
	root.SetArgs(args)
	err := root.Execute()
	return outBuf.String(), errBuf.String(), err
}
