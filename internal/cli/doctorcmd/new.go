// Package doctorcmd checks the build environment: the external tools the
// other commands shell out to, the project layout, and a version-resolution
// dry run. Independent checks fan out concurrently; results print in a
// stable order.
package doctorcmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/cli/common"
	"github.com/extform/extform/internal/gitcli"
	"github.com/extform/extform/internal/history"
	"github.com/extform/extform/internal/manifest"
	"github.com/extform/extform/internal/pycli"
	"github.com/extform/extform/internal/release"
	"github.com/extform/extform/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Status classifies a check outcome.
type Status int

const (
	StatusPass Status = iota
	// StatusWarn marks an optional capability that is missing; the command
	// still exits zero.
	StatusWarn
	StatusFail
)

type checkResult struct {
	status   Status
	summary  string
	detail   string // printed under the line when the check did not pass
	required bool
}

type section struct {
	title  string
	checks []checkResult
}

// New creates the `doctor` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the build environment",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	pr := ui.StdPrinter{Out: out, Err: cmd.ErrOrStderr()}
	start := time.Now()

	// A broken manifest is a finding, not a reason to stop checking.
	cfg, loadErr := common.LoadConfigWithWarnings(cmd, pr)

	git := gitcli.New(".")
	py := pycli.New("")
	if cfg != nil {
		git = gitcli.New(cfg.BaseDir)
		py = pycli.New(cfg.Python.Interpreter)
	}

	type job struct {
		fn func(context.Context) checkResult
		at *checkResult
	}

	tools := make([]checkResult, 4)
	project := make([]checkResult, 2)
	resolution := make([]checkResult, 1)
	var historyChecks []checkResult
	if cfg != nil && cfg.History.Enabled {
		historyChecks = make([]checkResult, 1)
	}

	jobs := []job{
		{func(ctx context.Context) checkResult { return checkGit(ctx, git) }, &tools[0]},
		{func(ctx context.Context) checkResult { return checkPython(ctx, py) }, &tools[1]},
		{func(ctx context.Context) checkResult { return checkNumpy(ctx, py) }, &tools[2]},
		{func(ctx context.Context) checkResult { return checkTools() }, &tools[3]},
		{func(context.Context) checkResult { return checkManifest(cfg, loadErr) }, &project[0]},
		{func(context.Context) checkResult { return checkSources(cfg) }, &project[1]},
		{func(ctx context.Context) checkResult { return checkResolution(ctx, cfg, git) }, &resolution[0]},
	}
	if len(historyChecks) > 0 {
		jobs = append(jobs, job{func(ctx context.Context) checkResult { return checkHistory(ctx, cfg) }, &historyChecks[0]})
	}

	g, gctx := errgroup.WithContext(cmd.Context())
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			*j.at = j.fn(gctx)
			return nil
		})
	}
	_ = g.Wait()

	fmt.Fprintf(out, "extform doctor\n\n")
	sections := []section{
		{"Tools", tools},
		{"Project", project},
		{"Resolution", resolution},
	}
	if len(historyChecks) > 0 {
		sections = append(sections, section{"History", historyChecks})
	}

	failed := 0
	for i, s := range sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, ui.SectionTitle(s.title))
		for _, c := range s.checks {
			fmt.Fprintf(out, "  %s %s\n", ui.StatusIcon(statusOf(c.status)), c.summary)
			if c.status != StatusPass && c.detail != "" {
				PrintIndentedLines(out, "Error: "+c.detail)
			}
			if c.status == StatusFail && c.required {
				failed++
			}
		}
	}

	code := 0
	if failed > 0 {
		code = 69
	}
	fmt.Fprintf(out, "\nCompleted in %s • exit code %d\n", time.Since(start).Round(time.Millisecond), code)

	if failed > 0 {
		return apperr.New("doctorcmd.Run", apperr.Unavailable, "%d required check(s) failed", failed)
	}
	return nil
}

// statusOf maps a check status to a rendered line status. Warnings use the
// skip icon so optional gaps stand apart from real failures.
func statusOf(s Status) ui.Status {
	switch s {
	case StatusPass:
		return ui.Pass
	case StatusWarn:
		return ui.Skip
	default:
		return ui.Fail
	}
}

func checkGit(ctx context.Context, git *gitcli.Client) checkResult {
	version, err := git.Version(ctx)
	if err != nil {
		return checkResult{status: StatusFail, summary: "git not runnable", detail: err.Error(), required: true}
	}
	if described, ok := git.Describe(ctx); ok {
		return checkResult{status: StatusPass, summary: fmt.Sprintf("%s, describe finds %s", version, described), required: true}
	}
	return checkResult{status: StatusPass, summary: version + ", describe finds no tag", required: true}
}

func checkPython(ctx context.Context, py *pycli.Client) checkResult {
	version, err := py.Version(ctx)
	if err != nil {
		return checkResult{status: StatusFail, summary: py.Interpreter() + " not runnable", detail: err.Error(), required: true}
	}
	return checkResult{status: StatusPass, summary: version, required: true}
}

func checkNumpy(ctx context.Context, py *pycli.Client) checkResult {
	inc, err := py.NumpyInclude(ctx)
	if err != nil {
		return checkResult{status: StatusWarn, summary: "numpy not importable; descriptors will omit its include dir", detail: err.Error()}
	}
	return checkResult{status: StatusPass, summary: "numpy headers at " + inc}
}

// checkTools covers the optional executables: etags for the tags command and
// a C compiler for the eventual build.
func checkTools() checkResult {
	var parts []string
	status := StatusPass

	if _, err := exec.LookPath("etags"); err != nil {
		parts = append(parts, "etags not found (tags command unavailable)")
		status = StatusWarn
	} else {
		parts = append(parts, "etags found")
	}

	compiler := ""
	for _, name := range []string{"cc", "gcc", "clang", "cl"} {
		if _, err := exec.LookPath(name); err == nil {
			compiler = name
			break
		}
	}
	if compiler == "" {
		parts = append(parts, "no C compiler found (tried cc, gcc, clang, cl)")
		status = StatusWarn
	} else {
		parts = append(parts, "C compiler found ("+compiler+")")
	}

	return checkResult{status: status, summary: strings.Join(parts, "; ")}
}

func checkManifest(cfg *manifest.Config, loadErr error) checkResult {
	if loadErr != nil {
		return checkResult{status: StatusFail, summary: "manifest failed to load", detail: loadErr.Error(), required: true}
	}
	if cfg.Path == "" {
		return checkResult{status: StatusPass, summary: "no manifest file; built-in defaults in effect", required: true}
	}
	return checkResult{status: StatusPass, summary: "manifest loaded (" + filepath.Base(cfg.Path) + ")", required: true}
}

func checkSources(cfg *manifest.Config) checkResult {
	if cfg == nil {
		return checkResult{status: StatusWarn, summary: "source check skipped: manifest not loaded"}
	}

	display := cfg.Project.SourceDir
	if rel, err := filepath.Rel(cfg.BaseDir, cfg.Project.SourceDir); err == nil {
		display = filepath.ToSlash(rel)
	}

	entries, err := os.ReadDir(cfg.Project.SourceDir)
	if err != nil {
		return checkResult{status: StatusFail, summary: "source directory missing (" + display + ")", detail: err.Error(), required: true}
	}
	sources, headers := 0, 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch {
		case strings.HasSuffix(e.Name(), ".cpp"):
			sources++
		case strings.HasSuffix(e.Name(), ".h"):
			headers++
		}
	}
	if sources == 0 {
		return checkResult{status: StatusFail, summary: fmt.Sprintf("no .cpp sources in %s", display), required: true}
	}
	return checkResult{status: StatusPass, summary: fmt.Sprintf("%d source file(s), %d header(s) in %s", sources, headers, display), required: true}
}

func checkResolution(ctx context.Context, cfg *manifest.Config, git *gitcli.Client) checkResult {
	if cfg == nil {
		return checkResult{status: StatusWarn, summary: "resolution skipped: manifest not loaded"}
	}
	r := release.Resolver{
		ManifestPath:  cfg.Project.PackageInfo,
		Git:           git,
		PrimaryBranch: cfg.Git.PrimaryBranch,
	}
	info := r.Resolve(ctx)
	if info.Source == release.SourceFallback {
		return checkResult{status: StatusWarn, summary: fmt.Sprintf("fallback version %s; neither the packaging manifest nor git describe yielded one", info.Name)}
	}
	return checkResult{status: StatusPass, summary: fmt.Sprintf("%s (via %s)", info.Name, info.Source)}
}

func checkHistory(ctx context.Context, cfg *manifest.Config) checkResult {
	st, err := history.Open(cfg.History.Path)
	if err != nil {
		return checkResult{status: StatusFail, summary: "history store not openable", detail: err.Error(), required: true}
	}
	defer func() { _ = st.Close() }()
	if _, err := st.Recent(ctx, "", 1); err != nil {
		return checkResult{status: StatusFail, summary: "history store not readable", detail: err.Error(), required: true}
	}
	return checkResult{status: StatusPass, summary: "history store at " + cfg.History.Path, required: true}
}

const indentPrefix = "│     "
const wrapColumn = 72

// PrintIndentedLines writes text under a check line, word-wrapped and
// prefixed so it reads as a continuation. Empty text prints nothing.
func PrintIndentedLines(w io.Writer, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	line := ""
	for _, word := range strings.Fields(text) {
		if line != "" && len(line)+1+len(word) > wrapColumn {
			fmt.Fprintf(w, "%s%s\n", indentPrefix, line)
			line = word
			continue
		}
		if line == "" {
			line = word
		} else {
			line += " " + word
		}
	}
	if line != "" {
		fmt.Fprintf(w, "%s%s\n", indentPrefix, line)
	}
}
