package apperr_test

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/extform/extform/internal/apperr"
)

func TestWrapPreservesSentinel(t *testing.T) {
	base := fs.ErrNotExist
	err := apperr.Wrap("manifest.Load", apperr.NotFound, base, "config file %q", "extform.yml")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("want Is(..., fs.ErrNotExist)=true")
	}
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("want kind=NotFound")
	}
}

func TestErrorStringIncludesOpAndMsg(t *testing.T) {
	err := apperr.New("gitcli.Describe", apperr.External, "git describe failed")
	got := err.Error()
	if !strings.Contains(got, "gitcli.Describe: git describe failed") {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestErrorStringFallsBackToCause(t *testing.T) {
	err := apperr.Wrap("locate.Find", apperr.NotFound, errors.New("walk aborted"), "")
	if got := err.Error(); got != "locate.Find: walk aborted" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if err := apperr.Wrap("x", apperr.Internal, nil, "ignored"); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
}

func TestWithExitCarriesCode(t *testing.T) {
	err := apperr.WithExit("tags.Run", 3, errors.New("etags: exit status 3"), "etags failed")
	code, ok := apperr.ExitCode(err)
	if !ok || code != 3 {
		t.Fatalf("want (3,true), got (%d,%v)", code, ok)
	}
	if !apperr.IsKind(err, apperr.External) {
		t.Fatalf("want kind=External")
	}
}

func TestExitCodeAbsent(t *testing.T) {
	if _, ok := apperr.ExitCode(apperr.New("x", apperr.Internal, "boom")); ok {
		t.Fatalf("want no explicit exit code")
	}
}
