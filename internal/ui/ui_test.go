package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestStripANSI_RemovesCodes(t *testing.T) {
	in := "\x1b[31mred\x1b[0m and normal"
	got := StripANSI(in)
	if got != "red and normal" {
		t.Fatalf("expected ANSI to be stripped, got: %q", got)
	}
}

func TestStdPrinter_WritesToCorrectStreams_WithPrefixes(t *testing.T) {
	var out bytes.Buffer
	var err bytes.Buffer
	p := StdPrinter{Out: &out, Err: &err}

	p.Plain("hello %s", "plain")
	p.Info("hello %s", "world")
	p.Warn("warn %d", 1)
	p.Error("error %s", "boom")

	outStr := StripANSI(out.String())
	errStr := StripANSI(err.String())

	if !strings.Contains(outStr, "hello plain\n") {
		t.Fatalf("expected plain text on stdout, got: %q", outStr)
	}
	if !strings.Contains(outStr, "[info] hello world\n") {
		t.Fatalf("expected info prefix on stdout, got: %q", outStr)
	}
	if !strings.Contains(errStr, "[warn] warn 1\n") {
		t.Fatalf("expected warn prefix on stderr, got: %q", errStr)
	}
	if !strings.Contains(errStr, "[error] error boom\n") {
		t.Fatalf("expected error prefix on stderr, got: %q", errStr)
	}
}

func TestRenderSections_ShowsItemsWithIcons(t *testing.T) {
	sections := []Section{
		{
			Title: "Tools",
			Items: []Line{
				Item(Pass, "git 2.39"),
				Item(Fail, "etags not found"),
				Item(Skip, "compiler check skipped"),
				Item(Info, "plain detail"),
			},
		},
		{ // empty section is skipped
			Title: "Empty",
			Items: nil,
		},
	}
	got := StripANSI(RenderSections(sections))
	for _, s := range []string{"git 2.39", "etags not found", "compiler check skipped", "plain detail"} {
		if !strings.Contains(got, s) {
			t.Fatalf("expected sections to contain %q, got: %q", s, got)
		}
	}
	for _, icon := range []string{"✓", "✗", "-"} {
		if !strings.Contains(got, icon) {
			t.Fatalf("expected sections to contain icon %q, got: %q", icon, got)
		}
	}
	if strings.Contains(got, "Empty") {
		t.Fatalf("empty section should be skipped, got: %q", got)
	}
	// Info lines carry no icon prefix beyond indentation.
	if !strings.Contains(got, "  plain detail\n") {
		t.Fatalf("expected info line without icon, got: %q", got)
	}
}

func TestRenderSections_BlankLineBetweenSections(t *testing.T) {
	sections := []Section{
		{Title: "First", Items: []Line{Item(Info, "a")}},
		{Title: "Second", Items: []Line{Item(Info, "b")}},
	}
	got := StripANSI(RenderSections(sections))
	if !strings.Contains(got, "a\n\nSecond") {
		t.Fatalf("expected blank line before second section, got: %q", got)
	}
}
