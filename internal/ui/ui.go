package ui

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	stylePass = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleFail = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSkip = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow

	styleInfoPrefix  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true) // blue
	styleWarnPrefix  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true) // yellow
	styleErrorPrefix = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)  // red

	styleSectionTitle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#3478F6", Dark: "#4A9EFF"}).
				Padding(0, 0)

	styleItalicName = lipgloss.NewStyle().Italic(true)
)

// Italic renders the given string in italic style (used for file and directory names).
func Italic(s string) string {
	return styleItalicName.Render(s)
}

// Status classifies a rendered line.
type Status int

const (
	Info Status = iota
	Pass
	Skip
	Fail
)

// Line is one item under a section header.
type Line struct {
	Status  Status
	Message string
}

func (l Line) String() string { return l.Message }

// Item builds a Line with a formatted message.
func Item(s Status, format string, a ...any) Line {
	return Line{Status: s, Message: fmt.Sprintf(format, a...)}
}

// Section represents a header and its list of items for rendering.
type Section struct {
	Title string
	Items []Line
}

// RenderSections renders sections with bold headers and two-space indented items.
// Empty sections are skipped.
func RenderSections(sections []Section) string {
	var result strings.Builder
	firstSection := true

	for _, section := range sections {
		if len(section.Items) == 0 {
			continue
		}

		if !firstSection {
			result.WriteString("\n")
		}
		firstSection = false

		result.WriteString(styleSectionTitle.Render(section.Title))
		result.WriteString("\n")

		for _, item := range section.Items {
			result.WriteString("  ")
			// Info lines carry no icon; check results do.
			if item.Status != Info {
				result.WriteString(StatusIcon(item.Status))
				result.WriteString(" ")
			}
			result.WriteString(item.Message)
			result.WriteString("\n")
		}
	}

	return result.String()
}

// StatusIcon returns the styled check/skip/cross glyph for a status.
func StatusIcon(s Status) string {
	switch s {
	case Pass:
		return stylePass.Render("✓")
	case Skip:
		return styleSkip.Render("-")
	case Fail:
		return styleFail.Render("✗")
	default:
		return ""
	}
}

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI color codes for snapshot testing when needed.
func StripANSI(s string) string {
	return ansiRegexp.ReplaceAllString(s, "")
}

// SectionTitle renders a bold section header for grouped output.
func SectionTitle(title string) string {
	return styleSectionTitle.Render(title)
}

// Printer centralizes user-facing output. It routes informational messages to
// stdout and warnings/errors to stderr.
type Printer interface {
	// Plain writes to stdout without any prefix or styling.
	Plain(format string, a ...any)
	// Info writes to stdout with an [info] prefix.
	Info(format string, a ...any)
	// Warn writes to stderr with a [warn] prefix.
	Warn(format string, a ...any)
	// Error writes to stderr with an [error] prefix.
	Error(format string, a ...any)
}

// StdPrinter writes Plain/Info to Out and Warn/Error to Err.
type StdPrinter struct {
	Out io.Writer
	Err io.Writer
}

func (p StdPrinter) Plain(format string, a ...any) {
	if p.Out == nil {
		return
	}
	_, _ = fmt.Fprintf(p.Out, format+"\n", a...)
}

func (p StdPrinter) Info(format string, a ...any) {
	if p.Out == nil {
		return
	}
	prefix := styleInfoPrefix.Render("[info]")
	_, _ = fmt.Fprintf(p.Out, "%s "+format+"\n", append([]any{prefix}, a...)...)
}

func (p StdPrinter) Warn(format string, a ...any) {
	if p.Err == nil {
		return
	}
	prefix := styleWarnPrefix.Render("[warn]")
	_, _ = fmt.Fprintf(p.Err, "%s "+format+"\n", append([]any{prefix}, a...)...)
}

func (p StdPrinter) Error(format string, a ...any) {
	if p.Err == nil {
		return
	}
	prefix := styleErrorPrefix.Render("[error]")
	_, _ = fmt.Fprintf(p.Err, "%s "+format+"\n", append([]any{prefix}, a...)...)
}

// NoopPrinter discards all output; useful as a default or in tests.
type NoopPrinter struct{}

func (NoopPrinter) Plain(string, ...any) {}
func (NoopPrinter) Info(string, ...any)  {}
func (NoopPrinter) Warn(string, ...any)  {}
func (NoopPrinter) Error(string, ...any) {}
