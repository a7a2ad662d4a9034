// Package descriptorcmd assembles the build descriptor and renders it.
package descriptorcmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/buildspec"
	"github.com/extform/extform/internal/cli/common"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

// result is the rendered payload: the descriptor plus whatever arguments
// were left after switch consumption, so callers see what a real build
// would still have to interpret.
type result struct {
	buildspec.Descriptor `yaml:",inline"`
	RemainingArgs        []string `json:"remaining_args,omitempty" yaml:"remaining_args,omitempty"`
}

// New creates the `descriptor` command.
func New() *cobra.Command {
	var (
		format   string
		output   string
		targetOS string
		record   bool
		flagSw   buildspec.Switches
	)

	cmd := &cobra.Command{
		Use:   "descriptor [-- build-args...]",
		Short: "Assemble and print the native-extension build descriptor",
		Long: `Assemble the compiler inputs for the extension module: sources, include
directories, preprocessor defines, extra compile arguments, and libraries.
Diagnostic switches can be given as flags or as positional arguments after
--; positional switches are consumed the way a build front end would, and
the arguments that remain are reported back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := common.SetupCLIContext(cmd)
			if err != nil {
				return err
			}

			argSw, rest := buildspec.ParseSwitches(args)
			sw := flagSw.Merge(argSw)

			info := cc.Resolver().Resolve(cc.Ctx)
			cfg := cc.Config

			params := buildspec.Params{
				Module:         cfg.Project.Module,
				SourceDir:      cfg.Project.SourceDir,
				MacroPrefix:    cfg.Project.MacroPrefix,
				Version:        info,
				FixedDefines:   fixedDefines(cfg.Defines),
				Switches:       sw,
				PrefixOverride: cfg.Python.Prefix,
				Interp:         cc.Python,
			}
			if targetOS != "" {
				params.GOOS = targetOS
			}

			desc, err := buildspec.Build(cc.Ctx, params)
			if err != nil {
				return err
			}
			cc.RecordResolution(info, record)

			rendered, err := render(result{Descriptor: desc, RemainingArgs: rest}, format)
			if err != nil {
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(rendered), 0o644); err != nil {
					return apperr.Wrap("descriptorcmd.Run", apperr.Internal, err, "write %s", output)
				}
				cc.Printer.Plain("descriptor written to %s", output)
				return nil
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the descriptor to this file instead of stdout")
	cmd.Flags().StringVar(&targetOS, "target-os", "", "Assemble for this GOOS instead of the running one (windows, darwin, linux)")
	cmd.Flags().BoolVar(&record, "record", false, "Record the resolution to the history store even when history is disabled")
	cmd.Flags().BoolVar(&flagSw.Assert, "assert", false, "Compile with assertions enabled")
	cmd.Flags().BoolVar(&flagSw.Trace, "trace", false, "Compile with tracing enabled")
	cmd.Flags().BoolVar(&flagSw.LeakCheck, "leak-check", false, "Compile with leak checking enabled")
	cmd.Flags().BoolVar(&flagSw.Debug, "debug", false, "Add the native Windows debug compile flags")
	return cmd
}

func fixedDefines(m map[string]string) []buildspec.Define {
	out := make([]buildspec.Define, 0, len(m))
	for name, value := range m {
		out = append(out, buildspec.Define{Name: name, Value: value})
	}
	return out
}

func render(r result, format string) (string, error) {
	switch format {
	case "text", "":
		return renderText(r), nil
	case "json":
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", apperr.Wrap("descriptorcmd.render", apperr.Internal, err, "encode descriptor")
		}
		return string(b) + "\n", nil
	case "yaml":
		b, err := yaml.Marshal(r)
		if err != nil {
			return "", apperr.Wrap("descriptorcmd.render", apperr.Internal, err, "encode descriptor")
		}
		return string(b), nil
	default:
		return "", apperr.New("descriptorcmd.render", apperr.InvalidInput, "unknown format %q (want text, json, or yaml)", format)
	}
}

func renderText(r result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Module: %s\n", r.Module)
	writeList(&b, "Sources", r.Sources)
	writeList(&b, "Include dirs", r.IncludeDirs)
	defines := make([]string, 0, len(r.Defines))
	for _, d := range r.Defines {
		defines = append(defines, d.Name+"="+d.Value)
	}
	writeList(&b, "Defines", defines)
	writeList(&b, "Extra compile args", r.ExtraCompileArgs)
	writeList(&b, "Libraries", r.Libraries)
	writeList(&b, "Remaining args", r.RemainingArgs)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "  %s\n", item)
	}
}
