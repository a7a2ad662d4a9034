// Package cli assembles the extform command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/cli/buildinfo"
	"github.com/extform/extform/internal/cli/common"
	"github.com/extform/extform/internal/cli/descriptorcmd"
	"github.com/extform/extform/internal/cli/doctorcmd"
	"github.com/extform/extform/internal/cli/historycmd"
	"github.com/extform/extform/internal/cli/initcmd"
	"github.com/extform/extform/internal/cli/locatecmd"
	"github.com/extform/extform/internal/cli/tagscmd"
	"github.com/extform/extform/internal/cli/validatecmd"
	"github.com/extform/extform/internal/cli/versioncmd"
	"github.com/extform/extform/internal/logger"
	"github.com/spf13/cobra"
)

// verbosity controls log level and extra error detail printing.
var verbosity int

// Execute runs the root command and maps errors to exit codes. An explicit
// exit code carried by the error wins; the tags command uses this to pass
// the external tool's status through unchanged.
func Execute(ctx context.Context) int {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		printUserFriendly(err)
		if code, ok := apperr.ExitCode(err); ok {
			return code
		}
		switch {
		case apperr.IsKind(err, apperr.InvalidInput):
			return 2
		case apperr.IsKind(err, apperr.Unavailable) || apperr.IsKind(err, apperr.Timeout):
			return 69
		case apperr.IsKind(err, apperr.External):
			return 70
		default:
			return 1
		}
	}
	return 0
}

// NewRootCmd builds the command tree. Exported so command tests can execute
// subcommands with the persistent flags in place.
func NewRootCmd() *cobra.Command {
	var logCloser io.Closer

	cmd := &cobra.Command{
		Use:           "extform",
		Short:         "Version resolution and build descriptors for native extension modules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to the manifest file or directory (defaults to extform.yml or extform.yaml in the current directory)")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	cmd.PersistentFlags().String("log-format", "auto", "Log output format: text, json, or auto")
	cmd.PersistentFlags().String("log-file", "", "Also write logs to this file")
	cmd.PersistentFlags().Bool("no-color", false, "Disable color output")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("log-format")
		if env := os.Getenv("EXTFORM_LOG_FORMAT"); env != "" && !cmd.Flags().Changed("log-format") {
			format = env
		}
		noColor, _ := cmd.Flags().GetBool("no-color")
		logFile, _ := cmd.Flags().GetString("log-file")

		level := "warn"
		switch {
		case verbosity >= 2:
			level = "debug"
		case verbosity == 1:
			level = "info"
		}

		log, closer, err := logger.New(logger.Options{
			Out:     cmd.ErrOrStderr(),
			Level:   level,
			Format:  format,
			NoColor: noColor,
			LogFile: logFile,
		})
		if err != nil {
			return apperr.Wrap("cli.root", apperr.InvalidInput, err, "configure logging")
		}
		logCloser = closer

		runID := logger.NewRunID()
		ctx := logger.WithContext(cmd.Context(), log.With("run_id", runID))
		cmd.SetContext(common.WithRunID(ctx, runID))
		return nil
	}
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	}

	cmd.AddCommand(versioncmd.New())
	cmd.AddCommand(descriptorcmd.New())
	cmd.AddCommand(locatecmd.New())
	cmd.AddCommand(tagscmd.New())
	cmd.AddCommand(doctorcmd.New())
	cmd.AddCommand(historycmd.New())
	cmd.AddCommand(initcmd.New())
	cmd.AddCommand(validatecmd.New())

	cmd.SetHelpTemplate(cmd.HelpTemplate() + "\n\nProject home: https://github.com/extform/extform\n")

	cmd.SetVersionTemplate(fmt.Sprintf("%s\n", buildinfo.VersionSimple()))
	cmd.Version = buildinfo.VersionSimple()

	return cmd
}

func printUserFriendly(err error) {
	var e *apperr.E
	if errors.As(err, &e) {
		// Short human message
		if e.Msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", e.Msg)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		}
		// Verbose mode prints chain details
		if verbosity > 0 {
			fmt.Fprintln(os.Stderr, "Detail:", err)
		}
		// Contextual hints
		if apperr.IsKind(err, apperr.Unavailable) {
			fmt.Fprintln(os.Stderr, "Hint: is the required tool installed and on your PATH?")
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
}
