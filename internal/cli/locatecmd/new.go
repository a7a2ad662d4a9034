// Package locatecmd finds the built conf module inside the build tree.
package locatecmd

import (
	"fmt"
	"runtime"

	"github.com/extform/extform/internal/cli/common"
	"github.com/extform/extform/internal/locate"
	"github.com/extform/extform/internal/logger"
	"github.com/extform/extform/internal/pycli"
	"github.com/spf13/cobra"
)

// New creates the `locate` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Print the directory holding the built conf module",
		Long: `Walk the build output tree for the first directory matching the running
interpreter's version whose name contains a compiled conf module, and print
it. Nothing found is an error: it means the build step has not produced
anything this interpreter can load.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := common.SetupCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := cc.Config

			// Without the interpreter's version tag no directory can match.
			tag, err := cc.Python.VersionTag(cc.Ctx)
			if err != nil {
				return err
			}

			suffixes, err := cc.Python.ExtensionSuffixes(cc.Ctx)
			if err != nil {
				logger.FromContext(cc.Ctx).Debug("extension_suffixes_unavailable", "error", err.Error())
				suffixes = pycli.DefaultSuffixes(runtime.GOOS)
			}

			dir, err := locate.Find(cfg.Build.Dir, "-"+tag, locate.Candidates(cfg.Build.ConfModule, suffixes))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), dir)
			return err
		},
	}
	return cmd
}
