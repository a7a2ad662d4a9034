// Package tagscmd runs etags over the extension sources.
package tagscmd

import (
	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/buildspec"
	"github.com/extform/extform/internal/cli/common"
	"github.com/extform/extform/internal/execx"
	"github.com/spf13/cobra"
)

// New creates the `tags` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Build an etags table for the extension sources",
		Long: `Enumerate the .h and .cpp files directly inside the source directory and
run etags over them. The file list is expanded here because the Windows
etags does not expand wildcards itself. etags output passes through, and
its exit code becomes the exit code of this command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := common.SetupCLIContext(cmd)
			if err != nil {
				return err
			}

			files, err := buildspec.TagFiles(cc.Config.Project.SourceDir)
			if err != nil {
				return err
			}

			// The TAGS file lands where a checkout expects it: the project root.
			res, err := execx.System{}.Run(cc.Ctx, execx.Options{
				Dir:    cc.Config.BaseDir,
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			}, "etags", files...)
			if err != nil {
				if res.ExitCode > 0 {
					return apperr.WithExit("tagscmd.Run", res.ExitCode, err, "etags exited with status %d", res.ExitCode)
				}
				return err
			}
			return nil
		},
	}
	return cmd
}
