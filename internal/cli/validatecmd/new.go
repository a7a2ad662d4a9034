// Package validatecmd checks that the manifest loads and validates.
package validatecmd

import (
	"fmt"

	"github.com/extform/extform/internal/cli/common"
	"github.com/spf13/cobra"
)

// New creates the `validate` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := common.SetupCLIContext(cmd)
			if err != nil {
				return err
			}

			if cc.Config.Path == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no manifest file found; built-in defaults are in effect")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "validation successful")
			return err
		},
	}
	return cmd
}
