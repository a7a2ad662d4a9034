// Package versioncmd resolves and prints the product version.
package versioncmd

import (
	"encoding/json"
	"fmt"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/cli/common"
	"github.com/extform/extform/internal/release"
	"github.com/spf13/cobra"
)

// New creates the `version` command.
func New() *cobra.Command {
	var asJSON bool
	var record bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Resolve and print the product version",
		Long: `Resolve the product version from the packaging manifest, falling back to
git tag description, falling back to a hardcoded default. Resolution never
fails; a repository with no metadata at all still yields a version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := common.SetupCLIContext(cmd)
			if err != nil {
				return err
			}

			info := cc.Resolver().Resolve(cc.Ctx)
			cc.RecordResolution(info, record)

			if asJSON {
				return printJSON(cmd, info)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.Name)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the resolution as JSON")
	cmd.Flags().BoolVar(&record, "record", false, "Record the resolution to the history store even when history is disabled")
	return cmd
}

func printJSON(cmd *cobra.Command, info release.Info) error {
	payload := struct {
		Name    string `json:"name"`
		Numbers [4]int `json:"numbers"`
		Source  string `json:"source"`
	}{info.Name, info.Numbers, string(info.Source)}

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return apperr.Wrap("versioncmd.Run", apperr.Internal, err, "encode version")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
