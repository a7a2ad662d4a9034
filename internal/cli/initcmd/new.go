// Package initcmd writes a starter manifest.
package initcmd

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/extform/extform/internal/apperr"
	"github.com/spf13/cobra"
)

//go:embed template.yml
var starterTemplate string

// New creates the `init` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a starter extform.yml manifest",
		Long: `Create a starter extform.yml in the current directory or the given one.

The generated file documents every setting together with its built-in
default.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetDir := "."
			if len(args) > 0 {
				targetDir = args[0]
			}

			if targetDir != "." {
				if _, err := os.Stat(targetDir); os.IsNotExist(err) {
					return apperr.New("initcmd.Run", apperr.NotFound, "directory %s does not exist", targetDir)
				} else if err != nil {
					return apperr.Wrap("initcmd.Run", apperr.Internal, err, "check directory %s", targetDir)
				}
			}

			configPath := filepath.Join(targetDir, "extform.yml")

			if _, err := os.Stat(configPath); err == nil {
				return apperr.New("initcmd.Run", apperr.InvalidInput, "extform.yml already exists in %s", targetDir)
			}

			if err := os.WriteFile(configPath, []byte(starterTemplate), 0o644); err != nil {
				return apperr.Wrap("initcmd.Run", apperr.Internal, err, "write extform.yml")
			}

			// Report the shorter of the relative and absolute spellings.
			relPath := configPath
			if abs, err := filepath.Abs(configPath); err == nil {
				if cwd, err := os.Getwd(); err == nil {
					if rel, err := filepath.Rel(cwd, abs); err == nil && len(rel) < len(abs) {
						relPath = rel
					}
				}
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Created extform.yml: %s\n", relPath)
			return err
		},
	}

	return cmd
}
