package common

import (
	"github.com/extform/extform/internal/manifest"
	"github.com/extform/extform/internal/ui"
	"github.com/spf13/cobra"
)

// LoadConfigWithWarnings loads the configuration from the --config flag and
// surfaces interpolation warnings through the printer. An empty flag means
// the loader searches the working directory and falls back to the built-in
// defaults.
func LoadConfigWithWarnings(cmd *cobra.Command, pr ui.Printer) (*manifest.Config, error) {
	file, _ := cmd.Flags().GetString("config")

	cfg, missing, err := manifest.LoadWithWarnings(file)
	if err != nil {
		return nil, err
	}
	for _, name := range missing {
		pr.Warn("environment variable %s is not set; replacing with empty string", name)
	}
	return &cfg, nil
}
