// Package common wires the pieces every subcommand needs: configuration,
// output printer, and the external tool clients.
package common

import (
	"context"

	"github.com/extform/extform/internal/gitcli"
	"github.com/extform/extform/internal/manifest"
	"github.com/extform/extform/internal/pycli"
	"github.com/extform/extform/internal/release"
	"github.com/extform/extform/internal/ui"
	"github.com/spf13/cobra"
)

// CLIContext carries the components shared by the subcommands.
type CLIContext struct {
	Ctx     context.Context
	Config  *manifest.Config
	Printer ui.Printer
	Git     *gitcli.Client
	Python  *pycli.Client
}

// SetupCLIContext loads the configuration and builds the tool clients. The
// git client is rooted at the config's base directory so describe answers
// for the project being built, not for wherever extform happens to run.
func SetupCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	pr := ui.StdPrinter{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}

	cfg, err := LoadConfigWithWarnings(cmd, pr)
	if err != nil {
		return nil, err
	}

	return &CLIContext{
		Ctx:     cmd.Context(),
		Config:  cfg,
		Printer: pr,
		Git:     gitcli.New(cfg.BaseDir),
		Python:  pycli.New(cfg.Python.Interpreter),
	}, nil
}

// Resolver builds the version resolver for the loaded configuration.
func (c *CLIContext) Resolver() release.Resolver {
	return release.Resolver{
		ManifestPath:  c.Config.Project.PackageInfo,
		Git:           c.Git,
		PrimaryBranch: c.Config.Git.PrimaryBranch,
	}
}

type runIDKey struct{}

// WithRunID stores the invocation's run id so history rows correlate with
// log lines.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom returns the stored run id, or empty when none was set.
func RunIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}
