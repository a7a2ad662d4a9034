// Package historycmd lists and clears recorded version resolutions.
package historycmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/cli/common"
	"github.com/extform/extform/internal/history"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// New creates the `history` command.
func New() *cobra.Command {
	var limit int
	var project string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded version resolutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := common.SetupCLIContext(cmd)
			if err != nil {
				return err
			}

			ok, err := storeExists(cc.Config.History.Path)
			if err != nil {
				return err
			}
			if !ok {
				cc.Printer.Plain("no resolution history at %s", cc.Config.History.Path)
				return nil
			}

			st, err := history.Open(cc.Config.History.Path)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			entries, err := st.Recent(cc.Ctx, project, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cc.Printer.Plain("no resolutions recorded")
				return nil
			}
			renderTable(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of entries to show")
	cmd.Flags().StringVar(&project, "project", "", "Only show entries for this project")
	cmd.AddCommand(newClearCmd())
	return cmd
}

func newClearCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete recorded resolutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := common.SetupCLIContext(cmd)
			if err != nil {
				return err
			}

			ok, err := storeExists(cc.Config.History.Path)
			if err != nil {
				return err
			}
			if !ok {
				cc.Printer.Plain("no resolution history at %s", cc.Config.History.Path)
				return nil
			}

			st, err := history.Open(cc.Config.History.Path)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			n, err := st.Clear(cc.Ctx, project)
			if err != nil {
				return err
			}
			cc.Printer.Plain("removed %d resolution(s)", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Only delete entries for this project")
	return cmd
}

// storeExists reports whether the database file is already there, without
// creating it the way Open would.
func storeExists(path string) (bool, error) {
	resolved, err := history.ResolvePath(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, apperr.Wrap("historycmd.storeExists", apperr.Internal, err, "stat %s", resolved)
	}
	return true, nil
}

func renderTable(w io.Writer, entries []history.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "When", "Project", "Name", "Numbers", "Source"})
	for _, e := range entries {
		n := e.Numbers
		t.AppendRow(table.Row{
			e.ID,
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Project,
			e.Name,
			fmt.Sprintf("%d.%d.%d.%d", n[0], n[1], n[2], n[3]),
			e.Source,
		})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
