package common

import (
	"github.com/extform/extform/internal/history"
	"github.com/extform/extform/internal/logger"
	"github.com/extform/extform/internal/release"
)

// RecordResolution writes the resolved version to the history store when the
// config enables it or force is set. A failed write only warns: the
// resolution already happened and history is advisory.
func (c *CLIContext) RecordResolution(info release.Info, force bool) {
	if !c.Config.History.Enabled && !force {
		return
	}

	st, err := history.Open(c.Config.History.Path)
	if err != nil {
		c.Printer.Warn("history unavailable: %v", err)
		return
	}
	defer func() { _ = st.Close() }()

	_, err = st.Record(c.Ctx, history.RecordInput{
		RunID:   RunIDFrom(c.Ctx),
		Project: c.Config.Project.Name,
		Info:    info,
	})
	if err != nil {
		c.Printer.Warn("history write failed: %v", err)
		return
	}
	logger.FromContext(c.Ctx).Debug("history_recorded", "project", c.Config.Project.Name, "name", info.Name)
}
