// Package gitcli provides the two version-control queries the release
// resolver needs, shelling out to the git binary.
package gitcli

import (
	"context"
	"time"

	"github.com/extform/extform/internal/execx"
	"github.com/extform/extform/internal/logger"
)

const defaultTimeout = 10 * time.Second

// Client answers describe/branch queries for one working directory.
type Client struct {
	run execx.Runner
	dir string
}

func New(dir string) *Client {
	return &Client{run: execx.System{DefaultTimeout: defaultTimeout}, dir: dir}
}

// WithRunner substitutes the command runner; used by tests.
func (c *Client) WithRunner(r execx.Runner) *Client {
	c.run = r
	return c
}

// Describe returns the nearest-tag description (`git describe --tag`).
// ok is false when the repository has no tag, git is missing, or the
// command fails for any reason; callers treat all of those as absence.
func (c *Client) Describe(ctx context.Context) (string, bool) {
	return c.firstLine(ctx, "describe", "--tag")
}

// Branch returns the current branch short name
// (`git symbolic-ref --short HEAD`), with the same absence semantics:
// ok is false on detached HEAD, missing git, or any other failure.
func (c *Client) Branch(ctx context.Context) (string, bool) {
	return c.firstLine(ctx, "symbolic-ref", "--short", "HEAD")
}

// Version returns `git version` output for diagnostics.
func (c *Client) Version(ctx context.Context) (string, error) {
	res, err := c.run.Run(ctx, execx.Options{Dir: c.dir}, "git", "version")
	if err != nil {
		return "", err
	}
	return res.FirstLine(), nil
}

func (c *Client) firstLine(ctx context.Context, args ...string) (string, bool) {
	res, err := c.run.Run(ctx, execx.Options{Dir: c.dir}, "git", args...)
	if err != nil {
		logger.FromContext(ctx).Debug("git_query_failed", "args", args, "error", err.Error())
		return "", false
	}
	line := res.FirstLine()
	if line == "" {
		return "", false
	}
	return line, true
}
