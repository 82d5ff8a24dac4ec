// Package gitinfo reads best-effort revision control metadata.
//
// Every accessor degrades silently: if git is missing, the directory is
// not a repository, or the command fails, the boolean result is false
// and callers render null fields instead of an error.
package gitinfo

import (
	"context"
	"os/exec"
	"strings"
)

// Client runs git against one working directory.
type Client struct {
	dir string
}

// Status summarizes the working tree per `git status --porcelain`.
type Status struct {
	Clean     bool `json:"clean"`
	Modified  int  `json:"modified_files"`
	Added     int  `json:"added_files"`
	Untracked int  `json:"untracked_files"`
	Total     int  `json:"total_changes"`
}

// New creates a Client for the given directory.
func New(dir string) *Client {
	return &Client{dir: dir}
}

// Commit returns the current HEAD revision id.
func (c *Client) Commit(ctx context.Context) (string, bool) {
	return c.run(ctx, "rev-parse", "HEAD")
}

// Branch returns the current branch name. Detached HEAD yields an
// empty string with ok true, matching git's own output.
func (c *Client) Branch(ctx context.Context) (string, bool) {
	return c.run(ctx, "branch", "--show-current")
}

// WorkingStatus summarizes local changes.
func (c *Client) WorkingStatus(ctx context.Context) (*Status, bool) {
	out, ok := c.run(ctx, "status", "--porcelain")
	if !ok {
		return nil, false
	}

	st := &Status{Clean: out == ""}
	if out == "" {
		return st, true
	}

	lines := strings.Split(out, "\n")
	st.Total = len(lines)
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, " M"):
			st.Modified++
		case strings.HasPrefix(line, "A "):
			st.Added++
		case strings.HasPrefix(line, "??"):
			st.Untracked++
		}
	}
	return st, true
}

// run executes one git subcommand, returning trimmed stdout.
func (c *Client) run(ctx context.Context, args ...string) (string, bool) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}
