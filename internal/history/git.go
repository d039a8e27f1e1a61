// Package history reads recent commit messages from git. It is the only
// part of the tracker that shells out, and every call is bounded by a
// timeout so a slow or broken repository degrades to "no history" instead
// of hanging a lookup.
package history

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 5 * time.Second

// DefaultLimit is the number of commits read when no limit is given.
const DefaultLimit = 50

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
	logFormat = "--format=%H%x1f%ct%x1f%B%x1e"
)

// Commit is one entry of the branch history.
type Commit struct {
	Hash      string
	Message   string
	Timestamp time.Time
}

// Reader is the history source consumed by recovery and reporting.
// Implementations return commits newest first.
type Reader interface {
	RecentCommits(ctx context.Context, branch string, limit int) ([]Commit, error)
}

var _ Reader = (*GitReader)(nil)

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Run executes a command in dir and returns its stdout.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// CLIExecutor runs commands with os/exec.
type CLIExecutor struct{}

// Run executes name with args in dir.
func (CLIExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(ee.Stderr)))
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// GitReader reads branch history from a working tree.
type GitReader struct {
	dir      string
	executor CommandExecutor
	timeout  time.Duration
}

// Option configures a GitReader.
type Option func(*GitReader)

// WithExecutor replaces the command executor. Used by tests.
func WithExecutor(e CommandExecutor) Option {
	return func(g *GitReader) { g.executor = e }
}

// WithTimeout sets the per-call timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(g *GitReader) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGitReader creates a reader for the repository at dir.
func NewGitReader(dir string, opts ...Option) *GitReader {
	g := &GitReader{dir: dir, executor: CLIExecutor{}, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RecentCommits returns up to limit commits reachable from branch, newest
// first. An empty branch reads from HEAD.
func (g *GitReader) RecentCommits(ctx context.Context, branch string, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ref := branch
	if ref == "" {
		ref = "HEAD"
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.executor.Run(ctx, g.dir, "git", "log", "-n", strconv.Itoa(limit), logFormat, ref, "--")
	if err != nil {
		return nil, fmt.Errorf("reading history of %q: %w", ref, err)
	}
	return parseLog(string(out)), nil
}

// CurrentBranch returns the checked-out branch name.
func (g *GitReader) CurrentBranch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.executor.Run(ctx, g.dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("detecting current branch: %w", err)
	}
	name := strings.TrimSpace(string(out))
	if name == "" || name == "HEAD" {
		return "", fmt.Errorf("detecting current branch: detached HEAD")
	}
	return name, nil
}

// Messages extracts the commit messages, preserving order.
func Messages(commits []Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.Message
	}
	return out
}

func parseLog(raw string) []Commit {
	var commits []Commit
	for _, rec := range strings.Split(raw, recordSep) {
		rec = strings.TrimLeft(rec, "\n")
		if strings.TrimSpace(rec) == "" {
			continue
		}
		parts := strings.SplitN(rec, fieldSep, 3)
		if len(parts) != 3 {
			continue
		}
		c := Commit{
			Hash:    strings.TrimSpace(parts[0]),
			Message: strings.TrimRight(parts[2], "\n"),
		}
		if secs, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64); err == nil {
			c.Timestamp = time.Unix(secs, 0).UTC()
		}
		commits = append(commits, c)
	}
	return commits
}
