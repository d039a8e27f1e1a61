// phasekeep: workflow phase tracking for git branches.
//
// Records which phase of its workflow each branch is in, enforces that
// phases advance one at a time, and tags commits with phase scope tokens so
// the phase can be recovered from history.
//
// Usage:
//
//	phasekeep serve                          # Start MCP server (stdio transport)
//	phasekeep status [branch]                # Show the current phase
//	phasekeep init <branch> <workflow>       # Start tracking a branch
//	phasekeep transition <branch> <phase>    # Advance to the next phase
//	phasekeep commit-msg <phase> <subject>   # Build a scope-tagged commit header
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/phasekeep/internal/config"
	"github.com/HendryAvila/phasekeep/internal/logging"
	"github.com/HendryAvila/phasekeep/internal/server"
	"github.com/spf13/cobra"
)

// options carries the persistent flags shared by every subcommand.
type options struct {
	root       string
	configFile string
	jsonOutput bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "phasekeep",
		Short: "Track the workflow phase of git branches",
		Long: `phasekeep records which workflow phase each branch is in and tags commits
with phase scope tokens (e.g. feat(P_TDD_SP_C1_RED): add parser).

Branches follow <type>/<number>-<slug>; the number is the work item id.

Examples:
  phasekeep init feature/42-login feature     # Start tracking at the first phase
  phasekeep transition feature/42-login planning
  phasekeep transition feature/42-login tdd --force --reason "research done offline"
  phasekeep status                            # Phase of the current branch
  phasekeep commit-msg tdd "add parser" --subphase red --cycle 1`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.root, "root", "", "Project root (auto-detected from .git or .phasekeep if not set)")
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default <root>/.phasekeep/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")

	root.AddCommand(
		newServeCmd(opts),
		newStatusCmd(opts),
		newInitCmd(opts),
		newTransitionCmd(opts),
		newPlanCmd(opts),
		newEncodeCmd(opts),
		newCommitMsgCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("Error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

// load resolves config, opens the logger, and builds every component.
// Outside serve, logging is raised to WARN unless --verbose is set so
// command output stays readable.
func (o *options) load(serve bool) (*server.App, func(), error) {
	root := o.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("getting working directory: %w", err)
		}
		root = config.FindRoot(wd)
	}

	cfg, err := config.Load(root, o.configFile)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Log.Level
	if !serve && !o.verbose && logging.ParseLevel(level) < slog.LevelWarn {
		level = logging.LevelWarn
	}
	logger, closeLog, err := logging.Open(cfg.LogPath(), level)
	if err != nil {
		return nil, nil, err
	}

	app, cleanup, err := server.Build(cfg, logger)
	if err != nil {
		cleanup()
		_ = closeLog()
		return nil, nil, err
	}
	return app, func() {
		cleanup()
		_ = closeLog()
	}, nil
}

// branchFrom returns args[0] or, when absent, the checked-out branch.
func branchFrom(ctx context.Context, app *server.App, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	branch, err := app.Git.CurrentBranch(ctx)
	if err != nil {
		return "", fmt.Errorf("no branch given: %w", err)
	}
	return branch, nil
}
