package main

import (
	"errors"
	"fmt"

	"github.com/HendryAvila/phasekeep/internal/logging"
	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/spf13/cobra"
)

func newTransitionCmd(opts *options) *cobra.Command {
	var (
		force  bool
		reason string
	)
	cmd := &cobra.Command{
		Use:   "transition <branch> <phase>",
		Short: "Move a branch to another phase",
		Long: `Move a branch to the next phase of its workflow.

Only the phase right after the current one is accepted. To skip ahead, go
back, or re-enter the current phase, pass --force with a --reason; the
reason is kept in the audit trail.

Examples:
  phasekeep transition feature/42-login planning
  phasekeep transition feature/42-login research --force --reason "requirements changed"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reason != "" && !force {
				return errors.New("--reason is only used with --force")
			}
			app, cleanup, err := opts.load(false)
			if err != nil {
				return err
			}
			defer cleanup()

			branch, toPhase := args[0], args[1]
			rec, err := app.Store.Transition(cmd.Context(), branch, toPhase, state.TransitionOptions{
				Forced: force,
				Reason: reason,
			})
			if err != nil {
				return err
			}
			logging.WithPhase(logging.WithBranch(app.Logger, branch), rec.CurrentPhase).
				Debug("transition applied from CLI", "forced", force)

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(w, rec)
			}

			last := rec.Transitions[len(rec.Transitions)-1]
			mark := passStyle.Render("✓")
			if last.Forced {
				mark = warnStyle.Render("!")
			}
			fmt.Fprintf(w, "%s %s: %s → %s\n", mark, boldStyle.Render(branch), last.FromPhase, boldStyle.Render(last.ToPhase))
			if seq, err := app.Catalog.Sequence(rec.WorkflowName); err == nil {
				field(w, "Workflow", renderSequence(seq, rec.CurrentPhase))
			}
			if last.Forced {
				field(w, "Reason", last.Reason)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Bypass sequence validation (requires --reason)")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the sequence is being bypassed")
	return cmd
}
