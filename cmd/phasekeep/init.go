package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/spf13/cobra"
)

func newInitCmd(opts *options) *cobra.Command {
	var (
		workItemID   int
		initialPhase string
		title        string
	)
	cmd := &cobra.Command{
		Use:   "init <branch> <workflow>",
		Short: "Start tracking the phase of a branch",
		Long: `Create the phase record of a branch at the first phase of its workflow
(or --phase) and register the work item's plan if it has none.

The work item id is read from the branch name unless --work-item is set.

Examples:
  phasekeep init feature/42-login feature
  phasekeep init fix/7-crash bug --phase tdd --title "Crash on empty input"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if workItemID < 0 {
				return fmt.Errorf("--work-item must be positive, got %d", workItemID)
			}
			app, cleanup, err := opts.load(false)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			branch, workflowName := args[0], args[1]
			id := workItemID
			if id == 0 {
				if id, err = state.ParseWorkItemID(branch); err != nil {
					return err
				}
			}
			seq, err := app.Catalog.Sequence(workflowName)
			if err != nil {
				return err
			}
			if initialPhase != "" && !phase.Contains(seq, initialPhase) {
				return &phase.UnknownPhaseError{Phase: initialPhase, Workflow: workflowName, Valid: seq}
			}

			// Register the plan before the record so a failed registry
			// leaves nothing tracked and the command can simply be rerun.
			plan, created, err := plans.Ensure(ctx, app.Plans, plans.Plan{
				WorkItemID:   id,
				WorkflowName: workflowName,
				Title:        strings.TrimSpace(title),
			})
			if err != nil {
				return err
			}
			rec, err := app.Store.Initialize(ctx, branch, id, workflowName, initialPhase)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(w, rec)
			}

			fmt.Fprintf(w, "%s tracking %s at %s\n",
				passStyle.Render("✓"), boldStyle.Render(branch), boldStyle.Render(rec.CurrentPhase))
			field(w, "Workflow", rec.WorkflowName)
			field(w, "", renderSequence(seq, rec.CurrentPhase))
			reportPlan(w, plan, created, workflowName)
			return nil
		},
	}
	cmd.Flags().IntVar(&workItemID, "work-item", 0, "Work item id (default: parsed from the branch name)")
	cmd.Flags().StringVar(&initialPhase, "phase", "", "Phase to start in (default: first phase of the workflow)")
	cmd.Flags().StringVar(&title, "title", "", "Work item title stored with the plan")
	return cmd
}

func reportPlan(w io.Writer, plan plans.Plan, created bool, workflowName string) {
	switch {
	case created:
		field(w, "Plan", fmt.Sprintf("registered for #%d", plan.WorkItemID))
	case plan.WorkflowName != workflowName:
		field(w, "Plan", warnStyle.Render(fmt.Sprintf("#%d is planned as %s, not %s; recovery will use %s",
			plan.WorkItemID, plan.WorkflowName, workflowName, plan.WorkflowName)))
	}
}
