package main

import (
	"fmt"
	"strconv"

	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/spf13/cobra"
)

func newPlanCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage work item plans",
		Long: `A plan records which workflow a work item follows. It is what lets a
branch's phase record be rebuilt when local state is lost.`,
	}
	cmd.AddCommand(newPlanCreateCmd(opts), newPlanListCmd(opts))
	return cmd
}

func newPlanCreateCmd(opts *options) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "create <work-item-id> <workflow>",
		Short: "Register the workflow of a work item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("work item id must be a number, got %q", args[0])
			}
			app, cleanup, err := opts.load(false)
			if err != nil {
				return err
			}
			defer cleanup()

			plan, err := app.Plans.Create(cmd.Context(), plans.Plan{
				WorkItemID:   id,
				WorkflowName: args[1],
				Title:        title,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(w, plan)
			}
			fmt.Fprintf(w, "%s plan registered for #%d\n", passStyle.Render("✓"), plan.WorkItemID)
			field(w, "Workflow", plan.WorkflowName)
			field(w, "", renderSequence(plan.PhaseSequence, ""))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Work item title")
	return cmd
}

func newPlanListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := opts.load(false)
			if err != nil {
				return err
			}
			defer cleanup()

			list, err := app.Plans.List(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(w, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("No plans registered."))
				return nil
			}
			for _, p := range list {
				fmt.Fprintf(w, "%s  %s  %s\n",
					boldStyle.Render(fmt.Sprintf("#%-5d", p.WorkItemID)),
					accentStyle.Width(10).Render(p.WorkflowName),
					p.Title)
			}
			return nil
		},
	}
}
