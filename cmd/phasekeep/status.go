package main

import (
	"fmt"
	"io"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/server"
	"github.com/spf13/cobra"
)

type statusOutput struct {
	Branch   string                `json:"branch"`
	Detected phase.DetectionResult `json:"detected"`
	Recorded *phase.BranchState    `json:"recorded,omitempty"`
}

func newStatusCmd(opts *options) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "status [branch]",
		Short: "Show the phase of a branch",
		Long: `Show the detected phase of a branch (default: the current branch) and,
when the branch is tracked, its recorded phase and workflow.

Detection checks the latest commit's scope token, then the phase record,
then heuristics over recent commits. A lost record is rebuilt from the
work item's plan when one is registered.

With --all, list every tracked branch and its recorded phase instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("--all does not take a branch")
			}
			app, cleanup, err := opts.load(false)
			if err != nil {
				return err
			}
			defer cleanup()

			if all {
				return listTracked(cmd.OutOrStdout(), app, opts.jsonOutput)
			}

			ctx := cmd.Context()
			branch, err := branchFrom(ctx, app, args)
			if err != nil {
				return err
			}

			out := statusOutput{
				Branch:   branch,
				Detected: app.Resolver.ResolveBranch(ctx, branch),
			}
			if rec, ok := app.Store.Lookup(branch); ok {
				out.Recorded = rec
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(w, out)
			}

			field(w, "Branch", boldStyle.Render(branch))
			field(w, "Detected", renderDetection(out.Detected))
			if out.Recorded == nil {
				field(w, "Recorded", mutedStyle.Render("not tracked (run: phasekeep init "+branch+" <workflow>)"))
				return nil
			}

			rec := out.Recorded
			field(w, "Recorded", boldStyle.Render(rec.CurrentPhase))
			field(w, "Workflow", rec.WorkflowName)
			if seq, err := app.Catalog.Sequence(rec.WorkflowName); err == nil {
				field(w, "", renderSequence(seq, rec.CurrentPhase))
			}
			if rec.Reconstructed {
				field(w, "", warnStyle.Render("record was reconstructed; earlier transitions are not recoverable"))
			}
			if out.Detected.Phase != rec.CurrentPhase {
				field(w, "", warnStyle.Render("latest commits suggest "+out.Detected.Phase+"; the record says "+rec.CurrentPhase))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every tracked branch")
	return cmd
}

func listTracked(w io.Writer, app *server.App, asJSON bool) error {
	records := []*phase.BranchState{}
	for _, branch := range app.Store.Branches() {
		if rec, ok := app.Store.Lookup(branch); ok {
			records = append(records, rec)
		}
	}
	if asJSON {
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No branches tracked."))
		return nil
	}
	for _, rec := range records {
		line := fmt.Sprintf("%s  %s  %s",
			boldStyle.Render(rec.Branch),
			accentStyle.Render(rec.CurrentPhase),
			mutedStyle.Render(rec.WorkflowName))
		if rec.Reconstructed {
			line += "  " + warnStyle.Render("reconstructed")
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
