package main

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/spf13/cobra"
)

type commitView struct {
	Hash    string `json:"hash"`
	Subject string `json:"subject"`
	Phase   string `json:"phase,omitempty"`
}

type historyOutput struct {
	Branch      string             `json:"branch"`
	Transitions []phase.Transition `json:"transitions"`
	Commits     []commitView       `json:"commits,omitempty"`
}

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		commits bool
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history [branch]",
		Short: "Show the transition audit trail of a branch",
		Long: `Show the recorded phase transitions of a branch, oldest first.
With --commits, also list recent commits and the phase their scope token names.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := opts.load(false)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			branch, err := branchFrom(ctx, app, args)
			if err != nil {
				return err
			}
			trail, err := app.Store.History(ctx, branch)
			if err != nil {
				return err
			}
			out := historyOutput{Branch: branch, Transitions: trail}

			if commits {
				if limit <= 0 {
					limit = app.Config.History.Limit
				}
				list, err := app.Git.RecentCommits(ctx, branch, limit)
				if err != nil {
					return err
				}
				for _, c := range list {
					v := commitView{Hash: c.Hash, Subject: firstLine(c.Message)}
					if cs, ok := app.Codec.Decode(c.Message); ok {
						v.Phase = cs.Phase
					}
					out.Commits = append(out.Commits, v)
				}
			}

			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(w, out)
			}

			fmt.Fprintln(w, boldStyle.Render(branch))
			if len(trail) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("  No transitions recorded."))
			}
			for _, t := range trail {
				fmt.Fprintln(w, "  "+renderTransition(t))
			}
			if commits {
				fmt.Fprintln(w)
				for _, c := range out.Commits {
					tag := mutedStyle.Width(14).Render("-")
					if c.Phase != "" {
						tag = accentStyle.Width(14).Render(c.Phase)
					}
					fmt.Fprintf(w, "  %s  %s %s\n", mutedStyle.Render(shortHash(c.Hash)), tag, c.Subject)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&commits, "commits", false, "Also list recent commits with their decoded phase")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of commits to list (default: history.limit)")
	return cmd
}

func shortHash(h string) string {
	if len(h) > 8 {
		return h[:8]
	}
	return h
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
