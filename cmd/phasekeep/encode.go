package main

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/tools"
	"github.com/spf13/cobra"
)

func newEncodeCmd(opts *options) *cobra.Command {
	var (
		subphase string
		cycle    int
	)
	cmd := &cobra.Command{
		Use:   "encode <phase>",
		Short: "Print the scope token of a phase",
		Long: `Print the scope token that tags a commit with its phase.

Examples:
  phasekeep encode planning                       # P_PLANNING
  phasekeep encode tdd --subphase red --cycle 1   # P_TDD_SP_C1_RED`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := opts.load(false)
			if err != nil {
				return err
			}
			defer cleanup()

			token, err := app.Codec.Encode(args[0], subphase, cycle)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"token": token})
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subphase, "subphase", "", "Free-form sub-phase label, e.g. red, green, refactor")
	cmd.Flags().IntVar(&cycle, "cycle", 0, "Cycle number (requires --subphase)")
	return cmd
}

func newCommitMsgCmd(opts *options) *cobra.Command {
	var (
		commitType string
		subphase   string
		cycle      int
	)
	cmd := &cobra.Command{
		Use:   "commit-msg <phase> <subject...>",
		Short: "Print a scope-tagged conventional commit header",
		Long: `Print a conventional commit header carrying the phase scope token.
The commit type defaults to the phase's usual type (tdd: feat, integration: test, ...).

Examples:
  phasekeep commit-msg tdd add parser --subphase red --cycle 1
  git commit -m "$(phasekeep commit-msg planning outline the migration)"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := opts.load(false)
			if err != nil {
				return err
			}
			defer cleanup()

			phaseName := args[0]
			ct := commitType
			if ct == "" {
				ct = tools.DefaultCommitType(app.Catalog, strings.ToLower(phaseName))
			}
			header, err := app.Codec.CommitMessage(ct, phaseName, subphase, cycle, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"message": header})
			}
			fmt.Fprintln(cmd.OutOrStdout(), header)
			return nil
		},
	}
	cmd.Flags().StringVar(&commitType, "type", "", "Conventional commit type (default: the phase's usual type)")
	cmd.Flags().StringVar(&subphase, "subphase", "", "Free-form sub-phase label")
	cmd.Flags().IntVar(&cycle, "cycle", 0, "Cycle number (requires --subphase)")
	return cmd
}
