// Package tools implements the MCP tool handlers of the phase tracker.
//
// Each tool is a struct that receives its dependencies at construction and
// exposes Definition (for registration) and Handle (the mcp-go handler).
//
// Error convention:
//   - Named phase errors (invalid transition, unknown phase, ...) are
//     returned as tool error results with the error text verbatim. They
//     already tell the caller how to correct the request.
//   - Anything else (I/O, database) is returned as a Go error.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/mark3labs/mcp-go/mcp"
)

// PhaseStore is the authoritative state the tools read and write.
// *state.Store satisfies it.
type PhaseStore interface {
	GetState(ctx context.Context, branch string) (*phase.BranchState, error)
	Initialize(ctx context.Context, branch string, workItemID int, workflowName, initialPhase string) (*phase.BranchState, error)
	Transition(ctx context.Context, branch, toPhase string, opts state.TransitionOptions) (*phase.BranchState, error)
}

// BranchDetector finds the checked-out branch when a tool call omits it.
// *history.GitReader satisfies it.
type BranchDetector interface {
	CurrentBranch(ctx context.Context) (string, error)
}

// Sequencer resolves workflow phase sequences. *workflow.Catalog satisfies it.
type Sequencer interface {
	Sequence(workflow string) ([]string, error)
}

// branchArg returns the "branch" argument, falling back to the current git
// branch. The second result is a user-facing message when neither works.
func branchArg(ctx context.Context, req mcp.CallToolRequest, detector BranchDetector) (string, string) {
	if b := strings.TrimSpace(req.GetString("branch", "")); b != "" {
		return b, ""
	}
	if detector == nil {
		return "", "'branch' is required: no git repository is available to detect it"
	}
	b, err := detector.CurrentBranch(ctx)
	if err != nil {
		return "", fmt.Sprintf("'branch' is required: could not detect the current branch (%v)", err)
	}
	return b, ""
}

// toolError converts named errors into tool error results and passes
// infrastructure errors through.
func toolError(err error) (*mcp.CallToolResult, error) {
	if phase.IsAuthoritative(err) ||
		errors.Is(err, plans.ErrDuplicatePlan) ||
		errors.Is(err, plans.ErrInvalidPlan) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}

// formatSequence renders a phase sequence with the current phase marked.
func formatSequence(seq []string, current string) string {
	parts := make([]string, len(seq))
	for i, p := range seq {
		if p == current {
			parts[i] = "**" + p + "**"
		} else {
			parts[i] = p
		}
	}
	return strings.Join(parts, " → ")
}

// formatTrail renders the audit trail as a markdown list, oldest first.
func formatTrail(trail []phase.Transition) string {
	if len(trail) == 0 {
		return "_No transitions recorded._\n"
	}
	var b strings.Builder
	for _, t := range trail {
		fmt.Fprintf(&b, "- %s: %s → %s", t.Timestamp.Format("2006-01-02 15:04:05Z07:00"), t.FromPhase, t.ToPhase)
		if t.Forced {
			fmt.Fprintf(&b, " (forced: %s)", t.Reason)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// nextStepHint tells the caller what the next legal move is.
func nextStepHint(seq []string, current string) string {
	next, ok := phase.NextPhase(seq, current)
	if !ok {
		return fmt.Sprintf("`%s` is the final phase.", current)
	}
	return fmt.Sprintf("Next phase: `%s` (use `phase_transition`).", next)
}
