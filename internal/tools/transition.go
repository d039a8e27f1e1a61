package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/mark3labs/mcp-go/mcp"
)

// TransitionTool handles the phase_transition MCP tool: a validated move
// to the next phase. It reads the state store only, never commit history.
type TransitionTool struct {
	store     PhaseStore
	workflows Sequencer
	detector  BranchDetector
}

// NewTransitionTool creates a TransitionTool.
func NewTransitionTool(store PhaseStore, workflows Sequencer, detector BranchDetector) *TransitionTool {
	return &TransitionTool{store: store, workflows: workflows, detector: detector}
}

// Definition returns the MCP tool definition for registration.
func (t *TransitionTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_transition",
		mcp.WithDescription(
			"Move a branch to the next phase of its workflow. "+
				"Only the phase immediately after the current one is accepted; "+
				"the error names the legal next phase otherwise. "+
				"To skip or go back, use phase_force_transition with a reason.",
		),
		mcp.WithString("to_phase",
			mcp.Required(),
			mcp.Description("Target phase; must be the next phase in the workflow."),
		),
		mcp.WithString("branch",
			mcp.Description("Branch name. Defaults to the current git branch."),
		),
	)
}

// Handle processes the phase_transition tool call.
func (t *TransitionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toPhase := strings.TrimSpace(req.GetString("to_phase", ""))
	if toPhase == "" {
		return mcp.NewToolResultError("'to_phase' is required"), nil
	}
	branch, msg := branchArg(ctx, req, t.detector)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	rec, err := t.store.Transition(ctx, branch, toPhase, state.TransitionOptions{})
	if err != nil {
		return toolError(err)
	}
	return transitionResult(rec, t.workflows)
}

// transitionResult renders the outcome of a successful transition.
func transitionResult(rec *phase.BranchState, workflows Sequencer) (*mcp.CallToolResult, error) {
	seq, err := workflows.Sequence(rec.WorkflowName)
	if err != nil {
		return nil, fmt.Errorf("loading workflow %q: %w", rec.WorkflowName, err)
	}
	last := rec.Transitions[len(rec.Transitions)-1]

	heading := "# Phase Transition"
	if last.Forced {
		heading = "# Forced Phase Transition"
	}
	response := fmt.Sprintf(
		"%s\n\n"+
			"**Branch:** `%s`\n"+
			"**From:** `%s`\n"+
			"**To:** `%s`\n",
		heading, rec.Branch, last.FromPhase, last.ToPhase,
	)
	if last.Forced {
		response += fmt.Sprintf("**Reason:** %s\n", last.Reason)
	}
	response += fmt.Sprintf("\n%s\n\n%s", formatSequence(seq, rec.CurrentPhase), nextStepHint(seq, rec.CurrentPhase))
	return mcp.NewToolResultText(response), nil
}
