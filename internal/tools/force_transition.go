package tools

import (
	"context"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/mark3labs/mcp-go/mcp"
)

// ForceTransitionTool handles the phase_force_transition MCP tool.
type ForceTransitionTool struct {
	store     PhaseStore
	workflows Sequencer
	detector  BranchDetector
}

// NewForceTransitionTool creates a ForceTransitionTool.
func NewForceTransitionTool(store PhaseStore, workflows Sequencer, detector BranchDetector) *ForceTransitionTool {
	return &ForceTransitionTool{store: store, workflows: workflows, detector: detector}
}

// Definition returns the MCP tool definition for registration.
func (t *ForceTransitionTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_force_transition",
		mcp.WithDescription(
			"Move a branch to any phase of its workflow, forward or backward, "+
				"bypassing sequence validation. A reason is mandatory and is kept in the audit trail. "+
				"Re-entering the current phase is only possible this way.",
		),
		mcp.WithString("to_phase",
			mcp.Required(),
			mcp.Description("Target phase; must belong to the branch's workflow."),
		),
		mcp.WithString("reason",
			mcp.Required(),
			mcp.Description("Why the normal sequence is being bypassed."),
		),
		mcp.WithString("branch",
			mcp.Description("Branch name. Defaults to the current git branch."),
		),
	)
}

// Handle processes the phase_force_transition tool call. A blank reason is
// passed through so the store reports MissingForceReason itself.
func (t *ForceTransitionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toPhase := strings.TrimSpace(req.GetString("to_phase", ""))
	if toPhase == "" {
		return mcp.NewToolResultError("'to_phase' is required"), nil
	}
	branch, msg := branchArg(ctx, req, t.detector)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	rec, err := t.store.Transition(ctx, branch, toPhase, state.TransitionOptions{
		Forced: true,
		Reason: req.GetString("reason", ""),
	})
	if err != nil {
		return toolError(err)
	}
	return transitionResult(rec, t.workflows)
}
