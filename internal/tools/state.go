package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StateTool handles the phase_state MCP tool: the authoritative record of
// a branch with its audit trail. A missing record is rebuilt on the fly.
type StateTool struct {
	store     PhaseStore
	workflows Sequencer
	detector  BranchDetector
}

// NewStateTool creates a StateTool.
func NewStateTool(store PhaseStore, workflows Sequencer, detector BranchDetector) *StateTool {
	return &StateTool{store: store, workflows: workflows, detector: detector}
}

// Definition returns the MCP tool definition for registration.
func (t *StateTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_state",
		mcp.WithDescription(
			"Show the authoritative phase record of a branch: workflow, current phase, "+
				"and the transition audit trail. If the local record is missing or corrupt "+
				"it is reconstructed from the work item's plan and commit history.",
		),
		mcp.WithString("branch",
			mcp.Description("Branch name. Defaults to the current git branch."),
		),
	)
}

// Handle processes the phase_state tool call.
func (t *StateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	branch, msg := branchArg(ctx, req, t.detector)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	rec, err := t.store.GetState(ctx, branch)
	if err != nil {
		return toolError(err)
	}
	seq, err := t.workflows.Sequence(rec.WorkflowName)
	if err != nil {
		return nil, fmt.Errorf("loading workflow %q: %w", rec.WorkflowName, err)
	}

	response := fmt.Sprintf(
		"# Phase State\n\n"+
			"**Branch:** `%s`\n"+
			"**Work item:** #%d\n"+
			"**Workflow:** %s\n"+
			"**Current phase:** `%s`\n"+
			"**Tracked since:** %s\n\n"+
			"%s\n\n"+
			"%s\n\n"+
			"## Transitions\n\n%s",
		rec.Branch, rec.WorkItemID, rec.WorkflowName, rec.CurrentPhase,
		rec.CreatedAt.Format("2006-01-02"),
		formatSequence(seq, rec.CurrentPhase),
		nextStepHint(seq, rec.CurrentPhase),
		formatTrail(rec.Transitions),
	)
	if rec.Reconstructed {
		response += "\n⚠️ This record was reconstructed from the plan and commit history. " +
			"Earlier transitions are not recoverable.\n"
	}
	return mcp.NewToolResultText(response), nil
}
