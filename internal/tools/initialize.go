package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/mark3labs/mcp-go/mcp"
)

// InitializeTool handles the phase_initialize MCP tool.
// It creates the phase record of a branch and, when a plan registry is
// wired, registers the work item's plan so the record can be rebuilt later.
type InitializeTool struct {
	store     PhaseStore
	workflows Sequencer
	plans     plans.Writer
	detector  BranchDetector
}

// NewInitializeTool creates an InitializeTool. registry and detector may be nil.
func NewInitializeTool(store PhaseStore, workflows Sequencer, registry plans.Writer, detector BranchDetector) *InitializeTool {
	return &InitializeTool{store: store, workflows: workflows, plans: registry, detector: detector}
}

// Definition returns the MCP tool definition for registration.
func (t *InitializeTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_initialize",
		mcp.WithDescription(
			"Start tracking the workflow phase of a branch. "+
				"Creates the branch's phase record at the first phase of the workflow "+
				"(or at initial_phase) and registers the work item's plan. "+
				"Fails if the branch is already tracked; use phase_transition instead.",
		),
		mcp.WithString("workflow",
			mcp.Required(),
			mcp.Description("Workflow kind, e.g. feature, bug, hotfix, refactor, docs, epic."),
		),
		mcp.WithString("branch",
			mcp.Description("Branch name following <type>/<number>-<slug>. Defaults to the current git branch."),
		),
		mcp.WithNumber("work_item_id",
			mcp.Description("Work item number. Defaults to the number in the branch name."),
		),
		mcp.WithString("initial_phase",
			mcp.Description("Phase to start in. Defaults to the first phase of the workflow."),
		),
		mcp.WithString("title",
			mcp.Description("Optional work item title stored with the plan."),
		),
	)
}

// Handle processes the phase_initialize tool call.
func (t *InitializeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflowName := strings.TrimSpace(req.GetString("workflow", ""))
	if workflowName == "" {
		return mcp.NewToolResultError("'workflow' is required"), nil
	}
	branch, msg := branchArg(ctx, req, t.detector)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	workItemID := int(req.GetFloat("work_item_id", 0))
	if workItemID < 0 {
		return mcp.NewToolResultError("'work_item_id' must be positive"), nil
	}
	if workItemID == 0 {
		id, err := state.ParseWorkItemID(branch)
		if err != nil {
			return toolError(err)
		}
		workItemID = id
	}

	seq, err := t.workflows.Sequence(workflowName)
	if err != nil {
		return toolError(err)
	}
	initialPhase := strings.TrimSpace(req.GetString("initial_phase", ""))
	if initialPhase != "" && !phase.Contains(seq, initialPhase) {
		return toolError(&phase.UnknownPhaseError{Phase: initialPhase, Workflow: workflowName, Valid: seq})
	}

	// The plan goes in first: a record without a plan cannot be rebuilt,
	// while a plan without a record is picked up again on retry.
	planNote, err := t.registerPlan(ctx, workItemID, workflowName, req.GetString("title", ""))
	if err != nil {
		return nil, err
	}

	rec, err := t.store.Initialize(ctx, branch, workItemID, workflowName, initialPhase)
	if err != nil {
		return toolError(err)
	}

	response := fmt.Sprintf(
		"# Phase Tracking Started\n\n"+
			"**Branch:** `%s`\n"+
			"**Work item:** #%d\n"+
			"**Workflow:** %s\n"+
			"**Current phase:** `%s`\n\n"+
			"%s\n\n"+
			"%s\n%s",
		rec.Branch, rec.WorkItemID, rec.WorkflowName, rec.CurrentPhase,
		formatSequence(seq, rec.CurrentPhase),
		nextStepHint(seq, rec.CurrentPhase),
		planNote,
	)
	return mcp.NewToolResultText(response), nil
}

// registerPlan records the plan for the work item unless one exists.
func (t *InitializeTool) registerPlan(ctx context.Context, id int, workflowName, title string) (string, error) {
	if t.plans == nil {
		return "", nil
	}
	plan, created, err := plans.Ensure(ctx, t.plans, plans.Plan{
		WorkItemID:   id,
		WorkflowName: workflowName,
		Title:        strings.TrimSpace(title),
	})
	switch {
	case err != nil:
		return "", err
	case created:
		return fmt.Sprintf("\nPlan registered for work item #%d.\n", id), nil
	case plan.WorkflowName != workflowName:
		return fmt.Sprintf("\n⚠️ Work item #%d is planned as `%s`, not `%s`. Recovery will use `%s`.\n",
			id, plan.WorkflowName, workflowName, plan.WorkflowName), nil
	}
	return "", nil
}
