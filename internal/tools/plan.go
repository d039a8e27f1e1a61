package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/mark3labs/mcp-go/mcp"
)

// PlanCreateTool handles the plan_create MCP tool.
type PlanCreateTool struct {
	plans plans.Writer
}

// NewPlanCreateTool creates a PlanCreateTool.
func NewPlanCreateTool(registry plans.Writer) *PlanCreateTool {
	return &PlanCreateTool{plans: registry}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_create",
		mcp.WithDescription(
			"Register which workflow a work item follows. "+
				"The plan lets a branch's phase record be reconstructed when local state is lost.",
		),
		mcp.WithNumber("work_item_id",
			mcp.Required(),
			mcp.Description("Work item number, as used in branch names (<type>/<number>-<slug>)."),
		),
		mcp.WithString("workflow",
			mcp.Required(),
			mcp.Description("Workflow kind, e.g. feature, bug, hotfix."),
		),
		mcp.WithString("title",
			mcp.Description("Optional work item title."),
		),
	)
}

// Handle processes the plan_create tool call.
func (t *PlanCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int(req.GetFloat("work_item_id", 0))
	workflowName := strings.TrimSpace(req.GetString("workflow", ""))
	if workflowName == "" {
		return mcp.NewToolResultError("'workflow' is required"), nil
	}

	plan, err := t.plans.Create(ctx, plans.Plan{
		WorkItemID:   id,
		WorkflowName: workflowName,
		Title:        strings.TrimSpace(req.GetString("title", "")),
	})
	if err != nil {
		return toolError(err)
	}

	response := fmt.Sprintf(
		"# Plan Registered\n\n"+
			"**Work item:** #%d\n"+
			"**Workflow:** %s\n"+
			"**Phases:** %s\n",
		plan.WorkItemID, plan.WorkflowName, strings.Join(plan.PhaseSequence, " → "),
	)
	if plan.Title != "" {
		response += fmt.Sprintf("**Title:** %s\n", plan.Title)
	}
	return mcp.NewToolResultText(response), nil
}
