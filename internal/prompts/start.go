// Package prompts implements MCP prompt handlers for the phase tracker.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the phase-start MCP prompt.
// It guides the AI to register a plan and begin tracking a branch.
type StartPrompt struct {
	defaultWorkflow string
}

// NewStartPrompt creates a StartPrompt. defaultWorkflow is used when the
// user does not name one.
func NewStartPrompt(defaultWorkflow string) *StartPrompt {
	return &StartPrompt{defaultWorkflow: defaultWorkflow}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("phase-start",
		mcp.WithPromptDescription(
			"Start tracking a work item's branch. "+
				"Registers the work item's plan and puts the branch in the first phase of its workflow.",
		),
		mcp.WithArgument("workflow",
			mcp.ArgumentDescription("Workflow kind: feature, bug, hotfix, refactor, docs, or epic."),
		),
		mcp.WithArgument("branch",
			mcp.ArgumentDescription("Branch name (<type>/<number>-<slug>). Default: the current branch."),
		),
	)
}

// Handle processes the phase-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	workflow := p.defaultWorkflow
	branch := ""
	if args := req.Params.Arguments; args != nil {
		if w, ok := args["workflow"]; ok && w != "" {
			workflow = w
		}
		branch = args["branch"]
	}

	target := "the current branch"
	branchArg := ""
	if branch != "" {
		target = fmt.Sprintf("branch '%s'", branch)
		branchArg = fmt.Sprintf(", branch='%s'", branch)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start %s workflow on %s", workflow, target),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I'm starting work on %s using the '%s' workflow.\n\n"+
						"Please:\n"+
						"1. Run `phase_initialize` with workflow='%s'%s (ask me for a short title first)\n"+
						"2. Show me the phase sequence and which phase I'm in\n"+
						"3. Remind me to tag commits with the token from `scope_encode` for the current phase\n"+
						"4. When I finish a phase, move me on with `phase_transition`",
					target, workflow, workflow, branchArg,
				)),
			},
		},
	}, nil
}
