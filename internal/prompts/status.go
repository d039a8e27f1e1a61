package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the phase-status MCP prompt.
// It instructs the AI to read and present where the current branch stands.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("phase-status",
		mcp.WithPromptDescription(
			"Check which workflow phase the current branch is in, "+
				"how that was determined, and what to do next.",
		),
	)
}

// Handle processes the phase-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Branch Phase Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `phase_detect` to see which phase my current branch is in, " +
						"then `phase_state` for the recorded audit trail.\n\n" +
						"Then:\n" +
						"1. Show me the workflow sequence with my current phase highlighted\n" +
						"2. If detection confidence is low, or detect and state disagree, say so plainly\n" +
						"3. Tell me what the next phase is and what finishing this one looks like\n" +
						"4. Give me the scope token to use for my next commit",
				),
			},
		},
	}, nil
}
