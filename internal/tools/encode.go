package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/scope"
	"github.com/mark3labs/mcp-go/mcp"
)

// CommitTyper returns the default conventional commit type of a phase.
// *workflow.Catalog satisfies it.
type CommitTyper interface {
	CommitType(phaseName string) string
}

// ScopeEncodeTool handles the scope_encode MCP tool.
type ScopeEncodeTool struct {
	codec *scope.Codec
	types CommitTyper
}

// NewScopeEncodeTool creates a ScopeEncodeTool.
func NewScopeEncodeTool(codec *scope.Codec, types CommitTyper) *ScopeEncodeTool {
	return &ScopeEncodeTool{codec: codec, types: types}
}

// Definition returns the MCP tool definition for registration.
func (t *ScopeEncodeTool) Definition() mcp.Tool {
	return mcp.NewTool("scope_encode",
		mcp.WithDescription(
			"Build the scope token that tags a commit with its phase, e.g. P_TDD_SP_C1_RED. "+
				"With a subject, returns the full commit header type(token): subject.",
		),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Description("Phase name, e.g. research, planning, tdd."),
		),
		mcp.WithString("subphase",
			mcp.Description("Free-form sub-phase label, e.g. red, green, refactor."),
		),
		mcp.WithNumber("cycle",
			mcp.Description("Cycle number (requires a subphase)."),
		),
		mcp.WithString("subject",
			mcp.Description("Commit subject. When set, the full commit header is returned."),
		),
		mcp.WithString("type",
			mcp.Description("Conventional commit type. Defaults to the phase's usual type."),
		),
	)
}

// Handle processes the scope_encode tool call.
func (t *ScopeEncodeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	phaseName := strings.TrimSpace(req.GetString("phase", ""))
	if phaseName == "" {
		return mcp.NewToolResultError("'phase' is required"), nil
	}
	subphase := req.GetString("subphase", "")
	cycle := int(req.GetFloat("cycle", 0))

	token, err := t.codec.Encode(phaseName, subphase, cycle)
	if err != nil {
		return toolError(err)
	}

	subject := strings.TrimSpace(req.GetString("subject", ""))
	if subject == "" {
		return mcp.NewToolResultText(token), nil
	}

	commitType := strings.TrimSpace(req.GetString("type", ""))
	if commitType == "" {
		commitType = DefaultCommitType(t.types, strings.ToLower(phaseName))
	}
	header, err := t.codec.CommitMessage(commitType, phaseName, subphase, cycle, subject)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\nToken: %s", header, token)), nil
}

// DefaultCommitType is the phase's configured commit type, or "chore".
func DefaultCommitType(types CommitTyper, phaseName string) string {
	if types != nil {
		if t := types.CommitType(phaseName); t != "" {
			return t
		}
	}
	return "chore"
}
