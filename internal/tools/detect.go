package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/mark3labs/mcp-go/mcp"
)

// Reporter resolves a branch's phase for reporting. *resolver.Resolver
// satisfies it.
type Reporter interface {
	ResolveBranch(ctx context.Context, branch string) phase.DetectionResult
}

// DetectTool handles the phase_detect MCP tool. Detection is advisory: it
// always answers, with a source and confidence attached.
type DetectTool struct {
	reporter Reporter
	detector BranchDetector
}

// NewDetectTool creates a DetectTool.
func NewDetectTool(reporter Reporter, detector BranchDetector) *DetectTool {
	return &DetectTool{reporter: reporter, detector: detector}
}

// Definition returns the MCP tool definition for registration.
func (t *DetectTool) Definition() mcp.Tool {
	return mcp.NewTool("phase_detect",
		mcp.WithDescription(
			"Report the most likely current phase of a branch for status and context. "+
				"Checks the latest commit's scope token, then the phase record, then "+
				"heuristics over recent commits. Never fails; the answer carries its "+
				"source and confidence. Do not use it to gate work: use phase_state.",
		),
		mcp.WithString("branch",
			mcp.Description("Branch name. Defaults to the current git branch."),
		),
	)
}

// Handle processes the phase_detect tool call.
func (t *DetectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	branch, msg := branchArg(ctx, req, t.detector)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	res := t.reporter.ResolveBranch(ctx, branch)

	response := fmt.Sprintf(
		"# Detected Phase\n\n"+
			"**Branch:** `%s`\n"+
			"**Phase:** `%s`\n",
		branch, res.Phase,
	)
	if res.Subphase != "" {
		response += fmt.Sprintf("**Sub-phase:** `%s`\n", res.Subphase)
	}
	if res.Cycle > 0 {
		response += fmt.Sprintf("**Cycle:** %d\n", res.Cycle)
	}
	response += fmt.Sprintf("**Source:** %s\n**Confidence:** %s\n", res.Source, res.Confidence)
	if res.Raw != "" {
		response += fmt.Sprintf("**Evidence:** `%s`\n", firstLine(res.Raw))
	}
	if res.Confidence == phase.ConfidenceLow {
		response += "\nLow confidence: this is a best guess. " +
			"Initialize the branch with `phase_initialize` or tag commits with `scope_encode` tokens.\n"
	}
	return mcp.NewToolResultText(response), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
