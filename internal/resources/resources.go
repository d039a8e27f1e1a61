// Package resources implements MCP resource handlers for the phase tracker.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (phasekeep://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	StateURI     = "phasekeep://state"
	WorkflowsURI = "phasekeep://workflows"
)

// Snapshotter exposes the persisted phase document. *state.Store satisfies it.
type Snapshotter interface {
	Snapshot() *state.Document
}

// Catalog lists the configured workflows. *workflow.Catalog satisfies it.
type Catalog interface {
	Names() []string
	Sequence(name string) ([]string, error)
	Description(name string) string
	DefaultWorkflow() string
}

// Handler manages phasekeep resource endpoints.
type Handler struct {
	store   Snapshotter
	catalog Catalog
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store Snapshotter, catalog Catalog) *Handler {
	return &Handler{store: store, catalog: catalog}
}

// StateResource returns the MCP resource definition for the phase document.
func (h *Handler) StateResource() mcp.Resource {
	return mcp.NewResource(
		StateURI,
		"Branch Phase State",
		mcp.WithResourceDescription("Every tracked branch with its workflow, current phase, and transition audit trail"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleState returns the persisted phase document as JSON.
func (h *Handler) HandleState(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.store.Snapshot())
}

// WorkflowsResource returns the MCP resource definition for the workflow catalog.
func (h *Handler) WorkflowsResource() mcp.Resource {
	return mcp.NewResource(
		WorkflowsURI,
		"Workflow Catalog",
		mcp.WithResourceDescription("Configured workflows and their ordered phase sequences"),
		mcp.WithMIMEType("application/json"),
	)
}

type workflowView struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Phases      []string `json:"phases"`
	Default     bool     `json:"default,omitempty"`
}

// HandleWorkflows returns the workflow catalog as JSON.
func (h *Handler) HandleWorkflows(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	names := h.catalog.Names()
	views := make([]workflowView, 0, len(names))
	for _, name := range names {
		seq, err := h.catalog.Sequence(name)
		if err != nil {
			return errorResource(req.Params.URI, err.Error()), nil
		}
		views = append(views, workflowView{
			Name:        name,
			Description: h.catalog.Description(name),
			Phases:      seq,
			Default:     name == h.catalog.DefaultWorkflow(),
		})
	}
	return jsonResource(req.Params.URI, views)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
