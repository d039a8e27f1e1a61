package resources

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/HendryAvila/phasekeep/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
)

func readText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	return tc.Text
}

func newHandler(t *testing.T) (*Handler, *state.Store) {
	t.Helper()
	catalog := workflow.Builtin()
	rec := state.NewReconstructor(plans.NewMemoryRegistry(catalog), nil, nil, catalog, 0, nil)
	store := state.NewStore(filepath.Join(t.TempDir(), "state.json"), catalog, rec, nil)
	return NewHandler(store, catalog), store
}

func TestHandleState(t *testing.T) {
	h, store := newHandler(t)
	if _, err := store.Initialize(context.Background(), "feature/42-login", 0, "feature", ""); err != nil {
		t.Fatal(err)
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = StateURI
	contents, err := h.HandleState(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleState failed: %v", err)
	}

	var doc state.Document
	if err := json.Unmarshal([]byte(readText(t, contents)), &doc); err != nil {
		t.Fatalf("state resource is not valid JSON: %v", err)
	}
	rec, ok := doc.Branches["feature/42-login"]
	if !ok {
		t.Fatal("expected feature/42-login in state resource")
	}
	if rec.CurrentPhase != "research" || rec.WorkItemID != 42 {
		t.Errorf("record = %+v", rec)
	}
}

func TestHandleState_Empty(t *testing.T) {
	h, _ := newHandler(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = StateURI
	contents, err := h.HandleState(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleState failed: %v", err)
	}

	var doc state.Document
	if err := json.Unmarshal([]byte(readText(t, contents)), &doc); err != nil {
		t.Fatalf("state resource is not valid JSON: %v", err)
	}
	if len(doc.Branches) != 0 {
		t.Errorf("expected no branches, got %d", len(doc.Branches))
	}
}

func TestHandleWorkflows(t *testing.T) {
	h, _ := newHandler(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = WorkflowsURI
	contents, err := h.HandleWorkflows(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleWorkflows failed: %v", err)
	}

	var views []workflowView
	if err := json.Unmarshal([]byte(readText(t, contents)), &views); err != nil {
		t.Fatalf("workflows resource is not valid JSON: %v", err)
	}
	byName := make(map[string]workflowView)
	for _, v := range views {
		byName[v.Name] = v
	}
	hotfix, ok := byName["hotfix"]
	if !ok {
		t.Fatal("expected hotfix workflow")
	}
	if len(hotfix.Phases) != 3 || hotfix.Phases[0] != "tdd" {
		t.Errorf("hotfix phases = %v", hotfix.Phases)
	}
	if !byName["feature"].Default {
		t.Error("feature should be marked as the default workflow")
	}
}

func TestResourceDefinitions(t *testing.T) {
	h, _ := newHandler(t)
	if got := h.StateResource().URI; got != StateURI {
		t.Errorf("state URI = %q", got)
	}
	if got := h.WorkflowsResource().URI; got != WorkflowsURI {
		t.Errorf("workflows URI = %q", got)
	}
}
