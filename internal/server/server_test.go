package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/phasekeep/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

func buildApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default(t.TempDir())
	app, cleanup, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	t.Cleanup(cleanup)
	return app
}

func TestBuild_CreatesPlanDatabase(t *testing.T) {
	app := buildApp(t)
	if _, err := os.Stat(app.Config.PlansPath()); err != nil {
		t.Errorf("plan database not created: %v", err)
	}
	if app.Store.Path() != app.Config.StatePath() {
		t.Errorf("store path = %q, want %q", app.Store.Path(), app.Config.StatePath())
	}
}

func TestBuild_InvalidWorkflowsFile(t *testing.T) {
	cfg := config.Default(t.TempDir())
	path := cfg.WorkflowsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("workflows:\n  - name: Bad Name\n    phases: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, cleanup, err := Build(cfg, nil)
	defer cleanup()
	if err == nil {
		t.Fatal("expected error for invalid workflows file")
	}
	if !strings.Contains(err.Error(), "loading workflows") {
		t.Errorf("error = %v", err)
	}
}

func TestTools_Registered(t *testing.T) {
	app := buildApp(t)

	want := []string{
		"phase_initialize",
		"phase_transition",
		"phase_force_transition",
		"phase_state",
		"phase_detect",
		"scope_encode",
		"plan_create",
	}
	got := Tools(app)
	if len(got) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Tool.Name != name {
			t.Errorf("tool[%d] = %q, want %q", i, got[i].Tool.Name, name)
		}
	}

	if NewMCPServer(app) == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}

func TestTools_InitializeThenTransition(t *testing.T) {
	app := buildApp(t)
	handlers := make(map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error))
	for _, st := range Tools(app) {
		handlers[st.Tool.Name] = st.Handler
	}

	call := func(name string, args map[string]interface{}) *mcp.CallToolResult {
		t.Helper()
		req := mcp.CallToolRequest{}
		req.Params.Arguments = args
		result, err := handlers[name](context.Background(), req)
		if err != nil {
			t.Fatalf("%s failed: %v", name, err)
		}
		if result.IsError {
			t.Fatalf("%s returned error result: %+v", name, result.Content)
		}
		return result
	}

	call("phase_initialize", map[string]interface{}{"branch": "fix/12-crash", "workflow": "bug"})
	call("phase_transition", map[string]interface{}{"branch": "fix/12-crash", "to_phase": "planning"})

	rec, err := app.Store.GetState(context.Background(), "fix/12-crash")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if rec.CurrentPhase != "planning" || len(rec.Transitions) != 1 {
		t.Errorf("record = %+v", rec)
	}

	plan, err := app.Plans.GetPlan(context.Background(), 12)
	if err != nil {
		t.Fatalf("plan should be registered in SQLite: %v", err)
	}
	if plan.WorkflowName != "bug" {
		t.Errorf("plan workflow = %q", plan.WorkflowName)
	}
}

func TestNew_ReturnsCleanupOnError(t *testing.T) {
	cfg := config.Default(t.TempDir())
	// A directory where the database file should be makes the open fail.
	if err := os.MkdirAll(cfg.PlansPath(), 0o755); err != nil {
		t.Fatal(err)
	}

	s, cleanup, err := New(cfg, nil)
	if cleanup == nil {
		t.Fatal("cleanup must never be nil")
	}
	cleanup()
	if err == nil {
		t.Fatal("expected error when the plan database cannot be opened")
	}
	if s != nil {
		t.Error("server should be nil on error")
	}
}
