package plans_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/HendryAvila/phasekeep/internal/workflow"
)

// newTestRegistry opens a registry backed by a temp directory for isolation.
func newTestRegistry(t *testing.T) *plans.SQLiteRegistry {
	t.Helper()
	r, err := plans.OpenSQLite(filepath.Join(t.TempDir(), "plans.db"), workflow.Builtin())
	if err != nil {
		t.Fatalf("failed to open registry: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

// ─── Open ───────────────────────────────────────────────────────────────────

func TestOpenSQLite_CreatesNestedDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "plans.db")
	r, err := plans.OpenSQLite(path, workflow.Builtin())
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer r.Close()
}

func TestOpenSQLite_IdempotentReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plans.db")

	r1, err := plans.OpenSQLite(path, workflow.Builtin())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := r1.Create(ctx, plans.Plan{WorkItemID: 7, WorkflowName: "bug"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	r1.Close()

	// Reopen: plan should persist
	r2, err := plans.OpenSQLite(path, workflow.Builtin())
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer r2.Close()

	p, err := r2.GetPlan(ctx, 7)
	if err != nil {
		t.Fatalf("plan not found after reopen: %v", err)
	}
	if p.WorkflowName != "bug" {
		t.Errorf("workflow = %q, want %q", p.WorkflowName, "bug")
	}
}

func TestOpenSQLite_OpenError(t *testing.T) {
	restore := plans.SetOpenDB(func(driver, dsn string) (*sql.DB, error) {
		return nil, errors.New("boom")
	})
	defer restore()

	_, err := plans.OpenSQLite(filepath.Join(t.TempDir(), "plans.db"), workflow.Builtin())
	if err == nil {
		t.Fatal("expected error when the driver fails to open")
	}
}

// ─── Create / GetPlan ───────────────────────────────────────────────────────

func TestCreate_ResolvesSequence(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	p, err := r.Create(ctx, plans.Plan{WorkItemID: 42, WorkflowName: "bug", Title: "Fix login"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	want := []string{"research", "planning", "tdd", "integration", "documentation"}
	if len(p.PhaseSequence) != len(want) {
		t.Fatalf("sequence = %v, want %v", p.PhaseSequence, want)
	}
	for i := range want {
		if p.PhaseSequence[i] != want[i] {
			t.Errorf("sequence[%d] = %q, want %q", i, p.PhaseSequence[i], want[i])
		}
	}
	if p.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := r.GetPlan(ctx, 42)
	if err != nil {
		t.Fatalf("GetPlan() error: %v", err)
	}
	if got.Title != "Fix login" {
		t.Errorf("title = %q, want %q", got.Title, "Fix login")
	}
	if len(got.PhaseSequence) != len(want) {
		t.Errorf("GetPlan sequence = %v, want %v", got.PhaseSequence, want)
	}
}

func TestCreate_KeepsCreatedAt(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if _, err := r.Create(ctx, plans.Plan{WorkItemID: 1, WorkflowName: "docs", CreatedAt: at}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	got, err := r.GetPlan(ctx, 1)
	if err != nil {
		t.Fatalf("GetPlan() error: %v", err)
	}
	if !got.CreatedAt.Equal(at) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, at)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	if _, err := r.Create(ctx, plans.Plan{WorkItemID: 5, WorkflowName: "feature"}); err != nil {
		t.Fatalf("first Create() error: %v", err)
	}
	_, err := r.Create(ctx, plans.Plan{WorkItemID: 5, WorkflowName: "bug"})
	if !errors.Is(err, plans.ErrDuplicatePlan) {
		t.Fatalf("error = %v, want ErrDuplicatePlan", err)
	}
}

func TestCreate_UnknownWorkflow(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Create(context.Background(), plans.Plan{WorkItemID: 5, WorkflowName: "spike"})
	if !errors.Is(err, phase.ErrUnknownWorkflow) {
		t.Fatalf("error = %v, want ErrUnknownWorkflow", err)
	}
}

func TestCreate_InvalidPlan(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name string
		plan plans.Plan
	}{
		{"zero id", plans.Plan{WorkflowName: "bug"}},
		{"negative id", plans.Plan{WorkItemID: -3, WorkflowName: "bug"}},
		{"no workflow", plans.Plan{WorkItemID: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Create(ctx, tt.plan)
			if !errors.Is(err, plans.ErrInvalidPlan) {
				t.Errorf("error = %v, want ErrInvalidPlan", err)
			}
		})
	}
}

func TestGetPlan_NotFound(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.GetPlan(context.Background(), 999)
	if !errors.Is(err, phase.ErrPlanNotFound) {
		t.Fatalf("error = %v, want ErrPlanNotFound", err)
	}
	var nf *phase.PlanNotFoundError
	if !errors.As(err, &nf) || nf.WorkItemID != 999 {
		t.Errorf("expected PlanNotFoundError for #999, got %v", err)
	}
}

// ─── List ───────────────────────────────────────────────────────────────────

func TestList_OrderedByID(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	for _, id := range []int{30, 10, 20} {
		if _, err := r.Create(ctx, plans.Plan{WorkItemID: id, WorkflowName: "hotfix"}); err != nil {
			t.Fatalf("Create(%d) error: %v", id, err)
		}
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	for i, want := range []int{10, 20, 30} {
		if list[i].WorkItemID != want {
			t.Errorf("list[%d] = #%d, want #%d", i, list[i].WorkItemID, want)
		}
		if len(list[i].PhaseSequence) != 3 {
			t.Errorf("list[%d] sequence = %v", i, list[i].PhaseSequence)
		}
	}
}

func TestList_Empty(t *testing.T) {
	r := newTestRegistry(t)

	list, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len = %d, want 0", len(list))
	}
}
