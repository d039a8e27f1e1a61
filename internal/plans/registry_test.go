package plans_test

import (
	"context"
	"errors"
	"testing"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/HendryAvila/phasekeep/internal/workflow"
)

var (
	_ plans.Writer = (*plans.MemoryRegistry)(nil)
	_ plans.Writer = (*plans.SQLiteRegistry)(nil)
)

func TestMemoryRegistry_CreateAndGet(t *testing.T) {
	r := plans.NewMemoryRegistry(workflow.Builtin())
	ctx := context.Background()

	if _, err := r.Create(ctx, plans.Plan{WorkItemID: 42, WorkflowName: "bug"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	p, err := r.GetPlan(ctx, 42)
	if err != nil {
		t.Fatalf("GetPlan() error: %v", err)
	}
	if p.WorkflowName != "bug" {
		t.Errorf("workflow = %q, want %q", p.WorkflowName, "bug")
	}
	if len(p.PhaseSequence) != 5 || p.PhaseSequence[1] != "planning" {
		t.Errorf("sequence = %v", p.PhaseSequence)
	}
}

func TestMemoryRegistry_Errors(t *testing.T) {
	r := plans.NewMemoryRegistry(workflow.Builtin())
	ctx := context.Background()

	if _, err := r.GetPlan(ctx, 1); !errors.Is(err, phase.ErrPlanNotFound) {
		t.Errorf("GetPlan missing: error = %v, want ErrPlanNotFound", err)
	}
	if _, err := r.Create(ctx, plans.Plan{WorkItemID: 1, WorkflowName: "nope"}); !errors.Is(err, phase.ErrUnknownWorkflow) {
		t.Errorf("Create unknown workflow: error = %v, want ErrUnknownWorkflow", err)
	}
	if _, err := r.Create(ctx, plans.Plan{WorkItemID: 1, WorkflowName: "docs"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := r.Create(ctx, plans.Plan{WorkItemID: 1, WorkflowName: "docs"}); !errors.Is(err, plans.ErrDuplicatePlan) {
		t.Errorf("Create duplicate: error = %v, want ErrDuplicatePlan", err)
	}
}

func TestMemoryRegistry_List(t *testing.T) {
	r := plans.NewMemoryRegistry(workflow.Builtin())
	ctx := context.Background()
	for _, id := range []int{3, 1, 2} {
		if _, err := r.Create(ctx, plans.Plan{WorkItemID: id, WorkflowName: "feature"}); err != nil {
			t.Fatalf("Create(%d) error: %v", id, err)
		}
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	for i, want := range []int{1, 2, 3} {
		if list[i].WorkItemID != want {
			t.Errorf("list[%d] = #%d, want #%d", i, list[i].WorkItemID, want)
		}
	}
}

func TestEnsure(t *testing.T) {
	r := plans.NewMemoryRegistry(workflow.Builtin())
	ctx := context.Background()

	p, created, err := plans.Ensure(ctx, r, plans.Plan{WorkItemID: 9, WorkflowName: "docs"})
	if err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}
	if !created || p.WorkflowName != "docs" {
		t.Errorf("first Ensure = %+v, created=%v", p, created)
	}

	p, created, err = plans.Ensure(ctx, r, plans.Plan{WorkItemID: 9, WorkflowName: "bug"})
	if err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}
	if created {
		t.Error("second Ensure must not create")
	}
	if p.WorkflowName != "docs" {
		t.Errorf("existing plan should win, got %q", p.WorkflowName)
	}

	_, _, err = plans.Ensure(ctx, r, plans.Plan{WorkItemID: 10, WorkflowName: "spike"})
	if !errors.Is(err, phase.ErrUnknownWorkflow) {
		t.Errorf("unknown workflow: got %v", err)
	}
}
