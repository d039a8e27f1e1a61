// Package plans is the plan registry: it records which workflow a work item
// follows, so that a branch's phase state can be rebuilt from scratch when
// the local state record is missing.
//
// The registry stores only the work item → workflow binding. The phase
// sequence is resolved through the workflow catalog on every lookup, so a
// plan always reflects the catalog the process was started with.
package plans

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/HendryAvila/phasekeep/internal/phase"
)

// Plan is the registry's answer for one work item.
type Plan struct {
	WorkItemID    int       `json:"work_item_id"`
	WorkflowName  string    `json:"workflow_name"`
	PhaseSequence []string  `json:"phase_sequence"`
	Title         string    `json:"title,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Registry looks up plans by work item id. GetPlan returns an error
// wrapping phase.ErrPlanNotFound when the work item has no plan.
type Registry interface {
	GetPlan(ctx context.Context, workItemID int) (Plan, error)
}

// Writer registers new plans.
type Writer interface {
	Registry
	Create(ctx context.Context, plan Plan) (Plan, error)
	List(ctx context.Context) ([]Plan, error)
}

// Sequencer resolves a workflow name to its phase sequence.
// *workflow.Catalog satisfies it.
type Sequencer interface {
	Sequence(workflow string) ([]string, error)
}

// Ensure registers plan unless its work item already has one. It returns
// the stored plan and whether it was created by this call; an existing plan
// is returned as is, even when its workflow differs.
func Ensure(ctx context.Context, w Writer, plan Plan) (Plan, bool, error) {
	existing, err := w.GetPlan(ctx, plan.WorkItemID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, phase.ErrPlanNotFound) {
		return Plan{}, false, fmt.Errorf("looking up plan for work item #%d: %w", plan.WorkItemID, err)
	}
	created, err := w.Create(ctx, plan)
	if err != nil {
		return Plan{}, false, fmt.Errorf("registering plan for work item #%d: %w", plan.WorkItemID, err)
	}
	return created, true, nil
}

// timeNow is replaced in tests.
var timeNow = time.Now

// MemoryRegistry is an in-process Writer, used by tests and embedders that
// don't need persistence.
type MemoryRegistry struct {
	mu    sync.Mutex
	seq   Sequencer
	plans map[int]Plan
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry(seq Sequencer) *MemoryRegistry {
	return &MemoryRegistry{seq: seq, plans: make(map[int]Plan)}
}

// Create registers a plan; the workflow must exist and the work item must
// not already have a plan.
func (r *MemoryRegistry) Create(ctx context.Context, plan Plan) (Plan, error) {
	if err := validatePlan(plan); err != nil {
		return Plan{}, err
	}
	seq, err := r.seq.Sequence(plan.WorkflowName)
	if err != nil {
		return Plan{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plans[plan.WorkItemID]; exists {
		return Plan{}, &DuplicatePlanError{WorkItemID: plan.WorkItemID}
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = timeNow().UTC()
	}
	plan.PhaseSequence = nil
	r.plans[plan.WorkItemID] = plan
	plan.PhaseSequence = seq
	return plan, nil
}

// GetPlan returns the plan for a work item.
func (r *MemoryRegistry) GetPlan(ctx context.Context, workItemID int) (Plan, error) {
	r.mu.Lock()
	plan, ok := r.plans[workItemID]
	r.mu.Unlock()
	if !ok {
		return Plan{}, &phase.PlanNotFoundError{WorkItemID: workItemID}
	}
	seq, err := r.seq.Sequence(plan.WorkflowName)
	if err != nil {
		return Plan{}, err
	}
	plan.PhaseSequence = seq
	return plan, nil
}

// List returns every plan ordered by work item id.
func (r *MemoryRegistry) List(ctx context.Context) ([]Plan, error) {
	r.mu.Lock()
	ids := make([]int, 0, len(r.plans))
	for id := range r.plans {
		ids = append(ids, id)
	}
	r.mu.Unlock()
	sort.Ints(ids)

	out := make([]Plan, 0, len(ids))
	for _, id := range ids {
		p, err := r.GetPlan(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
