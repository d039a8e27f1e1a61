package plans

import (
	"errors"
	"fmt"
)

// ErrDuplicatePlan is returned when a work item already has a plan.
var ErrDuplicatePlan = errors.New("plan already exists")

// DuplicatePlanError carries the conflicting work item id.
type DuplicatePlanError struct {
	WorkItemID int
}

func (e *DuplicatePlanError) Error() string {
	return fmt.Sprintf("work item #%d already has a plan", e.WorkItemID)
}

func (e *DuplicatePlanError) Unwrap() error { return ErrDuplicatePlan }

// ErrInvalidPlan is returned for plans missing required fields.
var ErrInvalidPlan = errors.New("invalid plan")

func validatePlan(p Plan) error {
	if p.WorkItemID <= 0 {
		return fmt.Errorf("%w: work item id must be positive, got %d", ErrInvalidPlan, p.WorkItemID)
	}
	if p.WorkflowName == "" {
		return fmt.Errorf("%w: workflow name is required", ErrInvalidPlan)
	}
	return nil
}
