package phase

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the authoritative path. Every typed error below
// unwraps to exactly one of these, so callers can branch with errors.Is
// and pull context out with errors.As.
var (
	ErrUnknownPhase        = errors.New("unknown phase")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrNoOpTransition      = errors.New("no-op transition")
	ErrMissingForceReason  = errors.New("forced transition requires a reason")
	ErrAlreadyInitialized  = errors.New("branch already initialized")
	ErrInvalidBranchName   = errors.New("invalid branch name")
	ErrPlanNotFound        = errors.New("plan not found")
	ErrUnknownWorkflow     = errors.New("unknown workflow")
	ErrInvalidScopeRequest = errors.New("invalid scope request")
)

// authoritative lists the errors a caller is expected to surface verbatim.
var authoritative = []error{
	ErrUnknownPhase,
	ErrInvalidTransition,
	ErrNoOpTransition,
	ErrMissingForceReason,
	ErrAlreadyInitialized,
	ErrInvalidBranchName,
	ErrPlanNotFound,
	ErrUnknownWorkflow,
	ErrInvalidScopeRequest,
}

// IsAuthoritative reports whether err belongs to the named error set, as
// opposed to an infrastructure failure (I/O, database, ...).
func IsAuthoritative(err error) bool {
	for _, target := range authoritative {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// UnknownPhaseError reports a phase that is not part of the relevant set.
type UnknownPhaseError struct {
	Phase    string
	Workflow string // empty when validated against the global phase set
	Valid    []string
}

func (e *UnknownPhaseError) Error() string {
	where := "known phases"
	if e.Workflow != "" {
		where = fmt.Sprintf("workflow %q", e.Workflow)
	}
	return fmt.Sprintf("unknown phase %q: valid phases for %s are [%s]",
		e.Phase, where, strings.Join(e.Valid, ", "))
}

func (e *UnknownPhaseError) Unwrap() error { return ErrUnknownPhase }

// TransitionError reports a non-forced transition that skips the sequence.
type TransitionError struct {
	Branch    string
	Current   string
	Requested string
	Next      string // empty when Current is the final phase
}

func (e *TransitionError) Error() string {
	if e.Next == "" {
		return fmt.Sprintf("invalid transition on %s: %s -> %s; %q is the final phase, use a forced transition with a reason",
			e.Branch, e.Current, e.Requested, e.Current)
	}
	return fmt.Sprintf("invalid transition on %s: %s -> %s; the only legal next phase is %q",
		e.Branch, e.Current, e.Requested, e.Next)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// NoOpTransitionError reports a transition to the phase the branch is already in.
type NoOpTransitionError struct {
	Branch string
	Phase  string
	Next   string
}

func (e *NoOpTransitionError) Error() string {
	msg := fmt.Sprintf("branch %s is already in phase %q", e.Branch, e.Phase)
	if e.Next != "" {
		msg += fmt.Sprintf("; the next phase is %q", e.Next)
	}
	return msg + " (re-entering a phase requires a forced transition with a reason)"
}

func (e *NoOpTransitionError) Unwrap() error { return ErrNoOpTransition }

// MissingForceReasonError reports a forced transition without a reason.
type MissingForceReasonError struct {
	Branch    string
	Requested string
}

func (e *MissingForceReasonError) Error() string {
	return fmt.Sprintf("forced transition of %s to %q requires a non-empty reason", e.Branch, e.Requested)
}

func (e *MissingForceReasonError) Unwrap() error { return ErrMissingForceReason }

// AlreadyInitializedError reports an Initialize call for a tracked branch.
type AlreadyInitializedError struct {
	Branch       string
	CurrentPhase string
}

func (e *AlreadyInitializedError) Error() string {
	return fmt.Sprintf("branch %s is already initialized (current phase %q); use a transition instead",
		e.Branch, e.CurrentPhase)
}

func (e *AlreadyInitializedError) Unwrap() error { return ErrAlreadyInitialized }

// InvalidBranchNameError reports a branch name without a work item id.
type InvalidBranchNameError struct {
	Branch string
}

func (e *InvalidBranchNameError) Error() string {
	return fmt.Sprintf("branch %q does not follow the <type>/<number>-<slug> convention (e.g. feature/42-add-login)", e.Branch)
}

func (e *InvalidBranchNameError) Unwrap() error { return ErrInvalidBranchName }

// PlanNotFoundError reports a work item without a registered plan.
type PlanNotFoundError struct {
	WorkItemID int
}

func (e *PlanNotFoundError) Error() string {
	return fmt.Sprintf("no plan registered for work item #%d", e.WorkItemID)
}

func (e *PlanNotFoundError) Unwrap() error { return ErrPlanNotFound }

// UnknownWorkflowError reports a workflow name missing from the catalog.
type UnknownWorkflowError struct {
	Workflow string
	Valid    []string
}

func (e *UnknownWorkflowError) Error() string {
	return fmt.Sprintf("unknown workflow %q: must be one of [%s]", e.Workflow, strings.Join(e.Valid, ", "))
}

func (e *UnknownWorkflowError) Unwrap() error { return ErrUnknownWorkflow }
