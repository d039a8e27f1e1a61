package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/HendryAvila/phasekeep/internal/history"
	"github.com/HendryAvila/phasekeep/internal/inference"
	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/HendryAvila/phasekeep/internal/workflow"
)

// branchPattern is the branch naming convention <type>/<number>-<slug>.
var branchPattern = regexp.MustCompile(`^[^/\s]+/([0-9]+)-\S+$`)

// ParseWorkItemID extracts the work item number from a branch name such as
// "fix/39-initialize-project-tool".
func ParseWorkItemID(branch string) (int, error) {
	m := branchPattern.FindStringSubmatch(branch)
	if m == nil {
		return 0, &phase.InvalidBranchNameError{Branch: branch}
	}
	id, err := strconv.Atoi(m[1])
	if err != nil || id <= 0 {
		return 0, &phase.InvalidBranchNameError{Branch: branch}
	}
	return id, nil
}

// MetadataSource supplies phase metadata per workflow.
// *workflow.Catalog satisfies it.
type MetadataSource interface {
	Metadata(workflow string) (workflow.Metadata, error)
}

// Recoverer rebuilds a missing branch record.
type Recoverer interface {
	Reconstruct(ctx context.Context, branch string) (*phase.BranchState, error)
}

// Reconstructor rebuilds lost branch records from the plan registry and the
// branch's commit history. It never fabricates an audit trail.
type Reconstructor struct {
	plans   plans.Registry
	history history.Reader
	engine  *inference.Engine
	meta    MetadataSource
	limit   int
	logger  *slog.Logger
}

// NewReconstructor creates a Reconstructor. reader may be nil, in which case
// recovery proceeds as if the branch had no commits. limit <= 0 uses
// history.DefaultLimit.
func NewReconstructor(registry plans.Registry, reader history.Reader, engine *inference.Engine, meta MetadataSource, limit int, logger *slog.Logger) *Reconstructor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if engine == nil {
		engine = inference.New(logger)
	}
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	return &Reconstructor{
		plans:   registry,
		history: reader,
		engine:  engine,
		meta:    meta,
		limit:   limit,
		logger:  logger,
	}
}

// Reconstruct builds a fresh record for branch. It fails only when the
// branch name carries no work item id (InvalidBranchName) or the work item
// has no plan (PlanNotFound). The returned record is not persisted.
func (r *Reconstructor) Reconstruct(ctx context.Context, branch string) (*phase.BranchState, error) {
	id, err := ParseWorkItemID(branch)
	if err != nil {
		return nil, err
	}

	plan, err := r.plans.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, phase.ErrPlanNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("looking up plan for work item #%d: %w", id, err)
	}
	if len(plan.PhaseSequence) == 0 {
		return nil, fmt.Errorf("plan for work item #%d has an empty phase sequence", id)
	}

	meta := workflow.Metadata{Workflow: plan.WorkflowName}
	if r.meta != nil {
		if m, err := r.meta.Metadata(plan.WorkflowName); err == nil {
			meta = m
		}
	}
	meta.Phases = plan.PhaseSequence

	messages := r.recentMessages(ctx, branch)
	guess := r.engine.Infer(messages, meta)

	current := guess.Phase
	if !phase.Contains(plan.PhaseSequence, current) {
		current = plan.PhaseSequence[0]
	}

	r.logger.Warn("reconstructed phase state",
		"branch", branch,
		"work_item_id", id,
		"workflow", plan.WorkflowName,
		"phase", current,
		"source", string(guess.Source),
		"confidence", string(guess.Confidence),
	)

	return &phase.BranchState{
		Branch:        branch,
		WorkItemID:    id,
		WorkflowName:  plan.WorkflowName,
		CurrentPhase:  current,
		Transitions:   []phase.Transition{},
		Reconstructed: true,
		CreatedAt:     timeNow().UTC(),
	}, nil
}

// recentMessages reads the branch history; any failure counts as no commits.
func (r *Reconstructor) recentMessages(ctx context.Context, branch string) []string {
	if r.history == nil {
		return nil
	}
	commits, err := r.history.RecentCommits(ctx, branch, r.limit)
	if err != nil {
		r.logger.Info("history unavailable, inferring from no commits",
			"branch", branch,
			"error", err,
		)
		return nil
	}
	return history.Messages(commits)
}
