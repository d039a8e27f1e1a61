// Package resolver answers "which phase is this branch in?" for reporting.
//
// Reporting never fails. Sources are consulted in a fixed order and the
// first that answers wins:
//
//  1. scope token in the latest commit     → commit-scope / high
//  2. the phase state store                → state-store / medium (low if reconstructed)
//  3. inference over recent commit history → whatever the engine reports
//
// Phase transitions never go through here; they read the state store only.
package resolver

import (
	"context"
	"log/slog"

	"github.com/HendryAvila/phasekeep/internal/history"
	"github.com/HendryAvila/phasekeep/internal/inference"
	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/plans"
	"github.com/HendryAvila/phasekeep/internal/scope"
	"github.com/HendryAvila/phasekeep/internal/state"
	"github.com/HendryAvila/phasekeep/internal/workflow"
)

// StateReader is the part of the state store the resolver reads.
type StateReader interface {
	GetState(ctx context.Context, branch string) (*phase.BranchState, error)
}

// Catalog supplies phase metadata. *workflow.Catalog satisfies it.
type Catalog interface {
	Metadata(workflow string) (workflow.Metadata, error)
	DefaultWorkflow() string
	AllPhases() []string
}

// Resolver runs the reporting precedence chain.
type Resolver struct {
	store   StateReader
	engine  *inference.Engine
	catalog Catalog
	plans   plans.Registry
	history history.Reader
	limit   int
	codec   *scope.Codec
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPlans lets the inference fallback use the workflow of the branch's
// plan instead of the catalog default.
func WithPlans(r plans.Registry) Option {
	return func(res *Resolver) { res.plans = r }
}

// WithHistory sets the commit source used by ResolveBranch.
func WithHistory(h history.Reader, limit int) Option {
	return func(res *Resolver) {
		res.history = h
		if limit > 0 {
			res.limit = limit
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(res *Resolver) {
		if l != nil {
			res.logger = l
		}
	}
}

// New creates a Resolver.
func New(store StateReader, engine *inference.Engine, catalog Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		store:   store,
		engine:  engine,
		catalog: catalog,
		limit:   history.DefaultLimit,
		codec:   scope.NewCodec(catalog.AllPhases()),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.engine == nil {
		r.engine = inference.New(r.logger)
	}
	return r
}

// ResolveForReporting returns the best available phase for branch.
// recent is newest first; when latest is empty the newest entry of recent
// stands in for it.
func (r *Resolver) ResolveForReporting(ctx context.Context, branch, latest string, recent []string) phase.DetectionResult {
	if latest == "" && len(recent) > 0 {
		latest = recent[0]
	}

	res := r.resolve(ctx, branch, latest, recent)
	r.logger.Info("phase resolved",
		"branch", branch,
		"phase", res.Phase,
		"source", string(res.Source),
		"confidence", string(res.Confidence),
	)
	return res
}

// ResolveBranch reads the branch history itself and resolves. A history
// failure is treated as an empty history.
func (r *Resolver) ResolveBranch(ctx context.Context, branch string) phase.DetectionResult {
	var recent []string
	if r.history != nil {
		commits, err := r.history.RecentCommits(ctx, branch, r.limit)
		if err != nil {
			r.logger.Info("history unavailable for reporting", "branch", branch, "error", err)
		} else {
			recent = history.Messages(commits)
		}
	}
	return r.ResolveForReporting(ctx, branch, "", recent)
}

func (r *Resolver) resolve(ctx context.Context, branch, latest string, recent []string) phase.DetectionResult {
	if cs, ok := r.codec.Decode(latest); ok {
		return phase.DetectionResult{
			Phase:      cs.Phase,
			Subphase:   cs.Subphase,
			Cycle:      cs.Cycle,
			Source:     phase.SourceCommitScope,
			Confidence: phase.ConfidenceHigh,
			Raw:        latest,
		}
	}

	if r.store != nil {
		rec, err := r.store.GetState(ctx, branch)
		if err == nil {
			conf := phase.ConfidenceMedium
			if rec.Reconstructed {
				conf = phase.ConfidenceLow
			}
			return phase.DetectionResult{
				Phase:      rec.CurrentPhase,
				Source:     phase.SourceStateStore,
				Confidence: conf,
			}
		}
		r.logger.Info("state store has no answer, inferring from history",
			"branch", branch,
			"error", err,
		)
	}

	return r.engine.Infer(recent, r.metadataFor(ctx, branch))
}

// metadataFor picks the workflow used for inference: the branch's plan when
// one is registered, the catalog default otherwise.
func (r *Resolver) metadataFor(ctx context.Context, branch string) workflow.Metadata {
	name := r.catalog.DefaultWorkflow()
	var sequence []string

	if r.plans != nil {
		if id, err := state.ParseWorkItemID(branch); err == nil {
			if plan, err := r.plans.GetPlan(ctx, id); err == nil {
				name = plan.WorkflowName
				sequence = plan.PhaseSequence
			}
		}
	}

	meta, err := r.catalog.Metadata(name)
	if err != nil {
		meta = workflow.Metadata{Workflow: name}
	}
	if len(sequence) > 0 {
		meta.Phases = sequence
	}
	return meta
}
