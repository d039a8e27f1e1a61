// Package state is the authoritative phase record of every branch.
//
// The whole state lives in a single JSON document that is read and written
// as a unit; writes go through a temp file and a rename so a crash never
// leaves a half-written document behind. A missing, corrupt, or invalid
// record is never reported to the caller: it is rebuilt by the Recoverer
// and persisted before GetState returns.
//
// Store.Transition is the only operation that moves a branch to another
// phase. It reads the record through GetState and nothing else, so gating
// never depends on commit heuristics.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/HendryAvila/phasekeep/internal/phase"
)

// Workflows resolves a workflow name to its phase sequence.
// *workflow.Catalog satisfies it.
type Workflows interface {
	Sequence(workflow string) ([]string, error)
}

// TransitionOptions controls Store.Transition.
type TransitionOptions struct {
	// Forced allows moving to any phase in the sequence, in either
	// direction. Reason is then mandatory.
	Forced bool
	Reason string
}

// Store reads and writes the state document.
type Store struct {
	path      string
	workflows Workflows
	recoverer Recoverer
	logger    *slog.Logger

	mu sync.Mutex
}

// NewStore creates a Store for the document at path.
func NewStore(path string, workflows Workflows, recoverer Recoverer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		path:      path,
		workflows: workflows,
		recoverer: recoverer,
		logger:    logger,
	}
}

// Path returns the location of the state document.
func (s *Store) Path() string {
	return s.path
}

// GetState returns the record of branch. An absent or unusable record is
// reconstructed and persisted first; only reconstruction failures
// (InvalidBranchName, PlanNotFound) and write failures are returned.
func (s *Store) GetState(ctx context.Context, branch string) (*phase.BranchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	rec, err := s.stateLocked(ctx, doc, branch)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Initialize creates the record of branch. workItemID 0 means "parse it from
// the branch name"; an empty initialPhase means the first phase of the
// workflow.
func (s *Store) Initialize(ctx context.Context, branch string, workItemID int, workflowName, initialPhase string) (*phase.BranchState, error) {
	if strings.TrimSpace(branch) == "" {
		return nil, &phase.InvalidBranchNameError{Branch: branch}
	}
	if workItemID == 0 {
		id, err := ParseWorkItemID(branch)
		if err != nil {
			return nil, err
		}
		workItemID = id
	}

	seq, err := s.workflows.Sequence(workflowName)
	if err != nil {
		return nil, err
	}
	current := seq[0]
	if initialPhase != "" {
		if !phase.Contains(seq, initialPhase) {
			return nil, &phase.UnknownPhaseError{Phase: initialPhase, Workflow: workflowName, Valid: seq}
		}
		current = initialPhase
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	if existing, ok := doc.Branches[branch]; ok && s.usable(existing) {
		return nil, &phase.AlreadyInitializedError{Branch: branch, CurrentPhase: existing.CurrentPhase}
	}

	rec := &phase.BranchState{
		Branch:       branch,
		WorkItemID:   workItemID,
		WorkflowName: workflowName,
		CurrentPhase: current,
		Transitions:  []phase.Transition{},
		CreatedAt:    timeNow().UTC(),
	}
	doc.Branches[branch] = rec
	if err := s.save(doc); err != nil {
		return nil, err
	}

	s.logger.Info("phase state initialized",
		"branch", branch,
		"work_item_id", workItemID,
		"workflow", workflowName,
		"phase", current,
	)
	return rec.Clone(), nil
}

// Transition moves branch to toPhase. Without opts.Forced, toPhase must be
// the phase right after the current one. A forced transition may go to any
// phase of the sequence (backward included) but needs a reason; it is also
// the only way to re-enter the current phase.
func (s *Store) Transition(ctx context.Context, branch, toPhase string, opts TransitionOptions) (*phase.BranchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	rec, err := s.stateLocked(ctx, doc, branch)
	if err != nil {
		return nil, err
	}

	seq, err := s.workflows.Sequence(rec.WorkflowName)
	if err != nil {
		return nil, err
	}
	if !phase.Contains(seq, toPhase) {
		return nil, &phase.UnknownPhaseError{Phase: toPhase, Workflow: rec.WorkflowName, Valid: seq}
	}

	reason := strings.TrimSpace(opts.Reason)
	next, _ := phase.NextPhase(seq, rec.CurrentPhase)

	if toPhase == rec.CurrentPhase && !(opts.Forced && reason != "") {
		return nil, &phase.NoOpTransitionError{Branch: branch, Phase: toPhase, Next: next}
	}
	if opts.Forced && reason == "" {
		return nil, &phase.MissingForceReasonError{Branch: branch, Requested: toPhase}
	}
	if !opts.Forced && toPhase != next {
		return nil, &phase.TransitionError{
			Branch:    branch,
			Current:   rec.CurrentPhase,
			Requested: toPhase,
			Next:      next,
		}
	}

	t := phase.Transition{
		FromPhase: rec.CurrentPhase,
		ToPhase:   toPhase,
		Timestamp: timeNow().UTC(),
		Forced:    opts.Forced,
	}
	if opts.Forced {
		t.Reason = reason
	}

	updated := rec.Clone()
	updated.Transitions = append(updated.Transitions, t)
	updated.CurrentPhase = toPhase
	doc.Branches[branch] = updated
	if err := s.save(doc); err != nil {
		return nil, err
	}

	attrs := []any{"branch", branch, "from", t.FromPhase, "to", t.ToPhase}
	if opts.Forced {
		s.logger.Warn("forced phase transition", append(attrs, "reason", reason)...)
	} else {
		s.logger.Info("phase transition", attrs...)
	}
	return updated.Clone(), nil
}

// History returns a copy of the audit trail of branch, oldest first.
func (s *Store) History(ctx context.Context, branch string) ([]phase.Transition, error) {
	rec, err := s.GetState(ctx, branch)
	if err != nil {
		return nil, err
	}
	return rec.Transitions, nil
}

// Lookup returns the stored record of branch without triggering recovery.
// The second result is false when the document has no usable record.
func (s *Store) Lookup(branch string) (*phase.BranchState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.load().Branches[branch]
	if !ok || !s.usable(rec) {
		return nil, false
	}
	return rec.Clone(), true
}

// Branches lists the branch names present in the document, sorted.
func (s *Store) Branches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.load()
	names := make([]string, 0, len(doc.Branches))
	for name := range doc.Branches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the whole document as currently persisted.
func (s *Store) Snapshot() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load().clone()
}

// stateLocked returns the usable record for branch from doc, reconstructing
// and persisting it when needed. Caller holds s.mu.
func (s *Store) stateLocked(ctx context.Context, doc *Document, branch string) (*phase.BranchState, error) {
	if rec, ok := doc.Branches[branch]; ok {
		if s.usable(rec) {
			return rec, nil
		}
		s.logger.Warn("phase state record unusable, reconstructing",
			"branch", branch,
			"workflow", rec.WorkflowName,
			"phase", rec.CurrentPhase,
		)
	}

	if s.recoverer == nil {
		return nil, fmt.Errorf("no phase state for branch %q and recovery is not configured", branch)
	}
	rec, err := s.recoverer.Reconstruct(ctx, branch)
	if err != nil {
		return nil, err
	}
	doc.Branches[branch] = rec
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return rec, nil
}

// usable reports whether rec is consistent with the catalog: a known
// workflow and a current phase inside its sequence.
func (s *Store) usable(rec *phase.BranchState) bool {
	if rec == nil {
		return false
	}
	seq, err := s.workflows.Sequence(rec.WorkflowName)
	if err != nil {
		return false
	}
	return phase.Contains(seq, rec.CurrentPhase)
}

// load reads the document. Absent and unreadable documents both yield an
// empty document so that every branch goes through recovery.
func (s *Store) load() *Document {
	doc, err := LoadDocument(s.path)
	if err == nil {
		return doc
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Warn("phase state document unreadable, treating as empty",
			"path", s.path,
			"error", err,
		)
	}
	return newDocument()
}

func (s *Store) save(doc *Document) error {
	if err := SaveDocument(s.path, doc); err != nil {
		return fmt.Errorf("saving phase state: %w", err)
	}
	return nil
}
