// Package phase holds the shared vocabulary of the workflow phase tracker:
// the persisted per-branch record, the audit trail entries, the advisory
// detection result, and the named errors returned by authoritative
// operations.
//
// Two kinds of callers consume these types:
//   - Authoritative callers (phase transitions) work with BranchState and
//     must handle the named errors in errors.go.
//   - Observational callers (status/context reporting) receive a
//     DetectionResult, which is always fully populated. A failed detection
//     is represented as Source=SourceUnknown, Confidence=ConfidenceLow.
package phase

import "time"

// Unknown is the phase name reported when no phase could be detected at all.
const Unknown = "unknown"

// --- Detection source enum ---

// Source identifies which strategy produced a DetectionResult.
type Source string

const (
	SourceCommitScope      Source = "commit-scope"      // scope token decoded from a commit message
	SourceStateStore       Source = "state-store"       // authoritative local record
	SourceHistoryHeuristic Source = "history-heuristic" // phase keyword found in commit history
	SourceTypeHeuristic    Source = "type-heuristic"    // conventional commit type mapped to a phase
	SourceUnknown          Source = "unknown"           // nothing matched; default guess
)

// --- Confidence enum ---

// Confidence is a coarse indicator of how trustworthy a detected phase is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// --- Core data structures ---

// Transition is one entry in a branch's append-only audit trail.
type Transition struct {
	FromPhase string    `json:"from_phase"`
	ToPhase   string    `json:"to_phase"`
	Timestamp time.Time `json:"timestamp"`
	Forced    bool      `json:"forced"`
	Reason    string    `json:"reason,omitempty"`
}

// BranchState is the authoritative record of the current phase of one branch.
//
// CurrentPhase is always a member of the phase sequence of WorkflowName.
// Transitions is only ever appended to. A record with Reconstructed=true was
// rebuilt by recovery and always starts with an empty trail.
type BranchState struct {
	Branch        string       `json:"branch"`
	WorkItemID    int          `json:"work_item_id"`
	WorkflowName  string       `json:"workflow_name"`
	CurrentPhase  string       `json:"current_phase"`
	Transitions   []Transition `json:"transitions"`
	Reconstructed bool         `json:"reconstructed"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Clone returns a deep copy so callers can't mutate a stored record's trail.
func (s *BranchState) Clone() *BranchState {
	if s == nil {
		return nil
	}
	c := *s
	c.Transitions = make([]Transition, len(s.Transitions))
	copy(c.Transitions, s.Transitions)
	return &c
}

// DetectionResult is the output of every observational phase lookup.
type DetectionResult struct {
	Phase      string     `json:"phase"`
	Subphase   string     `json:"subphase,omitempty"`
	Cycle      int        `json:"cycle,omitempty"`
	Source     Source     `json:"source"`
	Confidence Confidence `json:"confidence"`
	Raw        string     `json:"raw,omitempty"` // the input text the result was derived from
}

// UnknownResult is the terminal result of the fallback chain.
func UnknownResult() DetectionResult {
	return DetectionResult{
		Phase:      Unknown,
		Source:     SourceUnknown,
		Confidence: ConfidenceLow,
	}
}

// --- Sequence helpers ---

// IndexOf returns the position of name within sequence, or -1.
func IndexOf(sequence []string, name string) int {
	for i, p := range sequence {
		if p == name {
			return i
		}
	}
	return -1
}

// Contains reports whether name is a member of sequence.
func Contains(sequence []string, name string) bool {
	return IndexOf(sequence, name) >= 0
}

// NextPhase returns the phase immediately after current in sequence.
// The second result is false when current is the last phase or not in
// the sequence at all.
func NextPhase(sequence []string, current string) (string, bool) {
	idx := IndexOf(sequence, current)
	if idx < 0 || idx >= len(sequence)-1 {
		return "", false
	}
	return sequence[idx+1], true
}
