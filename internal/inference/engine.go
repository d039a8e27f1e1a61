// Package inference guesses the current phase of a branch from its recent
// commit messages.
//
// The engine is advisory: it never returns an error. Strategies run in a
// fixed order and the first one that matches wins:
//
//  1. scope token (P_<PHASE>...) in any message, newest first  → commit-scope / high
//  2. phase keyword ("research phase", "phase: tdd"), newest first → history-heuristic / low
//  3. conventional commit type mapped back to a phase            → type-heuristic / low
//  4. first phase of the sequence                                 → unknown / low
package inference

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/HendryAvila/phasekeep/internal/scope"
	"github.com/HendryAvila/phasekeep/internal/workflow"
)

// strategy inspects messages (newest first) and reports a match, if any.
type strategy func(messages []string, meta workflow.Metadata) (phase.DetectionResult, bool)

// Engine runs the inference strategies.
type Engine struct {
	logger     *slog.Logger
	strategies []strategy
}

// New creates an Engine. A nil logger discards output.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		logger: logger,
		strategies: []strategy{
			fromScope,
			fromKeyword,
			fromCommitType,
		},
	}
}

// Infer returns the most likely phase for meta.Phases given messages ordered
// newest first. With an empty phase sequence there is nothing to guess and
// the result is phase.UnknownResult().
func (e *Engine) Infer(messages []string, meta workflow.Metadata) phase.DetectionResult {
	if len(meta.Phases) == 0 {
		e.logger.Info("phase inference skipped: empty phase sequence", "workflow", meta.Workflow)
		return phase.UnknownResult()
	}

	for _, s := range e.strategies {
		if res, ok := s(messages, meta); ok {
			e.logger.Debug("phase inferred",
				"workflow", meta.Workflow,
				"phase", res.Phase,
				"source", string(res.Source),
				"confidence", string(res.Confidence),
			)
			return res
		}
	}

	e.logger.Info("phase inference found no match, assuming first phase",
		"workflow", meta.Workflow,
		"commits", len(messages),
		"phase", meta.Phases[0],
	)
	return phase.DetectionResult{
		Phase:      meta.Phases[0],
		Source:     phase.SourceUnknown,
		Confidence: phase.ConfidenceLow,
	}
}

func fromScope(messages []string, meta workflow.Metadata) (phase.DetectionResult, bool) {
	codec := scope.NewCodec(meta.Phases)
	for _, msg := range messages {
		cs, ok := codec.Decode(msg)
		if !ok || !phase.Contains(meta.Phases, cs.Phase) {
			continue
		}
		return phase.DetectionResult{
			Phase:      cs.Phase,
			Subphase:   cs.Subphase,
			Cycle:      cs.Cycle,
			Source:     phase.SourceCommitScope,
			Confidence: phase.ConfidenceHigh,
			Raw:        msg,
		}, true
	}
	return phase.DetectionResult{}, false
}

// keywordPattern matches "<phase> phase" or "phase: <phase>" as whole words.
func keywordPattern(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(`(?i)(?:^|[^a-z0-9-])(?:` + q + `\s+phase|phase\s*:\s*` + q + `)(?:$|[^a-z0-9-])`)
}

func fromKeyword(messages []string, meta workflow.Metadata) (phase.DetectionResult, bool) {
	patterns := make([]*regexp.Regexp, len(meta.Phases))
	for i, p := range meta.Phases {
		patterns[i] = keywordPattern(p)
	}

	for _, msg := range messages {
		// Within one message the furthest phase wins: "research phase done,
		// starting planning phase" means planning.
		best := -1
		for i, re := range patterns {
			if re.MatchString(msg) {
				best = i
			}
		}
		if best >= 0 {
			return phase.DetectionResult{
				Phase:      meta.Phases[best],
				Source:     phase.SourceHistoryHeuristic,
				Confidence: phase.ConfidenceLow,
				Raw:        msg,
			}, true
		}
	}
	return phase.DetectionResult{}, false
}

func fromCommitType(messages []string, meta workflow.Metadata) (phase.DetectionResult, bool) {
	if len(meta.CommitTypes) == 0 {
		return phase.DetectionResult{}, false
	}

	// type -> earliest phase in the sequence using it
	byType := make(map[string]string)
	for _, p := range meta.Phases {
		t := strings.ToLower(meta.CommitTypes[p])
		if t == "" {
			continue
		}
		if _, seen := byType[t]; !seen {
			byType[t] = p
		}
	}

	for _, msg := range messages {
		t := scope.CommitType(msg)
		if t == "" {
			continue
		}
		if p, ok := byType[t]; ok {
			return phase.DetectionResult{
				Phase:      p,
				Source:     phase.SourceTypeHeuristic,
				Confidence: phase.ConfidenceLow,
				Raw:        msg,
			}, true
		}
	}
	return phase.DetectionResult{}, false
}
