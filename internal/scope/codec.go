// Package scope encodes a workflow phase (plus an optional sub-phase and
// cycle number) into the compact token carried in commit message scopes,
// and decodes it back out of arbitrary commit messages.
//
// Token grammar:
//
//	P_<PHASE>[_SP_[C<N>_]<SUBPHASE>]
//
// e.g. P_TDD_SP_C1_RED. Tokens use the alphabet [A-Z0-9_] and appear inside
// a conventional commit scope: "test(P_TDD_SP_C1_RED): add failing test".
//
// Decode never fails loudly: legacy or malformed messages simply yield no
// scope, because decoding is the first link of a fallback chain.
package scope

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
)

const (
	phasePrefix    = "P_"
	subphaseMarker = "_SP_"
)

var (
	// scopedToken finds a token inside a commit scope delimiter.
	scopedToken = regexp.MustCompile(`\(\s*(P_[A-Z0-9_]+)\s*\)`)
	// bareToken accepts a message that is nothing but a token.
	bareToken = regexp.MustCompile(`^\s*(P_[A-Z0-9_]+)\s*$`)
	// cyclePrefix splits "C<N>_<SUBPHASE>".
	cyclePrefix = regexp.MustCompile(`^C([0-9]+)_(.+)$`)
	// commitTypeToken is what a conventional commit type looks like.
	commitTypeToken = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
)

// CommitScope is the decoded content of a scope token.
// Subphase is empty and Cycle is zero when absent.
type CommitScope struct {
	Phase    string `json:"phase"`
	Subphase string `json:"subphase,omitempty"`
	Cycle    int    `json:"cycle,omitempty"`
}

// Codec converts between phases and scope tokens for a fixed set of known
// phase names.
type Codec struct {
	byToken map[string]string // token form -> canonical phase name
	tokens  []string          // token forms, longest first
	valid   []string          // canonical names, sorted
}

// NewCodec creates a Codec that recognizes the given phase names.
func NewCodec(phases []string) *Codec {
	c := &Codec{byToken: make(map[string]string, len(phases))}
	for _, p := range phases {
		name := strings.ToLower(strings.TrimSpace(p))
		tok := tokenize(name)
		if tok == "" {
			continue
		}
		if _, dup := c.byToken[tok]; dup {
			continue
		}
		c.byToken[tok] = name
		c.tokens = append(c.tokens, tok)
		c.valid = append(c.valid, name)
	}
	// Longest first so a phase whose token extends another's wins the match.
	sort.Slice(c.tokens, func(i, j int) bool {
		if len(c.tokens[i]) != len(c.tokens[j]) {
			return len(c.tokens[i]) > len(c.tokens[j])
		}
		return c.tokens[i] < c.tokens[j]
	})
	sort.Strings(c.valid)
	return c
}

// ValidPhases returns the sorted canonical phase names this codec accepts.
func (c *Codec) ValidPhases() []string {
	out := make([]string, len(c.valid))
	copy(out, c.valid)
	return out
}

// Known reports whether name is one of the codec's phases.
func (c *Codec) Known(name string) bool {
	_, ok := c.byToken[tokenize(strings.ToLower(strings.TrimSpace(name)))]
	return ok
}

// Encode builds the scope token for a phase. subphase is free-form text and
// is normalized to the token alphabet; cycle is optional (0 = none) and
// requires a subphase.
func (c *Codec) Encode(phaseName, subphase string, cycle int) (string, error) {
	name := strings.ToLower(strings.TrimSpace(phaseName))
	tok := tokenize(name)
	if _, ok := c.byToken[tok]; !ok || tok == "" {
		return "", &phase.UnknownPhaseError{Phase: phaseName, Valid: c.ValidPhases()}
	}

	if cycle < 0 {
		return "", fmt.Errorf("%w: cycle must be positive, got %d", phase.ErrInvalidScopeRequest, cycle)
	}

	sp := tokenize(subphase)
	if strings.TrimSpace(subphase) != "" && sp == "" {
		return "", fmt.Errorf("%w: sub-phase %q has no characters usable in a token", phase.ErrInvalidScopeRequest, subphase)
	}
	if cycle > 0 && sp == "" {
		return "", fmt.Errorf("%w: a cycle number requires a sub-phase", phase.ErrInvalidScopeRequest)
	}
	if cycle == 0 && cyclePrefix.MatchString(sp) {
		return "", fmt.Errorf("%w: sub-phase %q would be read back as a cycle marker; pass the cycle separately",
			phase.ErrInvalidScopeRequest, subphase)
	}

	var b strings.Builder
	b.WriteString(phasePrefix)
	b.WriteString(tok)
	if sp != "" {
		b.WriteString(subphaseMarker)
		if cycle > 0 {
			fmt.Fprintf(&b, "C%d_", cycle)
		}
		b.WriteString(sp)
	}
	token := b.String()

	// A phase whose token is another's plus "_SP..." makes the grammar
	// ambiguous; refuse tokens that would read back as something else.
	want := CommitScope{Phase: c.byToken[tok], Subphase: strings.ToLower(sp), Cycle: cycle}
	if got, ok := c.decodeToken(token); !ok || got != want {
		return "", fmt.Errorf("%w: %s would decode as phase %q, sub-phase %q",
			phase.ErrInvalidScopeRequest, token, got.Phase, got.Subphase)
	}
	return token, nil
}

// Decode extracts a CommitScope from a commit message or a bare token.
// Every scope group in the message is tried in order and the first one
// naming a known phase wins. The second result is false when no such
// token is present.
func (c *Codec) Decode(message string) (CommitScope, bool) {
	for _, m := range scopedToken.FindAllStringSubmatch(message, -1) {
		if cs, ok := c.decodeToken(m[1]); ok {
			return cs, true
		}
	}
	if m := bareToken.FindStringSubmatch(message); m != nil {
		return c.decodeToken(m[1])
	}
	return CommitScope{}, false
}

func (c *Codec) decodeToken(candidate string) (CommitScope, bool) {
	body := strings.TrimPrefix(candidate, phasePrefix)
	for _, tok := range c.tokens {
		if body == tok {
			return CommitScope{Phase: c.byToken[tok]}, true
		}
		if !strings.HasPrefix(body, tok+subphaseMarker) {
			continue
		}
		rest := body[len(tok)+len(subphaseMarker):]
		if rest == "" {
			return CommitScope{}, false
		}
		out := CommitScope{Phase: c.byToken[tok], Subphase: strings.ToLower(rest)}
		if m := cyclePrefix.FindStringSubmatch(rest); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				out.Cycle = n
				out.Subphase = strings.ToLower(m[2])
			}
		}
		return out, true
	}
	return CommitScope{}, false
}

// tokenize uppercases s and maps every run of characters outside [A-Z0-9]
// to a single underscore, trimming underscores at both ends.
func tokenize(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
