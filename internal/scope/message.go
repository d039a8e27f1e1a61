package scope

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/phasekeep/internal/phase"
)

// FormatMessage renders a conventional commit header: type(token): subject.
func FormatMessage(commitType, token, subject string) string {
	return fmt.Sprintf("%s(%s): %s", commitType, token, strings.TrimSpace(subject))
}

// CommitMessage encodes the scope token and renders the full commit header.
func (c *Codec) CommitMessage(commitType, phaseName, subphase string, cycle int, subject string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(commitType))
	if !commitTypeToken.MatchString(ct) {
		return "", fmt.Errorf("%w: commit type %q is not a conventional commit type", phase.ErrInvalidScopeRequest, commitType)
	}
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("%w: commit subject is required", phase.ErrInvalidScopeRequest)
	}
	token, err := c.Encode(phaseName, subphase, cycle)
	if err != nil {
		return "", err
	}
	return FormatMessage(ct, token, subject), nil
}

// CommitType returns the leading conventional commit type of a message: the
// text before the first ':' or '(' on the first line, lowercased, with a
// breaking-change '!' removed. It returns "" when the message has no such
// prefix.
func CommitType(message string) string {
	line := message
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	end := strings.IndexAny(line, ":(")
	if end <= 0 {
		return ""
	}
	t := strings.ToLower(strings.TrimSpace(line[:end]))
	t = strings.TrimSuffix(t, "!")
	if !commitTypeToken.MatchString(t) {
		return ""
	}
	return t
}
