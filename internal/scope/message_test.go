package scope

import (
	"errors"
	"testing"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitMessage(t *testing.T) {
	c := newTestCodec()

	msg, err := c.CommitMessage("test", "tdd", "red", 1, "add failing login test")
	require.NoError(t, err)
	assert.Equal(t, "test(P_TDD_SP_C1_RED): add failing login test", msg)

	got, ok := c.Decode(msg)
	require.True(t, ok)
	assert.Equal(t, CommitScope{Phase: "tdd", Subphase: "red", Cycle: 1}, got)
}

func TestCommitMessage_Validation(t *testing.T) {
	c := newTestCodec()

	_, err := c.CommitMessage("not a type", "tdd", "", 0, "subject")
	assert.True(t, errors.Is(err, phase.ErrInvalidScopeRequest))

	_, err = c.CommitMessage("docs", "tdd", "", 0, "   ")
	assert.True(t, errors.Is(err, phase.ErrInvalidScopeRequest))

	_, err = c.CommitMessage("docs", "deploy", "", 0, "subject")
	assert.True(t, errors.Is(err, phase.ErrUnknownPhase))
}

func TestCommitType(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"feat: add login", "feat"},
		{"fix(auth): handle nil", "fix"},
		{"Docs(P_PLANNING): plan", "docs"},
		{"feat!: breaking", "feat"},
		{"refactor(core)!: rename", "refactor"},
		{"Complete research phase for Issue #39", ""},
		{"Merge branch 'main' into feature/1-x", ""},
		{"two words: not a type", ""},
		{": empty", ""},
		{"", ""},
		{"chore\nbody: with colon", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CommitType(tt.message), "CommitType(%q)", tt.message)
	}
}
