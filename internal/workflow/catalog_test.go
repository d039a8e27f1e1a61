package workflow

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/HendryAvila/phasekeep/internal/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_Workflows(t *testing.T) {
	c := Builtin()

	assert.Equal(t, []string{"feature", "bug", "hotfix", "refactor", "docs", "epic"}, c.Names())
	assert.Equal(t, "feature", c.DefaultWorkflow())

	seq, err := c.Sequence("bug")
	require.NoError(t, err)
	assert.Equal(t, []string{"research", "planning", "tdd", "integration", "documentation"}, seq)
}

func TestSequence_ReturnsCopy(t *testing.T) {
	c := Builtin()
	seq, err := c.Sequence("feature")
	require.NoError(t, err)
	seq[0] = "mutated"

	again, err := c.Sequence("feature")
	require.NoError(t, err)
	assert.Equal(t, "research", again[0])
}

func TestSequence_UnknownWorkflow(t *testing.T) {
	_, err := Builtin().Sequence("spike")
	require.Error(t, err)
	assert.True(t, errors.Is(err, phase.ErrUnknownWorkflow))
	assert.Contains(t, err.Error(), "feature")
}

func TestMetadata(t *testing.T) {
	meta, err := Builtin().Metadata("hotfix")
	require.NoError(t, err)
	assert.Equal(t, "hotfix", meta.Workflow)
	assert.Equal(t, []string{"tdd", "integration", "documentation"}, meta.Phases)
	assert.Equal(t, map[string]string{"tdd": "feat", "integration": "test", "documentation": "docs"}, meta.CommitTypes)
}

func TestAllPhases(t *testing.T) {
	got := Builtin().AllPhases()
	assert.Equal(t, []string{"coordination", "design", "documentation", "integration", "planning", "research", "tdd"}, got)
}

func TestParse_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no workflows", "workflows: []\n"},
		{"empty phases", "workflows:\n  - name: x\n    phases: []\n"},
		{"duplicate phases", "workflows:\n  - name: x\n    phases: [a, a]\n"},
		{"phase not token-safe", "workflows:\n  - name: x\n    phases: [Bad_Phase]\n"},
		{"missing name", "workflows:\n  - phases: [a]\n"},
		{"unknown commit type", "commit_types:\n  a: yolo\nworkflows:\n  - name: x\n    phases: [a]\n"},
		{"default not defined", "default: y\nworkflows:\n  - name: x\n    phases: [a]\n"},
		{"malformed yaml", "workflows: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestParse_DefaultsToFirstWorkflow(t *testing.T) {
	c, err := Parse([]byte("workflows:\n  - name: spike\n    phases: [research, documentation]\n"))
	require.NoError(t, err)
	assert.Equal(t, "spike", c.DefaultWorkflow())
	assert.Equal(t, "", c.CommitType("research"))
}

func TestLoad_MissingFileUsesBuiltin(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	_, err = c.Sequence("bug")
	assert.NoError(t, err)
}

func TestLoad_OverlayAddsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflows.yaml")
	content := `
commit_types:
  spike-notes: docs
workflows:
  - name: spike
    phases: [research, spike-notes]
  - name: docs
    phases: [documentation]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	seq, err := c.Sequence("docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"documentation"}, seq)

	meta, err := c.Metadata("spike")
	require.NoError(t, err)
	assert.Equal(t, "docs", meta.CommitTypes["spike-notes"])
	assert.Equal(t, "docs", meta.CommitTypes["research"])

	assert.Equal(t, "feature", c.DefaultWorkflow())
	assert.Contains(t, c.Names(), "spike")
}

func TestLoad_InvalidOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflows.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workflows:\n  - name: x\n    phases: []\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
