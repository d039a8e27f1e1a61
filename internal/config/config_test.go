package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, 5*time.Second, cfg.History.Timeout)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, filepath.Join(root, ".phasekeep", "state.json"), cfg.StatePath())
	assert.Equal(t, filepath.Join(root, ".phasekeep", "plans.db"), cfg.PlansPath())
	assert.Equal(t, filepath.Join(root, ".phasekeep", "workflows.yaml"), cfg.WorkflowsPath())
	assert.Equal(t, "", cfg.LogPath())
}

func TestLoad_ConfigFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, StateDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := `
state:
  file: phases.json
history:
  limit: 10
  timeout: 2s
log:
  level: debug
  file: phasekeep.log
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "phases.json"), cfg.StatePath())
	assert.Equal(t, 10, cfg.History.Limit)
	assert.Equal(t, 2*time.Second, cfg.History.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "phasekeep.log"), cfg.LogPath())
}

func TestLoad_EnvOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("PHASEKEEP_HISTORY_LIMIT", "7")
	t.Setenv("PHASEKEEP_PLANS_DATABASE", "/tmp/elsewhere/plans.db")

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.History.Limit)
	assert.Equal(t, "/tmp/elsewhere/plans.db", cfg.PlansPath())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero limit", "history:\n  limit: 0\n"},
		{"negative timeout", "history:\n  timeout: -1s\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"empty state file", "state:\n  file: \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(t.TempDir(), path)
			assert.Error(t, err)
		})
	}
}

func TestPaths_Absolute(t *testing.T) {
	cfg := Default("/repo")
	cfg.State.Dir = "/var/lib/phasekeep"
	cfg.Workflows.File = ""

	assert.Equal(t, "/var/lib/phasekeep/state.json", cfg.StatePath())
	assert.Equal(t, "", cfg.WorkflowsPath())
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, FindRoot(deep))
}

func TestFindRoot_StateDirMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, StateDirName), 0o755))
	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	assert.Equal(t, root, FindRoot(sub))
}
