package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"trafsim/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	logDir := filepath.Join(dir, "log")
	dataDir := filepath.Join(dir, "data")
	data := fmt.Sprintf(`{
  "simulation": {"duration": 2, "seed": 1},
  "logging": {"dir": %q, "intervalWriteOtherData": 30},
  "output": {"dataDir": %q},
  "graph": {"rows": 2, "cols": 2}
}`, logDir, dataDir)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Cleanup(func() { config.SetConfig(nil) })
	return path, logDir, dataDir
}

func TestGraphCommand(t *testing.T) {
	path, _, _ := writeConfig(t)
	assert.NoError(t, makeApp().Run([]string{"trafsim", "graph", "-c", path}))
	assert.Error(t, makeApp().Run([]string{"trafsim", "graph", "-c", filepath.Join(t.TempDir(), "missing.json")}))
}

func TestRunCommandWithReplicas(t *testing.T) {
	path, logDir, dataDir := writeConfig(t)

	err := makeApp().Run([]string{"trafsim", "run", "-c", path, "--replicas", "2", "--duration", "0.5", "--seed", "9"})
	require.NoError(t, err)

	cfg := config.GetConfig()
	assert.Equal(t, uint64(9), cfg.Simulation.Seed)
	assert.Equal(t, 0.5, cfg.Simulation.Duration)

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	require.NoError(t, err)
	assert.Len(t, files, 2*3)

	logs, err := filepath.Glob(filepath.Join(logDir, "*.log"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRunCommandRejectsBadOverrides(t *testing.T) {
	path, _, _ := writeConfig(t)
	assert.Error(t, makeApp().Run([]string{"trafsim", "run", "-c", path, "--replicas", "-1"}))
	assert.Error(t, makeApp().Run([]string{"trafsim", "run", "-c", path, "--duration", "0.001"}))
}
