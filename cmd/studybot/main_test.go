package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csheth/studybot/internal/config"
	"github.com/csheth/studybot/internal/kv"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{config.EnvConfig, config.EnvAPIBase, config.EnvToken, config.EnvStore, config.EnvLogLevel} {
		t.Setenv(key, "")
	}
	t.Setenv(config.EnvLogFile, filepath.Join(dir, "studybot.log"))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func seedStore(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	store, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	for key, value := range entries {
		require.NoError(t, store.Set(context.Background(), key, value))
	}
	require.NoError(t, store.Close())
}

func TestRootCommandFlags(t *testing.T) {
	isolateEnv(t)
	out, err := execute(t, "--version")
	require.NoError(t, err)
	require.Contains(t, out, "dev")

	out, err = execute(t, "--help")
	require.NoError(t, err)
	require.Contains(t, out, "dashboard")
	require.Contains(t, out, "session")
}

func TestSessionClear(t *testing.T) {
	dir := isolateEnv(t)
	storePath := filepath.Join(dir, "state.db")
	seedStore(t, storePath, map[string]string{kv.KeySession: "s-42"})

	out, err := execute(t, "--store", storePath, "session", "show")
	require.NoError(t, err)
	require.Equal(t, "s-42", strings.TrimSpace(out))

	out, err = execute(t, "--store", storePath, "session", "clear")
	require.NoError(t, err)
	require.Contains(t, out, "Session cleared.")

	out, err = execute(t, "--store", storePath, "session", "show")
	require.NoError(t, err)
	require.Contains(t, out, "No active session.")
}

func TestDashboardFallback(t *testing.T) {
	dir := isolateEnv(t)
	out, err := execute(t, "--store", filepath.Join(dir, "state.db"), "dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "#9")
	require.Contains(t, out, "Reading")
}

func TestDashboardShowsSavedMetrics(t *testing.T) {
	dir := isolateEnv(t)
	storePath := filepath.Join(dir, "state.db")
	seedStore(t, storePath, map[string]string{
		kv.KeyPieMetric:  `{"type":"pie","unit":"pts","labels":["Math","Verbal"],"datasets":[{"data":[600,650]}]}`,
		kv.KeyBarMetrics: `[{"type":"bar","id":"goal-progress","labels":["Practice tests"],"datasets":[{"data":[40]}]}]`,
	})
	out, err := execute(t, "--store", storePath, "dashboard", "--width", "60")
	require.NoError(t, err)
	require.Contains(t, out, "1250 pts")
	require.Contains(t, out, "Goal Completion")
	require.Contains(t, out, "Practice tests")
}

func TestBadConfigFails(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv(config.EnvAPIBase, "")
	_, err := execute(t, "--store", filepath.Join(dir, "state.db"), "--config", filepath.Join(dir, "missing.yaml"), "dashboard")
	require.NoError(t, err)

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, writeFile(path, "store:\n  driver: redis\n"))
	_, err = execute(t, "--config", path, "dashboard")
	require.Error(t, err)
}

func writeFile(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o600)
}
