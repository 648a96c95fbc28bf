package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/csheth/studybot/internal/api"
	"github.com/csheth/studybot/internal/kv"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvConfig, EnvAPIBase, EnvToken, EnvStore, EnvLogFile, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, api.DefaultBaseURL, cfg.API.BaseURL)
	require.Equal(t, kv.DriverSQLite, cfg.Store.Driver)
	require.Equal(t, "state.db", filepath.Base(cfg.Store.Path))
	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	require.Equal(t, 60*time.Second, timeout)
	require.Equal(t, filepath.Dir(cfg.Store.Path), filepath.Dir(DefaultLogPath()))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, api.DefaultBaseURL, cfg.API.BaseURL)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://example.test/api/v1"
	cfg.Store.Driver = kv.DriverFile
	cfg.UI.Name = "Suzy"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.test/api/v1", loaded.API.BaseURL)
	require.Equal(t, kv.DriverFile, loaded.Store.Driver)
	require.Equal(t, "Suzy", loaded.UI.Name)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\n  name: Ada\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Ada", cfg.UI.Name)
	require.Equal(t, api.DefaultBaseURL, cfg.API.BaseURL)
	require.Equal(t, 3, cfg.UI.StickLines)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://file\n"), 0o600))
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvAPIBase, "http://env")
	t.Setenv(EnvToken, "tok")
	t.Setenv(EnvStore, "/tmp/s.db")
	t.Setenv(EnvLogFile, "/tmp/studybot.log")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://env", cfg.API.BaseURL)
	require.Equal(t, "tok", cfg.API.Token)
	require.Equal(t, "/tmp/s.db", cfg.Store.Path)
	require.Equal(t, "/tmp/studybot.log", cfg.Logging.File)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cases := map[string]string{
		"driver":  "store:\n  driver: redis\n",
		"timeout": "api:\n  timeout: soon\n",
		"yaml":    "api: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}
