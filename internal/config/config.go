// Package config loads studybot settings from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csheth/studybot/internal/api"
	"github.com/csheth/studybot/internal/kv"
)

const (
	EnvConfig   = "STUDYBOT_CONFIG"
	EnvAPIBase  = "STUDYBOT_API_BASE"
	EnvToken    = "STUDYBOT_TOKEN"
	EnvStore    = "STUDYBOT_STORE"
	EnvLogFile  = "STUDYBOT_LOG_FILE"
	EnvLogLevel = "STUDYBOT_LOG_LEVEL"

	defaultTimeout = 60 * time.Second
	stateSubdir    = "studybot"
	stateFile      = "state.db"
	logFile        = "studybot.log"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Token is used when the store holds no auth token.
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, file, memory
	Path   string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

type UIConfig struct {
	// Name personalises the greeting.
	Name        string `yaml:"name"`
	NoAltScreen bool   `yaml:"no_alt_screen"`
	// StickLines is how close to the bottom, in lines, still counts as
	// following the conversation.
	StickLines int `yaml:"stick_lines"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: api.DefaultBaseURL,
			Timeout: defaultTimeout.String(),
		},
		Store: StoreConfig{
			Driver: kv.DriverSQLite,
			Path:   DefaultStorePath(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		UI: UIConfig{
			StickLines: 3,
		},
	}
}

// DefaultStorePath places the state database under the user cache dir.
func DefaultStorePath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(os.TempDir(), "studybot-cache")
	}
	return filepath.Join(base, stateSubdir, stateFile)
}

// DefaultLogPath is where the chat UI logs when no log file is configured,
// since the terminal itself is taken.
func DefaultLogPath() string {
	return filepath.Join(filepath.Dir(DefaultStorePath()), logFile)
}

// Load reads path (or $STUDYBOT_CONFIG when path is empty) over the defaults
// and then applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks values that cannot be corrected silently.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	switch c.Store.Driver {
	case "", kv.DriverSQLite, kv.DriverFile, kv.DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// Timeout parses api.timeout, defaulting to 60s when unset.
func (c *Config) Timeout() (time.Duration, error) {
	if strings.TrimSpace(c.API.Timeout) == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid api.timeout %q: %w", c.API.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("api.timeout must be positive, got %s", d)
	}
	return d, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
