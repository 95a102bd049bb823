// Package config loads and validates the ticketpilot configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alekspetrov/ticketpilot/internal/logging"
)

// Config represents the main configuration.
type Config struct {
	Version  string          `yaml:"version"`
	Telegram *TelegramConfig `yaml:"telegram"`
	Jira     *JiraConfig     `yaml:"jira"`
	Access   *AccessConfig   `yaml:"access"`
	Bot      *BotConfig      `yaml:"bot"`
	Storage  *StorageConfig  `yaml:"storage"`
	Logging  *logging.Config `yaml:"logging"`
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	PollTimeout int    `yaml:"poll_timeout"` // long-poll timeout in seconds
}

// JiraConfig holds remote tracker settings.
type JiraConfig struct {
	BaseURL       string  `yaml:"base_url"`
	Username      string  `yaml:"username"`
	APIToken      string  `yaml:"api_token"`
	Platform      string  `yaml:"platform"`       // cloud or server
	RetryAttempts int     `yaml:"retry_attempts"` // extra attempts after the first
	RetryDelaySec float64 `yaml:"retry_delay"`    // initial backoff interval in seconds
}

// AccessConfig holds the role ID sets. The lists are read at process start
// and stay immutable for the process lifetime; runtime promotions go through
// the store instead.
type AccessConfig struct {
	AllowedUsers    []string `yaml:"allowed_users"` // empty = everyone allowed
	AdminUsers      []string `yaml:"admin_users"`
	SuperAdminUsers []string `yaml:"super_admin_users"`
}

// BotConfig holds dispatch and wizard behavior settings.
type BotConfig struct {
	SessionTimeoutHours int    `yaml:"session_timeout_hours"`
	SweepIntervalMin    int    `yaml:"sweep_interval_minutes"`
	SyncSchedule        string `yaml:"sync_schedule"` // cron spec for the daily project sync
}

// StorageConfig holds local database settings.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Version: "1.0",
		Telegram: &TelegramConfig{
			PollTimeout: 30,
		},
		Jira: &JiraConfig{
			Platform:      "cloud",
			RetryAttempts: 3,
			RetryDelaySec: 1.0,
		},
		Access: &AccessConfig{},
		Bot: &BotConfig{
			SessionTimeoutHours: 24,
			SweepIntervalMin:    1,
			SyncSchedule:        "0 6 * * *",
		},
		Storage: &StorageConfig{
			Path: filepath.Join(homeDir, ".ticketpilot", "data"),
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file, expanding ${ENV} references.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Storage != nil {
		config.Storage.Path = expandPath(config.Storage.Path)
	}

	return config, nil
}

// Save saves configuration to a file.
func Save(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".ticketpilot", "config.yaml")
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Telegram == nil || c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot_token is required")
	}
	if c.Jira == nil || c.Jira.BaseURL == "" {
		return fmt.Errorf("jira base_url is required")
	}
	if c.Jira.Username == "" || c.Jira.APIToken == "" {
		return fmt.Errorf("jira username and api_token are required")
	}
	if c.Jira.Platform != "cloud" && c.Jira.Platform != "server" {
		return fmt.Errorf("jira platform must be cloud or server, got %q", c.Jira.Platform)
	}
	if c.Bot == nil || c.Bot.SessionTimeoutHours < 1 || c.Bot.SessionTimeoutHours > 168 {
		return fmt.Errorf("session_timeout_hours must be between 1 and 168")
	}
	if c.Jira.RetryAttempts < 0 || c.Jira.RetryAttempts > 10 {
		return fmt.Errorf("retry_attempts must be between 0 and 10")
	}
	return nil
}
