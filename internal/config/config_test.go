package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should fall back to defaults: %v", err)
	}
	if cfg.Bot.SessionTimeoutHours != 24 {
		t.Errorf("expected 24h session timeout default, got %d", cfg.Bot.SessionTimeoutHours)
	}
	if cfg.Jira.Platform != "cloud" {
		t.Errorf("expected cloud platform default, got %q", cfg.Jira.Platform)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TP_TEST_TOKEN", "secret-token")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
telegram:
  bot_token: ${TP_TEST_TOKEN}
jira:
  base_url: https://example.atlassian.net
  username: bot@example.com
  api_token: t
  platform: server
bot:
  session_timeout_hours: 12
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.BotToken != "secret-token" {
		t.Errorf("env var not expanded: %q", cfg.Telegram.BotToken)
	}
	if cfg.Jira.Platform != "server" {
		t.Errorf("platform not loaded: %q", cfg.Jira.Platform)
	}
	if cfg.Bot.SessionTimeoutHours != 12 {
		t.Errorf("timeout not loaded: %d", cfg.Bot.SessionTimeoutHours)
	}
	// Untouched sections keep their defaults.
	if cfg.Telegram.PollTimeout != 30 {
		t.Errorf("poll timeout default lost: %d", cfg.Telegram.PollTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Telegram.BotToken = "token"
		cfg.Jira.BaseURL = "https://example.atlassian.net"
		cfg.Jira.Username = "bot@example.com"
		cfg.Jira.APIToken = "t"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing bot token", func(c *Config) { c.Telegram.BotToken = "" }},
		{"missing jira url", func(c *Config) { c.Jira.BaseURL = "" }},
		{"missing credentials", func(c *Config) { c.Jira.APIToken = "" }},
		{"bad platform", func(c *Config) { c.Jira.Platform = "onprem" }},
		{"zero timeout", func(c *Config) { c.Bot.SessionTimeoutHours = 0 }},
		{"excessive timeout", func(c *Config) { c.Bot.SessionTimeoutHours = 500 }},
		{"negative retries", func(c *Config) { c.Jira.RetryAttempts = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Telegram.BotToken = "token"
	cfg.Access.AdminUsers = []string{"1", "2"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config holds credentials, expected 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Telegram.BotToken != "token" {
		t.Errorf("token lost: %q", loaded.Telegram.BotToken)
	}
	if len(loaded.Access.AdminUsers) != 2 {
		t.Errorf("admin list lost: %v", loaded.Access.AdminUsers)
	}
}
