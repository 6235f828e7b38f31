// Package config provides YAML-based configuration loading for psybot.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level psybot configuration, loaded from psybot.yaml.
type Config struct {
	AdminIDs  []string        `yaml:"admin_ids"`
	Database  DatabaseConfig  `yaml:"database"`
	AI        AIConfig        `yaml:"ai"`
	Discord   DiscordConfig   `yaml:"discord"`
	Slack     SlackConfig     `yaml:"slack"`
	Digest    DigestConfig    `yaml:"digest"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DatabaseConfig selects the storage backend: "sqlite" (default) or "mysql".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// AIConfig holds settings for the AI completion collaborator.
type AIConfig struct {
	BaseURL          string  `yaml:"base_url"`
	APIKey           string  `yaml:"api_key"`
	Model            string  `yaml:"model"`
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float32 `yaml:"temperature"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	MinIntervalSecs  float64 `yaml:"rate_min_interval_seconds"`
	MaxPerMinute     int     `yaml:"rate_max_per_minute"`
	MaxMessageLength int     `yaml:"max_message_length"`
	MemoryStorePath  string  `yaml:"memory_store_path"`
}

// DiscordConfig holds Discord adapter settings.
type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// SlackConfig holds Slack Socket Mode adapter settings.
type SlackConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AppToken  string `yaml:"app_token"`
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DigestConfig schedules the backlog digest for admins.
type DigestConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Schedule  string `yaml:"schedule"` // 5-field cron expression
	ChannelID string `yaml:"channel_id"`
}

// DashboardConfig holds the read-only HTTP dashboard settings.
type DashboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "psybot.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.AI.Model == "" {
		c.AI.Model = "google/gemini-flash-1.5"
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 500
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 10
	}
	if c.AI.MinIntervalSecs == 0 {
		c.AI.MinIntervalSecs = 4
	}
	if c.AI.MaxPerMinute == 0 {
		c.AI.MaxPerMinute = 12
	}
	if c.AI.MaxMessageLength == 0 {
		c.AI.MaxMessageLength = 1200
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "0 9 * * *"
	}
	if c.Dashboard.Listen == "" {
		c.Dashboard.Listen = "127.0.0.1:8642"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Database.Driver == "mysql" && c.Database.Database == "" {
		errs = append(errs, "database.database is required for mysql")
	}
	if c.Discord.Enabled && c.Discord.BotToken == "" {
		errs = append(errs, "discord.bot_token is required when discord is enabled")
	}
	if c.Slack.Enabled && (c.Slack.AppToken == "" || c.Slack.BotToken == "") {
		errs = append(errs, "slack.app_token and slack.bot_token are required when slack is enabled")
	}
	if c.Digest.Enabled && c.Digest.ChannelID == "" {
		errs = append(errs, "digest.channel_id is required when the digest is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
