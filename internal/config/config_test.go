package config

import (
	"strings"
	"testing"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`admin_ids: ["42"]`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "psybot.db" {
		t.Errorf("database defaults = %+v", cfg.Database)
	}
	if cfg.AI.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("ai base url = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.MaxTokens != 500 || cfg.AI.TimeoutSeconds != 10 {
		t.Errorf("ai defaults = %+v", cfg.AI)
	}
	if cfg.AI.MinIntervalSecs != 4 || cfg.AI.MaxPerMinute != 12 {
		t.Errorf("rate defaults = %+v", cfg.AI)
	}
	if cfg.Digest.Schedule != "0 9 * * *" {
		t.Errorf("digest schedule = %q", cfg.Digest.Schedule)
	}
	if cfg.Dashboard.Listen != "127.0.0.1:8642" {
		t.Errorf("dashboard listen = %q", cfg.Dashboard.Listen)
	}
	if len(cfg.AdminIDs) != 1 || cfg.AdminIDs[0] != "42" {
		t.Errorf("admin ids = %v", cfg.AdminIDs)
	}
}

func TestParseFullConfig(t *testing.T) {
	raw := `
admin_ids: ["1", "2"]
database:
  driver: mysql
  host: db.internal
  port: 3307
  database: psybot
  user: bot
  password: secret
ai:
  api_key: sk-test
  model: openai/gpt-4o-mini
  max_tokens: 700
discord:
  enabled: true
  bot_token: token
digest:
  enabled: true
  schedule: "30 8 * * 1"
  channel_id: C123
`
	cfg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Database.Driver != "mysql" || cfg.Database.Host != "db.internal" || cfg.Database.Port != 3307 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.AI.Model != "openai/gpt-4o-mini" || cfg.AI.MaxTokens != 700 {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if !cfg.Discord.Enabled || cfg.Discord.BotToken != "token" {
		t.Errorf("discord = %+v", cfg.Discord)
	}
	if cfg.Digest.Schedule != "30 8 * * 1" {
		t.Errorf("digest = %+v", cfg.Digest)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"unknown driver",
			"database:\n  driver: postgres\n",
			"database.driver",
		},
		{
			"mysql without database name",
			"database:\n  driver: mysql\n",
			"database.database is required",
		},
		{
			"discord enabled without token",
			"discord:\n  enabled: true\n",
			"discord.bot_token",
		},
		{
			"slack enabled without tokens",
			"slack:\n  enabled: true\n",
			"slack.app_token",
		},
		{
			"digest enabled without channel",
			"digest:\n  enabled: true\n",
			"digest.channel_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if err == nil {
				t.Fatal("want validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/psybot.yaml"); err == nil {
		t.Fatal("want error for a missing file")
	}
}
