package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero poll interval", func(c *Config) { c.Monitor.PollInterval = 0 }},
		{"zero backoff multiplier", func(c *Config) { c.Monitor.MaxBackoff = 0 }},
		{"zero debounce window", func(c *Config) { c.Search.DebounceWindow = 0 }},
		{"zero min query length", func(c *Config) { c.Search.MinQueryLength = 0 }},
		{"zero max results", func(c *Config) { c.Search.MaxResults = 0 }},
		{"unknown storage backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"unknown notification level", func(c *Config) { c.Notifications.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate accepted invalid config")
			}
		})
	}
}

func TestLoadCreatesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("template config not created: %v", err)
	}
	if cfg.Monitor.PollInterval != 30*time.Second {
		t.Errorf("poll interval = %s, want default 30s", cfg.Monitor.PollInterval)
	}
	if cfg.Search.DebounceWindow != 500*time.Millisecond {
		t.Errorf("debounce window = %s, want default 500ms", cfg.Search.DebounceWindow)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
[monitor]
poll_interval = "45s"

[search]
min_query_length = 3

[storage]
backend = "sqlite"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(contents), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Monitor.PollInterval != 45*time.Second {
		t.Errorf("poll interval = %s, want 45s", cfg.Monitor.PollInterval)
	}
	if cfg.Search.MinQueryLength != 3 {
		t.Errorf("min query length = %d, want 3", cfg.Search.MinQueryLength)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("backend = %s, want sqlite", cfg.Storage.Backend)
	}
	// Unset keys keep their defaults.
	if cfg.Search.MaxResults != 10 {
		t.Errorf("max results = %d, want default 10", cfg.Search.MaxResults)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COINWATCH_API_URL", "http://localhost:9999/api/v3")
	t.Setenv("COINWATCH_WEBHOOK_URL", "http://localhost:9999/hook")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:9999/api/v3" {
		t.Errorf("base URL = %s", cfg.API.BaseURL)
	}
	if !cfg.Notifications.Webhook.Enabled || cfg.Notifications.Webhook.URL != "http://localhost:9999/hook" {
		t.Errorf("webhook config = %+v", cfg.Notifications.Webhook)
	}
}
