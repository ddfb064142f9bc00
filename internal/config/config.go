// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Search        SearchConfig       `mapstructure:"search"`
	API           APIConfig          `mapstructure:"api"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	UI            UIConfig           `mapstructure:"ui"`
}

// MonitorConfig holds alarm monitoring configuration.
type MonitorConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxBackoff   int           `mapstructure:"max_backoff_multiplier"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// SearchConfig holds query debounce configuration.
type SearchConfig struct {
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
	MinQueryLength int           `mapstructure:"min_query_length"`
	MaxResults     int           `mapstructure:"max_results"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// APIConfig holds price source API configuration.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "file", "sqlite"
	DataDir string `mapstructure:"data_dir"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Level    string        `mapstructure:"level"` // all, alarms_only, errors_only
	Terminal bool          `mapstructure:"terminal"`
	Webhook  WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/coinwatch"
	}
	return filepath.Join(home, ".config", "coinwatch")
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{
			PollInterval: 30 * time.Second,
			MaxBackoff:   4,
			FetchTimeout: 10 * time.Second,
		},
		Search: SearchConfig{
			DebounceWindow: 500 * time.Millisecond,
			MinQueryLength: 2,
			MaxResults:     10,
			RequestTimeout: 10 * time.Second,
		},
		API: APIConfig{
			BaseURL: "https://api.coingecko.com/api/v3",
		},
		Storage: StorageConfig{
			Backend: "file",
			DataDir: DefaultConfigDir(),
		},
		Notifications: NotificationConfig{
			Enabled:  true,
			Level:    "all",
			Terminal: true,
		},
		UI: UIConfig{
			ColorEnabled: true,
			TimeFormat:   "15:04:05",
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		// Config file not found, create template
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("monitor.poll_interval", cfg.Monitor.PollInterval)
	v.SetDefault("monitor.max_backoff_multiplier", cfg.Monitor.MaxBackoff)
	v.SetDefault("monitor.fetch_timeout", cfg.Monitor.FetchTimeout)
	v.SetDefault("search.debounce_window", cfg.Search.DebounceWindow)
	v.SetDefault("search.min_query_length", cfg.Search.MinQueryLength)
	v.SetDefault("search.max_results", cfg.Search.MaxResults)
	v.SetDefault("search.request_timeout", cfg.Search.RequestTimeout)
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("storage.backend", cfg.Storage.Backend)
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.level", cfg.Notifications.Level)
	v.SetDefault("notifications.terminal", cfg.Notifications.Terminal)
	v.SetDefault("ui.color_enabled", cfg.UI.ColorEnabled)
	v.SetDefault("ui.time_format", cfg.UI.TimeFormat)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("COINWATCH_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("COINWATCH_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("COINWATCH_STORAGE"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("COINWATCH_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.Enabled = true
		cfg.Notifications.Webhook.URL = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if c.Monitor.MaxBackoff < 1 {
		return fmt.Errorf("monitor.max_backoff_multiplier must be at least 1")
	}
	if c.Search.DebounceWindow <= 0 {
		return fmt.Errorf("search.debounce_window must be positive")
	}
	if c.Search.MinQueryLength < 1 {
		return fmt.Errorf("search.min_query_length must be at least 1")
	}
	if c.Search.MaxResults < 1 {
		return fmt.Errorf("search.max_results must be at least 1")
	}
	if c.Storage.Backend != "file" && c.Storage.Backend != "sqlite" {
		return fmt.Errorf("invalid storage backend: %s (must be 'file' or 'sqlite')", c.Storage.Backend)
	}
	switch c.Notifications.Level {
	case "", "all", "alarms_only", "errors_only":
	default:
		return fmt.Errorf("invalid notification level: %s", c.Notifications.Level)
	}
	return nil
}
