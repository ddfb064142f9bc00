package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# coinwatch Configuration

[monitor]
# How often alarm conditions are evaluated
poll_interval = "30s"
# On fetch failure the wait doubles up to this multiple of poll_interval
max_backoff_multiplier = 4
# Timeout for one batched price fetch
fetch_timeout = "10s"

[search]
# Quiescence window after the last keystroke before a search fires
debounce_window = "500ms"
# Queries shorter than this clear the results instead of searching
min_query_length = 2
# Maximum number of search results to surface
max_results = 10
# Timeout for one search request
request_timeout = "10s"

[api]
# Price source base URL
base_url = "https://api.coingecko.com/api/v3"

[storage]
# Persistence backend: "file" or "sqlite"
backend = "file"
# Directory for snapshot files / the sqlite database
# data_dir = "~/.config/coinwatch"

[notifications]
# Enable notifications
enabled = true
# Notification level: all, alarms_only, errors_only
level = "all"
# Print triggered alarms to the terminal (with bell)
terminal = true

[notifications.webhook]
enabled = false
url = ""

[ui]
# Enable colored output
color_enabled = true
# Time format
time_format = "15:04:05"
`

// createTemplateConfig writes a commented template config file so the
// user has something to edit on first run.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}
