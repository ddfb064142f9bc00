// Command coinwatch is a cryptocurrency watchlist and price alarm CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"coinwatch/internal/cli"
	"coinwatch/internal/config"
	"coinwatch/internal/logging"
)

func main() {
	logger := logging.NewLogger()

	configDir := resolveConfigDir(os.Args[1:])
	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigDir picks the config directory before cobra parses the
// command line: the --config flag wins over COINWATCH_CONFIG_DIR. An
// empty result means the default directory.
func resolveConfigDir(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(args[i], "--config="); ok {
			return v
		}
	}
	return os.Getenv("COINWATCH_CONFIG_DIR")
}
