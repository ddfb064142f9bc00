// Package cli provides the command-line interface for the application.
package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"coinwatch/internal/config"
	"coinwatch/internal/logging"
	"coinwatch/internal/notify"
	"coinwatch/internal/pricesource"
	"coinwatch/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-11-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    *store.AlarmStore
	Source   pricesource.Source
	Notifier notify.Notifier
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
		Source: pricesource.NewCoinGecko(cfg.API.BaseURL, cfg.Search.RequestTimeout, cfg.Search.MaxResults),
	}

	snap, err := openSnapshotter(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open snapshot storage, state will not persist")
	}
	app.Store = store.NewAlarmStore(snap, logger)

	if cfg.Notifications.Enabled {
		app.Notifier = notify.NewMultiNotifier(&cfg.Notifications, cfg.UI)
	} else {
		app.Notifier = notify.NewNoOpNotifier()
	}

	rootCmd := &cobra.Command{
		Use:   "coinwatch",
		Short: "Coinwatch - cryptocurrency watchlist and price alarms",
		Long: `Coinwatch tracks a cryptocurrency watchlist and fires one-shot price
alarms from a periodic monitoring loop.

Use 'coinwatch help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/coinwatch)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newSearchCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
	rootCmd.AddCommand(newAlarmCmd(app))
	rootCmd.AddCommand(newMonitorCmd(app))

	return rootCmd
}

// openSnapshotter opens the snapshot backend selected in the
// configuration.
func openSnapshotter(cfg *config.Config) (store.Snapshotter, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return store.NewSQLiteSnapshotter(filepath.Join(cfg.Storage.DataDir, "coinwatch.db"))
	default:
		return store.NewFileSnapshotter(cfg.Storage.DataDir)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("Coinwatch v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := app.Output(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Monitor Configuration")
	output.Printf("  Poll Interval:   %s\n", cfg.Monitor.PollInterval)
	output.Printf("  Max Backoff:     %dx\n", cfg.Monitor.MaxBackoff)
	output.Printf("  Fetch Timeout:   %s\n", cfg.Monitor.FetchTimeout)
	output.Println()

	output.Bold("Search Configuration")
	output.Printf("  Debounce Window: %s\n", cfg.Search.DebounceWindow)
	output.Printf("  Min Query Len:   %d\n", cfg.Search.MinQueryLength)
	output.Printf("  Max Results:     %d\n", cfg.Search.MaxResults)
	output.Println()

	output.Bold("Storage")
	output.Printf("  Backend:         %s\n", cfg.Storage.Backend)
	output.Printf("  Data Dir:        %s\n", cfg.Storage.DataDir)
	output.Println()

	output.Bold("Notifications")
	output.Printf("  Enabled:         %v\n", cfg.Notifications.Enabled)
	output.Printf("  Level:           %s\n", cfg.Notifications.Level)
	output.Printf("  Terminal:        %v\n", cfg.Notifications.Terminal)
	output.Printf("  Webhook:         %v\n", cfg.Notifications.Webhook.Enabled)

	return nil
}
