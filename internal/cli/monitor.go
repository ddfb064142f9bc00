package cli

import (
	"context"
	stderrors "errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"coinwatch/internal/logging"
	"coinwatch/internal/models"
	"coinwatch/internal/monitor"
	"coinwatch/pkg/utils"
)

func newMonitorCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the alarm monitoring loop",
		Long: `Run the monitoring loop in the foreground. Prices for assets with
active alarms are fetched periodically and alarms fire when their
conditions are met. Stop with Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx = logging.WithLogger(ctx, app.Logger)

			loop := monitor.NewLoop(app.Config.Monitor, app.Store, app.Source, app.Notifier, app.Logger)
			loop.AddListener(func(event any) {
				renderMonitorEvent(output, event)
			})

			_, active, _ := app.Store.Stats()
			output.Info("Monitoring %d active alarm(s) every %s. Press Ctrl+C to stop.", active, app.Config.Monitor.PollInterval)

			err := loop.Run(ctx)
			if stderrors.Is(err, context.Canceled) {
				output.Println()
				output.Dim("Monitor stopped.")
				return nil
			}
			return err
		},
	}
}

func renderMonitorEvent(output *Output, event any) {
	switch ev := event.(type) {
	case models.AlarmTriggered:
		direction := "▲"
		if ev.Alarm.Condition == models.ConditionBelow {
			direction = "▼"
		}
		output.Success("%s %s (%s) crossed $%s, now $%s",
			direction,
			ev.Alarm.AssetName,
			ev.Alarm.AssetSymbol,
			utils.FormatPrice(ev.Alarm.TargetPrice),
			utils.FormatPrice(ev.Quote.PriceUSD),
		)
	case models.AlarmFetchFailed:
		output.Warning("Price fetch failed: %v (retrying in %s)", ev.Err, ev.NextAttemptIn)
	}
}
