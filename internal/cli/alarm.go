package cli

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"coinwatch/internal/errors"
	"coinwatch/internal/models"
	"coinwatch/pkg/utils"
)

func newAlarmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alarm",
		Short: "Manage price alarms",
		Long:  "Create, list, and delete one-shot price alarms. To change an alarm, delete it and create a new one.",
	}

	cmd.AddCommand(newAlarmAddCmd(app))
	cmd.AddCommand(newAlarmListCmd(app))
	cmd.AddCommand(newAlarmDeleteCmd(app))

	return cmd
}

func newAlarmAddCmd(app *App) *cobra.Command {
	var condition string

	cmd := &cobra.Command{
		Use:   "add <asset-id> <target-price>",
		Short: "Create a price alarm",
		Long:  "Create a one-shot alarm that fires when the asset's price reaches the target. The boundary is inclusive.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)
			assetID := args[0]

			target, err := decimal.NewFromString(args[1])
			if err != nil {
				output.Error("Invalid target price %q", args[1])
				return errors.ErrInvalidPrice
			}

			cond, err := models.ParseCondition(condition)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			alarm, err := app.Store.AddAlarm(assetID, target, cond)
			if err != nil {
				switch {
				case errors.Is(err, errors.ErrInvalidPrice):
					output.Error("Target price must be positive")
				case errors.Is(err, errors.ErrDuplicateAlarm):
					output.Error("An active alarm for %s %s $%s already exists", assetID, cond, utils.FormatPrice(target))
				default:
					output.Error("Failed to create alarm: %v", err)
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(alarm)
			}
			output.Success("✓ Alarm %s: %s %s $%s", alarm.ID, alarm.AssetName, alarm.Condition, utils.FormatPrice(alarm.TargetPrice))
			return nil
		},
	}

	cmd.Flags().StringVarP(&condition, "condition", "c", "above", "trigger condition: above or below")
	return cmd
}

func newAlarmListCmd(app *App) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alarms",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)

			var alarms []models.Alarm
			if activeOnly {
				alarms = app.Store.ListActiveAlarms()
			} else {
				alarms = app.Store.ListAlarms()
			}

			if output.IsJSON() {
				if alarms == nil {
					alarms = []models.Alarm{}
				}
				return output.JSON(alarms)
			}

			if len(alarms) == 0 {
				output.Dim("No alarms. Create one with 'coinwatch alarm add <asset-id> <target>'.")
				return nil
			}

			renderAlarms(output, alarms)

			watched, active, triggered := app.Store.Stats()
			output.Println()
			output.Dim("%d watched, %d active, %d triggered", watched, active, triggered)
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "show only active alarms")
	return cmd
}

func newAlarmDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <alarm-id>",
		Short: "Delete an alarm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)
			id := args[0]

			if !app.Store.DeleteAlarm(id) {
				output.Warning("No alarm with ID %s", id)
				return nil
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": id})
			}
			output.Success("✓ Deleted alarm %s", id)
			return nil
		},
	}
}

func renderAlarms(output *Output, alarms []models.Alarm) {
	table := NewTable(output, "ID", "ASSET", "CONDITION", "TARGET", "STATE", "TRIGGERED AT")
	for _, a := range alarms {
		state := output.Yellow(string(a.State))
		triggeredAt := "-"
		if a.State == models.AlarmStateTriggered {
			state = output.Green(string(a.State))
			if a.TriggeredAt != nil {
				triggeredAt = a.TriggeredAt.Format("2006-01-02 15:04:05")
			}
		}
		table.AddRow(
			a.ID,
			a.AssetName,
			string(a.Condition),
			"$"+utils.FormatPrice(a.TargetPrice),
			state,
			triggeredAt,
		)
	}
	table.Render()
}
