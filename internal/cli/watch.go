package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"coinwatch/internal/errors"
	"coinwatch/internal/models"
	"coinwatch/pkg/utils"
)

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage the watchlist",
	}

	cmd.AddCommand(newWatchAddCmd(app))
	cmd.AddCommand(newWatchRemoveCmd(app))
	cmd.AddCommand(newWatchListCmd(app))

	return cmd
}

func newWatchAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <asset-id>",
		Short: "Add an asset to the watchlist",
		Long:  "Resolve an asset by its price source ID and add it to the watchlist.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)
			assetID := args[0]

			candidate, err := resolveCandidate(cmd.Context(), app, assetID)
			if err != nil {
				output.Error("Could not resolve asset %q: %v", assetID, err)
				return err
			}

			asset := candidate.Watched(time.Now())
			if err := app.Store.AddWatched(asset); err != nil {
				if errors.Is(err, errors.ErrDuplicateWatch) {
					output.Warning("%s is already on the watchlist", asset.Name)
					return nil
				}
				return err
			}

			if output.IsJSON() {
				return output.JSON(asset)
			}
			output.Success("✓ Watching %s (%s)", asset.Name, asset.Symbol)
			return nil
		},
	}
}

func newWatchRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <asset-id>",
		Short: "Remove an asset from the watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)
			assetID := args[0]

			if !app.Store.RemoveWatched(assetID) {
				output.Warning("%s is not on the watchlist", assetID)
				return nil
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"removed": assetID})
			}
			output.Success("✓ Removed %s from the watchlist", assetID)
			return nil
		},
	}
}

func newWatchListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List watched assets with current prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)

			watched := app.Store.ListWatched()
			if len(watched) == 0 {
				if output.IsJSON() {
					return output.JSON([]models.WatchedAsset{})
				}
				output.Dim("Watchlist is empty. Add assets with 'coinwatch watch add <asset-id>'.")
				return nil
			}

			ids := make([]string, len(watched))
			for i, w := range watched {
				ids[i] = w.ID
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), app.Config.Monitor.FetchTimeout)
			defer cancel()
			quotes, err := app.Source.Resolve(ctx, ids)
			if err != nil {
				output.Warning("Price fetch failed: %v", err)
				quotes = nil
			}

			if output.IsJSON() {
				type entry struct {
					Asset models.WatchedAsset `json:"asset"`
					Quote *models.Quote       `json:"quote,omitempty"`
				}
				entries := make([]entry, len(watched))
				for i, w := range watched {
					entries[i] = entry{Asset: w}
					if q, ok := quotes[w.ID]; ok {
						entries[i].Quote = &q
					}
				}
				return output.JSON(entries)
			}

			renderWatchlist(output, watched, quotes)
			return nil
		},
	}
}

// resolveCandidate looks up the asset with the exact given ID via the
// price source's search endpoint.
func resolveCandidate(ctx context.Context, app *App, assetID string) (models.SearchCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, app.Config.Search.RequestTimeout)
	defer cancel()

	candidates, err := app.Source.Search(ctx, assetID)
	if err != nil {
		return models.SearchCandidate{}, err
	}
	for _, c := range candidates {
		if c.ID == assetID {
			return c, nil
		}
	}
	return models.SearchCandidate{}, fmt.Errorf("no asset with ID %q: %w", assetID, errors.ErrNotFound)
}

func renderWatchlist(output *Output, watched []models.WatchedAsset, quotes map[string]models.Quote) {
	table := NewTable(output, "NAME", "SYMBOL", "PRICE", "24H", "MARKET CAP")
	for _, w := range watched {
		price, change, marketCap := "-", "-", "-"
		if q, ok := quotes[w.ID]; ok {
			price = "$" + utils.FormatPrice(q.PriceUSD)
			change = output.FormatPercent(q.Change24h)
			marketCap = utils.FormatMarketCap(q.MarketCapUSD)
		}
		table.AddRow(w.Name, w.Symbol, price, change, marketCap)
	}
	table.Render()
}
