package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"coinwatch/internal/errors"
	"coinwatch/internal/models"
	"coinwatch/internal/search"
)

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search for assets by name or symbol",
		Long:  "Search the price source for assets matching the query. Queries shorter than the configured minimum are rejected.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.Output(cmd)
			query := strings.Join(args, " ")

			deb := search.NewDebouncer(app.Config.Search, app.Source, app.Logger)
			defer deb.Close()

			candidates, err := deb.Search(cmd.Context(), query)
			if err != nil {
				if errors.Is(err, errors.ErrQueryTooShort) {
					output.Error("Query too short: need at least %d characters", app.Config.Search.MinQueryLength)
					return err
				}
				output.Error("Search failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(candidates)
			}

			if len(candidates) == 0 {
				output.Dim("No assets found for %q", query)
				return nil
			}

			renderCandidates(output, candidates)
			return nil
		},
	}
}

func renderCandidates(output *Output, candidates []models.SearchCandidate) {
	table := NewTable(output, "ID", "NAME", "SYMBOL", "RANK")
	for _, c := range candidates {
		rank := "-"
		if c.Rank != nil {
			rank = strconv.Itoa(*c.Rank)
		}
		table.AddRow(c.ID, c.Name, c.Symbol, rank)
	}
	table.Render()
}
