// Package pricesource resolves asset identifiers to live quotes and
// serves incremental asset search.
package pricesource

import (
	"context"

	"coinwatch/internal/models"
)

// Source is the narrow contract the engine needs from a remote price
// API: batched symbol->price resolution and text search.
type Source interface {
	// Resolve fetches current quotes for the given asset IDs in one
	// batched call. IDs without a quote are absent from the result.
	Resolve(ctx context.Context, ids []string) (map[string]models.Quote, error)
	// Search returns candidate assets matching the query, best first.
	Search(ctx context.Context, query string) ([]models.SearchCandidate, error)
}
