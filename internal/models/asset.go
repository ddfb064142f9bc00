// Package models defines the core domain types.
package models

import "time"

// WatchedAsset represents an asset on the user's watchlist.
// Immutable once created, except for removal.
type WatchedAsset struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Symbol   string    `json:"symbol"`
	Rank     *int      `json:"rank,omitempty"`
	ImageURL string    `json:"image_url,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}

// SearchCandidate represents an asset returned by a search query.
type SearchCandidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Rank     *int   `json:"rank,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Watched converts a search candidate into a watchlist entry.
func (c SearchCandidate) Watched(at time.Time) WatchedAsset {
	return WatchedAsset{
		ID:       c.ID,
		Name:     c.Name,
		Symbol:   c.Symbol,
		Rank:     c.Rank,
		ImageURL: c.ImageURL,
		AddedAt:  at,
	}
}
