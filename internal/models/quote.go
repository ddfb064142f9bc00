package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is an ephemeral price observation for a single asset.
// Quotes are never persisted; each monitoring pass supersedes the last.
type Quote struct {
	AssetID      string
	PriceUSD     decimal.Decimal
	Change24h    float64
	MarketCapUSD float64
	FetchedAt    time.Time
}
