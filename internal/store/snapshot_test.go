package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"coinwatch/internal/models"
)

// Both backends must round-trip the same snapshot through the
// Snapshotter contract, including optional fields in both states.
func TestSnapshotterRoundTrip(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T, dir string) Snapshotter
	}{
		{
			name: "file",
			open: func(t *testing.T, dir string) Snapshotter {
				snap, err := NewFileSnapshotter(dir)
				if err != nil {
					t.Fatalf("NewFileSnapshotter: %v", err)
				}
				return snap
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T, dir string) Snapshotter {
				snap, err := NewSQLiteSnapshotter(filepath.Join(dir, "test.db"))
				if err != nil {
					t.Fatalf("NewSQLiteSnapshotter: %v", err)
				}
				return snap
			},
		},
	}

	rank := 7
	addedAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	createdAt := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	triggeredAt := time.Date(2025, 3, 3, 11, 15, 0, 0, time.UTC)
	triggeredPrice := decimal.RequireFromString("50123.45678901")

	want := Snapshot{
		Watchlist: []models.WatchedAsset{
			{ID: "bitcoin", Name: "Bitcoin", Symbol: "BTC", Rank: &rank, ImageURL: "https://img/btc.png", AddedAt: addedAt},
			{ID: "obscurecoin", Name: "Obscure", Symbol: "OBS", AddedAt: addedAt.Add(time.Minute)},
		},
		Alarms: []models.Alarm{
			{
				ID: "1000", AssetID: "bitcoin", AssetName: "Bitcoin", AssetSymbol: "BTC",
				TargetPrice: decimal.RequireFromString("50000"), Condition: models.ConditionAbove,
				State: models.AlarmStateTriggered, CreatedAt: createdAt,
				TriggeredAt: &triggeredAt, TriggeredPrice: &triggeredPrice,
			},
			{
				ID: "1001", AssetID: "obscurecoin", AssetName: "Obscure", AssetSymbol: "OBS",
				TargetPrice: decimal.RequireFromString("0.00000125"), Condition: models.ConditionBelow,
				State: models.AlarmStateActive, CreatedAt: createdAt.Add(time.Minute),
			},
		},
	}

	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			dir := t.TempDir()

			snap := backend.open(t, dir)
			if err := snap.Save(want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			if err := snap.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			reopened := backend.open(t, dir)
			defer reopened.Close()
			got, err := reopened.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			if len(got.Watchlist) != 2 {
				t.Fatalf("%d watchlist entries, want 2", len(got.Watchlist))
			}
			btc := got.Watchlist[0]
			if btc.ID != "bitcoin" || btc.Symbol != "BTC" || btc.ImageURL != "https://img/btc.png" {
				t.Errorf("watchlist[0] = %+v", btc)
			}
			if btc.Rank == nil || *btc.Rank != 7 {
				t.Errorf("watchlist[0].Rank = %v, want 7", btc.Rank)
			}
			if !btc.AddedAt.Equal(addedAt) {
				t.Errorf("watchlist[0].AddedAt = %v, want %v", btc.AddedAt, addedAt)
			}
			if got.Watchlist[1].Rank != nil {
				t.Errorf("watchlist[1].Rank = %v, want nil", got.Watchlist[1].Rank)
			}

			if len(got.Alarms) != 2 {
				t.Fatalf("%d alarms, want 2", len(got.Alarms))
			}
			fired := got.Alarms[0]
			if fired.State != models.AlarmStateTriggered || fired.Condition != models.ConditionAbove {
				t.Errorf("alarms[0] = %+v", fired)
			}
			if !fired.TargetPrice.Equal(decimal.RequireFromString("50000")) {
				t.Errorf("alarms[0].TargetPrice = %s", fired.TargetPrice)
			}
			if fired.TriggeredAt == nil || !fired.TriggeredAt.Equal(triggeredAt) {
				t.Errorf("alarms[0].TriggeredAt = %v, want %v", fired.TriggeredAt, triggeredAt)
			}
			if fired.TriggeredPrice == nil || !fired.TriggeredPrice.Equal(triggeredPrice) {
				t.Errorf("alarms[0].TriggeredPrice = %v, want %s", fired.TriggeredPrice, triggeredPrice)
			}

			pending := got.Alarms[1]
			if pending.State != models.AlarmStateActive || pending.TriggeredAt != nil || pending.TriggeredPrice != nil {
				t.Errorf("alarms[1] = %+v", pending)
			}
			if !pending.TargetPrice.Equal(decimal.RequireFromString("0.00000125")) {
				t.Errorf("alarms[1].TargetPrice = %s", pending.TargetPrice)
			}
		})
	}
}
