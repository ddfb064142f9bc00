package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"coinwatch/internal/models"
)

// SQLiteSnapshotter persists the snapshot in a SQLite database. Each
// save rewrites both tables inside one transaction, so the durable
// state always corresponds to exactly one snapshot.
type SQLiteSnapshotter struct {
	db *sql.DB
}

// NewSQLiteSnapshotter opens (or creates) the database at dbPath.
func NewSQLiteSnapshotter(dbPath string) (*SQLiteSnapshotter, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteSnapshotter{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteSnapshotter) initSchema() error {
	schema := `
	-- Watchlist table
	CREATE TABLE IF NOT EXISTS watchlist (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		symbol TEXT NOT NULL,
		rank INTEGER,
		image_url TEXT,
		added_at DATETIME NOT NULL
	);

	-- Alarms table
	CREATE TABLE IF NOT EXISTS alarms (
		id TEXT PRIMARY KEY,
		asset_id TEXT NOT NULL,
		asset_name TEXT NOT NULL,
		asset_symbol TEXT NOT NULL,
		target_price TEXT NOT NULL,
		condition TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		triggered_at DATETIME,
		triggered_price TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_alarms_asset ON alarms(asset_id);
	CREATE INDEX IF NOT EXISTS idx_alarms_state ON alarms(state);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Load restores the last snapshot. An empty database yields empty
// collections.
func (s *SQLiteSnapshotter) Load() (Snapshot, error) {
	var snap Snapshot

	rows, err := s.db.Query(`
		SELECT id, name, symbol, rank, image_url, added_at
		FROM watchlist ORDER BY added_at ASC
	`)
	if err != nil {
		return snap, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w models.WatchedAsset
		var rank sql.NullInt64
		if err := rows.Scan(&w.ID, &w.Name, &w.Symbol, &rank, &w.ImageURL, &w.AddedAt); err != nil {
			return snap, fmt.Errorf("failed to scan watchlist entry: %w", err)
		}
		if rank.Valid {
			r := int(rank.Int64)
			w.Rank = &r
		}
		snap.Watchlist = append(snap.Watchlist, w)
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	alarmRows, err := s.db.Query(`
		SELECT id, asset_id, asset_name, asset_symbol, target_price,
		       condition, state, created_at, triggered_at, triggered_price
		FROM alarms ORDER BY created_at ASC
	`)
	if err != nil {
		return snap, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer alarmRows.Close()

	for alarmRows.Next() {
		var a models.Alarm
		var target string
		var condition, state string
		var triggeredAt sql.NullTime
		var triggeredPrice sql.NullString
		if err := alarmRows.Scan(&a.ID, &a.AssetID, &a.AssetName, &a.AssetSymbol,
			&target, &condition, &state, &a.CreatedAt, &triggeredAt, &triggeredPrice); err != nil {
			return snap, fmt.Errorf("failed to scan alarm: %w", err)
		}

		price, err := decimal.NewFromString(target)
		if err != nil {
			return snap, fmt.Errorf("bad target price for alarm %s: %w", a.ID, err)
		}
		a.TargetPrice = price
		a.Condition = models.Condition(condition)
		a.State = models.AlarmState(state)
		if triggeredAt.Valid {
			t := triggeredAt.Time
			a.TriggeredAt = &t
		}
		if triggeredPrice.Valid {
			p, err := decimal.NewFromString(triggeredPrice.String)
			if err != nil {
				return snap, fmt.Errorf("bad triggered price for alarm %s: %w", a.ID, err)
			}
			a.TriggeredPrice = &p
		}
		snap.Alarms = append(snap.Alarms, a)
	}

	return snap, alarmRows.Err()
}

// Save rewrites both tables with the snapshot's contents in one
// transaction.
func (s *SQLiteSnapshotter) Save(snap Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM watchlist`); err != nil {
		return fmt.Errorf("failed to clear watchlist: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM alarms`); err != nil {
		return fmt.Errorf("failed to clear alarms: %w", err)
	}

	for _, w := range snap.Watchlist {
		var rank interface{}
		if w.Rank != nil {
			rank = *w.Rank
		}
		if _, err := tx.Exec(`
			INSERT INTO watchlist (id, name, symbol, rank, image_url, added_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, w.ID, w.Name, w.Symbol, rank, w.ImageURL, w.AddedAt); err != nil {
			return fmt.Errorf("failed to insert watchlist entry: %w", err)
		}
	}

	for _, a := range snap.Alarms {
		var triggeredAt interface{}
		if a.TriggeredAt != nil {
			triggeredAt = *a.TriggeredAt
		}
		var triggeredPrice interface{}
		if a.TriggeredPrice != nil {
			triggeredPrice = a.TriggeredPrice.String()
		}
		if _, err := tx.Exec(`
			INSERT INTO alarms (id, asset_id, asset_name, asset_symbol, target_price,
			                    condition, state, created_at, triggered_at, triggered_price)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, a.ID, a.AssetID, a.AssetName, a.AssetSymbol, a.TargetPrice.String(),
			string(a.Condition), string(a.State), a.CreatedAt, triggeredAt, triggeredPrice); err != nil {
			return fmt.Errorf("failed to insert alarm: %w", err)
		}
	}

	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteSnapshotter) Close() error {
	return s.db.Close()
}
