// Package store owns the durable alarm and watchlist collections.
//
// The in-memory collections are authoritative for the running process.
// Every mutation persists the full snapshot through a Snapshotter before
// returning; reads hand out copies so callers never observe a partially
// updated collection.
package store

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinwatch/internal/errors"
	"coinwatch/internal/models"
)

// Snapshot is the full persisted state: two independent record
// collections written as one atomic unit on every mutation.
type Snapshot struct {
	Watchlist []models.WatchedAsset `json:"watchlist"`
	Alarms    []models.Alarm        `json:"alarms"`
}

// Snapshotter persists and restores the full snapshot.
type Snapshotter interface {
	// Load restores the last snapshot. A missing snapshot returns an
	// empty Snapshot and no error.
	Load() (Snapshot, error)
	// Save durably writes the full snapshot, replacing the previous one.
	Save(Snapshot) error
	Close() error
}

// AlarmStore is the exclusive in-process owner of the alarm and
// watchlist collections. All mutation goes through it; writes are
// serialized by a single mutex.
type AlarmStore struct {
	mu      sync.RWMutex
	watched []models.WatchedAsset
	alarms  []models.Alarm
	snap    Snapshotter
	logger  zerolog.Logger
	now     func() time.Time
}

// NewAlarmStore creates a store backed by the given Snapshotter and
// loads the persisted state. An unreadable snapshot starts the store
// empty rather than failing. A nil Snapshotter keeps the store purely
// in-memory.
func NewAlarmStore(snap Snapshotter, logger zerolog.Logger) *AlarmStore {
	s := &AlarmStore{
		snap:   snap,
		logger: logger,
		now:    time.Now,
	}

	if snap == nil {
		return s
	}

	loaded, err := snap.Load()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load snapshot, starting empty")
	} else {
		s.watched = loaded.Watchlist
		s.alarms = loaded.Alarms
	}

	return s
}

// ListAlarms returns a copy of all alarms. The copy does not reflect
// later mutations.
func (s *AlarmStore) ListAlarms() []models.Alarm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAlarms(s.alarms)
}

// ListActiveAlarms returns a copy of all alarms that have not triggered,
// in creation order.
func (s *AlarmStore) ListActiveAlarms() []models.Alarm {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []models.Alarm
	for i := range s.alarms {
		if s.alarms[i].IsActive() {
			active = append(active, copyAlarm(s.alarms[i]))
		}
	}
	return active
}

// ListWatched returns a copy of the watchlist.
func (s *AlarmStore) ListWatched() []models.WatchedAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.WatchedAsset, len(s.watched))
	for i, w := range s.watched {
		out[i] = copyWatched(w)
	}
	return out
}

// GetWatched looks up a watchlist entry by asset ID.
func (s *AlarmStore) GetWatched(id string) (models.WatchedAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.watched {
		if w.ID == id {
			return copyWatched(w), true
		}
	}
	return models.WatchedAsset{}, false
}

// AddAlarm creates a new active alarm. It fails with ErrInvalidPrice for
// non-positive targets and ErrDuplicateAlarm if an active alarm already
// occupies the same (asset, target, condition) slot.
func (s *AlarmStore) AddAlarm(assetID string, target decimal.Decimal, cond models.Condition) (models.Alarm, error) {
	if !target.IsPositive() {
		return models.Alarm{}, errors.ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alarms {
		if s.alarms[i].IsActive() && s.alarms[i].Matches(assetID, target, cond) {
			return models.Alarm{}, errors.ErrDuplicateAlarm
		}
	}

	name, symbol := assetID, ""
	for _, w := range s.watched {
		if w.ID == assetID {
			name, symbol = w.Name, w.Symbol
			break
		}
	}

	now := s.now()
	alarm := models.Alarm{
		ID:          s.nextAlarmID(now),
		AssetID:     assetID,
		AssetName:   name,
		AssetSymbol: symbol,
		TargetPrice: target.Truncate(models.PricePrecision),
		Condition:   cond,
		State:       models.AlarmStateActive,
		CreatedAt:   now,
	}
	s.alarms = append(s.alarms, alarm)
	s.persist()

	return copyAlarm(alarm), nil
}

// DeleteAlarm removes an alarm by ID. Returns false if not found.
func (s *AlarmStore) DeleteAlarm(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alarms {
		if s.alarms[i].ID == id {
			s.alarms = append(s.alarms[:i], s.alarms[i+1:]...)
			s.persist()
			return true
		}
	}
	return false
}

// MarkTriggered transitions an alarm Active -> Triggered. A second call
// on the same alarm fails with ErrAlreadyTriggered; the transition is
// applied at most once.
func (s *AlarmStore) MarkTriggered(id string, price decimal.Decimal, at time.Time) (models.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.alarms {
		if s.alarms[i].ID != id {
			continue
		}
		if !s.alarms[i].IsActive() {
			return models.Alarm{}, errors.ErrAlreadyTriggered
		}

		p := price.Truncate(models.PricePrecision)
		s.alarms[i].State = models.AlarmStateTriggered
		s.alarms[i].TriggeredAt = &at
		s.alarms[i].TriggeredPrice = &p
		s.persist()

		return copyAlarm(s.alarms[i]), nil
	}
	return models.Alarm{}, errors.ErrNotFound
}

// AddWatched adds an asset to the watchlist. Fails with
// ErrDuplicateWatch if the asset is already present.
func (s *AlarmStore) AddWatched(asset models.WatchedAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.watched {
		if w.ID == asset.ID {
			return errors.ErrDuplicateWatch
		}
	}

	if asset.AddedAt.IsZero() {
		asset.AddedAt = s.now()
	}
	s.watched = append(s.watched, asset)
	s.persist()
	return nil
}

// RemoveWatched removes an asset from the watchlist. Alarms referencing
// the asset are left untouched. Returns false if not found.
func (s *AlarmStore) RemoveWatched(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.watched {
		if s.watched[i].ID == id {
			s.watched = append(s.watched[:i], s.watched[i+1:]...)
			s.persist()
			return true
		}
	}
	return false
}

// Stats returns the watched asset count and the active and triggered
// alarm counts.
func (s *AlarmStore) Stats() (watched, active, triggered int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	watched = len(s.watched)
	for i := range s.alarms {
		if s.alarms[i].IsActive() {
			active++
		} else {
			triggered++
		}
	}
	return watched, active, triggered
}

// Close releases the underlying snapshot backend.
func (s *AlarmStore) Close() error {
	if s.snap == nil {
		return nil
	}
	return s.snap.Close()
}

// persist writes the full snapshot. Caller must hold the write lock.
// A failed write is logged; the in-memory state remains authoritative
// and the next successful mutation rewrites everything.
func (s *AlarmStore) persist() {
	if s.snap == nil {
		return
	}
	snap := Snapshot{
		Watchlist: make([]models.WatchedAsset, len(s.watched)),
		Alarms:    copyAlarms(s.alarms),
	}
	copy(snap.Watchlist, s.watched)

	if err := s.snap.Save(snap); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist snapshot")
	}
}

// nextAlarmID derives a time-based ID, bumping past collisions from
// alarms created within the same millisecond.
func (s *AlarmStore) nextAlarmID(now time.Time) string {
	id := models.NewAlarmID(now)
	for s.alarmIDExists(id) {
		now = now.Add(time.Millisecond)
		id = models.NewAlarmID(now)
	}
	return id
}

func (s *AlarmStore) alarmIDExists(id string) bool {
	for i := range s.alarms {
		if s.alarms[i].ID == id {
			return true
		}
	}
	return false
}

func copyAlarm(a models.Alarm) models.Alarm {
	out := a
	if a.TriggeredAt != nil {
		t := *a.TriggeredAt
		out.TriggeredAt = &t
	}
	if a.TriggeredPrice != nil {
		p := *a.TriggeredPrice
		out.TriggeredPrice = &p
	}
	return out
}

func copyAlarms(alarms []models.Alarm) []models.Alarm {
	out := make([]models.Alarm, len(alarms))
	for i := range alarms {
		out[i] = copyAlarm(alarms[i])
	}
	return out
}

func copyWatched(w models.WatchedAsset) models.WatchedAsset {
	out := w
	if w.Rank != nil {
		r := *w.Rank
		out.Rank = &r
	}
	return out
}
