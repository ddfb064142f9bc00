// Package monitor runs the periodic alarm evaluation loop.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coinwatch/internal/config"
	"coinwatch/internal/errors"
	"coinwatch/internal/logging"
	"coinwatch/internal/models"
	"coinwatch/internal/notify"
	"coinwatch/internal/pricesource"
	"coinwatch/internal/store"
)

// Listener receives monitoring events (models.AlarmTriggered,
// models.AlarmFetchFailed). Listeners run on the loop goroutine and
// must not block.
type Listener func(event any)

// Loop periodically fetches quotes for assets with active alarms and
// fires the alarms whose conditions are met. Passes are spaced
// pass-start to pass-start; a pass that outlives the period delays the
// next one rather than overlapping it.
type Loop struct {
	store    *store.AlarmStore
	source   pricesource.Source
	notifier notify.Notifier
	logger   zerolog.Logger

	period       time.Duration
	fetchTimeout time.Duration
	maxBackoff   int

	mu        sync.Mutex
	listeners []Listener
	inFlight  bool
	failures  int

	now func() time.Time
}

// NewLoop creates a monitoring loop. A nil notifier disables
// notifications.
func NewLoop(cfg config.MonitorConfig, st *store.AlarmStore, src pricesource.Source, notifier notify.Notifier, logger zerolog.Logger) *Loop {
	if notifier == nil {
		notifier = notify.NewNoOpNotifier()
	}
	return &Loop{
		store:        st,
		source:       src,
		notifier:     notifier,
		logger:       logger.With().Str("component", "monitor").Logger(),
		period:       cfg.PollInterval,
		fetchTimeout: cfg.FetchTimeout,
		maxBackoff:   cfg.MaxBackoff,
		now:          time.Now,
	}
}

// AddListener registers a listener for monitoring events.
func (l *Loop) AddListener(fn Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Loop) emit(event any) {
	l.mu.Lock()
	listeners := l.listeners
	l.mu.Unlock()
	for _, fn := range listeners {
		fn(event)
	}
}

// Run executes passes until ctx is cancelled. The first pass starts
// immediately. Run always returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().
		Dur("period", l.period).
		Int("max_backoff", l.maxBackoff).
		Msg("Monitor loop started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("Monitor loop stopped")
			return ctx.Err()
		case <-timer.C:
		}

		start := l.now()
		l.RunPass(ctx)
		if ctx.Err() != nil {
			l.logger.Info().Msg("Monitor loop stopped")
			return ctx.Err()
		}

		wait := l.nextDelay() - l.now().Sub(start)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

// nextDelay returns the pass-start to pass-start spacing, lengthened
// after consecutive failures: period * 2^failures, capped at
// maxBackoff times the base period.
func (l *Loop) nextDelay() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	delay := l.period
	for i := 0; i < l.failures; i++ {
		delay *= 2
		if delay >= l.period*time.Duration(l.maxBackoff) {
			return l.period * time.Duration(l.maxBackoff)
		}
	}
	return delay
}

// RunPass executes a single monitoring pass. If a pass is already in
// flight the call is a no-op. A pass never panics out; a panic in
// evaluation is logged and treated as a failed pass.
func (l *Loop) RunPass(ctx context.Context) {
	l.mu.Lock()
	if l.inFlight {
		l.mu.Unlock()
		l.logger.Warn().Msg("Pass still in flight, skipping")
		return
	}
	l.inFlight = true
	l.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("Pass panicked")
			l.recordFailure()
		}
		l.mu.Lock()
		l.inFlight = false
		l.mu.Unlock()
	}()

	active := l.store.ListActiveAlarms()
	if len(active) == 0 {
		l.logger.Debug().Msg("No active alarms, skipping fetch")
		return
	}

	ids := dedupeAssetIDs(active)
	fetchCtx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	fetchStart := l.now()
	quotes, err := l.source.Resolve(fetchCtx, ids)
	cancel()
	logging.LogFetch(l.logger, len(ids), l.now().Sub(fetchStart), err)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		l.recordFailure()
		next := l.nextDelay()
		l.logger.Warn().Err(err).Dur("next_attempt_in", next).Msg("Price fetch failed")
		l.emit(models.AlarmFetchFailed{Err: err, NextAttemptIn: next})
		if nerr := l.notifier.SendError(ctx, err, "price fetch"); nerr != nil {
			l.logger.Warn().Err(nerr).Msg("Error notification failed")
		}
		return
	}

	l.resetFailures()

	for _, alarm := range DecideAll(active, quotes) {
		l.fire(ctx, alarm, quotes[alarm.AssetID])
	}
}

// fire transitions one alarm and emits its event. A concurrent trigger
// of the same alarm is skipped silently.
func (l *Loop) fire(ctx context.Context, alarm models.Alarm, quote models.Quote) {
	logger := logging.WithAsset(l.logger, alarm.AssetID)

	triggered, err := l.store.MarkTriggered(alarm.ID, quote.PriceUSD, l.now())
	if err != nil {
		if errors.Is(err, errors.ErrAlreadyTriggered) || errors.Is(err, errors.ErrNotFound) {
			return
		}
		logger.Error().Err(err).Str("alarm_id", alarm.ID).Msg("Trigger transition failed")
		return
	}

	logging.LogAlarm(logger, triggered.ID, triggered.AssetID,
		string(triggered.Condition), triggered.TargetPrice.String(), quote.PriceUSD.String())

	l.emit(models.AlarmTriggered{Alarm: triggered, Quote: quote})
	if err := l.notifier.SendAlarm(ctx, triggered, quote); err != nil {
		l.logger.Warn().Err(err).Str("alarm_id", triggered.ID).Msg("Alarm notification failed")
	}
}

func (l *Loop) recordFailure() {
	l.mu.Lock()
	l.failures++
	l.mu.Unlock()
}

func (l *Loop) resetFailures() {
	l.mu.Lock()
	l.failures = 0
	l.mu.Unlock()
}

// dedupeAssetIDs returns the distinct asset IDs in first-seen order.
func dedupeAssetIDs(alarms []models.Alarm) []string {
	seen := make(map[string]struct{}, len(alarms))
	var ids []string
	for _, a := range alarms {
		if _, ok := seen[a.AssetID]; ok {
			continue
		}
		seen[a.AssetID] = struct{}{}
		ids = append(ids, a.AssetID)
	}
	return ids
}
