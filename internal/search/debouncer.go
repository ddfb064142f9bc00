// Package search debounces asset search queries against the price
// source.
package search

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coinwatch/internal/config"
	"coinwatch/internal/errors"
	"coinwatch/internal/logging"
	"coinwatch/internal/models"
	"coinwatch/internal/pricesource"
)

// Listener receives search events (models.SearchResultsReady,
// models.SearchCleared). Listeners must not block.
type Listener func(event any)

// Debouncer coalesces a stream of query edits into at most one search
// request per quiet period. Only the newest request's results are ever
// delivered; anything older is discarded, even if it completes later.
type Debouncer struct {
	source  pricesource.Source
	logger  zerolog.Logger
	window  time.Duration
	minLen  int
	timeout time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	cancel    context.CancelFunc
	gen       uint64
	listeners []Listener
	closed    bool
}

// NewDebouncer creates a Debouncer over the given source.
func NewDebouncer(cfg config.SearchConfig, src pricesource.Source, logger zerolog.Logger) *Debouncer {
	return &Debouncer{
		source:  src,
		logger:  logger.With().Str("component", "search").Logger(),
		window:  cfg.DebounceWindow,
		minLen:  cfg.MinQueryLength,
		timeout: cfg.RequestTimeout,
	}
}

// AddListener registers a listener for search events.
func (d *Debouncer) AddListener(fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

func (d *Debouncer) emit(event any) {
	d.mu.Lock()
	listeners := d.listeners
	d.mu.Unlock()
	for _, fn := range listeners {
		fn(event)
	}
}

// SetQuery records the latest query text. A query shorter than the
// minimum (after trimming) cancels any pending or in-flight search and
// emits SearchCleared. A long enough query restarts the quiet-period
// timer; the search fires only once the text stops changing for the
// full window.
func (d *Debouncer) SetQuery(text string) {
	query := strings.TrimSpace(text)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	d.gen++
	d.stopTimerLocked()
	d.cancelInflightLocked()

	if len(query) < d.minLen {
		d.mu.Unlock()
		d.emit(models.SearchCleared{})
		return
	}

	gen := d.gen
	d.timer = time.AfterFunc(d.window, func() {
		d.fire(query, gen)
	})
	d.mu.Unlock()
}

// fire runs the debounced search for a query generation. Results are
// dropped if a newer query arrived while the request was in flight.
func (d *Debouncer) fire(query string, gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	d.cancel = cancel
	d.mu.Unlock()

	candidates, err := d.source.Search(ctx, query)
	cancel()

	d.mu.Lock()
	stale := d.closed || gen != d.gen
	if d.cancel != nil && gen == d.gen {
		d.cancel = nil
	}
	d.mu.Unlock()

	if stale {
		return
	}
	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			return
		}
		d.logger.Warn().Err(err).Str("query", query).Msg("Search failed")
		return
	}

	logging.LogSearch(d.logger, query, len(candidates), nil)
	d.emit(models.SearchResultsReady{Query: query, Candidates: candidates})
}

// Search performs an immediate search, bypassing the quiet-period
// timer. It still enforces the minimum query length and returns
// ErrQueryTooShort below it. Any pending or in-flight debounced search
// is superseded, and the manual request itself is cancelled if a newer
// query arrives while it is in flight.
func (d *Debouncer) Search(ctx context.Context, text string) ([]models.SearchCandidate, error) {
	query := strings.TrimSpace(text)
	if len(query) < d.minLen {
		return nil, errors.ErrQueryTooShort
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.stopTimerLocked()
	d.cancelInflightLocked()
	d.cancel = cancel
	d.mu.Unlock()

	candidates, err := d.source.Search(ctx, query)

	d.mu.Lock()
	if gen == d.gen {
		d.cancel = nil
	}
	d.mu.Unlock()

	logging.LogSearch(d.logger, query, len(candidates), err)
	return candidates, err
}

// Close cancels any pending timer and in-flight request. Further
// SetQuery calls are no-ops.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.gen++
	d.stopTimerLocked()
	d.cancelInflightLocked()
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) cancelInflightLocked() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
