package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"coinwatch/internal/config"
	"coinwatch/internal/errors"
	"coinwatch/internal/models"
)

type fakeSearchSource struct {
	mu      sync.Mutex
	queries []string

	// When set, a query matching blockQuery parks until release is
	// closed or its context is cancelled.
	blockQuery string
	started    chan struct{}
	release    chan struct{}
}

func (f *fakeSearchSource) Resolve(ctx context.Context, ids []string) (map[string]models.Quote, error) {
	return nil, nil
}

func (f *fakeSearchSource) Search(ctx context.Context, query string) ([]models.SearchCandidate, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	block := f.blockQuery != "" && query == f.blockQuery
	f.mu.Unlock()

	if block {
		close(f.started)
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []models.SearchCandidate{{ID: query, Name: query, Symbol: "X"}}, nil
}

func (f *fakeSearchSource) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []any
}

func (r *eventRecorder) listen(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) all() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		DebounceWindow: 30 * time.Millisecond,
		MinQueryLength: 2,
		MaxResults:     10,
		RequestTimeout: time.Second,
	}
}

func newTestDebouncer(t *testing.T, src *fakeSearchSource) (*Debouncer, *eventRecorder) {
	t.Helper()
	d := NewDebouncer(testSearchConfig(), src, zerolog.Nop())
	t.Cleanup(d.Close)
	rec := &eventRecorder{}
	d.AddListener(rec.listen)
	return d, rec
}

func TestDebounceCoalescesRapidEdits(t *testing.T) {
	src := &fakeSearchSource{}
	d, rec := newTestDebouncer(t, src)

	d.SetQuery("bi")
	d.SetQuery("bit")
	d.SetQuery("bitc")

	time.Sleep(200 * time.Millisecond)

	if got := src.seen(); len(got) != 1 || got[0] != "bitc" {
		t.Errorf("searched queries = %v, want [bitc]", got)
	}

	var results []models.SearchResultsReady
	for _, ev := range rec.all() {
		if r, ok := ev.(models.SearchResultsReady); ok {
			results = append(results, r)
		}
	}
	if len(results) != 1 || results[0].Query != "bitc" {
		t.Errorf("results events = %+v, want one for bitc", results)
	}
}

func TestShortQueryCancelsPendingSearch(t *testing.T) {
	src := &fakeSearchSource{}
	d, rec := newTestDebouncer(t, src)

	d.SetQuery("bitcoin")
	d.SetQuery("b") // below minimum before the window elapses

	time.Sleep(100 * time.Millisecond)

	if got := src.seen(); len(got) != 0 {
		t.Errorf("searched queries = %v, want none", got)
	}

	cleared := false
	for _, ev := range rec.all() {
		if _, ok := ev.(models.SearchCleared); ok {
			cleared = true
		}
	}
	if !cleared {
		t.Error("no SearchCleared event for short query")
	}
}

func TestQueryIsTrimmedBeforeLengthCheck(t *testing.T) {
	src := &fakeSearchSource{}
	d, rec := newTestDebouncer(t, src)

	d.SetQuery("  b  ")
	time.Sleep(100 * time.Millisecond)

	if got := src.seen(); len(got) != 0 {
		t.Errorf("searched queries = %v, want none", got)
	}
	if events := rec.all(); len(events) != 1 {
		t.Errorf("events = %+v, want a single SearchCleared", events)
	}
}

func TestStaleResultsDiscarded(t *testing.T) {
	src := &fakeSearchSource{
		blockQuery: "first",
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	d, rec := newTestDebouncer(t, src)

	d.SetQuery("first")
	select {
	case <-src.started:
	case <-time.After(time.Second):
		t.Fatal("first search never started")
	}

	// A newer query supersedes the in-flight one.
	d.SetQuery("second")
	close(src.release)

	time.Sleep(200 * time.Millisecond)

	for _, ev := range rec.all() {
		if r, ok := ev.(models.SearchResultsReady); ok && r.Query == "first" {
			t.Error("stale results for superseded query were delivered")
		}
	}

	found := false
	for _, ev := range rec.all() {
		if r, ok := ev.(models.SearchResultsReady); ok && r.Query == "second" {
			found = true
		}
	}
	if !found {
		t.Error("no results delivered for the newest query")
	}
}

func TestManualSearchBypassesTimer(t *testing.T) {
	src := &fakeSearchSource{}
	d, _ := newTestDebouncer(t, src)

	candidates, err := d.Search(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("got %d candidates, want 1", len(candidates))
	}
	// No waiting: the request went out immediately.
	if got := src.seen(); len(got) != 1 || got[0] != "bitcoin" {
		t.Errorf("searched queries = %v, want [bitcoin]", got)
	}
}

func TestManualSearchSupersedesPending(t *testing.T) {
	src := &fakeSearchSource{}
	d, rec := newTestDebouncer(t, src)

	d.SetQuery("bitcoin")
	if _, err := d.Search(context.Background(), "ethereum"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	// The pending debounced search never fires.
	if got := src.seen(); len(got) != 1 || got[0] != "ethereum" {
		t.Errorf("searched queries = %v, want [ethereum]", got)
	}
	for _, ev := range rec.all() {
		if r, ok := ev.(models.SearchResultsReady); ok && r.Query == "bitcoin" {
			t.Error("superseded debounced query still delivered results")
		}
	}
}

func TestSetQueryCancelsManualSearchInFlight(t *testing.T) {
	src := &fakeSearchSource{
		blockQuery: "first",
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	d, rec := newTestDebouncer(t, src)

	errCh := make(chan error, 1)
	go func() {
		_, err := d.Search(context.Background(), "first")
		errCh <- err
	}()

	select {
	case <-src.started:
	case <-time.After(time.Second):
		t.Fatal("manual search never started")
	}

	// The newer query must cancel the in-flight manual request rather
	// than run alongside it.
	d.SetQuery("second")

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("manual search returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("manual search was not cancelled by the newer query")
	}

	time.Sleep(100 * time.Millisecond)

	found := false
	for _, ev := range rec.all() {
		if r, ok := ev.(models.SearchResultsReady); ok && r.Query == "second" {
			found = true
		}
	}
	if !found {
		t.Error("no results delivered for the newest query")
	}
}

func TestManualSearchRejectsShortQuery(t *testing.T) {
	src := &fakeSearchSource{}
	d, _ := newTestDebouncer(t, src)

	if _, err := d.Search(context.Background(), "  b "); !errors.Is(err, errors.ErrQueryTooShort) {
		t.Errorf("got %v, want ErrQueryTooShort", err)
	}
	if got := src.seen(); len(got) != 0 {
		t.Errorf("short query reached the source: %v", got)
	}
}

func TestCloseCancelsPendingWork(t *testing.T) {
	src := &fakeSearchSource{}
	d, rec := newTestDebouncer(t, src)

	d.SetQuery("bitcoin")
	d.Close()

	time.Sleep(100 * time.Millisecond)

	if got := src.seen(); len(got) != 0 {
		t.Errorf("searched queries after Close = %v, want none", got)
	}
	if events := rec.all(); len(events) != 0 {
		t.Errorf("events after Close = %+v, want none", events)
	}

	// SetQuery after Close is a no-op.
	d.SetQuery("ethereum")
	time.Sleep(100 * time.Millisecond)
	if got := src.seen(); len(got) != 0 {
		t.Errorf("closed debouncer still searches: %v", got)
	}
}
