package models

import "time"

// AlarmTriggered is emitted exactly once per alarm when its condition
// is met and the Active -> Triggered transition has been persisted.
type AlarmTriggered struct {
	Alarm Alarm
	Quote Quote
}

// AlarmFetchFailed is emitted when a monitoring pass could not fetch
// prices. Alarm states are untouched when this event fires.
type AlarmFetchFailed struct {
	Err           error
	NextAttemptIn time.Duration
}

// SearchResultsReady is emitted when a debounced or manual search
// completes. Only the most recent request's results are ever surfaced.
type SearchResultsReady struct {
	Query      string
	Candidates []SearchCandidate
}

// SearchCleared is emitted when the query drops below the minimum
// length and any pending or in-flight search has been cancelled.
type SearchCleared struct{}
