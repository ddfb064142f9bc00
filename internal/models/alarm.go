package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of fractional digits used when persisting
// and comparing prices. Comparisons at a fixed precision keep boundary
// behavior deterministic for user-entered decimal targets.
const PricePrecision = 8

// Condition represents the direction of an alarm.
type Condition string

const (
	// ConditionAbove triggers when the price reaches or exceeds the target.
	ConditionAbove Condition = "above"
	// ConditionBelow triggers when the price reaches or falls below the target.
	ConditionBelow Condition = "below"
)

// ParseCondition validates and normalizes a condition string.
func ParseCondition(s string) (Condition, error) {
	switch Condition(s) {
	case ConditionAbove:
		return ConditionAbove, nil
	case ConditionBelow:
		return ConditionBelow, nil
	default:
		return "", fmt.Errorf("invalid condition: %q (must be 'above' or 'below')", s)
	}
}

// AlarmState represents the lifecycle state of an alarm.
// The only legal transition is Active -> Triggered, exactly once.
type AlarmState string

const (
	AlarmStateActive    AlarmState = "active"
	AlarmStateTriggered AlarmState = "triggered"
)

// Alarm represents a one-shot price alarm on a watched asset.
// Asset name and symbol are denormalized so a triggered alarm still
// renders after the asset leaves the watchlist.
type Alarm struct {
	ID             string           `json:"id"`
	AssetID        string           `json:"asset_id"`
	AssetName      string           `json:"asset_name"`
	AssetSymbol    string           `json:"asset_symbol"`
	TargetPrice    decimal.Decimal  `json:"target_price"`
	Condition      Condition        `json:"condition"`
	State          AlarmState       `json:"state"`
	CreatedAt      time.Time        `json:"created_at"`
	TriggeredAt    *time.Time       `json:"triggered_at,omitempty"`
	TriggeredPrice *decimal.Decimal `json:"triggered_price,omitempty"`
}

// IsActive reports whether the alarm has not yet triggered.
func (a *Alarm) IsActive() bool {
	return a.State == AlarmStateActive
}

// Matches reports whether the alarm occupies the same (asset, target,
// condition) slot as the given tuple. Targets compare at PricePrecision.
func (a *Alarm) Matches(assetID string, target decimal.Decimal, cond Condition) bool {
	return a.AssetID == assetID &&
		a.Condition == cond &&
		a.TargetPrice.Truncate(PricePrecision).Equal(target.Truncate(PricePrecision))
}

// NewAlarmID derives a unique alarm ID from the current time.
// Millisecond resolution is enough for interactively created alarms.
func NewAlarmID(now time.Time) string {
	return fmt.Sprintf("%d", now.UnixMilli())
}
