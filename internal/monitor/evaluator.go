package monitor

import (
	"coinwatch/internal/models"
)

// Decide reports whether the alarm should fire given the quote fetched
// for its asset. ok is false when the batch fetch returned no quote for
// the asset; a missing quote never fires an alarm.
//
// Both sides compare at models.PricePrecision and the boundary is
// inclusive: an "above" alarm fires when price >= target, a "below"
// alarm when price <= target. Decide is pure and never fires an alarm
// that is not active.
func Decide(alarm models.Alarm, quote models.Quote, ok bool) bool {
	if !ok || !alarm.IsActive() {
		return false
	}
	price := quote.PriceUSD.Truncate(models.PricePrecision)
	target := alarm.TargetPrice.Truncate(models.PricePrecision)
	switch alarm.Condition {
	case models.ConditionAbove:
		return price.GreaterThanOrEqual(target)
	case models.ConditionBelow:
		return price.LessThanOrEqual(target)
	default:
		return false
	}
}

// DecideAll returns the active alarms satisfied by the quote batch, in
// the order given.
func DecideAll(alarms []models.Alarm, quotes map[string]models.Quote) []models.Alarm {
	var fired []models.Alarm
	for _, a := range alarms {
		q, ok := quotes[a.AssetID]
		if Decide(a, q, ok) {
			fired = append(fired, a)
		}
	}
	return fired
}
