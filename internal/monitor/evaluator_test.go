package monitor

import (
	"testing"

	"github.com/shopspring/decimal"

	"coinwatch/internal/models"
)

func alarmFor(cond models.Condition, target string) models.Alarm {
	return models.Alarm{
		ID:          "a1",
		AssetID:     "bitcoin",
		TargetPrice: decimal.RequireFromString(target),
		Condition:   cond,
		State:       models.AlarmStateActive,
	}
}

func quoteAt(price string) models.Quote {
	return models.Quote{AssetID: "bitcoin", PriceUSD: decimal.RequireFromString(price)}
}

func TestDecideBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		cond   models.Condition
		target string
		price  string
		want   bool
	}{
		{"above, price exceeds target", models.ConditionAbove, "100", "100.01", true},
		{"above, price equals target", models.ConditionAbove, "100", "100", true},
		{"above, price short of target", models.ConditionAbove, "100", "99.99", false},
		{"below, price under target", models.ConditionBelow, "100", "99.99", true},
		{"below, price equals target", models.ConditionBelow, "100", "100", true},
		{"below, price over target", models.ConditionBelow, "100", "100.01", false},
		{"above, equal after truncation", models.ConditionAbove, "100", "100.000000001", true},
		{"below, equal after truncation", models.ConditionBelow, "100", "100.000000001", true},
		{"above, differs at 8th digit", models.ConditionAbove, "100", "99.99999999", false},
		{"sub-dollar below boundary", models.ConditionBelow, "0.00000125", "0.00000125", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(alarmFor(tt.cond, tt.target), quoteAt(tt.price), true)
			if got != tt.want {
				t.Errorf("Decide(%s %s, price %s) = %v, want %v", tt.cond, tt.target, tt.price, got, tt.want)
			}
		})
	}
}

func TestDecideMissingQuoteNeverFires(t *testing.T) {
	alarm := alarmFor(models.ConditionAbove, "1")
	if Decide(alarm, models.Quote{}, false) {
		t.Error("alarm fired without a quote")
	}
}

func TestDecideTriggeredAlarmNeverFires(t *testing.T) {
	alarm := alarmFor(models.ConditionAbove, "100")
	alarm.State = models.AlarmStateTriggered
	if Decide(alarm, quoteAt("101"), true) {
		t.Error("triggered alarm fired again")
	}
}

func TestDecideAllPreservesOrderAndSkipsMissing(t *testing.T) {
	alarms := []models.Alarm{
		{ID: "1", AssetID: "bitcoin", TargetPrice: decimal.NewFromInt(10), Condition: models.ConditionAbove, State: models.AlarmStateActive},
		{ID: "2", AssetID: "ethereum", TargetPrice: decimal.NewFromInt(10), Condition: models.ConditionAbove, State: models.AlarmStateActive},
		{ID: "3", AssetID: "bitcoin", TargetPrice: decimal.NewFromInt(20), Condition: models.ConditionBelow, State: models.AlarmStateActive},
	}
	quotes := map[string]models.Quote{
		"bitcoin": {AssetID: "bitcoin", PriceUSD: decimal.NewFromInt(15)},
	}

	fired := DecideAll(alarms, quotes)
	if len(fired) != 2 || fired[0].ID != "1" || fired[1].ID != "3" {
		ids := make([]string, len(fired))
		for i, a := range fired {
			ids[i] = a.ID
		}
		t.Errorf("fired IDs = %v, want [1 3]", ids)
	}
}
