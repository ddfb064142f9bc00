package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinwatch/internal/models"
)

// Property: across any sequence of add / delete / trigger operations,
// a triggered alarm never returns to the active state and no two active
// alarms ever share the same (asset, target, condition) tuple.
func TestProperty_AlarmLifecycleInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	assets := []string{"bitcoin", "ethereum", "solana"}

	// Each op is an encoded (action, asset, target, condition) tuple.
	opGen := gen.SliceOfN(40, gen.IntRange(0, 1<<12))

	properties.Property("no resurrection and no duplicate active tuples", prop.ForAll(
		func(ops []int) bool {
			s := NewAlarmStore(nil, zerolog.Nop())
			everTriggered := make(map[string]bool)

			for _, op := range ops {
				action := op % 4
				asset := assets[(op>>2)%len(assets)]
				target := decimal.NewFromInt(int64((op>>4)%5 + 1))
				cond := models.ConditionAbove
				if (op>>7)%2 == 1 {
					cond = models.ConditionBelow
				}

				switch action {
				case 0, 1:
					s.AddAlarm(asset, target, cond)
				case 2:
					if alarms := s.ListAlarms(); len(alarms) > 0 {
						victim := alarms[(op>>8)%len(alarms)]
						s.DeleteAlarm(victim.ID)
						delete(everTriggered, victim.ID)
					}
				case 3:
					if active := s.ListActiveAlarms(); len(active) > 0 {
						id := active[(op>>8)%len(active)].ID
						if _, err := s.MarkTriggered(id, target, time.Now()); err == nil {
							everTriggered[id] = true
						}
					}
				}

				if !checkInvariants(s, everTriggered) {
					return false
				}
			}
			return true
		},
		opGen,
	))

	properties.TestingRun(t)
}

func checkInvariants(s *AlarmStore, everTriggered map[string]bool) bool {
	seen := make(map[string]bool)
	for _, a := range s.ListAlarms() {
		if everTriggered[a.ID] && a.State == models.AlarmStateActive {
			return false
		}
		if !a.IsActive() {
			continue
		}
		key := fmt.Sprintf("%s|%s|%s", a.AssetID, a.TargetPrice.Truncate(models.PricePrecision), a.Condition)
		if seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}
