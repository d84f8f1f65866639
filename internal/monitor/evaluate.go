package monitor

import (
	"fmt"
	"math"
	"time"

	"github.com/iD01t/CryptoPulse/internal/models"
	"github.com/iD01t/CryptoPulse/pkg/utils"
)

// Evaluate compares two consecutive readings against the rule set and
// returns the alerts that fire. It is pure: no reading, no rule set, no
// hidden state is mutated.
//
// The first successful cycle never alerts (prev is nil), and a zero
// previous price cannot produce a percent change.
func Evaluate(prev *models.Reading, cur models.Reading, rules models.AlertRules, at time.Time) []models.AlertEvent {
	if prev == nil || prev.Price == 0 {
		return nil
	}

	var events []models.AlertEvent

	changePct := (cur.Price - prev.Price) / prev.Price * 100
	absPct := math.Abs(changePct)

	if changePct < 0 && rules.Drop.Enabled && absPct >= rules.Drop.ThresholdPct {
		events = append(events, models.AlertEvent{
			Kind: models.AlertPriceDrop,
			Message: fmt.Sprintf("%s dropped %.2f%% to %s",
				cur.Symbol, absPct, utils.FormatPrice(cur.Price)),
			OccurredAt: at,
		})
	}
	if changePct > 0 && rules.Rise.Enabled && absPct >= rules.Rise.ThresholdPct {
		events = append(events, models.AlertEvent{
			Kind: models.AlertPriceRise,
			Message: fmt.Sprintf("%s rose %.2f%% to %s",
				cur.Symbol, absPct, utils.FormatPrice(cur.Price)),
			OccurredAt: at,
		})
	}

	if rules.VolumeSpike.Enabled && prev.HasVolume() && cur.HasVolume() && *prev.Volume > 0 {
		volPct := (*cur.Volume - *prev.Volume) / *prev.Volume * 100
		if volPct >= rules.VolumeSpike.ThresholdPct {
			events = append(events, models.AlertEvent{
				Kind: models.AlertVolumeSpike,
				Message: fmt.Sprintf("%s volume spiked %.1f%% to %s",
					cur.Symbol, volPct, utils.FormatVolume(*cur.Volume)),
				OccurredAt: at,
			})
		}
	}

	return events
}
