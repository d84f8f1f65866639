package models

import "time"

// AlertKind identifies the condition that produced an alert.
type AlertKind string

const (
	AlertPriceDrop   AlertKind = "price_drop"
	AlertPriceRise   AlertKind = "price_rise"
	AlertVolumeSpike AlertKind = "volume_spike"
)

// AlertRule is a single enabled/threshold pair. Thresholds are percentages
// and must be positive for the rule to ever fire.
type AlertRule struct {
	Enabled      bool
	ThresholdPct float64
}

// AlertRules is the full rule set supplied by the settings collaborator.
// The monitor treats it as read-only.
type AlertRules struct {
	Drop        AlertRule
	Rise        AlertRule
	VolumeSpike AlertRule
}

// DefaultAlertRules mirrors the application defaults: drop alerts on at 2%,
// rise and volume-spike alerts off.
func DefaultAlertRules() AlertRules {
	return AlertRules{
		Drop:        AlertRule{Enabled: true, ThresholdPct: 2.0},
		Rise:        AlertRule{Enabled: false, ThresholdPct: 5.0},
		VolumeSpike: AlertRule{Enabled: false, ThresholdPct: 50.0},
	}
}

// AlertEvent is one qualifying tick-to-tick transition. Created once,
// never mutated afterwards.
type AlertEvent struct {
	Kind       AlertKind
	Message    string
	OccurredAt time.Time
}
