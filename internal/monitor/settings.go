// Package monitor implements the polling scheduler, reading normalization,
// and alert evaluation.
package monitor

import (
	"time"

	"github.com/iD01t/CryptoPulse/internal/models"
)

// Settings is an immutable snapshot of the monitor's runtime parameters.
// Changes are applied by constructing a new snapshot and swapping it; the
// running loop picks it up at the next cycle boundary.
type Settings struct {
	AssetID              string
	VsCurrency           string
	Primary              models.Provider
	Interval             time.Duration
	Rules                models.AlertRules
	NotificationsEnabled bool
	AlertHistory         int // alert ring capacity, applied at construction
}

// minInterval is the enforced polling floor.
const minInterval = 10 * time.Second

// DefaultSettings returns the stock configuration: bitcoin in USD from
// CoinGecko every minute, drop alerts at 2%.
func DefaultSettings() Settings {
	return Settings{
		AssetID:              "bitcoin",
		VsCurrency:           "usd",
		Primary:              models.ProviderCoinGecko,
		Interval:             60 * time.Second,
		Rules:                models.DefaultAlertRules(),
		NotificationsEnabled: true,
		AlertHistory:         DefaultRingCapacity,
	}
}

// normalized returns a copy with out-of-range values clamped.
func (s Settings) normalized() Settings {
	if s.Interval < minInterval {
		s.Interval = minInterval
	}
	if s.AssetID == "" {
		s.AssetID = "bitcoin"
	}
	if s.VsCurrency == "" {
		s.VsCurrency = "usd"
	}
	if s.AlertHistory <= 0 {
		s.AlertHistory = DefaultRingCapacity
	}
	return s
}
