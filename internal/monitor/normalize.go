package monitor

import "github.com/iD01t/CryptoPulse/internal/models"

// normalize backfills a fresh reading's optional fields from the previous
// one when the serving provider does not report them. Only values some
// provider actually supplied are carried forward; nothing is fabricated,
// so a field nobody reported stays nil.
func normalize(cur models.Reading, prev *models.Reading) models.Reading {
	if prev == nil {
		return cur
	}
	if !cur.HasVolume() && prev.HasVolume() {
		cur.Volume = prev.Volume
	}
	if !cur.HasMarketCap() && prev.HasMarketCap() {
		cur.MarketCap = prev.MarketCap
	}
	return cur
}
