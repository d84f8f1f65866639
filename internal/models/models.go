// Package models provides domain models for the price monitor.
package models

import "time"

// Provider identifies one of the fixed upstream price feeds.
type Provider string

const (
	ProviderCoinGecko     Provider = "coingecko"
	ProviderBinance       Provider = "binance"
	ProviderCryptoCompare Provider = "cryptocompare"
)

// AllProviders is the fixed fallback order used when no primary is preferred.
var AllProviders = []Provider{ProviderCoinGecko, ProviderBinance, ProviderCryptoCompare}

// ParseProvider converts a configuration string into a Provider.
// Unknown values fall back to CoinGecko, matching the default primary.
func ParseProvider(s string) Provider {
	switch Provider(s) {
	case ProviderBinance:
		return ProviderBinance
	case ProviderCryptoCompare:
		return ProviderCryptoCompare
	default:
		return ProviderCoinGecko
	}
}

// Endpoint holds the static connection parameters for one provider.
// This is external configuration, not mutable state.
type Endpoint struct {
	BaseURL string
	Path    string
	Timeout time.Duration
}

// Endpoints maps each provider to its API endpoint configuration.
var Endpoints = map[Provider]Endpoint{
	ProviderBinance: {
		BaseURL: "https://api.binance.com/api/v3",
		Path:    "/ticker/24hr",
		Timeout: 10 * time.Second,
	},
	ProviderCoinGecko: {
		BaseURL: "https://api.coingecko.com/api/v3",
		Path:    "/simple/price",
		Timeout: 15 * time.Second,
	},
	ProviderCryptoCompare: {
		BaseURL: "https://min-api.cryptocompare.com/data",
		Path:    "/pricemultifull",
		Timeout: 15 * time.Second,
	},
}

// Severity classifies a status update for the consuming UI layer.
type Severity string

const (
	SeverityConnecting Severity = "connecting"
	SeverityFetching   Severity = "fetching"
	SeverityConnected  Severity = "connected"
	SeverityDegraded   Severity = "degraded"
	SeverityFailed     Severity = "failed"
	SeverityPaused     Severity = "paused"
)

// Status is a per-cycle connection status update.
type Status struct {
	Text     string
	Severity Severity
	Provider Provider // provider that served the cycle, empty if none
	At       time.Time
}
