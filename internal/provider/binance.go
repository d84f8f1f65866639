package provider

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
	"github.com/iD01t/CryptoPulse/internal/models"
)

// binanceSymbols maps logical asset ids to Binance trading pairs.
var binanceSymbols = map[string]string{
	"bitcoin":     "BTCUSDT",
	"ethereum":    "ETHUSDT",
	"binancecoin": "BNBUSDT",
	"cardano":     "ADAUSDT",
	"solana":      "SOLUSDT",
	"ripple":      "XRPUSDT",
	"polkadot":    "DOTUSDT",
	"chainlink":   "LINKUSDT",
}

// BinanceAdapter fetches spot prices from the Binance public API.
type BinanceAdapter struct {
	client  *client
	baseURL string
	paths   []string
	timeout time.Duration
	now     func() time.Time
}

// NewBinanceAdapter returns an adapter using the default public endpoint.
func NewBinanceAdapter() *BinanceAdapter {
	ep := models.Endpoints[models.ProviderBinance]
	return &BinanceAdapter{
		client:  newClient(ep.Timeout),
		baseURL: ep.BaseURL,
		paths:   []string{ep.Path, "/ticker/price"},
		timeout: ep.Timeout,
		now:     time.Now,
	}
}

func (a *BinanceAdapter) Provider() models.Provider { return models.ProviderBinance }

func (a *BinanceAdapter) Supports(assetID string) bool {
	_, ok := binanceSymbols[assetID]
	return ok
}

// Fetch tries the 24hr ticker first for the richer payload, then falls back
// to the plain price endpoint. Binance quotes everything against USDT, so
// vsCurrency is accepted for contract symmetry but not sent upstream.
func (a *BinanceAdapter) Fetch(ctx context.Context, assetID, vsCurrency string) (models.Reading, error) {
	symbol, ok := binanceSymbols[assetID]
	if !ok {
		return models.Reading{}, &apperrors.UnsupportedAssetError{
			Provider: string(models.ProviderBinance), AssetID: assetID,
		}
	}

	var lastErr error
	for _, path := range a.paths {
		u := a.baseURL + path + "?symbol=" + url.QueryEscape(symbol)
		body, err := a.client.getJSON(ctx, models.ProviderBinance, u, a.timeout)
		if err != nil {
			// Rate limits and cancellation abort immediately; a plain
			// failure still gets a shot at the fallback endpoint.
			if apperrors.Is(err, apperrors.ErrRateLimited) || ctx.Err() != nil {
				return models.Reading{}, err
			}
			lastErr = err
			continue
		}

		reading, err := a.parsePayload(symbol, body)
		if err != nil {
			lastErr = err
			continue
		}
		return reading, nil
	}
	return models.Reading{}, lastErr
}

// parsePayload handles all three payload shapes Binance serves. Price is
// looked up under an ordered list of field names; only a payload carrying
// none of them is malformed.
func (a *BinanceAdapter) parsePayload(symbol string, body []byte) (models.Reading, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.Reading{}, &apperrors.PayloadError{
			Provider: string(models.ProviderBinance), Reason: "decoding ticker", Err: err,
		}
	}

	price, field, ok := firstFloat(raw, "lastPrice", "price", "weightedAvgPrice")
	if !ok {
		return models.Reading{}, &apperrors.PayloadError{
			Provider: string(models.ProviderBinance), Reason: "payload missing price fields",
		}
	}

	reading := models.Reading{
		Symbol:    symbol,
		Price:     price,
		Timestamp: a.now(),
	}

	if field == "lastPrice" {
		pct, _, _ := firstFloat(raw, "priceChangePercent")
		abs, _, hasAbs := firstFloat(raw, "priceChange")
		if !hasAbs {
			abs = price * pct / 100
		}
		reading.ChangeAbs = abs
		reading.ChangePct = pct
		if vol, _, okv := firstFloat(raw, "quoteVolume", "volume"); okv {
			reading.Volume = models.Float64Ptr(vol)
		}
	}
	// Binance does not report market cap on any ticker endpoint.
	return reading, nil
}

// firstFloat returns the first of the named fields present in raw, parsed
// as a float. Binance serializes numbers as strings.
func firstFloat(raw map[string]json.RawMessage, fields ...string) (float64, string, bool) {
	for _, f := range fields {
		msg, ok := raw[f]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				return v, f, true
			}
			continue
		}
		var v float64
		if err := json.Unmarshal(msg, &v); err == nil {
			return v, f, true
		}
	}
	return 0, "", false
}
