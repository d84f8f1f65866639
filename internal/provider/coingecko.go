package provider

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
	"github.com/iD01t/CryptoPulse/internal/models"
)

// CoinGeckoAdapter fetches prices from the CoinGecko simple price API.
// CoinGecko addresses assets by logical id directly, so any id is accepted
// and an unknown one surfaces as an empty payload.
type CoinGeckoAdapter struct {
	client  *client
	baseURL string
	path    string
	timeout time.Duration
	now     func() time.Time
}

// NewCoinGeckoAdapter returns an adapter using the default public endpoint.
func NewCoinGeckoAdapter() *CoinGeckoAdapter {
	ep := models.Endpoints[models.ProviderCoinGecko]
	return &CoinGeckoAdapter{
		client:  newClient(ep.Timeout),
		baseURL: ep.BaseURL,
		path:    ep.Path,
		timeout: ep.Timeout,
		now:     time.Now,
	}
}

func (a *CoinGeckoAdapter) Provider() models.Provider { return models.ProviderCoinGecko }

func (a *CoinGeckoAdapter) Supports(assetID string) bool { return assetID != "" }

func (a *CoinGeckoAdapter) Fetch(ctx context.Context, assetID, vsCurrency string) (models.Reading, error) {
	q := url.Values{}
	q.Set("ids", assetID)
	q.Set("vs_currencies", vsCurrency)
	q.Set("include_24hr_change", "true")
	q.Set("include_24hr_vol", "true")
	q.Set("include_market_cap", "true")
	u := a.baseURL + a.path + "?" + q.Encode()

	body, err := a.client.getJSON(ctx, models.ProviderCoinGecko, u, a.timeout)
	if err != nil {
		return models.Reading{}, err
	}

	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return models.Reading{}, &apperrors.PayloadError{
			Provider: string(models.ProviderCoinGecko), Reason: "decoding simple price", Err: err,
		}
	}

	asset, ok := payload[assetID]
	if !ok || len(asset) == 0 {
		// CoinGecko answers an unknown id with an empty object, not an error.
		return models.Reading{}, &apperrors.UnsupportedAssetError{
			Provider: string(models.ProviderCoinGecko), AssetID: assetID,
		}
	}

	cur := strings.ToLower(vsCurrency)
	price, ok := asset[cur]
	if !ok {
		return models.Reading{}, &apperrors.PayloadError{
			Provider: string(models.ProviderCoinGecko), Reason: "payload missing price for " + cur,
		}
	}

	pct := asset[cur+"_24h_change"]
	reading := models.Reading{
		Symbol:    strings.ToUpper(assetID),
		Price:     price,
		ChangeAbs: price * (pct / 100),
		ChangePct: pct,
		Timestamp: a.now(),
	}
	if vol, ok := asset[cur+"_24h_vol"]; ok {
		reading.Volume = models.Float64Ptr(vol)
	}
	if mc, ok := asset[cur+"_market_cap"]; ok {
		reading.MarketCap = models.Float64Ptr(mc)
	}
	return reading, nil
}
