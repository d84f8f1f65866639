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

// cryptoCompareSymbols maps logical asset ids to CryptoCompare tickers.
var cryptoCompareSymbols = map[string]string{
	"bitcoin":   "BTC",
	"ethereum":  "ETH",
	"cardano":   "ADA",
	"solana":    "SOL",
	"litecoin":  "LTC",
	"ripple":    "XRP",
	"polkadot":  "DOT",
	"chainlink": "LINK",
}

// CryptoCompareAdapter fetches prices from the CryptoCompare pricemultifull API.
type CryptoCompareAdapter struct {
	client  *client
	baseURL string
	path    string
	timeout time.Duration
	now     func() time.Time
}

// NewCryptoCompareAdapter returns an adapter using the default public endpoint.
func NewCryptoCompareAdapter() *CryptoCompareAdapter {
	ep := models.Endpoints[models.ProviderCryptoCompare]
	return &CryptoCompareAdapter{
		client:  newClient(ep.Timeout),
		baseURL: ep.BaseURL,
		path:    ep.Path,
		timeout: ep.Timeout,
		now:     time.Now,
	}
}

func (a *CryptoCompareAdapter) Provider() models.Provider { return models.ProviderCryptoCompare }

func (a *CryptoCompareAdapter) Supports(assetID string) bool {
	_, ok := cryptoCompareSymbols[assetID]
	return ok
}

// ccEnvelope is the pricemultifull response. CryptoCompare reports errors
// as a 200 with a Response=Error body.
type ccEnvelope struct {
	Response string                         `json:"Response"`
	Message  string                         `json:"Message"`
	Raw      map[string]map[string]ccTicker `json:"RAW"`
}

type ccTicker struct {
	Price        float64 `json:"PRICE"`
	Change24h    float64 `json:"CHANGE24HOUR"`
	ChangePct24h float64 `json:"CHANGEPCT24HOUR"`
	Volume24hTo  float64 `json:"VOLUME24HOURTO"`
	MarketCap    float64 `json:"MKTCAP"`
}

func (a *CryptoCompareAdapter) Fetch(ctx context.Context, assetID, vsCurrency string) (models.Reading, error) {
	symbol, ok := cryptoCompareSymbols[assetID]
	if !ok {
		return models.Reading{}, &apperrors.UnsupportedAssetError{
			Provider: string(models.ProviderCryptoCompare), AssetID: assetID,
		}
	}

	cur := strings.ToUpper(vsCurrency)
	q := url.Values{}
	q.Set("fsyms", symbol)
	q.Set("tsyms", cur)
	u := a.baseURL + a.path + "?" + q.Encode()

	body, err := a.client.getJSON(ctx, models.ProviderCryptoCompare, u, a.timeout)
	if err != nil {
		return models.Reading{}, err
	}

	var env ccEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.Reading{}, &apperrors.PayloadError{
			Provider: string(models.ProviderCryptoCompare), Reason: "decoding pricemultifull", Err: err,
		}
	}
	if env.Response == "Error" {
		return models.Reading{}, &apperrors.PayloadError{
			Provider: string(models.ProviderCryptoCompare), Reason: "api error: " + env.Message,
		}
	}

	ticker, ok := env.Raw[symbol][cur]
	if !ok {
		return models.Reading{}, &apperrors.PayloadError{
			Provider: string(models.ProviderCryptoCompare), Reason: "payload missing " + symbol + "/" + cur,
		}
	}

	return models.Reading{
		Symbol:    symbol,
		Price:     ticker.Price,
		ChangeAbs: ticker.Change24h,
		ChangePct: ticker.ChangePct24h,
		Timestamp: a.now(),
		Volume:    models.Float64Ptr(ticker.Volume24hTo),
		MarketCap: models.Float64Ptr(ticker.MarketCap),
	}, nil
}
