package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
)

func TestBinanceParsesFullTickerPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ticker/24hr", r.URL.Path)
		require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{
			"symbol": "BTCUSDT",
			"lastPrice": "50000.00",
			"priceChange": "-1200.50",
			"priceChangePercent": "-2.34",
			"quoteVolume": "1234567890.12"
		}`))
	}))
	defer srv.Close()

	a := NewBinanceAdapter()
	a.baseURL = srv.URL

	reading, err := a.Fetch(context.Background(), "bitcoin", "usd")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", reading.Symbol)
	assert.Equal(t, 50000.0, reading.Price)
	assert.Equal(t, -1200.5, reading.ChangeAbs)
	assert.Equal(t, -2.34, reading.ChangePct)
	require.True(t, reading.HasVolume())
	assert.InDelta(t, 1234567890.12, *reading.Volume, 0.01)
	assert.False(t, reading.HasMarketCap())
}

func TestBinanceFallsBackToPriceEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ticker/24hr":
			w.WriteHeader(http.StatusInternalServerError)
		case "/ticker/price":
			w.Write([]byte(`{"symbol": "BTCUSDT", "price": "49876.54"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	a := NewBinanceAdapter()
	a.baseURL = srv.URL

	reading, err := a.Fetch(context.Background(), "bitcoin", "usd")
	require.NoError(t, err)
	assert.Equal(t, 49876.54, reading.Price)
	assert.Zero(t, reading.ChangePct)
	assert.False(t, reading.HasVolume())
}

func TestBinanceParsesWeightedAvgFallbackField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol": "BTCUSDT", "weightedAvgPrice": "50100.10"}`))
	}))
	defer srv.Close()

	a := NewBinanceAdapter()
	a.baseURL = srv.URL

	reading, err := a.Fetch(context.Background(), "bitcoin", "usd")
	require.NoError(t, err)
	assert.Equal(t, 50100.10, reading.Price)
}

func TestBinanceRateLimitReturnsRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewBinanceAdapter()
	a.baseURL = srv.URL

	_, err := a.Fetch(context.Background(), "bitcoin", "usd")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrRateLimited))

	var rl *apperrors.RateLimitError
	require.True(t, apperrors.As(err, &rl))
	assert.Equal(t, 42*time.Second, rl.RetryAfter)
}

func TestBinanceRejectsUnknownAsset(t *testing.T) {
	a := NewBinanceAdapter()
	_, err := a.Fetch(context.Background(), "dogwifhat", "usd")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnsupportedAsset))
	assert.False(t, a.Supports("dogwifhat"))
	assert.True(t, a.Supports("bitcoin"))
}

func TestBinancePayloadWithoutPriceFieldsIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol": "BTCUSDT", "openPrice": "123"}`))
	}))
	defer srv.Close()

	a := NewBinanceAdapter()
	a.baseURL = srv.URL

	_, err := a.Fetch(context.Background(), "bitcoin", "usd")
	assert.True(t, apperrors.Is(err, apperrors.ErrMalformedPayload))
}

func TestCoinGeckoParsesSimplePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/simple/price", r.URL.Path)
		require.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		w.Write([]byte(`{
			"bitcoin": {
				"usd": 50000.0,
				"usd_24h_change": -2.5,
				"usd_24h_vol": 30000000000.0,
				"usd_market_cap": 980000000000.0
			}
		}`))
	}))
	defer srv.Close()

	a := NewCoinGeckoAdapter()
	a.baseURL = srv.URL

	reading, err := a.Fetch(context.Background(), "bitcoin", "usd")
	require.NoError(t, err)
	assert.Equal(t, "BITCOIN", reading.Symbol)
	assert.Equal(t, 50000.0, reading.Price)
	assert.Equal(t, -2.5, reading.ChangePct)
	assert.InDelta(t, 50000.0*-0.025, reading.ChangeAbs, 0.001)
	require.True(t, reading.HasVolume())
	require.True(t, reading.HasMarketCap())
}

func TestCoinGeckoEmptyPayloadMeansUnsupported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := NewCoinGeckoAdapter()
	a.baseURL = srv.URL

	_, err := a.Fetch(context.Background(), "not-a-coin", "usd")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnsupportedAsset))
}

func TestCoinGeckoBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewCoinGeckoAdapter()
	a.baseURL = srv.URL

	_, err := a.Fetch(context.Background(), "bitcoin", "usd")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrBadStatus))

	var se *apperrors.StatusError
	require.True(t, apperrors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

func TestCryptoCompareParsesRawPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pricemultifull", r.URL.Path)
		require.Equal(t, "BTC", r.URL.Query().Get("fsyms"))
		require.Equal(t, "USD", r.URL.Query().Get("tsyms"))
		w.Write([]byte(`{
			"RAW": {
				"BTC": {
					"USD": {
						"PRICE": 50123.45,
						"CHANGE24HOUR": -987.65,
						"CHANGEPCT24HOUR": -1.93,
						"VOLUME24HOURTO": 25000000000.0,
						"MKTCAP": 990000000000.0
					}
				}
			}
		}`))
	}))
	defer srv.Close()

	a := NewCryptoCompareAdapter()
	a.baseURL = srv.URL

	reading, err := a.Fetch(context.Background(), "bitcoin", "usd")
	require.NoError(t, err)
	assert.Equal(t, "BTC", reading.Symbol)
	assert.Equal(t, 50123.45, reading.Price)
	assert.Equal(t, -1.93, reading.ChangePct)
	require.True(t, reading.HasVolume())
	require.True(t, reading.HasMarketCap())
}

func TestCryptoCompareEmbeddedErrorIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Response": "Error", "Message": "rate limit exceeded"}`))
	}))
	defer srv.Close()

	a := NewCryptoCompareAdapter()
	a.baseURL = srv.URL

	_, err := a.Fetch(context.Background(), "bitcoin", "usd")
	assert.True(t, apperrors.Is(err, apperrors.ErrMalformedPayload))
}

func TestCryptoCompareUnknownAssetIsUnsupported(t *testing.T) {
	a := NewCryptoCompareAdapter()
	_, err := a.Fetch(context.Background(), "binancecoin", "usd")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnsupportedAsset))
}

func TestRetryAfterFallsBackToDefault(t *testing.T) {
	assert.Equal(t, 60*time.Second, parseRetryAfter(""))
	assert.Equal(t, 60*time.Second, parseRetryAfter("soon"))
	assert.Equal(t, 60*time.Second, parseRetryAfter("-5"))
	assert.Equal(t, 42*time.Second, parseRetryAfter("42"))
}
