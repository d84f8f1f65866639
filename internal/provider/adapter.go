// Package provider implements the market data vendor adapters, the
// rotation registry, and the read cache.
package provider

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
	"github.com/iD01t/CryptoPulse/internal/models"
)

// Adapter fetches one reading from a single vendor. Adapters classify
// failures and return immediately; retry and rotation policy live in the
// Registry, never here.
type Adapter interface {
	// Provider returns the vendor identity.
	Provider() models.Provider
	// Supports reports whether the vendor can serve the given asset id.
	Supports(assetID string) bool
	// Fetch retrieves the current reading for an asset quoted in vsCurrency.
	Fetch(ctx context.Context, assetID, vsCurrency string) (models.Reading, error)
}

// userAgents is rotated per request so a single stuck vendor-side cache
// entry does not wedge every poll.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
}

// maxResponseBytes caps vendor payload reads.
const maxResponseBytes = 1 << 20

// httpDoer is the subset of http.Client the adapters need.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// client wraps an HTTP client with the request conventions shared by all
// vendor adapters.
type client struct {
	http httpDoer
	rand *rand.Rand
}

func newClient(timeout time.Duration) *client {
	return &client{
		http: &http.Client{Timeout: timeout},
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// getJSON performs a GET against url for the given provider and returns the
// raw body. HTTP failures are classified into the shared error taxonomy.
func (c *client) getJSON(ctx context.Context, p models.Provider, url string, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", p, err)
	}
	req.Header.Set("User-Agent", userAgents[c.rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s: %w", p, apperrors.ErrTimeout)
		}
		return nil, fmt.Errorf("%s: %w: %v", p, apperrors.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.NewRateLimitError(string(p), parseRetryAfter(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewStatusError(string(p), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.NewPayloadError(string(p), "reading body", err)
	}
	return body, nil
}

// parseRetryAfter interprets a Retry-After header in seconds, falling back
// to 60s when it is absent or unparseable.
func parseRetryAfter(h string) time.Duration {
	const fallback = 60 * time.Second
	if h == "" {
		return fallback
	}
	secs, err := strconv.Atoi(h)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
