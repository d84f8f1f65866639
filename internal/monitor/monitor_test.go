package monitor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
	"github.com/iD01t/CryptoPulse/internal/models"
	"github.com/iD01t/CryptoPulse/internal/provider"
)

// scriptedAdapter returns canned results per Fetch call, in order. The
// last result repeats once the script runs out.
type scriptedAdapter struct {
	provider models.Provider
	mu       sync.Mutex
	script   []fetchResult
	calls    int
}

type fetchResult struct {
	reading models.Reading
	err     error
}

func (s *scriptedAdapter) Provider() models.Provider { return s.provider }
func (s *scriptedAdapter) Supports(string) bool      { return true }

func (s *scriptedAdapter) Fetch(context.Context, string, string) (models.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	r := s.script[i]
	return r.reading, r.err
}

func (s *scriptedAdapter) fetchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recorder collects observer callbacks. Callbacks arrive on their own
// goroutines, so tests wait for counts instead of asserting immediately.
type recorder struct {
	mu       sync.Mutex
	statuses []models.Status
	readings []models.Reading
	alerts   []models.AlertEvent
}

func (r *recorder) observers() Observers {
	return Observers{
		OnStatus: func(s models.Status) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.statuses = append(r.statuses, s)
		},
		OnReading: func(rd models.Reading) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.readings = append(r.readings, rd)
		},
		OnAlert: func(e models.AlertEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.alerts = append(r.alerts, e)
		},
	}
}

func (r *recorder) readingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.readings)
}

func (r *recorder) alertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func (r *recorder) allReadings() []models.Reading {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Reading, len(r.readings))
	copy(out, r.readings)
	return out
}

func (r *recorder) allAlerts() []models.AlertEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AlertEvent, len(r.alerts))
	copy(out, r.alerts)
	return out
}

func (r *recorder) hasStatus(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.statuses {
		if s.Text == text {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

func validReading(price float64) models.Reading {
	return models.Reading{Symbol: "BTC", Price: price, Timestamp: time.Now()}
}

func newTestMonitor(t *testing.T, adapters []provider.Adapter) (*Monitor, *recorder) {
	t.Helper()
	rec := &recorder{}
	registry := provider.NewRegistry(adapters, models.ProviderCoinGecko, zerolog.Nop())
	cache := provider.NewReadCache(30 * time.Second)
	m := New(registry, cache, DefaultSettings(), rec.observers(), zerolog.Nop())
	return m, rec
}

func TestCycleSuccessEmitsReadingAndStatus(t *testing.T) {
	a := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script:   []fetchResult{{reading: validReading(50000)}},
	}
	m, rec := newTestMonitor(t, []provider.Adapter{a})

	m.cycle(context.Background())

	waitFor(t, func() bool { return rec.readingCount() == 1 }, "reading not delivered")
	assert.Equal(t, 50000.0, rec.allReadings()[0].Price)
	waitFor(t, func() bool { return rec.hasStatus("connected") }, "status not delivered")

	got, ok := m.LastReading()
	require.True(t, ok)
	assert.Equal(t, 50000.0, got.Price)
}

func TestCycleServesCacheWithoutFetching(t *testing.T) {
	a := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script:   []fetchResult{{reading: validReading(50000)}},
	}
	m, rec := newTestMonitor(t, []provider.Adapter{a})

	m.cycle(context.Background())
	require.Equal(t, 1, a.fetchCalls())

	m.cycle(context.Background())
	assert.Equal(t, 1, a.fetchCalls(), "second cycle must be served from cache")
	waitFor(t, func() bool { return rec.readingCount() == 2 }, "cached reading not delivered")
	waitFor(t, func() bool { return rec.hasStatus("connected (cached)") }, "cached status not delivered")
}

func TestCycleFallsThroughToNextProvider(t *testing.T) {
	failing := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script:   []fetchResult{{err: apperrors.NewStatusError("coingecko", 502)}},
	}
	working := &scriptedAdapter{
		provider: models.ProviderBinance,
		script:   []fetchResult{{reading: validReading(49000)}},
	}
	m, rec := newTestMonitor(t, []provider.Adapter{failing, working})

	m.cycle(context.Background())

	waitFor(t, func() bool { return rec.readingCount() == 1 }, "reading not delivered")
	assert.Equal(t, 49000.0, rec.allReadings()[0].Price)
	assert.Equal(t, 1, failing.fetchCalls())
	assert.Equal(t, 1, working.fetchCalls())
}

func TestCycleRateLimitBlacklistsProvider(t *testing.T) {
	limited := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script: []fetchResult{
			{err: apperrors.NewRateLimitError("coingecko", 42*time.Second)},
		},
	}
	working := &scriptedAdapter{
		provider: models.ProviderBinance,
		script:   []fetchResult{{reading: validReading(49000)}},
	}
	m, _ := newTestMonitor(t, []provider.Adapter{limited, working})

	m.cycle(context.Background())

	assert.True(t, m.registry.IsBlacklisted(models.ProviderCoinGecko))
	assert.False(t, m.registry.IsBlacklisted(models.ProviderBinance))
}

func TestCycleUnsupportedAssetSkipsBlacklistAccounting(t *testing.T) {
	unsupported := &scriptedAdapter{
		provider: models.ProviderCryptoCompare,
		script: []fetchResult{
			{err: &apperrors.UnsupportedAssetError{Provider: "cryptocompare", AssetID: "obscurecoin"}},
		},
	}
	m, _ := newTestMonitor(t, []provider.Adapter{unsupported})

	// Repeated unsupported responses never accumulate failures.
	for i := 0; i < 5; i++ {
		m.cycle(context.Background())
	}

	for _, snap := range m.registry.Snapshot() {
		if snap.Provider == models.ProviderCryptoCompare {
			assert.Zero(t, snap.TotalFailures)
			assert.False(t, snap.Blacklisted)
		}
	}
}

func TestCycleRejectsInvalidReading(t *testing.T) {
	bad := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script:   []fetchResult{{reading: models.Reading{Symbol: "BTC", Price: -1, Timestamp: time.Now()}}},
	}
	m, rec := newTestMonitor(t, []provider.Adapter{bad})

	m.cycle(context.Background())

	waitFor(t, func() bool { return rec.hasStatus("retry 1/5") }, "failure status not delivered")
	assert.Zero(t, rec.readingCount())
	_, ok := m.cache.Get()
	assert.False(t, ok, "rejected readings must not be cached")
}

func TestConsecutiveFailuresReachExtendedBackoff(t *testing.T) {
	failing := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script:   []fetchResult{{err: apperrors.NewStatusError("coingecko", 500)}},
	}
	m, rec := newTestMonitor(t, []provider.Adapter{failing})

	for i := 0; i < maxConsecutiveFailures; i++ {
		m.cycle(context.Background())
	}

	assert.True(t, m.inExtendedBackoff())
	waitFor(t, func() bool { return rec.hasStatus("retry 1/5") }, "first retry status not delivered")
	waitFor(t, func() bool { return rec.hasStatus("retry 4/5") }, "fourth retry status not delivered")

	// Backoff delay starts at the 30s base and grows.
	first := m.extendedBackoffDelay()
	second := m.extendedBackoffDelay()
	assert.Equal(t, 30*time.Second, first)
	assert.Equal(t, 60*time.Second, second)

	m.resetFailures()
	assert.False(t, m.inExtendedBackoff())
}

func TestExtendedBackoffDelayReachesCeiling(t *testing.T) {
	m, _ := newTestMonitor(t, nil)

	want := []time.Duration{
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		300 * time.Second,
		300 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, m.extendedBackoffDelay(), "delay %d", i+1)
	}
}

func TestBlockingObserverDoesNotStallCycle(t *testing.T) {
	a := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script:   []fetchResult{{reading: validReading(100)}},
	}
	registry := provider.NewRegistry([]provider.Adapter{a}, models.ProviderCoinGecko, zerolog.Nop())
	cache := provider.NewReadCache(30 * time.Second)

	block := make(chan struct{})
	obs := Observers{OnStatus: func(models.Status) { <-block }}
	m := New(registry, cache, DefaultSettings(), obs, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		m.cycle(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("cycle stalled behind a blocking status observer")
	}
	close(block)
}

func TestTickToTickAlertAcrossCycles(t *testing.T) {
	a := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script: []fetchResult{
			{reading: validReading(100)},
			{reading: validReading(97)},
		},
	}
	m, rec := newTestMonitor(t, []provider.Adapter{a})
	m.cache = provider.NewReadCache(time.Nanosecond) // force a fetch every cycle

	m.cycle(context.Background())
	waitFor(t, func() bool { return rec.readingCount() == 1 }, "first reading not delivered")
	require.Zero(t, rec.alertCount(), "first cycle never alerts")

	m.cycle(context.Background())
	waitFor(t, func() bool { return rec.alertCount() == 1 }, "alert not delivered")
	assert.Equal(t, models.AlertPriceDrop, rec.allAlerts()[0].Kind)
	assert.Len(t, m.RecentAlerts(10), 1)
}

func TestAlertHistoryCapacityHonored(t *testing.T) {
	a := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script: []fetchResult{
			{reading: validReading(100)},
			{reading: validReading(97)},
			{reading: validReading(94)},
			{reading: validReading(91)},
		},
	}
	registry := provider.NewRegistry([]provider.Adapter{a}, models.ProviderCoinGecko, zerolog.Nop())
	cache := provider.NewReadCache(time.Nanosecond)

	s := DefaultSettings()
	s.AlertHistory = 2
	m := New(registry, cache, s, Observers{}, zerolog.Nop())

	// Three consecutive drops past the threshold fire three alerts.
	for i := 0; i < 4; i++ {
		m.cycle(context.Background())
	}

	got := m.RecentAlerts(10)
	require.Len(t, got, 2, "ring keeps only the configured capacity")
	assert.True(t, strings.Contains(got[0].Message, "$91.00"), "newest alert kept")
	assert.True(t, strings.Contains(got[1].Message, "$94.00"))
}

func TestPausedMonitorSkipsFetching(t *testing.T) {
	a := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script:   []fetchResult{{reading: validReading(100)}},
	}
	m, rec := newTestMonitor(t, []provider.Adapter{a})
	m.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop promptly after cancellation")
	}

	assert.Zero(t, a.fetchCalls())
	waitFor(t, func() bool { return rec.hasStatus("monitoring paused") }, "paused status not delivered")
}

func TestRunStopsPromptlyOnCancel(t *testing.T) {
	a := &scriptedAdapter{
		provider: models.ProviderCoinGecko,
		script:   []fetchResult{{reading: validReading(100)}},
	}
	m, _ := newTestMonitor(t, []provider.Adapter{a})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop promptly after cancellation")
	}
}

func TestUpdateSettingsSwapsSnapshot(t *testing.T) {
	a := &scriptedAdapter{provider: models.ProviderCoinGecko, script: []fetchResult{{reading: validReading(1)}}}
	m, _ := newTestMonitor(t, []provider.Adapter{a})

	s := m.Settings()
	s.AssetID = "ethereum"
	s.Interval = time.Second // below the floor
	s.AlertHistory = -1
	m.UpdateSettings(s)

	got := m.Settings()
	assert.Equal(t, "ethereum", got.AssetID)
	assert.Equal(t, 10*time.Second, got.Interval, "interval is clamped to the floor")
	assert.Equal(t, DefaultRingCapacity, got.AlertHistory)
}
