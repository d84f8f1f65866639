package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
	"github.com/iD01t/CryptoPulse/internal/models"
	"github.com/iD01t/CryptoPulse/internal/provider"
	"github.com/iD01t/CryptoPulse/pkg/utils"
)

const (
	// maxConsecutiveFailures is the whole-cycle failure ceiling before the
	// loop enters extended backoff.
	maxConsecutiveFailures = 5
	// pausedInterval is the relaxed cadence while paused.
	pausedInterval = 2 * time.Second
	// sleepSlice bounds every sleep so cancellation stays prompt.
	sleepSlice = time.Second
	// staleFactor is how many intervals without a success count as stale.
	staleFactor = 3
)

// Observers receives the monitor's event streams. The monitor holds no
// reference to any consumer; each callback is posted on its own goroutine
// so a slow consumer cannot stall the polling loop.
type Observers struct {
	OnStatus  func(models.Status)
	OnReading func(models.Reading)
	OnAlert   func(models.AlertEvent)
}

// Monitor runs the polling loop: rotate providers, validate and normalize
// readings, evaluate alerts, and surface status to the observers.
type Monitor struct {
	registry *provider.Registry
	cache    *provider.ReadCache
	obs      Observers
	log      zerolog.Logger
	now      func() time.Time

	mu          sync.Mutex
	settings    Settings
	paused      bool
	lastReading *models.Reading
	lastSuccess time.Time

	consecutiveFailures int
	backoffExcess       uint

	ring      *alertRing
	refreshCh chan struct{}
}

// New builds a monitor over the given registry and cache.
func New(registry *provider.Registry, cache *provider.ReadCache, settings Settings, obs Observers, log zerolog.Logger) *Monitor {
	s := settings.normalized()
	return &Monitor{
		registry:  registry,
		cache:     cache,
		obs:       obs,
		log:       log,
		now:       time.Now,
		settings:  s,
		ring:      newAlertRing(s.AlertHistory),
		refreshCh: make(chan struct{}, 1),
	}
}

// SetClock replaces the monitor's time source. Intended for tests.
func (m *Monitor) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Settings returns the current settings snapshot.
func (m *Monitor) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// UpdateSettings swaps in a new settings snapshot. The running loop picks
// it up at the next cycle boundary.
func (m *Monitor) UpdateSettings(s Settings) {
	s = s.normalized()
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
	m.registry.SetPrimary(s.Primary)
}

// Pause stops fetch attempts without stopping the loop.
func (m *Monitor) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

// Resume restarts fetch attempts after a Pause.
func (m *Monitor) Resume() {
	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
	m.RefreshNow()
}

// Paused reports whether the monitor is paused.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// RefreshNow asks the loop to cut its current sleep short and poll.
func (m *Monitor) RefreshNow() {
	select {
	case m.refreshCh <- struct{}{}:
	default:
	}
}

// RecentAlerts returns up to n alerts, newest first.
func (m *Monitor) RecentAlerts(n int) []models.AlertEvent {
	return m.ring.recent(n)
}

// LastReading returns the most recent successful reading, if any.
func (m *Monitor) LastReading() (models.Reading, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastReading == nil {
		return models.Reading{}, false
	}
	return *m.lastReading, true
}

// Run drives the polling loop until ctx is cancelled. Adapter faults never
// escape a cycle; sustained failure degrades to backoff, not termination.
func (m *Monitor) Run(ctx context.Context) {
	m.emitStatus("connecting", models.SeverityConnecting, "")
	m.log.Info().Msg("monitor loop starting")

	for {
		if ctx.Err() != nil {
			m.log.Info().Msg("monitor loop stopped")
			return
		}

		if m.Paused() {
			m.emitStatus("monitoring paused", models.SeverityPaused, "")
			m.sleep(ctx, pausedInterval)
			continue
		}

		m.cycle(ctx)

		if m.inExtendedBackoff() {
			d := m.extendedBackoffDelay()
			m.emitStatus(fmt.Sprintf("extended backoff: %ds", int(d.Seconds())), models.SeverityFailed, "")
			m.log.Warn().Dur("backoff", d).Msg("entering extended backoff after repeated cycle failures")
			m.sleepNoRefresh(ctx, d)
			m.resetFailures()
			continue
		}

		m.sleep(ctx, m.Settings().Interval)
	}
}

// cycle runs one poll: cache first, then the provider rotation.
func (m *Monitor) cycle(ctx context.Context) {
	settings := m.Settings()

	if cached, ok := m.cache.Get(); ok {
		m.log.Debug().Msg("serving cached reading")
		m.cycleSuccess(cached, "connected (cached)", "")
		return
	}

	adapters := m.registry.Ordered()
	if len(adapters) == 0 {
		m.emitStatus("all providers rate limited", models.SeverityFailed, "")
		m.log.Warn().Err(apperrors.ErrNoProvidersAvailable).Msg("skipping cycle")
		return
	}

	for _, a := range adapters {
		if ctx.Err() != nil {
			return
		}
		p := a.Provider()
		m.emitStatus(fmt.Sprintf("fetching from %s", p), models.SeverityFetching, p)

		reading, err := a.Fetch(ctx, settings.AssetID, settings.VsCurrency)
		if err != nil {
			m.handleFetchError(p, err)
			continue
		}

		if verr := reading.Validate(m.clock()()); verr != nil {
			m.log.Warn().Err(verr).Str("provider", string(p)).Msg("reading rejected by validation")
			m.registry.ReportFailure(p)
			continue
		}

		if prev, ok := m.cache.Peek(); ok {
			reading = normalize(reading, &prev)
		}
		m.registry.ReportSuccess(p)
		m.cache.Put(reading)
		m.cycleSuccess(reading, "connected", p)
		return
	}

	m.cycleFailure(settings)
}

// cycleSuccess records a successful cycle and fans out the reading and any
// alerts it triggers.
func (m *Monitor) cycleSuccess(reading models.Reading, statusText string, p models.Provider) {
	m.mu.Lock()
	prev := m.lastReading
	rules := m.settings.Rules
	now := m.now()
	m.lastSuccess = now
	m.consecutiveFailures = 0
	m.backoffExcess = 0
	r := reading
	m.lastReading = &r
	m.mu.Unlock()

	events := Evaluate(prev, reading, rules, now)
	for _, e := range events {
		m.ring.add(e)
		m.log.Info().Str("kind", string(e.Kind)).Str("message", e.Message).Msg("alert triggered")
		if m.obs.OnAlert != nil {
			go m.obs.OnAlert(e)
		}
	}

	if m.obs.OnReading != nil {
		go m.obs.OnReading(reading)
	}
	m.emitStatus(statusText, models.SeverityConnected, p)
}

// cycleFailure counts a whole-cycle failure and surfaces the retry state.
func (m *Monitor) cycleFailure(settings Settings) {
	m.mu.Lock()
	m.consecutiveFailures++
	n := m.consecutiveFailures
	lastSuccess := m.lastSuccess
	now := m.now()
	m.mu.Unlock()

	m.log.Error().Err(apperrors.ErrAllProvidersExhausted).Int("failures", n).Msg("cycle failed")

	if !lastSuccess.IsZero() && now.Sub(lastSuccess) > staleFactor*settings.Interval {
		m.emitStatus("stale data: no fresh reading", models.SeverityDegraded, "")
	}
	if n < maxConsecutiveFailures {
		m.emitStatus(fmt.Sprintf("retry %d/%d", n, maxConsecutiveFailures), models.SeverityDegraded, "")
	}
}

// handleFetchError classifies one adapter failure and reports it to the
// registry. Unsupported assets skip blacklist accounting entirely.
func (m *Monitor) handleFetchError(p models.Provider, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrRateLimited):
		var rl *apperrors.RateLimitError
		retryAfter := 60 * time.Second
		if apperrors.As(err, &rl) {
			retryAfter = rl.RetryAfter
		}
		m.registry.Blacklist(p, retryAfter)
	case apperrors.Is(err, apperrors.ErrUnsupportedAsset):
		m.log.Debug().Str("provider", string(p)).Msg("asset not supported, skipping provider")
		m.emitStatus(fmt.Sprintf("%s: asset unsupported", p), models.SeverityDegraded, p)
	default:
		m.log.Warn().Err(err).Str("provider", string(p)).Msg("provider fetch failed")
		m.registry.ReportFailure(p)
	}
}

func (m *Monitor) inExtendedBackoff() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consecutiveFailures >= maxConsecutiveFailures
}

// extendedBackoffDelay grows with each consecutive trip past the ceiling
// until the backoff cap clamps it.
func (m *Monitor) extendedBackoffDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := utils.DefaultBackoffConfig().Delay(m.backoffExcess)
	m.backoffExcess++
	return d
}

func (m *Monitor) resetFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consecutiveFailures = 0
}

// sleep waits for d, waking early on cancellation or a manual refresh.
func (m *Monitor) sleep(ctx context.Context, d time.Duration) {
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	select {
	case <-ctx.Done():
	case <-m.refreshCh:
	case <-deadline.C:
	}
}

// sleepNoRefresh waits for d in bounded slices, ignoring manual refresh so
// extended backoff cannot be defeated, but staying prompt on cancellation.
func (m *Monitor) sleepNoRefresh(ctx context.Context, d time.Duration) {
	utils.SleepUntil(d, sleepSlice, func() bool { return ctx.Err() != nil })
}

func (m *Monitor) clock() func() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Monitor) emitStatus(text string, sev models.Severity, p models.Provider) {
	if m.obs.OnStatus == nil {
		return
	}
	go m.obs.OnStatus(models.Status{
		Text:     text,
		Severity: sev,
		Provider: p,
		At:       m.clock()(),
	})
}
