package provider

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/iD01t/CryptoPulse/internal/logging"
	"github.com/iD01t/CryptoPulse/internal/models"
	"github.com/iD01t/CryptoPulse/pkg/utils"
)

// DefaultFailureThreshold is the number of consecutive failures that
// triggers an automatic blacklist.
const DefaultFailureThreshold = 3

// providerState tracks one provider's rotation health.
type providerState struct {
	failures         int
	backoffAttempts  uint
	blacklistedUntil time.Time
	rateLimited      bool // blacklist came from an explicit vendor signal
	totalFailures    uint64
	totalSuccesses   uint64
}

// ProviderSnapshot is a read-only view of one provider's state for display.
type ProviderSnapshot struct {
	Provider         models.Provider
	Failures         int
	Blacklisted      bool
	BlacklistedUntil time.Time
	TotalFailures    uint64
	TotalSuccesses   uint64
}

// Registry owns retry and rotation policy for all providers. Adapters
// report outcomes here and stay pure; the registry decides who is eligible
// and in what order.
type Registry struct {
	mu        sync.RWMutex
	adapters  map[models.Provider]Adapter
	states    map[models.Provider]*providerState
	primary   models.Provider
	threshold int
	backoff   utils.BackoffConfig
	now       func() time.Time
	log       zerolog.Logger
}

// NewRegistry builds a registry over the given adapters with primary
// ordered first in rotation.
func NewRegistry(adapters []Adapter, primary models.Provider, log zerolog.Logger) *Registry {
	r := &Registry{
		adapters:  make(map[models.Provider]Adapter, len(adapters)),
		states:    make(map[models.Provider]*providerState, len(adapters)),
		primary:   primary,
		threshold: DefaultFailureThreshold,
		backoff:   utils.DefaultBackoffConfig(),
		now:       time.Now,
		log:       log,
	}
	for _, a := range adapters {
		r.adapters[a.Provider()] = a
		r.states[a.Provider()] = &providerState{}
	}
	return r
}

// SetClock replaces the registry's time source. Intended for tests.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// SetPrimary changes the preferred first provider in rotation.
func (r *Registry) SetPrimary(p models.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[p]; ok {
		r.primary = p
	}
}

// Ordered returns the adapters eligible this cycle: the primary first if
// not blacklisted, then the remaining providers in fixed order. Expired
// blacklist entries are evicted lazily here.
func (r *Registry) Ordered() []Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()

	order := append([]models.Provider{r.primary}, lo.Filter(models.AllProviders, func(p models.Provider, _ int) bool {
		return p != r.primary
	})...)

	eligible := lo.FilterMap(order, func(p models.Provider, _ int) (Adapter, bool) {
		a, ok := r.adapters[p]
		if !ok {
			return nil, false
		}
		if r.blacklistedLocked(p) {
			return nil, false
		}
		return a, true
	})
	return eligible
}

// ReportFailure counts one failed attempt against p. Crossing the failure
// threshold blacklists p for an exponentially growing duration.
func (r *Registry) ReportFailure(p models.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[p]
	if !ok {
		return
	}
	st.failures++
	st.totalFailures++
	if st.failures < r.threshold {
		return
	}

	d := r.backoff.Delay(st.backoffAttempts)
	st.backoffAttempts++
	st.failures = 0
	st.blacklistedUntil = r.now().Add(d)
	st.rateLimited = false
	log := logging.WithProvider(r.log, string(p))
	log.Warn().
		Dur("duration", d).
		Msg("provider blacklisted after repeated failures")
}

// ReportSuccess resets p's failure counter and backoff tracking. An active
// rate-limit blacklist is honored until its expiry regardless.
func (r *Registry) ReportSuccess(p models.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[p]
	if !ok {
		return
	}
	st.failures = 0
	st.backoffAttempts = 0
	st.totalSuccesses++
	if !st.rateLimited {
		st.blacklistedUntil = time.Time{}
	}
}

// Blacklist excludes p from rotation for the given duration. Used for
// explicit vendor rate-limit signals, which override the counter schedule.
func (r *Registry) Blacklist(p models.Provider, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[p]
	if !ok {
		return
	}
	st.blacklistedUntil = r.now().Add(d)
	st.rateLimited = true
	log := logging.WithProvider(r.log, string(p))
	log.Warn().
		Dur("retry_after", d).
		Msg("provider rate limited, blacklisting")
}

// IsBlacklisted reports whether p is currently excluded from rotation.
func (r *Registry) IsBlacklisted(p models.Provider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blacklistedLocked(p)
}

// blacklistedLocked checks and lazily evicts an expired entry. Callers hold mu.
func (r *Registry) blacklistedLocked(p models.Provider) bool {
	st, ok := r.states[p]
	if !ok {
		return false
	}
	if st.blacklistedUntil.IsZero() {
		return false
	}
	if r.now().Before(st.blacklistedUntil) {
		return true
	}
	st.blacklistedUntil = time.Time{}
	st.rateLimited = false
	return false
}

// Snapshot returns a consistent view of every provider's state.
func (r *Registry) Snapshot() []ProviderSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.FilterMap(models.AllProviders, func(p models.Provider, _ int) (ProviderSnapshot, bool) {
		st, ok := r.states[p]
		if !ok {
			return ProviderSnapshot{}, false
		}
		blacklisted := r.blacklistedLocked(p)
		return ProviderSnapshot{
			Provider:         p,
			Failures:         st.failures,
			Blacklisted:      blacklisted,
			BlacklistedUntil: st.blacklistedUntil,
			TotalFailures:    st.totalFailures,
			TotalSuccesses:   st.totalSuccesses,
		}, true
	})
}
