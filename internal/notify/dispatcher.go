package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/iD01t/CryptoPulse/internal/errors"
)

// DefaultMinInterval is the debounce window between deliveries.
const DefaultMinInterval = 6 * time.Second

// DefaultDuration is how long a notification is displayed where the
// backend supports timed display.
const DefaultDuration = 5 * time.Second

// Stats tracks dispatcher outcomes over the process lifetime.
type Stats struct {
	TotalAttempts uint64
	Successes     uint64
	Failures      uint64
	Debounced     uint64
	Forced        uint64
	PerBackend    map[string]uint64
}

// Option configures one Notify call.
type Option func(*callOptions)

type callOptions struct {
	force          bool
	bypassDebounce bool
	backendHint    string
	duration       time.Duration
}

// WithForce marks the notification as forced for statistics purposes.
// It does not bypass the debounce gate.
func WithForce() Option {
	return func(o *callOptions) { o.force = true }
}

// WithBypassDebounce skips the debounce check for this call.
func WithBypassDebounce() Option {
	return func(o *callOptions) { o.bypassDebounce = true }
}

// WithBackendHint asks the dispatcher to try the named backend first.
func WithBackendHint(name string) Option {
	return func(o *callOptions) { o.backendHint = name }
}

// WithDuration overrides the display duration.
func WithDuration(d time.Duration) Option {
	return func(o *callOptions) { o.duration = d }
}

// Dispatcher fans a notification out across an ordered backend chain,
// stopping at the first success. Backends that probe unavailable at
// construction never get attempts.
type Dispatcher struct {
	backends    []Backend
	minInterval time.Duration
	log         zerolog.Logger

	mu       sync.Mutex
	lastSend time.Time
	stats    Stats
	now      func() time.Time
}

// NewDispatcher builds a dispatcher over backends in priority order. The
// caller is responsible for placing an infallible backend last.
func NewDispatcher(backends []Backend, minInterval time.Duration, log zerolog.Logger) *Dispatcher {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	available := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b.Available() {
			available = append(available, b)
		} else {
			log.Debug().Str("backend", b.Name()).Msg("notification backend unavailable")
		}
	}
	return &Dispatcher{
		backends:    available,
		minInterval: minInterval,
		log:         log,
		stats:       Stats{PerBackend: make(map[string]uint64)},
		now:         time.Now,
	}
}

// SetClock replaces the dispatcher's time source. Intended for tests.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// Backends returns the names of the available backends in priority order.
func (d *Dispatcher) Backends() []string {
	names := make([]string, len(d.backends))
	for i, b := range d.backends {
		names[i] = b.Name()
	}
	return names
}

// Notify sanitizes and delivers one notification through the backend
// chain. A call landing inside the debounce window is dropped and counted,
// not queued.
func (d *Dispatcher) Notify(ctx context.Context, title, message string, opts ...Option) error {
	o := callOptions{duration: DefaultDuration}
	for _, opt := range opts {
		opt(&o)
	}

	d.mu.Lock()
	now := d.now()
	if !o.bypassDebounce && !d.lastSend.IsZero() && now.Sub(d.lastSend) < d.minInterval {
		d.stats.Debounced++
		d.mu.Unlock()
		d.log.Debug().Str("title", title).Msg("notification debounced")
		return nil
	}
	d.lastSend = now
	d.stats.TotalAttempts++
	if o.force {
		d.stats.Forced++
	}
	d.mu.Unlock()

	title = sanitize(title, maxTitleLen)
	message = sanitize(message, maxMessageLen)

	for _, b := range d.ordered(o.backendHint) {
		err := b.Attempt(ctx, title, message, o.duration)
		if err == nil {
			d.mu.Lock()
			d.stats.Successes++
			d.stats.PerBackend[b.Name()]++
			d.mu.Unlock()
			d.log.Debug().Str("backend", b.Name()).Str("title", title).Msg("notification delivered")
			return nil
		}
		d.log.Warn().Err(err).Str("backend", b.Name()).Msg("notification backend failed, trying next")
	}

	d.mu.Lock()
	d.stats.Failures++
	d.mu.Unlock()
	return apperrors.ErrDispatchExhausted
}

// ordered returns the backend chain with the hinted backend moved to the
// front when it names an available one.
func (d *Dispatcher) ordered(hint string) []Backend {
	if hint == "" {
		return d.backends
	}
	ordered := make([]Backend, 0, len(d.backends))
	for _, b := range d.backends {
		if b.Name() == hint {
			ordered = append(ordered, b)
		}
	}
	if len(ordered) == 0 {
		return d.backends
	}
	for _, b := range d.backends {
		if b.Name() != hint {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

// StatsSnapshot returns a copy of the lifetime statistics.
func (d *Dispatcher) StatsSnapshot() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := d.stats
	out.PerBackend = make(map[string]uint64, len(d.stats.PerBackend))
	for k, v := range d.stats.PerBackend {
		out.PerBackend[k] = v
	}
	return out
}
