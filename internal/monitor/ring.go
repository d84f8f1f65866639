package monitor

import (
	"sync"

	"github.com/iD01t/CryptoPulse/internal/models"
)

// DefaultRingCapacity bounds the in-memory alert history.
const DefaultRingCapacity = 100

// alertRing is a bounded history of recent alerts. Oldest entries are
// dropped once the capacity is reached.
type alertRing struct {
	mu     sync.Mutex
	events []models.AlertEvent
	cap    int
}

func newAlertRing(capacity int) *alertRing {
	if capacity <= 0 {
		capacity = DefaultRingCapacity
	}
	return &alertRing{cap: capacity}
}

func (r *alertRing) add(e models.AlertEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if len(r.events) > r.cap {
		r.events = r.events[len(r.events)-r.cap:]
	}
}

// recent returns up to n alerts, newest first. n <= 0 returns everything.
func (r *alertRing) recent(n int) []models.AlertEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.events) {
		n = len(r.events)
	}
	out := make([]models.AlertEvent, n)
	for i := 0; i < n; i++ {
		out[i] = r.events[len(r.events)-1-i]
	}
	return out
}
