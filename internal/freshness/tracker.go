// Package freshness tracks per-resource TTL status across requests. The
// tracker is advisory observability metadata: it annotates audit entries and
// context constraints but never gates or denies access.
package freshness

import (
	"math"
	"sync"
	"time"

	"github.com/edushield/edushield/internal/model"
)

// Tracker maintains the shared last-refresh map. One of the two pieces of
// shared mutable state in the engine; all access goes through the mutex.
type Tracker struct {
	mu          sync.Mutex
	lastRefresh map[model.ResourceID]time.Time
	now         func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		lastRefresh: make(map[model.ResourceID]time.Time),
		now:         time.Now,
	}
}

// Observe records an access to an authorized resource. If the resource's TTL
// has elapsed since the last refresh (or it was never refreshed), the timer
// resets and the status is "refreshed"; otherwise "cached" with the remaining
// window.
func (t *Tracker) Observe(desc model.ResourceDescriptor) model.TTLStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	last, seen := t.lastRefresh[desc.ID]
	if !seen || now.Sub(last) > desc.TTL {
		t.lastRefresh[desc.ID] = now
		return model.TTLStatus{
			State:      model.TTLRefreshed,
			TTLSeconds: int(desc.TTL / time.Second),
		}
	}

	remaining := desc.TTL - now.Sub(last)
	return model.TTLStatus{
		State:            model.TTLCached,
		RemainingSeconds: int(math.Round(remaining.Seconds())),
	}
}

// ObserveAll annotates every authorized resource in one pass.
func (t *Tracker) ObserveAll(descs []model.ResourceDescriptor) map[model.ResourceID]model.TTLStatus {
	out := make(map[model.ResourceID]model.TTLStatus, len(descs))
	for _, d := range descs {
		out[d.ID] = t.Observe(d)
	}
	return out
}
