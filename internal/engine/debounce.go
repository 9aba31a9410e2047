package engine

import (
	"sync"
	"time"

	"tagwatch/internal/domain"
)

// pendingKey identifies one not-yet-confirmed candidate transition.
// Params: tag identifier and candidate level.
// Returns: map key for first-seen timers.
type pendingKey struct {
	tag   string
	level domain.Level
}

// Transition is one debounce decision for a candidate level.
// Params: confirmation flag and confirmed/previous levels when confirmed.
// Returns: deterministic debounce outcome.
type Transition struct {
	Confirmed bool
	Level     domain.Level
	Previous  domain.Level
}

// Debouncer turns instantaneous classifier verdicts into confirmed transitions.
// Params: per-tag confirmed levels and per-(tag, candidate) first-seen timers.
// Returns: temporal filter shared by all evaluations.
type Debouncer struct {
	mu        sync.Mutex
	confirmed map[string]domain.Level
	pending   map[pendingKey]time.Time
}

// NewDebouncer creates debouncer with empty state.
// Params: none.
// Returns: initialized debouncer; every tag starts at NORMAL.
func NewDebouncer() *Debouncer {
	return &Debouncer{
		confirmed: make(map[string]domain.Level),
		pending:   make(map[pendingKey]time.Time),
	}
}

// Consider applies one candidate observation to the tag's debounce state.
// Params: tag, candidate level, configured delay, and observation time.
// Returns: confirmed transition, or pending outcome when delay has not elapsed.
func (d *Debouncer) Consider(tag string, candidate domain.Level, delay time.Duration, now time.Time) Transition {
	d.mu.Lock()
	defer d.mu.Unlock()

	confirmed := d.confirmed[tag]
	key := pendingKey{tag: tag, level: candidate}
	if candidate == confirmed {
		// Nothing to confirm; drop any stale timer for this candidate.
		delete(d.pending, key)
		return Transition{Level: confirmed, Previous: confirmed}
	}

	firstSeen, ok := d.pending[key]
	if !ok {
		d.pending[key] = now
		return Transition{Level: candidate, Previous: confirmed}
	}
	if now.Sub(firstSeen) < delay {
		return Transition{Level: candidate, Previous: confirmed}
	}

	// Timers started by abandoned candidates stay dormant under their own
	// keys; they can only fire again if classification returns to them.
	delete(d.pending, key)
	d.confirmed[tag] = candidate
	return Transition{Confirmed: true, Level: candidate, Previous: confirmed}
}

// ConfirmedLevel reads the tag's last confirmed level.
// Params: tag identifier.
// Returns: confirmed level, NORMAL for unknown tags.
func (d *Debouncer) ConfirmedLevel(tag string) domain.Level {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.confirmed[tag]
}

// PendingCount reports live first-seen timers.
// Params: none.
// Returns: number of pending (tag, candidate) entries.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
