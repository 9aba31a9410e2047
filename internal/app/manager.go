package app

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"tagwatch/internal/clock"
	"tagwatch/internal/config"
	"tagwatch/internal/domain"
	"tagwatch/internal/engine"
	"tagwatch/internal/templatefmt"

	"github.com/google/uuid"
)

// Subscriber receives every confirmed alarm event exactly once.
// Params: confirmed event copy.
// Returns: none; failures are isolated by the manager.
type Subscriber func(event domain.AlarmEvent)

// Manager coordinates classification, debounce, alarm bookkeeping, and fan-out.
// Params: definition registry, debouncer, shared tables, subscribers, logger, and clock.
// Returns: evaluation sink and operator-facing query surface.
type Manager struct {
	mu       sync.Mutex
	registry *engine.Registry
	debounce *engine.Debouncer
	active   map[string]*domain.AlarmEvent
	history  []*domain.AlarmEvent

	totalEvents  int
	lastUrgentAt *time.Time

	subsMu  sync.RWMutex
	subs    map[int]Subscriber
	nextSub int

	logger *slog.Logger
	clock  clock.Clock
}

// NewManager creates manager over one definition registry.
// Params: registry, logger, and clock.
// Returns: initialized manager with empty tables.
func NewManager(registry *engine.Registry, logger *slog.Logger, clk clock.Clock) *Manager {
	return &Manager{
		registry: registry,
		debounce: engine.NewDebouncer(),
		active:   make(map[string]*domain.AlarmEvent),
		subs:     make(map[int]Subscriber),
		logger:   logger,
		clock:    clk,
	}
}

// Registry exposes the definition registry for configuration operations.
// Params: none.
// Returns: shared registry reference.
func (m *Manager) Registry() *engine.Registry {
	return m.registry
}

// Push evaluates one incoming sample at current clock time.
// Params: validated sample from ingest interfaces.
// Returns: nil; evaluation has no failure mode for the transport.
func (m *Manager) Push(sample domain.Sample) error {
	m.Evaluate(sample.Tag, sample.Value, m.clock.Now())
	return nil
}

// PushBatch evaluates one batch of incoming samples in order.
// Params: validated sample slice.
// Returns: nil; evaluation has no failure mode for the transport.
func (m *Manager) PushBatch(samples []domain.Sample) error {
	for _, sample := range samples {
		if err := m.Push(sample); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs one sample through classification and debounce.
// Params: tag, numeric value, and observation time.
// Returns: confirmed event copy, or nil when nothing was confirmed.
func (m *Manager) Evaluate(tag string, value float64, now time.Time) *domain.AlarmEvent {
	def, err := m.registry.Get(tag)
	if err != nil {
		// Unmonitored tags are expected; nothing to do.
		return nil
	}
	if !def.Enabled {
		return nil
	}

	candidate := engine.Classify(def, value)

	// The debounce decision and the table update commit under one lock:
	// concurrent evaluations of the same tag serialize as a unit, so the
	// active table always reflects the latest confirmed level.
	m.mu.Lock()
	transition := m.debounce.Consider(tag, candidate, def.Delay(), now)
	if !transition.Confirmed {
		m.mu.Unlock()
		return nil
	}

	event := m.buildEvent(def, value, transition, now)
	m.history = append(m.history, event)
	if event.Level != domain.LevelNormal {
		m.active[tag] = event
	} else if previous, ok := m.active[tag]; ok {
		// Auto-acknowledge stamps the event that was active, not the
		// NORMAL-transition record created above.
		if def.AutoAcknowledge {
			previous.Acknowledge(domain.SystemUser, now)
		}
		delete(m.active, tag)
	}
	m.totalEvents++
	if event.Priority >= domain.PriorityHigh {
		urgentAt := now
		m.lastUrgentAt = &urgentAt
	}
	m.mu.Unlock()

	m.logger.Info("alarm transition confirmed",
		"tag", event.Tag,
		"level", event.Level.String(),
		"previous", event.PreviousLevel.String(),
		"value", event.Value,
		"priority", event.Priority.String(),
	)
	m.dispatch(*event)

	result := *event
	return &result
}

// Acknowledge stamps acknowledgment on the tag's active alarm.
// Params: tag identifier and acknowledging user.
// Returns: false when the tag has no active alarm; restamping is allowed.
func (m *Manager) Acknowledge(tag, user string) bool {
	now := m.clock.Now()
	m.mu.Lock()
	event, ok := m.active[tag]
	if ok {
		event.Acknowledge(user, now)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.logger.Info("alarm acknowledged", "tag", tag, "user", user)
	return true
}

// ActiveAlarms lists active alarms ordered for the operator console.
// Params: none.
// Returns: event copies sorted by priority descending, then timestamp ascending.
func (m *Manager) ActiveAlarms() []domain.AlarmEvent {
	m.mu.Lock()
	alarms := make([]domain.AlarmEvent, 0, len(m.active))
	for _, event := range m.active {
		alarms = append(alarms, *event)
	}
	m.mu.Unlock()

	sort.Slice(alarms, func(i, j int) bool {
		if alarms[i].Priority != alarms[j].Priority {
			return alarms[i].Priority > alarms[j].Priority
		}
		return alarms[i].Timestamp.Before(alarms[j].Timestamp)
	})
	return alarms
}

// History lists confirmed events inside the query window.
// Params: window width counted back from current clock time.
// Returns: event copies in chronological order; empty slice for empty engine.
func (m *Manager) History(window time.Duration) []domain.AlarmEvent {
	now := m.clock.Now()
	cutoff := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]domain.AlarmEvent, 0)
	for _, event := range m.history {
		if event.Timestamp.Before(cutoff) || event.Timestamp.After(now) {
			continue
		}
		events = append(events, *event)
	}
	return events
}

// Statistics returns one consistent counter snapshot.
// Params: none.
// Returns: totals, live table counts, and last high-priority event time.
func (m *Manager) Statistics() domain.Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	acknowledged := 0
	for _, event := range m.active {
		if event.Acknowledged {
			acknowledged++
		}
	}
	stats := domain.Statistics{
		TotalEvents:          m.totalEvents,
		ActiveCount:          len(m.active),
		AcknowledgedActive:   acknowledged,
		UnacknowledgedActive: len(m.active) - acknowledged,
		ConfiguredTags:       m.registry.Len(),
		HistorySize:          len(m.history),
	}
	if m.lastUrgentAt != nil {
		urgentAt := *m.lastUrgentAt
		stats.LastUrgentAt = &urgentAt
	}
	return stats
}

// Subscribe registers one event subscriber.
// Params: subscriber callback.
// Returns: handle for Unsubscribe.
func (m *Manager) Subscribe(subscriber Subscriber) int {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.nextSub++
	m.subs[m.nextSub] = subscriber
	return m.nextSub
}

// Unsubscribe removes one subscriber by handle.
// Params: handle returned by Subscribe.
// Returns: unknown handles are ignored.
func (m *Manager) Unsubscribe(handle int) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	delete(m.subs, handle)
}

// dispatch delivers one event to a snapshot of subscribers.
// Params: confirmed event.
// Returns: subscriber panics are captured and logged, never propagated.
func (m *Manager) dispatch(event domain.AlarmEvent) {
	m.subsMu.RLock()
	snapshot := make([]Subscriber, 0, len(m.subs))
	for _, subscriber := range m.subs {
		snapshot = append(snapshot, subscriber)
	}
	m.subsMu.RUnlock()

	for _, subscriber := range snapshot {
		m.deliver(subscriber, event)
	}
}

// deliver calls one subscriber with panic isolation.
// Params: subscriber and event copy.
// Returns: none; recovered panics are logged per subscriber.
func (m *Manager) deliver(subscriber Subscriber, event domain.AlarmEvent) {
	defer func() {
		if cause := recover(); cause != nil {
			m.logger.Error("subscriber panicked", "tag", event.Tag, "event_id", event.ID, "cause", cause)
		}
	}()
	subscriber(event)
}

// buildEvent materializes one confirmed transition.
// Params: definition, triggering value, debounce transition, and confirmation time.
// Returns: new event with rendered message and unique id.
func (m *Manager) buildEvent(def config.AlarmConfig, value float64, transition engine.Transition, now time.Time) *domain.AlarmEvent {
	fields := templatefmt.Fields{
		Tag:         def.Tag,
		Description: def.Description,
		Value:       value,
		Limit:       engine.BreachedLimit(def, transition.Level, value),
	}
	message, err := templatefmt.Render(def.MessageTemplate, fields)
	if err != nil {
		m.logger.Warn("message template failed, using fallback", "tag", def.Tag, "error", err.Error())
		message = templatefmt.Fallback(fields)
	}

	return &domain.AlarmEvent{
		ID:            uuid.NewString(),
		Tag:           def.Tag,
		Timestamp:     now,
		Level:         transition.Level,
		PreviousLevel: transition.Previous,
		Value:         value,
		Message:       message,
		Priority:      def.Priority,
		AutoCleared:   transition.Level == domain.LevelNormal,
	}
}
