package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SystemUser marks acknowledgments stamped by the engine itself.
const SystemUser = "SYSTEM"

// Level is severity classification of a tag's current value.
// Params: ordered constants from NORMAL to EMERGENCY.
// Returns: strict severity ranking for classification.
type Level int

const (
	// LevelNormal indicates value inside every configured band.
	LevelNormal Level = iota
	// LevelWarning indicates attention required.
	LevelWarning
	// LevelCritical indicates immediate action required.
	LevelCritical
	// LevelEmergency indicates emergency stop condition.
	LevelEmergency
)

// String renders level name used in payloads and reports.
// Params: none.
// Returns: upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelNormal:
		return "NORMAL"
	case LevelWarning:
		return "WARNING"
	case LevelCritical:
		return "CRITICAL"
	case LevelEmergency:
		return "EMERGENCY"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// MarshalJSON encodes level as its name.
// Params: none.
// Returns: JSON string bytes.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes level from its name.
// Params: JSON string bytes.
// Returns: decode or unknown-name error.
func (l *Level) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return err
	}
	parsed, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel converts level name into typed level.
// Params: case-insensitive level name.
// Returns: parsed level or unknown-name error.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NORMAL":
		return LevelNormal, nil
	case "WARNING":
		return LevelWarning, nil
	case "CRITICAL":
		return LevelCritical, nil
	case "EMERGENCY":
		return LevelEmergency, nil
	default:
		return LevelNormal, fmt.Errorf("unknown alarm level %q", name)
	}
}

// Priority is operator-response urgency independent of level.
// Params: ordered constants from LOW to URGENT.
// Returns: ranking used to sort active alarms.
type Priority int

const (
	// PriorityLow marks informational alarms.
	PriorityLow Priority = iota + 1
	// PriorityMedium expects response within minutes.
	PriorityMedium
	// PriorityHigh expects immediate response.
	PriorityHigh
	// PriorityUrgent expects response within seconds.
	PriorityUrgent
)

// String renders priority name used in payloads and reports.
// Params: none.
// Returns: upper-case priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	case PriorityUrgent:
		return "URGENT"
	default:
		return fmt.Sprintf("PRIORITY(%d)", int(p))
	}
}

// MarshalJSON encodes priority as its name.
// Params: none.
// Returns: JSON string bytes.
func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes priority from its name.
// Params: JSON string bytes.
// Returns: decode or unknown-name error.
func (p *Priority) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return err
	}
	parsed, err := ParsePriority(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePriority converts priority name into typed priority.
// Params: case-insensitive priority name.
// Returns: parsed priority or unknown-name error.
func ParsePriority(name string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "LOW":
		return PriorityLow, nil
	case "MEDIUM":
		return PriorityMedium, nil
	case "HIGH":
		return PriorityHigh, nil
	case "URGENT":
		return PriorityUrgent, nil
	default:
		return PriorityLow, fmt.Errorf("unknown alarm priority %q", name)
	}
}

// AlarmEvent records one confirmed state transition.
// Params: identity, transition levels, triggering value, and acknowledgment sub-record.
// Returns: immutable event except acknowledgment fields.
type AlarmEvent struct {
	ID            string     `json:"id"`
	Tag           string     `json:"tag"`
	Timestamp     time.Time  `json:"timestamp"`
	Level         Level      `json:"level"`
	PreviousLevel Level      `json:"previous_level"`
	Value         float64    `json:"value"`
	Message       string     `json:"message"`
	Priority      Priority   `json:"priority"`
	Acknowledged  bool       `json:"acknowledged"`
	AckAt         *time.Time `json:"ack_at,omitempty"`
	AckUser       string     `json:"ack_user,omitempty"`
	AutoCleared   bool       `json:"auto_cleared"`
}

// Acknowledge stamps acknowledgment sub-record in place.
// Params: acknowledging user and acknowledgment time.
// Returns: event mutated in place.
func (e *AlarmEvent) Acknowledge(user string, at time.Time) {
	e.Acknowledged = true
	e.AckUser = user
	ackAt := at
	e.AckAt = &ackAt
}

// Statistics summarizes engine counters for operator queries.
// Params: running totals and live table counts.
// Returns: one consistent counter snapshot.
type Statistics struct {
	TotalEvents          int        `json:"total_events"`
	ActiveCount          int        `json:"active_count"`
	AcknowledgedActive   int        `json:"acknowledged_active"`
	UnacknowledgedActive int        `json:"unacknowledged_active"`
	ConfiguredTags       int        `json:"configured_tags"`
	HistorySize          int        `json:"history_size"`
	LastUrgentAt         *time.Time `json:"last_urgent_at,omitempty"`
}
