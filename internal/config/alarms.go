package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tagwatch/internal/domain"

	"github.com/pelletier/go-toml/v2"
)

// DefaultMessageTemplate renders tag, description, value, and breached limit.
const DefaultMessageTemplate = `{{.Tag}}: {{.Description}} - value {{printf "%.1f" .Value}} (limit {{.Limit}})`

const (
	defaultDeadband     = 1.0
	defaultDelaySeconds = 2.0
)

// AlarmConfig holds per-tag threshold bands and behavior flags.
// Params: three optional low/high band pairs ordered by severity plus debounce and
// acknowledgment policy.
// Returns: runtime alarm definition with typed priority.
type AlarmConfig struct {
	Tag             string
	Description     string
	WarningLow      *float64
	WarningHigh     *float64
	CriticalLow     *float64
	CriticalHigh    *float64
	EmergencyLow    *float64
	EmergencyHigh   *float64
	Enabled         bool
	Deadband        float64
	DelaySeconds    float64
	AutoAcknowledge bool
	Priority        domain.Priority
	MessageTemplate string
	Actions         []string
}

// Delay converts configured debounce seconds into duration.
// Params: none.
// Returns: confirmation delay duration.
func (c AlarmConfig) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// rawAlarmConfig mirrors one `[alarm.<tag>]` TOML table before normalization.
// Params: optional fields as pointers to distinguish unset from zero.
// Returns: intermediate definition body.
type rawAlarmConfig struct {
	Description     string   `toml:"description"`
	WarningLow      *float64 `toml:"warning_low,omitempty"`
	WarningHigh     *float64 `toml:"warning_high,omitempty"`
	CriticalLow     *float64 `toml:"critical_low,omitempty"`
	CriticalHigh    *float64 `toml:"critical_high,omitempty"`
	EmergencyLow    *float64 `toml:"emergency_low,omitempty"`
	EmergencyHigh   *float64 `toml:"emergency_high,omitempty"`
	Enabled         *bool    `toml:"enabled"`
	Deadband        *float64 `toml:"deadband"`
	DelaySeconds    *float64 `toml:"delay_seconds"`
	AutoAcknowledge bool     `toml:"auto_acknowledge"`
	Priority        string   `toml:"priority"`
	MessageTemplate string   `toml:"message_template"`
	Actions         []string `toml:"actions,omitempty"`
}

// alarmFile mirrors the alarm-definition TOML document.
// Params: `[alarm.<tag>]` tables keyed by tag identifier.
// Returns: decoded definition map.
type alarmFile struct {
	Alarm map[string]rawAlarmConfig `toml:"alarm"`
}

// LoadAlarmDefs reads and normalizes the alarm-definition file.
// Params: definition file path.
// Returns: per-tag alarm configs or read/decode/validation error.
func LoadAlarmDefs(path string) (map[string]AlarmConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alarm definitions %q: %w", path, err)
	}
	var file alarmFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode alarm definitions %q: %w", path, err)
	}
	if len(file.Alarm) == 0 {
		return nil, fmt.Errorf("alarm definitions %q: no [alarm.<tag>] tables", path)
	}

	defs := make(map[string]AlarmConfig, len(file.Alarm))
	for tag, body := range file.Alarm {
		def, err := normalizeAlarmDef(tag, body)
		if err != nil {
			return nil, fmt.Errorf("alarm definitions %q: %w", path, err)
		}
		defs[tag] = def
	}
	return defs, nil
}

// SaveAlarmDefs persists alarm definitions as one TOML document.
// Params: destination path and per-tag alarm configs.
// Returns: mkdir/encode/write error.
func SaveAlarmDefs(path string, defs map[string]AlarmConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create alarm definitions dir: %w", err)
	}

	file := alarmFile{Alarm: make(map[string]rawAlarmConfig, len(defs))}
	for tag, def := range defs {
		enabled := def.Enabled
		deadband := def.Deadband
		delaySeconds := def.DelaySeconds
		file.Alarm[tag] = rawAlarmConfig{
			Description:     def.Description,
			WarningLow:      def.WarningLow,
			WarningHigh:     def.WarningHigh,
			CriticalLow:     def.CriticalLow,
			CriticalHigh:    def.CriticalHigh,
			EmergencyLow:    def.EmergencyLow,
			EmergencyHigh:   def.EmergencyHigh,
			Enabled:         &enabled,
			Deadband:        &deadband,
			DelaySeconds:    &delaySeconds,
			AutoAcknowledge: def.AutoAcknowledge,
			Priority:        strings.ToLower(def.Priority.String()),
			MessageTemplate: def.MessageTemplate,
			Actions:         def.Actions,
		}
	}

	encoded, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode alarm definitions: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write alarm definitions %q: %w", path, err)
	}
	return nil
}

// normalizeAlarmDef converts one raw table into runtime definition.
// Params: tag identifier and decoded table body.
// Returns: normalized definition or validation error.
func normalizeAlarmDef(tag string, body rawAlarmConfig) (AlarmConfig, error) {
	if strings.TrimSpace(tag) == "" {
		return AlarmConfig{}, errors.New("alarm tag must not be empty")
	}

	def := AlarmConfig{
		Tag:             tag,
		Description:     body.Description,
		WarningLow:      body.WarningLow,
		WarningHigh:     body.WarningHigh,
		CriticalLow:     body.CriticalLow,
		CriticalHigh:    body.CriticalHigh,
		EmergencyLow:    body.EmergencyLow,
		EmergencyHigh:   body.EmergencyHigh,
		Enabled:         true,
		Deadband:        defaultDeadband,
		DelaySeconds:    defaultDelaySeconds,
		AutoAcknowledge: body.AutoAcknowledge,
		Priority:        domain.PriorityMedium,
		MessageTemplate: body.MessageTemplate,
		Actions:         body.Actions,
	}
	if body.Enabled != nil {
		def.Enabled = *body.Enabled
	}
	if body.Deadband != nil {
		def.Deadband = *body.Deadband
	}
	if body.DelaySeconds != nil {
		def.DelaySeconds = *body.DelaySeconds
	}
	if def.DelaySeconds < 0 {
		return AlarmConfig{}, fmt.Errorf("alarm %q: delay_seconds must be >=0", tag)
	}
	if strings.TrimSpace(body.Priority) != "" {
		priority, err := domain.ParsePriority(body.Priority)
		if err != nil {
			return AlarmConfig{}, fmt.Errorf("alarm %q: %w", tag, err)
		}
		def.Priority = priority
	}
	if strings.TrimSpace(def.MessageTemplate) == "" {
		def.MessageTemplate = DefaultMessageTemplate
	}
	return def, nil
}

// DefaultAlarmDefs seeds the documented default alarm set.
// Params: none.
// Returns: per-tag alarm configs for the stock process tags.
func DefaultAlarmDefs() map[string]AlarmConfig {
	return map[string]AlarmConfig{
		"engine_temp_1": {
			Tag:             "engine_temp_1",
			Description:     "Engine 1 temperature",
			WarningHigh:     floatPtr(90.0),
			CriticalHigh:    floatPtr(110.0),
			EmergencyHigh:   floatPtr(130.0),
			Enabled:         true,
			Deadband:        defaultDeadband,
			DelaySeconds:    defaultDelaySeconds,
			Priority:        domain.PriorityHigh,
			MessageTemplate: DefaultMessageTemplate,
		},
		"engine_temp_2": {
			Tag:             "engine_temp_2",
			Description:     "Engine 2 temperature",
			WarningHigh:     floatPtr(90.0),
			CriticalHigh:    floatPtr(110.0),
			EmergencyHigh:   floatPtr(130.0),
			Enabled:         true,
			Deadband:        defaultDeadband,
			DelaySeconds:    defaultDelaySeconds,
			Priority:        domain.PriorityHigh,
			MessageTemplate: DefaultMessageTemplate,
		},
		"hydraulic_pressure": {
			Tag:             "hydraulic_pressure",
			Description:     "Hydraulic pressure",
			WarningLow:      floatPtr(185.0),
			CriticalLow:     floatPtr(175.0),
			EmergencyLow:    floatPtr(160.0),
			WarningHigh:     floatPtr(215.0),
			CriticalHigh:    floatPtr(225.0),
			Enabled:         true,
			Deadband:        defaultDeadband,
			DelaySeconds:    1.0,
			Priority:        domain.PriorityUrgent,
			MessageTemplate: DefaultMessageTemplate,
		},
		"fuel_pressure": {
			Tag:             "fuel_pressure",
			Description:     "Fuel pressure",
			WarningLow:      floatPtr(47.0),
			CriticalLow:     floatPtr(45.0),
			EmergencyLow:    floatPtr(40.0),
			Enabled:         true,
			Deadband:        defaultDeadband,
			DelaySeconds:    defaultDelaySeconds,
			Priority:        domain.PriorityHigh,
			MessageTemplate: DefaultMessageTemplate,
		},
		"cabin_temp": {
			Tag:             "cabin_temp",
			Description:     "Cabin temperature",
			WarningLow:      floatPtr(16.0),
			WarningHigh:     floatPtr(28.0),
			CriticalLow:     floatPtr(10.0),
			CriticalHigh:    floatPtr(35.0),
			Enabled:         true,
			Deadband:        defaultDeadband,
			DelaySeconds:    10.0,
			Priority:        domain.PriorityLow,
			MessageTemplate: DefaultMessageTemplate,
		},
	}
}

// floatPtr returns pointer to one float literal.
// Params: float value.
// Returns: heap pointer for optional threshold fields.
func floatPtr(value float64) *float64 {
	return &value
}
