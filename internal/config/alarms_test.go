package config

import (
	"os"
	"path/filepath"
	"testing"

	"tagwatch/internal/domain"
)

func TestLoadAlarmDefsNormalizesOptionalFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alarms.toml")
	body := `
[alarm.engine_temp_1]
description = "Engine 1 temperature"
warning_high = 90.0
critical_high = 110.0
emergency_high = 130.0
priority = "high"

[alarm.cabin_temp]
description = "Cabin temperature"
warning_low = 16.0
warning_high = 28.0
enabled = false
delay_seconds = 10.0
auto_acknowledge = true
priority = "low"
message_template = "{{.Tag}} out of band at {{.Value}}"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write defs: %v", err)
	}

	defs, err := LoadAlarmDefs(path)
	if err != nil {
		t.Fatalf("load defs: %v", err)
	}

	engine := defs["engine_temp_1"]
	if !engine.Enabled {
		t.Fatalf("enabled must default to true")
	}
	if engine.DelaySeconds != 2.0 {
		t.Fatalf("delay must default to 2.0, got %v", engine.DelaySeconds)
	}
	if engine.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected priority %v", engine.Priority)
	}
	if engine.MessageTemplate != DefaultMessageTemplate {
		t.Fatalf("message template must default")
	}
	if engine.WarningHigh == nil || *engine.WarningHigh != 90.0 {
		t.Fatalf("warning_high lost in decode")
	}
	if engine.WarningLow != nil {
		t.Fatalf("unset threshold must stay nil")
	}

	cabin := defs["cabin_temp"]
	if cabin.Enabled {
		t.Fatalf("explicit enabled=false lost")
	}
	if !cabin.AutoAcknowledge || cabin.DelaySeconds != 10.0 {
		t.Fatalf("explicit fields lost: %+v", cabin)
	}
}

func TestLoadAlarmDefsRejectsUnknownPriority(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alarms.toml")
	body := `
[alarm.fuel_pressure]
priority = "sideways"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write defs: %v", err)
	}
	if _, err := LoadAlarmDefs(path); err == nil {
		t.Fatalf("expected priority parse error")
	}
}

func TestSaveAlarmDefsRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "alarms.toml")
	if err := SaveAlarmDefs(path, DefaultAlarmDefs()); err != nil {
		t.Fatalf("save defs: %v", err)
	}

	defs, err := LoadAlarmDefs(path)
	if err != nil {
		t.Fatalf("reload defs: %v", err)
	}
	if len(defs) != len(DefaultAlarmDefs()) {
		t.Fatalf("expected %d defs, got %d", len(DefaultAlarmDefs()), len(defs))
	}

	hydraulic := defs["hydraulic_pressure"]
	if hydraulic.Priority != domain.PriorityUrgent || hydraulic.DelaySeconds != 1.0 {
		t.Fatalf("hydraulic defaults lost in round trip: %+v", hydraulic)
	}
	if hydraulic.EmergencyLow == nil || *hydraulic.EmergencyLow != 160.0 {
		t.Fatalf("emergency_low lost in round trip")
	}
	if hydraulic.EmergencyHigh != nil {
		t.Fatalf("unset emergency_high must stay nil after round trip")
	}
}
