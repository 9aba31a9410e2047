package engine

import (
	"strconv"

	"tagwatch/internal/config"
	"tagwatch/internal/domain"
)

// Classify maps one value onto its alarm level for one definition.
// Params: alarm definition and current numeric value.
// Returns: most severe level whose band is breached, NORMAL otherwise.
func Classify(def config.AlarmConfig, value float64) domain.Level {
	// Severity-first ordering: the most severe breached band wins even when
	// bands are inconsistently configured.
	if breached(def.EmergencyLow, def.EmergencyHigh, value) {
		return domain.LevelEmergency
	}
	if breached(def.CriticalLow, def.CriticalHigh, value) {
		return domain.LevelCritical
	}
	if breached(def.WarningLow, def.WarningHigh, value) {
		return domain.LevelWarning
	}
	return domain.LevelNormal
}

// breached checks one low/high band pair against a value.
// Params: optional low and high thresholds and the value.
// Returns: true when either set threshold is crossed; unset thresholds never trigger.
func breached(low, high *float64, value float64) bool {
	if high != nil && value >= *high {
		return true
	}
	if low != nil && value <= *low {
		return true
	}
	return false
}

// BreachedLimit picks the threshold text for the level and direction that fired.
// Params: alarm definition, confirmed level, and triggering value.
// Returns: formatted limit or "N/A" when no threshold applies (NORMAL transitions).
func BreachedLimit(def config.AlarmConfig, level domain.Level, value float64) string {
	var low, high *float64
	switch level {
	case domain.LevelWarning:
		low, high = def.WarningLow, def.WarningHigh
	case domain.LevelCritical:
		low, high = def.CriticalLow, def.CriticalHigh
	case domain.LevelEmergency:
		low, high = def.EmergencyLow, def.EmergencyHigh
	default:
		return "N/A"
	}
	if high != nil && value >= *high {
		return formatLimit(*high)
	}
	if low != nil && value <= *low {
		return formatLimit(*low)
	}
	return "N/A"
}

// formatLimit renders threshold value without trailing zeros.
// Params: threshold value.
// Returns: compact decimal string.
func formatLimit(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
