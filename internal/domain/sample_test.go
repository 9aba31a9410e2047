package domain

import (
	"testing"
)

func TestDecodeSample(t *testing.T) {
	t.Parallel()

	sample, err := DecodeSample([]byte(`{"tag":"engine_temp_1","value":95.5,"dt":1739876543210}`))
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	if sample.Tag != "engine_temp_1" {
		t.Fatalf("unexpected tag %q", sample.Tag)
	}
	if sample.DT != 1739876543210 {
		t.Fatalf("unexpected dt %d", sample.DT)
	}
}

func TestDecodeSampleRejectsMissingFields(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{name: "empty tag", payload: `{"tag":" ","value":1,"dt":1739876543210}`},
		{name: "zero dt", payload: `{"tag":"t","value":1,"dt":0}`},
		{name: "bad json", payload: `{"tag":`},
	}
	for _, tc := range cases {
		if _, err := DecodeSample([]byte(tc.payload)); err == nil {
			t.Fatalf("%s: expected decode error", tc.name)
		}
	}
}

func TestDecodeSamplesRejectsEmptyBatch(t *testing.T) {
	t.Parallel()

	if _, err := DecodeSamples([]byte(`[]`)); err == nil {
		t.Fatalf("expected error for empty batch")
	}
}

func TestLevelRoundTrip(t *testing.T) {
	t.Parallel()

	for _, level := range []Level{LevelNormal, LevelWarning, LevelCritical, LevelEmergency} {
		parsed, err := ParseLevel(level.String())
		if err != nil {
			t.Fatalf("parse %s: %v", level, err)
		}
		if parsed != level {
			t.Fatalf("round trip mismatch for %s", level)
		}
	}
	if _, err := ParseLevel("blown"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestPriorityOrdering(t *testing.T) {
	t.Parallel()

	if !(PriorityLow < PriorityMedium && PriorityMedium < PriorityHigh && PriorityHigh < PriorityUrgent) {
		t.Fatalf("priority constants must be strictly increasing")
	}
}
