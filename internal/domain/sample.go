package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sample is one decoded scalar measurement from a collector.
// Params: tag name, numeric value, and unix-millisecond timestamp.
// Returns: validated input for alarm evaluation.
type Sample struct {
	Tag   string  `json:"tag"`
	Value float64 `json:"value"`
	DT    int64   `json:"dt"`
}

// Validate validates one sample against the ingest contract.
// Params: sample fields parsed from transport.
// Returns: validation error when schema is violated.
func (s Sample) Validate() error {
	if strings.TrimSpace(s.Tag) == "" {
		return errors.New("tag is required")
	}
	if s.DT <= 0 {
		return errors.New("dt must be >0")
	}
	return nil
}

// DecodeSample decodes and validates one sample payload.
// Params: JSON document bytes.
// Returns: validated sample or decode/validation error.
func DecodeSample(raw []byte) (Sample, error) {
	var sample Sample
	if err := json.Unmarshal(raw, &sample); err != nil {
		return Sample{}, fmt.Errorf("decode sample: %w", err)
	}
	if err := sample.Validate(); err != nil {
		return Sample{}, err
	}
	return sample, nil
}

// DecodeSamples decodes and validates one batch of samples.
// Params: JSON array bytes.
// Returns: validated samples slice or decode/validation error.
func DecodeSamples(raw []byte) ([]Sample, error) {
	var samples []Sample
	if err := json.Unmarshal(raw, &samples); err != nil {
		return nil, fmt.Errorf("decode sample batch: %w", err)
	}
	if len(samples) == 0 {
		return nil, errors.New("sample batch must contain at least one sample")
	}
	for i := range samples {
		if err := samples[i].Validate(); err != nil {
			return nil, fmt.Errorf("sample[%d]: %w", i, err)
		}
	}
	return samples, nil
}
