package models

import "fmt"

// SampleKind selects how values are drawn from a MetricRange
type SampleKind string

const (
	KindInteger    SampleKind = "integer"    // whole numbers, both bounds inclusive
	KindContinuous SampleKind = "continuous" // real values rounded to one decimal
)

// MetricRange is an inclusive [Low, High] interval tagged with a sampling kind.
// Used both for normal sampling and for anomaly override sampling.
type MetricRange struct {
	Low  float64    `json:"low"`
	High float64    `json:"high"`
	Kind SampleKind `json:"kind"`
}

// NormalProfile maps each metric name to its range under non-anomalous
// conditions. Fixed at generator construction and never mutated.
type NormalProfile map[string]MetricRange

// AnomalyProfile is a named condition overriding a subset of metrics.
// Weight is relative, not a probability: selection chance among anomalous
// readings is Weight / sum of all weights.
type AnomalyProfile struct {
	Name      string                 `json:"name"`
	Overrides map[string]MetricRange `json:"overrides"`
	Weight    float64                `json:"weight"`
}

// Validate checks range sanity for a single metric range
func (mr MetricRange) Validate() error {
	if mr.Low > mr.High {
		return &ConfigError{Msg: fmt.Sprintf("metric range low %.1f exceeds high %.1f", mr.Low, mr.High)}
	}
	if mr.Kind != KindInteger && mr.Kind != KindContinuous {
		return &ConfigError{Msg: fmt.Sprintf("unknown sample kind %q", mr.Kind)}
	}
	return nil
}

// Validate checks every range in the profile and that all canonical metrics
// are present
func (np NormalProfile) Validate() error {
	for _, name := range MetricNames {
		mr, ok := np[name]
		if !ok {
			return &ConfigError{Msg: fmt.Sprintf("normal profile missing metric %q", name)}
		}
		if err := mr.Validate(); err != nil {
			return fmt.Errorf("normal profile metric %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks the anomaly profile against the normal profile it overrides
func (ap AnomalyProfile) Validate(normal NormalProfile) error {
	if ap.Name == "" {
		return &ConfigError{Msg: "anomaly profile has empty name"}
	}
	if len(ap.Overrides) == 0 {
		return &ConfigError{Msg: fmt.Sprintf("anomaly profile %q overrides no metrics", ap.Name)}
	}
	if ap.Weight <= 0 {
		return &ConfigError{Msg: fmt.Sprintf("anomaly profile %q has non-positive weight %.3f", ap.Name, ap.Weight)}
	}
	for metric, mr := range ap.Overrides {
		if _, ok := normal[metric]; !ok {
			return &ConfigError{Msg: fmt.Sprintf("anomaly profile %q overrides unknown metric %q", ap.Name, metric)}
		}
		if err := mr.Validate(); err != nil {
			return fmt.Errorf("anomaly profile %q metric %q: %w", ap.Name, metric, err)
		}
	}
	return nil
}

// DefaultNormalProfile returns the baseline smartwatch metric ranges
func DefaultNormalProfile() NormalProfile {
	return NormalProfile{
		MetricHeartRate:   {Low: 60, High: 100, Kind: KindInteger},
		MetricSpO2:        {Low: 95, High: 100, Kind: KindContinuous},
		MetricTemperature: {Low: 36.1, High: 37.2, Kind: KindContinuous},
		MetricSystolicBP:  {Low: 110, High: 130, Kind: KindInteger},
		MetricDiastolicBP: {Low: 70, High: 85, Kind: KindInteger},
		MetricSteps:       {Low: 0, High: 150, Kind: KindInteger}, // per interval
		MetricStressLevel: {Low: 1, High: 5, Kind: KindInteger},   // 1-10 scale
		MetricSleepHours:  {Low: 6.5, High: 9.0, Kind: KindContinuous},
	}
}

// DefaultAnomalyProfiles returns the built-in abnormal conditions with their
// relative selection weights
func DefaultAnomalyProfiles() []AnomalyProfile {
	return []AnomalyProfile{
		{
			Name:      "high_heart_rate",
			Overrides: map[string]MetricRange{MetricHeartRate: {Low: 120, High: 180, Kind: KindInteger}},
			Weight:    0.05,
		},
		{
			Name:      "low_heart_rate",
			Overrides: map[string]MetricRange{MetricHeartRate: {Low: 40, High: 55, Kind: KindInteger}},
			Weight:    0.03,
		},
		{
			Name:      "low_oxygen",
			Overrides: map[string]MetricRange{MetricSpO2: {Low: 85, High: 94, Kind: KindContinuous}},
			Weight:    0.04,
		},
		{
			Name:      "high_temperature",
			Overrides: map[string]MetricRange{MetricTemperature: {Low: 37.5, High: 39.5, Kind: KindContinuous}},
			Weight:    0.03,
		},
		{
			Name:      "low_temperature",
			Overrides: map[string]MetricRange{MetricTemperature: {Low: 35.0, High: 36.0, Kind: KindContinuous}},
			Weight:    0.02,
		},
		{
			Name: "high_bp",
			Overrides: map[string]MetricRange{
				MetricSystolicBP:  {Low: 140, High: 180, Kind: KindInteger},
				MetricDiastolicBP: {Low: 90, High: 110, Kind: KindInteger},
			},
			Weight: 0.04,
		},
		{
			Name: "low_bp",
			Overrides: map[string]MetricRange{
				MetricSystolicBP:  {Low: 80, High: 100, Kind: KindInteger},
				MetricDiastolicBP: {Low: 50, High: 65, Kind: KindInteger},
			},
			Weight: 0.03,
		},
		{
			Name:      "high_stress",
			Overrides: map[string]MetricRange{MetricStressLevel: {Low: 7, High: 10, Kind: KindInteger}},
			Weight:    0.06,
		},
		{
			Name:      "poor_sleep",
			Overrides: map[string]MetricRange{MetricSleepHours: {Low: 3.0, High: 5.5, Kind: KindContinuous}},
			Weight:    0.04,
		},
		{
			Name:      "excessive_sleep",
			Overrides: map[string]MetricRange{MetricSleepHours: {Low: 10.0, High: 12.0, Kind: KindContinuous}},
			Weight:    0.02,
		},
	}
}
