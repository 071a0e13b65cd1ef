package models

import (
	"time"
)

// Metric names used across readings, profiles and exports.
const (
	MetricHeartRate   = "heart_rate"
	MetricSpO2        = "spo2"
	MetricTemperature = "temperature"
	MetricSystolicBP  = "systolic_bp"
	MetricDiastolicBP = "diastolic_bp"
	MetricSteps       = "steps"
	MetricStressLevel = "stress_level"
	MetricSleepHours  = "sleep_hours"
)

// MetricNames lists all metrics in the canonical column order used by the
// tabular exchange format.
var MetricNames = []string{
	MetricHeartRate,
	MetricSpO2,
	MetricTemperature,
	MetricSystolicBP,
	MetricDiastolicBP,
	MetricSteps,
	MetricStressLevel,
	MetricSleepHours,
}

// HealthReading represents one timestamped multi-metric observation from a
// smartwatch or wearable device for a single monitored person
type HealthReading struct {
	Timestamp   time.Time `json:"timestamp"`
	PersonID    string    `json:"person_id"`
	HeartRate   int       `json:"heart_rate"`
	SpO2        float64   `json:"spo2"`
	Temperature float64   `json:"temperature"`
	SystolicBP  int       `json:"systolic_bp"`
	DiastolicBP int       `json:"diastolic_bp"`
	Steps       int       `json:"steps"`
	StressLevel int       `json:"stress_level"`
	SleepHours  float64   `json:"sleep_hours"`
}

// Value returns the numeric value for the named metric
func (r *HealthReading) Value(metric string) (float64, bool) {
	switch metric {
	case MetricHeartRate:
		return float64(r.HeartRate), true
	case MetricSpO2:
		return r.SpO2, true
	case MetricTemperature:
		return r.Temperature, true
	case MetricSystolicBP:
		return float64(r.SystolicBP), true
	case MetricDiastolicBP:
		return float64(r.DiastolicBP), true
	case MetricSteps:
		return float64(r.Steps), true
	case MetricStressLevel:
		return float64(r.StressLevel), true
	case MetricSleepHours:
		return r.SleepHours, true
	default:
		return 0, false
	}
}

// SetValue stores a sampled value into the field for the named metric.
// Integer metrics are truncated; continuous metrics are stored as-is.
func (r *HealthReading) SetValue(metric string, value float64) bool {
	switch metric {
	case MetricHeartRate:
		r.HeartRate = int(value)
	case MetricSpO2:
		r.SpO2 = value
	case MetricTemperature:
		r.Temperature = value
	case MetricSystolicBP:
		r.SystolicBP = int(value)
	case MetricDiastolicBP:
		r.DiastolicBP = int(value)
	case MetricSteps:
		r.Steps = int(value)
	case MetricStressLevel:
		r.StressLevel = int(value)
	case MetricSleepHours:
		r.SleepHours = value
	default:
		return false
	}
	return true
}

// ValidateReading checks if the reading values are physically plausible
func (r *HealthReading) ValidateReading() bool {
	// Heart rate in beats per minute
	if r.HeartRate < 20 || r.HeartRate > 250 {
		return false
	}
	// SpO2 is a percentage
	if r.SpO2 < 0 || r.SpO2 > 100 {
		return false
	}
	// Body temperature in Celsius
	if r.Temperature < 30 || r.Temperature > 45 {
		return false
	}
	// Blood pressure in mmHg
	if r.SystolicBP < 40 || r.SystolicBP > 250 {
		return false
	}
	if r.DiastolicBP < 20 || r.DiastolicBP > 180 {
		return false
	}
	// Steps per interval
	if r.Steps < 0 {
		return false
	}
	// Stress on a 1-10 scale
	if r.StressLevel < 0 || r.StressLevel > 10 {
		return false
	}
	// Sleep hours per day
	if r.SleepHours < 0 || r.SleepHours > 24 {
		return false
	}
	return true
}

// TimeSeries is the ordered sequence of readings for exactly one person.
// Timestamps increase by a fixed interval when produced by the generator.
type TimeSeries struct {
	PersonID string          `json:"person_id"`
	Readings []HealthReading `json:"readings"`
}

// Len returns the number of readings in the series
func (ts *TimeSeries) Len() int {
	return len(ts.Readings)
}
