package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

// VitalsParser handles parsing of health reading records from external
// sources (MQTT payloads, HTTP ingest)
type VitalsParser struct{}

// NewVitalsParser creates a new instance of VitalsParser
func NewVitalsParser() *VitalsParser {
	return &VitalsParser{}
}

// recordPayload mirrors the record exchange format with pointer fields so a
// missing metric is distinguishable from a zero value
type recordPayload struct {
	Timestamp   *string  `json:"timestamp"`
	PersonID    *string  `json:"person_id"`
	HeartRate   *int     `json:"heart_rate"`
	SpO2        *float64 `json:"spo2"`
	Temperature *float64 `json:"temperature"`
	SystolicBP  *int     `json:"systolic_bp"`
	DiastolicBP *int     `json:"diastolic_bp"`
	Steps       *int     `json:"steps"`
	StressLevel *int     `json:"stress_level"`
	SleepHours  *float64 `json:"sleep_hours"`
}

// ParseRecordJSON parses one JSON record into a reading. Every metric field
// is required; a missing metric fails with a DataError instead of being
// defaulted. fallbackPersonID is used when the record carries no person_id
// (e.g. the subject is encoded in the MQTT topic).
func (vp *VitalsParser) ParseRecordJSON(payload []byte, fallbackPersonID string) (*models.HealthReading, error) {
	var record recordPayload
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, &models.DataError{Msg: fmt.Sprintf("failed to parse record JSON: %v", err)}
	}

	missing := []string{}
	if record.HeartRate == nil {
		missing = append(missing, models.MetricHeartRate)
	}
	if record.SpO2 == nil {
		missing = append(missing, models.MetricSpO2)
	}
	if record.Temperature == nil {
		missing = append(missing, models.MetricTemperature)
	}
	if record.SystolicBP == nil {
		missing = append(missing, models.MetricSystolicBP)
	}
	if record.DiastolicBP == nil {
		missing = append(missing, models.MetricDiastolicBP)
	}
	if record.Steps == nil {
		missing = append(missing, models.MetricSteps)
	}
	if record.StressLevel == nil {
		missing = append(missing, models.MetricStressLevel)
	}
	if record.SleepHours == nil {
		missing = append(missing, models.MetricSleepHours)
	}
	if len(missing) > 0 {
		return nil, &models.DataError{Msg: fmt.Sprintf("record missing required metrics %v", missing)}
	}

	timestamp := time.Now()
	if record.Timestamp != nil && *record.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, *record.Timestamp)
		if err != nil {
			return nil, &models.DataError{Msg: fmt.Sprintf("invalid timestamp %q", *record.Timestamp)}
		}
		timestamp = parsed
	}

	personID := fallbackPersonID
	if record.PersonID != nil && *record.PersonID != "" {
		personID = *record.PersonID
	}
	if personID == "" {
		return nil, &models.DataError{Msg: "record has no person_id"}
	}

	reading := &models.HealthReading{
		Timestamp:   timestamp,
		PersonID:    personID,
		HeartRate:   *record.HeartRate,
		SpO2:        *record.SpO2,
		Temperature: *record.Temperature,
		SystolicBP:  *record.SystolicBP,
		DiastolicBP: *record.DiastolicBP,
		Steps:       *record.Steps,
		StressLevel: *record.StressLevel,
		SleepHours:  *record.SleepHours,
	}

	if !reading.ValidateReading() {
		return nil, &models.DataError{Msg: fmt.Sprintf("implausible reading values for %s at %s",
			reading.PersonID, reading.Timestamp.Format(time.RFC3339))}
	}

	return reading, nil
}

// FormatReading formats a health reading for logging or debugging
func (vp *VitalsParser) FormatReading(r *models.HealthReading) string {
	return fmt.Sprintf("Person: %s, Time: %s, HR: %d bpm, SpO2: %.1f%%, Temp: %.1f°C, BP: %d/%d mmHg, Steps: %d, Stress: %d/10, Sleep: %.1fh",
		r.PersonID,
		r.Timestamp.Format("2006-01-02 15:04:05"),
		r.HeartRate,
		r.SpO2,
		r.Temperature,
		r.SystolicBP,
		r.DiastolicBP,
		r.Steps,
		r.StressLevel,
		r.SleepHours)
}
