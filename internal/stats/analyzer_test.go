package stats

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

// normalReading builds a reading with every metric comfortably inside the
// default detection thresholds
func normalReading(ts time.Time, personID string) models.HealthReading {
	return models.HealthReading{
		Timestamp:   ts,
		PersonID:    personID,
		HeartRate:   80,
		SpO2:        97.5,
		Temperature: 36.8,
		SystolicBP:  120,
		DiastolicBP: 75,
		Steps:       50,
		StressLevel: 3,
		SleepHours:  7.5,
	}
}

func seriesOf(personID string, readings ...models.HealthReading) models.TimeSeries {
	return models.TimeSeries{PersonID: personID, Readings: readings}
}

// TestSummarize_HeartRateScenario checks the aggregates and rule counts for a
// small series with one high and one low heart rate reading
func TestSummarize_HeartRateScenario(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	r1 := normalReading(base, "Person_1")
	r1.HeartRate = 70
	r2 := normalReading(base.Add(time.Minute), "Person_1")
	r2.HeartRate = 125
	r3 := normalReading(base.Add(2*time.Minute), "Person_1")
	r3.HeartRate = 55

	report, err := analyzer.Summarize(seriesOf("Person_1", r1, r2, r3))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if report.PersonID != "Person_1" {
		t.Errorf("expected PersonID Person_1, got %s", report.PersonID)
	}
	if report.TotalReadings != 3 {
		t.Errorf("expected 3 readings, got %d", report.TotalReadings)
	}
	if !report.StartTime.Equal(base) || !report.EndTime.Equal(base.Add(2*time.Minute)) {
		t.Errorf("unexpected time bounds: %s - %s", report.StartTime, report.EndTime)
	}

	hr := report.Metrics[models.MetricHeartRate]
	if math.Abs(hr.Mean-83.3333) > 0.001 {
		t.Errorf("expected heart rate mean ~83.333, got %v", hr.Mean)
	}
	if hr.Min != 55 {
		t.Errorf("expected heart rate min 55, got %v", hr.Min)
	}
	if hr.Max != 125 {
		t.Errorf("expected heart rate max 125, got %v", hr.Max)
	}
	if hr.StdDev != nil {
		t.Error("expected no std dev for integer metric heart_rate")
	}

	if report.Anomalies.HighHeartRate != 1 {
		t.Errorf("expected 1 high_heart_rate, got %d", report.Anomalies.HighHeartRate)
	}
	if report.Anomalies.LowHeartRate != 1 {
		t.Errorf("expected 1 low_heart_rate, got %d", report.Anomalies.LowHeartRate)
	}
	if report.TotalAnomalies != 2 {
		t.Errorf("expected 2 total anomalies, got %d", report.TotalAnomalies)
	}
	if report.TotalSteps != 150 {
		t.Errorf("expected 150 total steps, got %d", report.TotalSteps)
	}
}

// TestSummarize_ThresholdExactness verifies all comparisons are strict: a
// value exactly at a threshold never counts
func TestSummarize_ThresholdExactness(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	at := normalReading(base, "Person_1")
	at.HeartRate = 120
	at.SpO2 = 95.0
	at.Temperature = 37.2
	at.SystolicBP = 130
	at.StressLevel = 6
	at.SleepHours = 6.5

	report, err := analyzer.Summarize(seriesOf("Person_1", at))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if report.TotalAnomalies != 0 {
		t.Errorf("values at thresholds must not count, got %d anomalies: %+v",
			report.TotalAnomalies, report.Anomalies)
	}

	over := normalReading(base, "Person_1")
	over.HeartRate = 121
	over.SpO2 = 94.9
	over.Temperature = 37.3
	over.SystolicBP = 131
	over.StressLevel = 7
	over.SleepHours = 6.4

	report, err = analyzer.Summarize(seriesOf("Person_1", over))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	expected := AnomalyCounts{
		HighHeartRate: 1,
		LowOxygen:     1,
		HighTemp:      1,
		HighBP:        1,
		HighStress:    1,
		PoorSleep:     1,
	}
	if report.Anomalies != expected {
		t.Errorf("expected counts %+v, got %+v", expected, report.Anomalies)
	}
	if report.TotalAnomalies != 6 {
		t.Errorf("expected 6 total anomalies, got %d", report.TotalAnomalies)
	}
}

// TestSummarize_EmptySeries verifies the typed error for an empty series
func TestSummarize_EmptySeries(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())

	_, err := analyzer.Summarize(seriesOf("Person_1"))
	if err == nil {
		t.Fatal("expected error for empty series")
	}

	var dataErr *models.DataError
	if !errors.As(err, &dataErr) {
		t.Errorf("expected DataError, got %T: %v", err, err)
	}
}

// TestSummarize_NonMonotonicTimestamps verifies the typed error for
// out-of-order readings
func TestSummarize_NonMonotonicTimestamps(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	r1 := normalReading(base, "Person_1")
	r2 := normalReading(base.Add(-time.Minute), "Person_1")

	_, err := analyzer.Summarize(seriesOf("Person_1", r1, r2))
	if err == nil {
		t.Fatal("expected error for non-monotonic timestamps")
	}

	var dataErr *models.DataError
	if !errors.As(err, &dataErr) {
		t.Errorf("expected DataError, got %T: %v", err, err)
	}
}

// TestSummarize_StdDevRules verifies std dev only appears for continuous
// metrics with more than one reading, using the sample (N-1) divisor
func TestSummarize_StdDevRules(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	r1 := normalReading(base, "Person_1")
	r1.Temperature = 36.5
	r2 := normalReading(base.Add(time.Minute), "Person_1")
	r2.Temperature = 37.0

	report, err := analyzer.Summarize(seriesOf("Person_1", r1, r2))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	temp := report.Metrics[models.MetricTemperature]
	if temp.StdDev == nil {
		t.Fatal("expected std dev for continuous metric temperature")
	}
	// Sample std dev of {36.5, 37.0} = sqrt(2*0.25^2 / 1)
	expected := math.Sqrt(2 * 0.25 * 0.25)
	if math.Abs(*temp.StdDev-expected) > 1e-9 {
		t.Errorf("expected std dev %.6f, got %.6f", expected, *temp.StdDev)
	}

	// Integer metrics never carry a std dev
	if report.Metrics[models.MetricSteps].StdDev != nil {
		t.Error("expected no std dev for integer metric steps")
	}

	// A single reading yields no std dev even for continuous metrics
	single, err := analyzer.Summarize(seriesOf("Person_1", r1))
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if single.Metrics[models.MetricTemperature].StdDev != nil {
		t.Error("expected no std dev for a single reading")
	}
}

// TestSummarize_Determinism verifies the same series always yields the same
// report
func TestSummarize_Determinism(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	series := seriesOf("Person_1",
		normalReading(base, "Person_1"),
		normalReading(base.Add(time.Minute), "Person_1"),
	)

	first, err := analyzer.Summarize(series)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	second, err := analyzer.Summarize(series)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}

	if first.TotalAnomalies != second.TotalAnomalies ||
		first.Metrics[models.MetricHeartRate] != second.Metrics[models.MetricHeartRate] {
		t.Error("repeated Summarize produced different reports")
	}
}

// TestSummarizeCohort verifies per-subject reports and fail-fast error
// wrapping
func TestSummarizeCohort(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	batch := map[string]models.TimeSeries{
		"Person_1": seriesOf("Person_1", normalReading(base, "Person_1")),
		"Person_2": seriesOf("Person_2", normalReading(base, "Person_2")),
	}

	reports, err := analyzer.SummarizeCohort(batch)
	if err != nil {
		t.Fatalf("SummarizeCohort failed: %v", err)
	}
	if len(reports) != 2 {
		t.Errorf("expected 2 reports, got %d", len(reports))
	}
	if reports["Person_2"].PersonID != "Person_2" {
		t.Errorf("report mismatched to subject: %s", reports["Person_2"].PersonID)
	}

	// An empty series fails the whole cohort with the subject named
	batch["Person_0"] = seriesOf("Person_0")
	_, err = analyzer.SummarizeCohort(batch)
	if err == nil {
		t.Fatal("expected error for cohort with empty series")
	}
	var dataErr *models.DataError
	if !errors.As(err, &dataErr) {
		t.Errorf("expected wrapped DataError, got %T: %v", err, err)
	}
}

// TestAssessReading covers the severity buckets of the per-reading assessment
func TestAssessReading(t *testing.T) {
	analyzer := NewAnalyzer(DefaultThresholds())
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	normal := normalReading(base, "Person_1")
	status := analyzer.AssessReading(&normal)
	if status.OverallStatus != "normal" || len(status.TriggeredRules) != 0 {
		t.Errorf("expected normal status, got %s (%v)", status.OverallStatus, status.TriggeredRules)
	}

	attention := normalReading(base, "Person_1")
	attention.StressLevel = 8
	status = analyzer.AssessReading(&attention)
	if status.OverallStatus != "attention" {
		t.Errorf("expected attention status, got %s", status.OverallStatus)
	}
	if len(status.TriggeredRules) != 1 || status.TriggeredRules[0] != "high_stress" {
		t.Errorf("expected [high_stress], got %v", status.TriggeredRules)
	}

	critical := normalReading(base, "Person_1")
	critical.HeartRate = 130
	critical.SpO2 = 90
	status = analyzer.AssessReading(&critical)
	if status.OverallStatus != "critical" {
		t.Errorf("expected critical status, got %s", status.OverallStatus)
	}
	if len(status.TriggeredRules) != 2 {
		t.Errorf("expected 2 triggered rules, got %v", status.TriggeredRules)
	}
	if status.PersonID != "Person_1" || !status.Timestamp.Equal(base) {
		t.Errorf("assessment lost reading identity: %+v", status)
	}
}
