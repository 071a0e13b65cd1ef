package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

// Thresholds holds the fixed clinical limits used for anomaly detection.
// Detection is purely value-based: it does not matter whether a reading came
// from the generator, a device, or a file.
type Thresholds struct {
	HighHeartRate  float64 `json:"high_heart_rate"` // bpm, strictly above
	LowHeartRate   float64 `json:"low_heart_rate"`  // bpm, strictly below
	LowSpO2        float64 `json:"low_spo2"`        // percent, strictly below
	HighTemp       float64 `json:"high_temp"`       // Celsius, strictly above
	LowTemp        float64 `json:"low_temp"`        // Celsius, strictly below
	HighSystolicBP float64 `json:"high_bp"`         // mmHg, strictly above
	LowSystolicBP  float64 `json:"low_bp"`          // mmHg, strictly below
	HighStress     float64 `json:"high_stress"`     // 1-10 scale, strictly above
	PoorSleep      float64 `json:"poor_sleep"`      // hours, strictly below
	ExcessiveSleep float64 `json:"excessive_sleep"` // hours, strictly above
}

// DefaultThresholds returns the standard clinical detection limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighHeartRate:  120,
		LowHeartRate:   60,
		LowSpO2:        95,
		HighTemp:       37.2,
		LowTemp:        36.1,
		HighSystolicBP: 130,
		LowSystolicBP:  110,
		HighStress:     6,
		PoorSleep:      6.5,
		ExcessiveSleep: 9.0,
	}
}

// AnomalyCounts tallies readings per detection rule. Rules are independent:
// one reading may trigger several rules at once.
type AnomalyCounts struct {
	HighHeartRate  int `json:"high_heart_rate"`
	LowHeartRate   int `json:"low_heart_rate"`
	LowOxygen      int `json:"low_oxygen"`
	HighTemp       int `json:"high_temp"`
	LowTemp        int `json:"low_temp"`
	HighBP         int `json:"high_bp"`
	LowBP          int `json:"low_bp"`
	HighStress     int `json:"high_stress"`
	PoorSleep      int `json:"poor_sleep"`
	ExcessiveSleep int `json:"excessive_sleep"`
}

// Total sums all per-rule counts. A reading that trips two rules counts
// twice; the sum weights severity rather than counting distinct readings.
func (a AnomalyCounts) Total() int {
	return a.HighHeartRate + a.LowHeartRate + a.LowOxygen +
		a.HighTemp + a.LowTemp + a.HighBP + a.LowBP +
		a.HighStress + a.PoorSleep + a.ExcessiveSleep
}

// MetricSummary holds per-metric aggregates. StdDev uses the sample (N-1)
// divisor and is present only for continuous metrics with more than one
// reading.
type MetricSummary struct {
	Mean   float64  `json:"mean"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	StdDev *float64 `json:"std_dev,omitempty"`
}

// Report is the immutable statistical summary of one person's time series.
// It is recomputed on request and never mutates its source series.
type Report struct {
	PersonID       string                   `json:"person_id"`
	TotalReadings  int                      `json:"total_readings"`
	StartTime      time.Time                `json:"start_time"`
	EndTime        time.Time                `json:"end_time"`
	Metrics        map[string]MetricSummary `json:"metrics"`
	TotalSteps     int                      `json:"total_steps"`
	Anomalies      AnomalyCounts            `json:"anomalies"`
	TotalAnomalies int                      `json:"total_anomalies"`
}

// VitalsStatus is a per-reading assessment: which detection rules the reading
// trips and an overall severity bucket
type VitalsStatus struct {
	Timestamp      time.Time `json:"timestamp"`
	PersonID       string    `json:"person_id"`
	TriggeredRules []string  `json:"triggered_rules"`
	OverallStatus  string    `json:"overall_status"` // "normal", "attention" or "critical"
}

// Analyzer computes reports and assessments over time series. It is pure and
// stateless between calls; the same series always yields the same report.
type Analyzer struct {
	thresholds Thresholds
}

// NewAnalyzer creates an analyzer with the given detection thresholds
func NewAnalyzer(thresholds Thresholds) *Analyzer {
	return &Analyzer{thresholds: thresholds}
}

// Summarize computes the statistical report for one person's series.
// An empty series or non-monotonic timestamps fail with a DataError.
func (a *Analyzer) Summarize(series models.TimeSeries) (*Report, error) {
	if len(series.Readings) == 0 {
		return nil, &models.DataError{Msg: fmt.Sprintf("empty series for person %q", series.PersonID)}
	}

	for i := 1; i < len(series.Readings); i++ {
		if series.Readings[i].Timestamp.Before(series.Readings[i-1].Timestamp) {
			return nil, &models.DataError{Msg: fmt.Sprintf(
				"non-monotonic timestamps for person %q at reading %d", series.PersonID, i)}
		}
	}

	report := &Report{
		PersonID:      series.PersonID,
		TotalReadings: len(series.Readings),
		StartTime:     series.Readings[0].Timestamp,
		EndTime:       series.Readings[len(series.Readings)-1].Timestamp,
		Metrics:       make(map[string]MetricSummary, len(models.MetricNames)),
	}

	for _, metric := range models.MetricNames {
		summary, err := a.summarizeMetric(series, metric)
		if err != nil {
			return nil, err
		}
		report.Metrics[metric] = summary
	}

	for i := range series.Readings {
		r := &series.Readings[i]
		report.TotalSteps += r.Steps
		a.countRules(r, &report.Anomalies)
	}
	report.TotalAnomalies = report.Anomalies.Total()

	return report, nil
}

// SummarizeCohort applies Summarize per subject. Subjects are independent;
// no cross-subject aggregation happens here.
func (a *Analyzer) SummarizeCohort(batch map[string]models.TimeSeries) (map[string]*Report, error) {
	reports := make(map[string]*Report, len(batch))

	// Stable iteration keeps error reporting deterministic.
	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		report, err := a.Summarize(batch[id])
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", id, err)
		}
		reports[id] = report
	}

	return reports, nil
}

// AssessReading evaluates a single reading against the detection thresholds
func (a *Analyzer) AssessReading(r *models.HealthReading) VitalsStatus {
	var counts AnomalyCounts
	a.countRules(r, &counts)

	rules := []struct {
		name  string
		count int
	}{
		{"high_heart_rate", counts.HighHeartRate},
		{"low_heart_rate", counts.LowHeartRate},
		{"low_oxygen", counts.LowOxygen},
		{"high_temp", counts.HighTemp},
		{"low_temp", counts.LowTemp},
		{"high_bp", counts.HighBP},
		{"low_bp", counts.LowBP},
		{"high_stress", counts.HighStress},
		{"poor_sleep", counts.PoorSleep},
		{"excessive_sleep", counts.ExcessiveSleep},
	}

	triggered := []string{}
	for _, rule := range rules {
		if rule.count > 0 {
			triggered = append(triggered, rule.name)
		}
	}

	status := "normal"
	if len(triggered) == 1 {
		status = "attention"
	} else if len(triggered) > 1 {
		status = "critical"
	}

	return VitalsStatus{
		Timestamp:      r.Timestamp,
		PersonID:       r.PersonID,
		TriggeredRules: triggered,
		OverallStatus:  status,
	}
}

// Thresholds returns the analyzer's detection limits
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// countRules applies every detection rule to one reading. All comparisons are
// strict: a value exactly at a threshold does not count.
func (a *Analyzer) countRules(r *models.HealthReading, counts *AnomalyCounts) {
	t := a.thresholds

	if float64(r.HeartRate) > t.HighHeartRate {
		counts.HighHeartRate++
	}
	if float64(r.HeartRate) < t.LowHeartRate {
		counts.LowHeartRate++
	}
	if r.SpO2 < t.LowSpO2 {
		counts.LowOxygen++
	}
	if r.Temperature > t.HighTemp {
		counts.HighTemp++
	}
	if r.Temperature < t.LowTemp {
		counts.LowTemp++
	}
	if float64(r.SystolicBP) > t.HighSystolicBP {
		counts.HighBP++
	}
	if float64(r.SystolicBP) < t.LowSystolicBP {
		counts.LowBP++
	}
	if float64(r.StressLevel) > t.HighStress {
		counts.HighStress++
	}
	if r.SleepHours < t.PoorSleep {
		counts.PoorSleep++
	}
	if r.SleepHours > t.ExcessiveSleep {
		counts.ExcessiveSleep++
	}
}

// summarizeMetric calculates mean, min, max and, for continuous metrics with
// more than one sample, the sample standard deviation
func (a *Analyzer) summarizeMetric(series models.TimeSeries, metric string) (MetricSummary, error) {
	values := make([]float64, 0, len(series.Readings))
	for i := range series.Readings {
		v, ok := series.Readings[i].Value(metric)
		if !ok {
			return MetricSummary{}, &models.DataError{Msg: fmt.Sprintf("reading missing metric %q", metric)}
		}
		values = append(values, v)
	}

	sum := 0.0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	summary := MetricSummary{Mean: mean, Min: min, Max: max}

	if isContinuous(metric) && len(values) > 1 {
		varianceSum := 0.0
		for _, v := range values {
			diff := v - mean
			varianceSum += diff * diff
		}
		stdDev := math.Sqrt(varianceSum / float64(len(values)-1))
		summary.StdDev = &stdDev
	}

	return summary, nil
}

func isContinuous(metric string) bool {
	switch metric {
	case models.MetricSpO2, models.MetricTemperature, models.MetricSleepHours:
		return true
	default:
		return false
	}
}
