package generator

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

// seededConfig returns a reproducible config with the given anomaly probability
func seededConfig(probability float64, seed int64) Config {
	cfg := DefaultConfig()
	cfg.AnomalyProbability = probability
	cfg.Seed = seed
	return cfg
}

// inRange checks a value against an inclusive metric range
func inRange(value float64, mr models.MetricRange) bool {
	return value >= mr.Low && value <= mr.High
}

// isAnomalous reports whether any metric falls outside its normal range.
// Every built-in anomaly override is disjoint from the normal ranges, so this
// exactly identifies anomalous readings.
func isAnomalous(r *models.HealthReading, normal models.NormalProfile) bool {
	for _, metric := range models.MetricNames {
		value, _ := r.Value(metric)
		if !inRange(value, normal[metric]) {
			return true
		}
	}
	return false
}

// TestGenerateReading_NormalRanges verifies readings stay inside the normal
// ranges when anomalies are disabled
func TestGenerateReading_NormalRanges(t *testing.T) {
	gen, err := NewGenerator(seededConfig(0, 42))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	normal := models.DefaultNormalProfile()
	now := time.Now()

	for i := 0; i < 1000; i++ {
		reading, err := gen.GenerateReading(now, "")
		if err != nil {
			t.Fatalf("GenerateReading failed: %v", err)
		}

		for _, metric := range models.MetricNames {
			value, ok := reading.Value(metric)
			if !ok {
				t.Fatalf("reading missing metric %s", metric)
			}
			if !inRange(value, normal[metric]) {
				t.Errorf("metric %s value %.1f outside normal range [%.1f, %.1f]",
					metric, value, normal[metric].Low, normal[metric].High)
			}
		}
	}
}

// TestGenerateReading_ForcedAnomaly verifies a forced anomaly applies its
// overrides and leaves other metrics in their normal ranges
func TestGenerateReading_ForcedAnomaly(t *testing.T) {
	gen, err := NewGenerator(seededConfig(0, 7))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	normal := models.DefaultNormalProfile()
	now := time.Now()

	for i := 0; i < 200; i++ {
		reading, err := gen.GenerateReading(now, "low_oxygen")
		if err != nil {
			t.Fatalf("GenerateReading failed: %v", err)
		}

		if reading.SpO2 < 85 || reading.SpO2 > 94 {
			t.Errorf("forced low_oxygen SpO2 %.1f outside [85, 94]", reading.SpO2)
		}

		// Non-overridden metrics must stay normal
		if !inRange(float64(reading.HeartRate), normal[models.MetricHeartRate]) {
			t.Errorf("heart rate %d outside normal range under low_oxygen", reading.HeartRate)
		}
		if !inRange(reading.SleepHours, normal[models.MetricSleepHours]) {
			t.Errorf("sleep hours %.1f outside normal range under low_oxygen", reading.SleepHours)
		}
	}
}

// TestGenerateReading_UnknownForcedAnomaly verifies the typed error for an
// unknown forced profile name
func TestGenerateReading_UnknownForcedAnomaly(t *testing.T) {
	gen, err := NewGenerator(seededConfig(0, 1))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	_, err = gen.GenerateReading(time.Now(), "zombie_mode")
	if err == nil {
		t.Fatal("expected error for unknown forced anomaly")
	}

	var cfgErr *models.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %T: %v", err, err)
	}
}

// TestAnomalyRate_Convergence verifies the observed anomaly fraction converges
// to the configured probability over a large sample
func TestAnomalyRate_Convergence(t *testing.T) {
	gen, err := NewGenerator(seededConfig(DefaultAnomalyProbability, 99))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	normal := models.DefaultNormalProfile()
	now := time.Now()

	const n = 100000
	anomalous := 0
	for i := 0; i < n; i++ {
		reading, err := gen.GenerateReading(now, "")
		if err != nil {
			t.Fatalf("GenerateReading failed: %v", err)
		}
		if isAnomalous(&reading, normal) {
			anomalous++
		}
	}

	rate := float64(anomalous) / float64(n)
	if math.Abs(rate-DefaultAnomalyProbability) > 0.015 {
		t.Errorf("anomaly rate %.4f too far from %.2f", rate, DefaultAnomalyProbability)
	}
}

// TestAnomalySelection_WeightedFidelity verifies every profile gets selected
// and heavier profiles are selected more often
func TestAnomalySelection_WeightedFidelity(t *testing.T) {
	gen, err := NewGenerator(seededConfig(1.0, 123))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	normal := models.DefaultNormalProfile()
	profiles := models.DefaultAnomalyProfiles()
	now := time.Now()

	// Attribute each anomalous reading to its profile by the metric that
	// landed in an override range.
	hits := make(map[string]int, len(profiles))
	const n = 50000
	for i := 0; i < n; i++ {
		reading, err := gen.GenerateReading(now, "")
		if err != nil {
			t.Fatalf("GenerateReading failed: %v", err)
		}

		for _, profile := range profiles {
			matched := true
			for metric, override := range profile.Overrides {
				value, _ := reading.Value(metric)
				if inRange(value, normal[metric]) || !inRange(value, override) {
					matched = false
					break
				}
			}
			if matched {
				hits[profile.Name]++
				break
			}
		}
	}

	for _, profile := range profiles {
		if hits[profile.Name] == 0 {
			t.Errorf("profile %s never selected over %d draws", profile.Name, n)
		}
	}

	// high_stress (weight 0.06) must dominate excessive_sleep (weight 0.02)
	if hits["high_stress"] <= hits["excessive_sleep"] {
		t.Errorf("expected high_stress (%d) to be selected more often than excessive_sleep (%d)",
			hits["high_stress"], hits["excessive_sleep"])
	}
}

// TestGenerateSeries_TimestampsAndIdentity verifies series shape: person
// tagging, reading count and fixed interval spacing
func TestGenerateSeries_TimestampsAndIdentity(t *testing.T) {
	gen, err := NewGenerator(seededConfig(0.15, 5))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	start := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	series, err := gen.GenerateSeries("Person_1", start, 60, time.Minute)
	if err != nil {
		t.Fatalf("GenerateSeries failed: %v", err)
	}

	if series.PersonID != "Person_1" {
		t.Errorf("expected PersonID Person_1, got %s", series.PersonID)
	}
	if series.Len() != 60 {
		t.Fatalf("expected 60 readings, got %d", series.Len())
	}

	for i, reading := range series.Readings {
		expected := start.Add(time.Duration(i) * time.Minute)
		if !reading.Timestamp.Equal(expected) {
			t.Errorf("reading %d: expected timestamp %s, got %s", i, expected, reading.Timestamp)
		}
		if reading.PersonID != "Person_1" {
			t.Errorf("reading %d: expected PersonID Person_1, got %s", i, reading.PersonID)
		}
	}
}

// TestGenerateSeries_NegativeCount verifies the typed error for a negative
// reading count
func TestGenerateSeries_NegativeCount(t *testing.T) {
	gen, err := NewGenerator(seededConfig(0.15, 5))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	_, err = gen.GenerateSeries("Person_1", time.Now(), -1, time.Minute)
	if err == nil {
		t.Fatal("expected error for negative count")
	}

	var cfgErr *models.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %T: %v", err, err)
	}
}

// TestGenerateSeries_Determinism verifies the same seed reproduces the same
// series
func TestGenerateSeries_Determinism(t *testing.T) {
	start := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	genA, err := NewGenerator(seededConfig(0.15, 77))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	genB, err := NewGenerator(seededConfig(0.15, 77))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	seriesA, err := genA.GenerateSeries("Person_1", start, 100, time.Minute)
	if err != nil {
		t.Fatalf("GenerateSeries failed: %v", err)
	}
	seriesB, err := genB.GenerateSeries("Person_1", start, 100, time.Minute)
	if err != nil {
		t.Fatalf("GenerateSeries failed: %v", err)
	}

	if !reflect.DeepEqual(seriesA, seriesB) {
		t.Error("same seed produced different series")
	}
}

// TestGenerateBatch_Determinism verifies seeded batches reproduce exactly and
// subjects get independent streams
func TestGenerateBatch_Determinism(t *testing.T) {
	start := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)
	subjects := []string{"Person_1", "Person_2", "Person_3"}

	genA, err := NewGenerator(seededConfig(0.15, 31))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	genB, err := NewGenerator(seededConfig(0.15, 31))
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	batchA, err := genA.GenerateBatch(subjects, start, 50, time.Minute)
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}
	batchB, err := genB.GenerateBatch(subjects, start, 50, time.Minute)
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}

	if !reflect.DeepEqual(batchA, batchB) {
		t.Error("same seed produced different batches")
	}

	// Different subjects must not share a random stream
	a := batchA["Person_1"].Readings
	b := batchA["Person_2"].Readings
	identical := true
	for i := range a {
		if a[i].HeartRate != b[i].HeartRate || a[i].SpO2 != b[i].SpO2 {
			identical = false
			break
		}
	}
	if identical {
		t.Error("two subjects generated identical value streams")
	}
}

// TestNewGenerator_Validation covers configuration rejection paths
func TestNewGenerator_Validation(t *testing.T) {
	// Probability outside [0, 1]
	cfg := DefaultConfig()
	cfg.AnomalyProbability = 1.5
	if _, err := NewGenerator(cfg); err == nil {
		t.Error("expected error for probability > 1")
	}

	// Missing metric in normal profile
	cfg = DefaultConfig()
	delete(cfg.Normal, models.MetricSpO2)
	if _, err := NewGenerator(cfg); err == nil {
		t.Error("expected error for missing normal metric")
	}

	// Duplicate anomaly profile names
	cfg = DefaultConfig()
	cfg.Anomalies = append(cfg.Anomalies, cfg.Anomalies[0])
	if _, err := NewGenerator(cfg); err == nil {
		t.Error("expected error for duplicate anomaly profile")
	}

	// Inverted range
	cfg = DefaultConfig()
	cfg.Normal[models.MetricHeartRate] = models.MetricRange{Low: 100, High: 60, Kind: models.KindInteger}
	var cfgErr *models.ConfigError
	if _, err := NewGenerator(cfg); err == nil {
		t.Error("expected error for inverted range")
	} else if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %T: %v", err, err)
	}
}
