package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

// TestLoadVitalsProfile_Defaults tests that an empty path yields the built-in
// profile
func TestLoadVitalsProfile_Defaults(t *testing.T) {
	profile, err := LoadVitalsProfile("")
	if err != nil {
		t.Fatalf("LoadVitalsProfile failed: %v", err)
	}

	if len(profile.Normal) != len(models.MetricNames) {
		t.Errorf("expected %d normal ranges, got %d", len(models.MetricNames), len(profile.Normal))
	}
	if len(profile.Anomalies) != 10 {
		t.Errorf("expected 10 anomaly profiles, got %d", len(profile.Anomalies))
	}
	if profile.Thresholds.HighHeartRate != 120 {
		t.Errorf("expected default high heart rate threshold 120, got %v", profile.Thresholds.HighHeartRate)
	}
}

// TestLoadVitalsProfile_PartialOverride tests that sections absent from the
// file keep their defaults
func TestLoadVitalsProfile_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitals.json")
	content := `{"thresholds": {"high_heart_rate": 150, "low_heart_rate": 50, "low_spo2": 92,
		"high_temp": 38.0, "low_temp": 35.5, "high_bp": 140, "low_bp": 100,
		"high_stress": 7, "poor_sleep": 6.0, "excessive_sleep": 10.0}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write profile file: %v", err)
	}

	profile, err := LoadVitalsProfile(path)
	if err != nil {
		t.Fatalf("LoadVitalsProfile failed: %v", err)
	}

	if profile.Thresholds.HighHeartRate != 150 {
		t.Errorf("expected overridden threshold 150, got %v", profile.Thresholds.HighHeartRate)
	}
	// Ranges and anomaly profiles keep their defaults
	if len(profile.Normal) != len(models.MetricNames) {
		t.Errorf("expected default normal ranges, got %d entries", len(profile.Normal))
	}
	if len(profile.Anomalies) != 10 {
		t.Errorf("expected default anomaly profiles, got %d", len(profile.Anomalies))
	}
}

// TestLoadVitalsProfile_InvalidOverride tests validation of override files
func TestLoadVitalsProfile_InvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitals.json")
	// heart_rate range inverted
	content := `{"normal_ranges": {
		"heart_rate": {"low": 100, "high": 60, "kind": "integer"},
		"spo2": {"low": 95, "high": 100, "kind": "continuous"},
		"temperature": {"low": 36.1, "high": 37.2, "kind": "continuous"},
		"systolic_bp": {"low": 110, "high": 130, "kind": "integer"},
		"diastolic_bp": {"low": 70, "high": 85, "kind": "integer"},
		"steps": {"low": 0, "high": 150, "kind": "integer"},
		"stress_level": {"low": 1, "high": 5, "kind": "integer"},
		"sleep_hours": {"low": 6.5, "high": 9.0, "kind": "continuous"}}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write profile file: %v", err)
	}

	if _, err := LoadVitalsProfile(path); err == nil {
		t.Fatal("expected error for inverted range in override")
	}
}

// TestLoadVitalsProfile_MissingFile tests the error for a nonexistent path
func TestLoadVitalsProfile_MissingFile(t *testing.T) {
	if _, err := LoadVitalsProfile("/nonexistent/vitals.json"); err == nil {
		t.Fatal("expected error for missing profile file")
	}
}
