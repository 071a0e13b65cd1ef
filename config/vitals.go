package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/VitalTrace/healthmon_backend/internal/models"
	"github.com/VitalTrace/healthmon_backend/internal/stats"
)

// VitalsProfile bundles the tunable clinical configuration: normal metric
// ranges, anomaly profiles with their weights, and detection thresholds.
// A deployment can override any of them from a JSON file without code
// changes.
type VitalsProfile struct {
	Normal     models.NormalProfile    `json:"normal_ranges"`
	Anomalies  []models.AnomalyProfile `json:"anomaly_profiles"`
	Thresholds stats.Thresholds        `json:"thresholds"`
}

// DefaultVitalsProfile returns the built-in smartwatch configuration
func DefaultVitalsProfile() VitalsProfile {
	return VitalsProfile{
		Normal:     models.DefaultNormalProfile(),
		Anomalies:  models.DefaultAnomalyProfiles(),
		Thresholds: stats.DefaultThresholds(),
	}
}

// LoadVitalsProfile loads the vitals configuration, merging a JSON override
// file over the defaults when path is non-empty. Sections absent from the
// file keep their default values.
func LoadVitalsProfile(path string) (VitalsProfile, error) {
	profile := DefaultVitalsProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("failed to read vitals profile file: %w", err)
	}

	var override struct {
		Normal     models.NormalProfile    `json:"normal_ranges"`
		Anomalies  []models.AnomalyProfile `json:"anomaly_profiles"`
		Thresholds *stats.Thresholds       `json:"thresholds"`
	}
	if err := json.Unmarshal(data, &override); err != nil {
		return profile, fmt.Errorf("failed to parse vitals profile file: %w", err)
	}

	if override.Normal != nil {
		profile.Normal = override.Normal
	}
	if override.Anomalies != nil {
		profile.Anomalies = override.Anomalies
	}
	if override.Thresholds != nil {
		profile.Thresholds = *override.Thresholds
	}

	if err := profile.Normal.Validate(); err != nil {
		return profile, err
	}
	for _, ap := range profile.Anomalies {
		if err := ap.Validate(profile.Normal); err != nil {
			return profile, err
		}
	}

	return profile, nil
}
