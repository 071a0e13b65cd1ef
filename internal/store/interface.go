package store

import (
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

// DataStore defines the interface for health reading storage operations
type DataStore interface {
	// Health check
	Ping() error

	AddReading(models.HealthReading) error
	GetLatestReading(personID string) (*models.HealthReading, bool)
	GetAllLatestReadings() map[string]models.HealthReading
	GetSeries(personID string) (models.TimeSeries, bool)
	GetRecentReadings(personID string, limit int) []models.HealthReading
	GetReadingsInRange(personID string, start, end time.Time) []models.HealthReading
	GetSubjects() []string
	GetReadingCount() int
	ClearReadings(personID string)
}
