package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

// DatabaseStore implements store.DataStore backed by PostgreSQL
type DatabaseStore struct {
	db *sql.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *sql.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

const readingColumns = `person_id, timestamp, heart_rate, spo2, temperature,
	systolic_bp, diastolic_bp, steps, stress_level, sleep_hours`

// Ping checks database connectivity
func (s *DatabaseStore) Ping() error {
	return s.db.Ping()
}

// AddReading inserts a new health reading
func (s *DatabaseStore) AddReading(reading models.HealthReading) error {
	query := `
	INSERT INTO health_readings (person_id, timestamp, heart_rate, spo2, temperature,
		systolic_bp, diastolic_bp, steps, stress_level, sleep_hours)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (person_id, timestamp) DO NOTHING;`

	_, err := s.db.Exec(query,
		reading.PersonID,
		reading.Timestamp,
		reading.HeartRate,
		reading.SpO2,
		reading.Temperature,
		reading.SystolicBP,
		reading.DiastolicBP,
		reading.Steps,
		reading.StressLevel,
		reading.SleepHours,
	)
	if err != nil {
		return fmt.Errorf("failed to insert health reading: %w", err)
	}
	return nil
}

// GetLatestReading returns the most recent reading for a person
func (s *DatabaseStore) GetLatestReading(personID string) (*models.HealthReading, bool) {
	query := fmt.Sprintf(`SELECT %s FROM health_readings
		WHERE person_id = $1 ORDER BY timestamp DESC LIMIT 1;`, readingColumns)

	reading, err := scanReading(s.db.QueryRow(query, personID))
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("Failed to query latest reading: %v", err)
		}
		return nil, false
	}
	return reading, true
}

// GetAllLatestReadings returns the latest reading for each person
func (s *DatabaseStore) GetAllLatestReadings() map[string]models.HealthReading {
	query := fmt.Sprintf(`SELECT DISTINCT ON (person_id) %s
		FROM health_readings ORDER BY person_id, timestamp DESC;`, readingColumns)

	readings := s.queryReadings(query)

	result := make(map[string]models.HealthReading, len(readings))
	for _, reading := range readings {
		result[reading.PersonID] = reading
	}
	return result
}

// GetSeries returns the full time series for a person in timestamp order
func (s *DatabaseStore) GetSeries(personID string) (models.TimeSeries, bool) {
	query := fmt.Sprintf(`SELECT %s FROM health_readings
		WHERE person_id = $1 ORDER BY timestamp ASC;`, readingColumns)

	readings := s.queryReadings(query, personID)
	if len(readings) == 0 {
		return models.TimeSeries{PersonID: personID}, false
	}

	return models.TimeSeries{PersonID: personID, Readings: readings}, true
}

// GetRecentReadings returns the most recent N readings for a person,
// newest first
func (s *DatabaseStore) GetRecentReadings(personID string, limit int) []models.HealthReading {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM health_readings
		WHERE person_id = $1 ORDER BY timestamp DESC LIMIT $2;`, readingColumns)

	return s.queryReadings(query, personID, limit)
}

// GetReadingsInRange returns a person's readings within a time range
func (s *DatabaseStore) GetReadingsInRange(personID string, start, end time.Time) []models.HealthReading {
	query := fmt.Sprintf(`SELECT %s FROM health_readings
		WHERE person_id = $1 AND timestamp > $2 AND timestamp < $3
		ORDER BY timestamp ASC;`, readingColumns)

	return s.queryReadings(query, personID, start, end)
}

// GetSubjects returns the identifiers of all monitored persons, sorted
func (s *DatabaseStore) GetSubjects() []string {
	rows, err := s.db.Query(`SELECT DISTINCT person_id FROM health_readings ORDER BY person_id;`)
	if err != nil {
		log.Printf("Failed to query subjects: %v", err)
		return nil
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var personID string
		if err := rows.Scan(&personID); err != nil {
			log.Printf("Failed to scan subject: %v", err)
			continue
		}
		subjects = append(subjects, personID)
	}
	return subjects
}

// GetReadingCount returns the total number of stored readings
func (s *DatabaseStore) GetReadingCount() int {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM health_readings;`).Scan(&count); err != nil {
		log.Printf("Failed to count readings: %v", err)
		return 0
	}
	return count
}

// ClearReadings removes all stored readings for a person (useful for testing)
func (s *DatabaseStore) ClearReadings(personID string) {
	if _, err := s.db.Exec(`DELETE FROM health_readings WHERE person_id = $1;`, personID); err != nil {
		log.Printf("Failed to clear readings for %s: %v", personID, err)
	}
}

// queryReadings runs a query returning reading rows and scans them all
func (s *DatabaseStore) queryReadings(query string, args ...interface{}) []models.HealthReading {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Printf("Failed to query readings: %v", err)
		return nil
	}
	defer rows.Close()

	var readings []models.HealthReading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			log.Printf("Failed to scan reading: %v", err)
			continue
		}
		readings = append(readings, *reading)
	}
	return readings
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReading(row rowScanner) (*models.HealthReading, error) {
	var reading models.HealthReading
	err := row.Scan(
		&reading.PersonID,
		&reading.Timestamp,
		&reading.HeartRate,
		&reading.SpO2,
		&reading.Temperature,
		&reading.SystolicBP,
		&reading.DiastolicBP,
		&reading.Steps,
		&reading.StressLevel,
		&reading.SleepHours,
	)
	if err != nil {
		return nil, err
	}
	return &reading, nil
}
