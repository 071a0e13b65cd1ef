package store

import (
	"sort"
	"sync"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

// Store manages health readings in memory, grouped per monitored person
type Store struct {
	mu          sync.RWMutex
	readings    map[string][]models.HealthReading // per person, timestamp order
	latest      map[string]*models.HealthReading  // latest reading per person
	maxReadings int                               // cap per person
}

// NewStore creates a new in-memory store. maxReadings caps the retained
// history per person; oldest readings are dropped first.
func NewStore(maxReadings int) *Store {
	if maxReadings <= 0 {
		maxReadings = 1000 // Default to store last 1000 readings per person
	}

	return &Store{
		readings:    make(map[string][]models.HealthReading),
		latest:      make(map[string]*models.HealthReading),
		maxReadings: maxReadings,
	}
}

// Ping always succeeds for the in-memory store
func (s *Store) Ping() error {
	return nil
}

// AddReading stores a new health reading
func (s *Store) AddReading(reading models.HealthReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	series := append(s.readings[reading.PersonID], reading)

	// Maintain maximum size by removing oldest entries
	if len(series) > s.maxReadings {
		series = series[1:]
	}
	s.readings[reading.PersonID] = series

	readingCopy := reading
	s.latest[reading.PersonID] = &readingCopy

	return nil
}

// GetLatestReading returns the most recent reading for a person
func (s *Store) GetLatestReading(personID string) (*models.HealthReading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reading, exists := s.latest[personID]
	if !exists || reading == nil {
		return nil, false
	}

	// Return a copy to avoid race conditions
	readingCopy := *reading
	return &readingCopy, true
}

// GetAllLatestReadings returns the latest reading for each person
func (s *Store) GetAllLatestReadings() map[string]models.HealthReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]models.HealthReading, len(s.latest))
	for personID, reading := range s.latest {
		if reading != nil {
			result[personID] = *reading
		}
	}
	return result
}

// GetSeries returns the full time series for a person in timestamp order
func (s *Store) GetSeries(personID string) (models.TimeSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.readings[personID]
	if !exists || len(stored) == 0 {
		return models.TimeSeries{PersonID: personID}, false
	}

	readings := make([]models.HealthReading, len(stored))
	copy(readings, stored)

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.Before(readings[j].Timestamp)
	})

	return models.TimeSeries{PersonID: personID, Readings: readings}, true
}

// GetRecentReadings returns the most recent N readings for a person,
// newest first
func (s *Store) GetRecentReadings(personID string, limit int) []models.HealthReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.readings[personID]
	readings := make([]models.HealthReading, len(stored))
	copy(readings, stored)

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Timestamp.After(readings[j].Timestamp)
	})

	if limit > 0 && len(readings) > limit {
		readings = readings[:limit]
	}

	return readings
}

// GetReadingsInRange returns a person's readings within a time range
func (s *Store) GetReadingsInRange(personID string, start, end time.Time) []models.HealthReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.HealthReading
	for _, reading := range s.readings[personID] {
		if reading.Timestamp.After(start) && reading.Timestamp.Before(end) {
			result = append(result, reading)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	return result
}

// GetSubjects returns the identifiers of all monitored persons, sorted
func (s *Store) GetSubjects() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjects := make([]string, 0, len(s.readings))
	for personID := range s.readings {
		subjects = append(subjects, personID)
	}
	sort.Strings(subjects)

	return subjects
}

// GetReadingCount returns the total number of stored readings
func (s *Store) GetReadingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, series := range s.readings {
		count += len(series)
	}
	return count
}

// ClearReadings removes all stored readings for a person (useful for testing)
func (s *Store) ClearReadings(personID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.readings, personID)
	delete(s.latest, personID)
}
