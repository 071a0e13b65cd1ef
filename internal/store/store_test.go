package store

import (
	"testing"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

func testReading(personID string, ts time.Time, heartRate int) models.HealthReading {
	return models.HealthReading{
		Timestamp:   ts,
		PersonID:    personID,
		HeartRate:   heartRate,
		SpO2:        97.0,
		Temperature: 36.8,
		SystolicBP:  120,
		DiastolicBP: 75,
		Steps:       40,
		StressLevel: 3,
		SleepHours:  7.5,
	}
}

// TestAddAndGetLatestReading tests basic storage and latest retrieval
func TestAddAndGetLatestReading(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	if _, exists := store.GetLatestReading("Person_1"); exists {
		t.Error("expected no reading before any Add")
	}

	if err := store.AddReading(testReading("Person_1", base, 72)); err != nil {
		t.Fatalf("AddReading failed: %v", err)
	}
	if err := store.AddReading(testReading("Person_1", base.Add(time.Minute), 75)); err != nil {
		t.Fatalf("AddReading failed: %v", err)
	}

	latest, exists := store.GetLatestReading("Person_1")
	if !exists {
		t.Fatal("expected latest reading to exist")
	}
	if latest.HeartRate != 75 {
		t.Errorf("expected latest heart rate 75, got %d", latest.HeartRate)
	}

	all := store.GetAllLatestReadings()
	if len(all) != 1 {
		t.Errorf("expected 1 person in latest map, got %d", len(all))
	}
}

// TestGetSeries_Ordering tests that series come back in timestamp order even
// when inserted out of order
func TestGetSeries_Ordering(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	store.AddReading(testReading("Person_1", base.Add(2*time.Minute), 80))
	store.AddReading(testReading("Person_1", base, 70))
	store.AddReading(testReading("Person_1", base.Add(time.Minute), 75))

	series, exists := store.GetSeries("Person_1")
	if !exists {
		t.Fatal("expected series to exist")
	}
	if series.Len() != 3 {
		t.Fatalf("expected 3 readings, got %d", series.Len())
	}

	for i := 1; i < len(series.Readings); i++ {
		if series.Readings[i].Timestamp.Before(series.Readings[i-1].Timestamp) {
			t.Error("series readings not in timestamp order")
		}
	}
	if series.Readings[0].HeartRate != 70 {
		t.Errorf("expected oldest reading first, got heart rate %d", series.Readings[0].HeartRate)
	}
}

// TestMaxReadingsCap tests that the oldest readings are dropped at the cap
func TestMaxReadingsCap(t *testing.T) {
	store := NewStore(5)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		store.AddReading(testReading("Person_1", base.Add(time.Duration(i)*time.Minute), 70+i))
	}

	series, _ := store.GetSeries("Person_1")
	if series.Len() != 5 {
		t.Fatalf("expected 5 retained readings, got %d", series.Len())
	}
	if series.Readings[0].HeartRate != 75 {
		t.Errorf("expected oldest retained heart rate 75, got %d", series.Readings[0].HeartRate)
	}
	if series.Readings[4].HeartRate != 79 {
		t.Errorf("expected newest heart rate 79, got %d", series.Readings[4].HeartRate)
	}
}

// TestGetRecentReadings tests limit handling and newest-first ordering
func TestGetRecentReadings(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		store.AddReading(testReading("Person_1", base.Add(time.Duration(i)*time.Minute), 70+i))
	}

	recent := store.GetRecentReadings("Person_1", 3)
	if len(recent) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(recent))
	}
	if recent[0].HeartRate != 79 {
		t.Errorf("expected newest reading first, got heart rate %d", recent[0].HeartRate)
	}
	if recent[2].HeartRate != 77 {
		t.Errorf("expected third-newest last, got heart rate %d", recent[2].HeartRate)
	}
}

// TestGetReadingsInRange tests the time window query
func TestGetReadingsInRange(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		store.AddReading(testReading("Person_1", base.Add(time.Duration(i)*time.Minute), 70+i))
	}

	start := base.Add(2 * time.Minute)
	end := base.Add(6 * time.Minute)
	ranged := store.GetReadingsInRange("Person_1", start, end)

	// Bounds are exclusive
	if len(ranged) != 3 {
		t.Fatalf("expected 3 readings in range, got %d", len(ranged))
	}
	for _, reading := range ranged {
		if !reading.Timestamp.After(start) || !reading.Timestamp.Before(end) {
			t.Errorf("reading at %s outside range (%s, %s)", reading.Timestamp, start, end)
		}
	}
}

// TestSubjectsAndCounts tests subject listing, counting and clearing
func TestSubjectsAndCounts(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	store.AddReading(testReading("Person_2", base, 70))
	store.AddReading(testReading("Person_1", base, 70))
	store.AddReading(testReading("Person_1", base.Add(time.Minute), 71))

	subjects := store.GetSubjects()
	if len(subjects) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(subjects))
	}
	if subjects[0] != "Person_1" || subjects[1] != "Person_2" {
		t.Errorf("expected sorted subjects, got %v", subjects)
	}

	if count := store.GetReadingCount(); count != 3 {
		t.Errorf("expected 3 total readings, got %d", count)
	}

	store.ClearReadings("Person_1")
	if _, exists := store.GetLatestReading("Person_1"); exists {
		t.Error("expected no latest reading after clear")
	}
	if count := store.GetReadingCount(); count != 1 {
		t.Errorf("expected 1 reading after clear, got %d", count)
	}
}

// TestStoreIsolation tests that returned readings are copies
func TestStoreIsolation(t *testing.T) {
	store := NewStore(100)
	base := time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC)

	store.AddReading(testReading("Person_1", base, 70))

	latest, _ := store.GetLatestReading("Person_1")
	latest.HeartRate = 999

	unchanged, _ := store.GetLatestReading("Person_1")
	if unchanged.HeartRate != 70 {
		t.Errorf("mutating a returned reading leaked into the store: %d", unchanged.HeartRate)
	}

	series, _ := store.GetSeries("Person_1")
	series.Readings[0].HeartRate = 999

	series2, _ := store.GetSeries("Person_1")
	if series2.Readings[0].HeartRate != 70 {
		t.Errorf("mutating a returned series leaked into the store: %d", series2.Readings[0].HeartRate)
	}
}
