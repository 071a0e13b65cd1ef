package database

import (
	"database/sql"
	"fmt"
	"log"
)

// CreateTables creates all necessary tables for the health monitoring system
func CreateTables(db *sql.DB) error {
	log.Println("Creating database tables...")

	// health_readings stores every smartwatch reading, one row per reading
	healthReadingsTable := `
	CREATE TABLE IF NOT EXISTS health_readings (
		id SERIAL PRIMARY KEY,
		person_id VARCHAR(100) NOT NULL,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
		heart_rate INTEGER NOT NULL CHECK (heart_rate > 0),
		spo2 DECIMAL(5,1) NOT NULL CHECK (spo2 >= 0 AND spo2 <= 100),
		temperature DECIMAL(4,1) NOT NULL,
		systolic_bp INTEGER NOT NULL CHECK (systolic_bp > 0),
		diastolic_bp INTEGER NOT NULL CHECK (diastolic_bp > 0),
		steps INTEGER NOT NULL CHECK (steps >= 0),
		stress_level INTEGER NOT NULL CHECK (stress_level >= 0 AND stress_level <= 10),
		sleep_hours DECIMAL(4,1) NOT NULL CHECK (sleep_hours >= 0 AND sleep_hours <= 24),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		CONSTRAINT unique_person_timestamp UNIQUE(person_id, timestamp)
	);`

	if _, err := db.Exec(healthReadingsTable); err != nil {
		return fmt.Errorf("failed to create health_readings table: %w", err)
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_health_readings_timestamp ON health_readings(timestamp DESC);",
		"CREATE INDEX IF NOT EXISTS idx_health_readings_person_id ON health_readings(person_id);",
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
		}
	}

	log.Println("✅ Database tables created successfully")
	return nil
}

// DropTables drops all tables (useful for testing)
func DropTables(db *sql.DB) error {
	log.Println("Dropping database tables...")

	tables := []string{
		"health_readings",
	}

	for _, table := range tables {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE;", table)
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	log.Println("✅ Database tables dropped successfully")
	return nil
}

// CheckTablesExist checks if all required tables exist
func CheckTablesExist(db *sql.DB) error {
	requiredTables := []string{
		"health_readings",
	}

	for _, table := range requiredTables {
		var exists bool
		query := `SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		);`

		err := db.QueryRow(query, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}

		if !exists {
			return fmt.Errorf("table %s does not exist", table)
		}
	}

	log.Println("✅ All required tables exist")
	return nil
}
