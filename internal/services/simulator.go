package services

import (
	"log"
	"sync"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/generator"
	"github.com/VitalTrace/healthmon_backend/internal/metrics"
	"github.com/VitalTrace/healthmon_backend/internal/store"
	"github.com/VitalTrace/healthmon_backend/internal/ws"
)

// Simulator produces live synthetic readings for a set of monitored persons
// at a fixed interval, feeding the store and the websocket hub
type Simulator struct {
	store     store.DataStore
	gen       *generator.Generator
	hub       *ws.Hub
	subjects  []string
	interval  time.Duration
	ticker    *time.Ticker
	stopChan  chan bool
	mu        sync.RWMutex
	isRunning bool
}

// NewSimulator creates a new simulator instance. The hub may be nil when no
// live broadcasting is wanted.
func NewSimulator(dataStore store.DataStore, gen *generator.Generator, hub *ws.Hub, subjects []string, interval time.Duration) *Simulator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Simulator{
		store:    dataStore,
		gen:      gen,
		hub:      hub,
		subjects: subjects,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the simulator background process
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		log.Println("⚠️  Simulator: Already running")
		return
	}
	if len(s.subjects) == 0 {
		log.Println("⚠️  Simulator: No subjects configured, not starting")
		return
	}

	s.ticker = time.NewTicker(s.interval)
	s.isRunning = true

	log.Printf("🕐 Simulator: Started - generating readings for %d subject(s) every %s", len(s.subjects), s.interval)

	go s.run()
}

// Stop halts the simulator
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.ticker.Stop()
	s.stopChan <- true
	s.isRunning = false

	log.Println("🛑 Simulator: Stopped")
}

// IsRunning returns whether the simulator is currently running
func (s *Simulator) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Subjects returns the monitored person identifiers
func (s *Simulator) Subjects() []string {
	return s.subjects
}

// run is the main simulator loop
func (s *Simulator) run() {
	// Emit a first round immediately on start
	s.emitReadings()

	for {
		select {
		case <-s.ticker.C:
			s.emitReadings()
		case <-s.stopChan:
			return
		}
	}
}

// emitReadings generates and stores one reading per subject
func (s *Simulator) emitReadings() {
	now := time.Now()

	for _, personID := range s.subjects {
		reading, err := s.gen.GenerateReading(now, "")
		if err != nil {
			log.Printf("❌ Simulator: Failed to generate reading for %s: %v", personID, err)
			continue
		}
		reading.PersonID = personID

		if err := s.store.AddReading(reading); err != nil {
			log.Printf("❌ Simulator: Failed to store reading for %s: %v", personID, err)
			continue
		}

		metrics.ReadingsGenerated.Inc()

		if s.hub != nil {
			s.hub.BroadcastReading(&reading)
		}
	}
}
