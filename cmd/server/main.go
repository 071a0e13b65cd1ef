package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/VitalTrace/healthmon_backend/config"
	"github.com/VitalTrace/healthmon_backend/internal/cache"
	"github.com/VitalTrace/healthmon_backend/internal/database"
	"github.com/VitalTrace/healthmon_backend/internal/generator"
	httphandlers "github.com/VitalTrace/healthmon_backend/internal/http"
	"github.com/VitalTrace/healthmon_backend/internal/metrics"
	"github.com/VitalTrace/healthmon_backend/internal/models"
	"github.com/VitalTrace/healthmon_backend/internal/mqtt"
	"github.com/VitalTrace/healthmon_backend/internal/services"
	"github.com/VitalTrace/healthmon_backend/internal/stats"
	"github.com/VitalTrace/healthmon_backend/internal/store"
	"github.com/VitalTrace/healthmon_backend/internal/ws"
)

func main() {
	log.Println("⌚ Starting HealthMon Smartwatch Telemetry Backend...")

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found: %v", err)
	} else {
		log.Println("✅ Loaded .env file")
	}

	// Load configuration
	cfg := config.Load()
	log.Printf("📋 Loaded configuration: Server port=%s, DB host=%s",
		cfg.Server.Port, cfg.Database.Host)

	// Load the vitals profile (ranges + thresholds), optionally overridden
	// from a JSON file
	profile, err := config.LoadVitalsProfile(cfg.Generator.ProfileFile)
	if err != nil {
		log.Fatalf("❌ Failed to load vitals profile: %v", err)
	}
	if cfg.Generator.ProfileFile != "" {
		log.Printf("📋 Loaded vitals profile overrides from %s", cfg.Generator.ProfileFile)
	}

	// Initialize data store with PostgreSQL or fallback to in-memory
	var dataStore store.DataStore

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Printf("⚠️  Warning: Failed to connect to database: %v", err)
		log.Println("📱 Falling back to in-memory storage")
		// Fallback to in-memory store
		dataStore = store.NewStore(1000)
		log.Println("💾 Initialized in-memory data store")
	} else {
		log.Println("✅ Connected to PostgreSQL database")

		if err := database.CreateTables(db.DB); err != nil {
			log.Fatalf("❌ Failed to run migrations: %v", err)
		}

		// Use database store
		dataStore = database.NewDatabaseStore(db.DB)
		log.Println("💾 Initialized database data store with PostgreSQL")
	}

	// Initialize the synthetic telemetry generator
	gen, err := generator.NewGenerator(generator.Config{
		Normal:             profile.Normal,
		Anomalies:          profile.Anomalies,
		AnomalyProbability: cfg.Generator.AnomalyProbability,
		Seed:               cfg.Generator.Seed,
	})
	if err != nil {
		log.Fatalf("❌ Invalid generator configuration: %v", err)
	}

	// Initialize the anomaly detection analyzer
	analyzer := stats.NewAnalyzer(profile.Thresholds)

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	go wsHub.Run()
	log.Println("🔌 Started WebSocket hub")

	// Initialize Redis report cache (skip if no address configured)
	var reportCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			log.Printf("⚠️  Warning: Failed to connect to Redis: %v", err)
			log.Println("📦 Continuing without report cache")
		} else {
			log.Printf("📦 Redis report cache connected - %s", cfg.Redis.Addr)
			reportCache = rc
			defer reportCache.Close()
		}
	} else {
		log.Println("📦 Redis not configured, skipping report cache")
	}

	// Initialize MQTT client (skip if no broker URL configured)
	var mqttClient *mqtt.Client
	if cfg.MQTT.BrokerURL != "" && cfg.MQTT.BrokerURL != "tcp://localhost:1883" {
		log.Println("📡 Attempting to connect to MQTT broker...")

		client := mqtt.NewClient(&mqtt.Config{
			BrokerURL:    cfg.MQTT.BrokerURL,
			ClientID:     cfg.MQTT.ClientID,
			Username:     cfg.MQTT.Username,
			Password:     cfg.MQTT.Password,
			KeepAlive:    cfg.MQTT.KeepAlive,
			PingTimeout:  cfg.MQTT.PingTimeout,
			ConnectRetry: cfg.MQTT.ConnectRetry,
			VitalsTopic:  cfg.MQTT.TopicVitals,
			ReportTopic:  cfg.MQTT.TopicReports,
		})

		client.SetDataHandler(func(reading *models.HealthReading) {
			if err := dataStore.AddReading(*reading); err != nil {
				log.Printf("❌ MQTT: Failed to store reading for %s: %v", reading.PersonID, err)
				return
			}
			metrics.ReadingsIngested.WithLabelValues("mqtt").Inc()
			if reportCache != nil {
				if err := reportCache.InvalidateReport(reading.PersonID); err != nil {
					log.Printf("⚠️  Failed to invalidate cached report for %s: %v", reading.PersonID, err)
				}
			}
			wsHub.BroadcastReading(reading)

			status := analyzer.AssessReading(reading)
			if status.OverallStatus != "normal" {
				wsHub.BroadcastVitalsStatus(&status)
			}
		})
		client.SetErrorHandler(func(err error) {
			wsHub.BroadcastError(err.Error())
		})

		if err := client.Connect(); err != nil {
			log.Printf("⚠️  Warning: Failed to connect to MQTT broker: %v", err)
			log.Println("📡 Continuing without MQTT support")
		} else {
			if err := client.SubscribeToVitals(); err != nil {
				log.Printf("⚠️  Warning: Failed to subscribe to vitals topics: %v", err)
			}
			log.Printf("📡 MQTT client connected - Broker: %s", cfg.MQTT.BrokerURL)
			mqttClient = client
			defer mqttClient.Disconnect()
		}
	} else {
		log.Println("📡 MQTT broker not configured, skipping MQTT initialization")
	}

	// Initialize and start the live telemetry simulator
	simulator := services.NewSimulator(dataStore, gen, wsHub, cfg.Generator.Subjects, cfg.Generator.Interval)
	simulator.Start()

	// Setup HTTP routes
	handlers := httphandlers.NewHandlers(dataStore, analyzer, gen, simulator, wsHub, reportCache)
	router := httphandlers.SetupRoutes(handlers)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Printf("🚀 Starting HTTP server on port %s", cfg.Server.Port)
		log.Println("📡 API endpoints available:")
		log.Println("  GET /api/v1/stats - System statistics")
		log.Println("  GET /api/v1/subjects - Monitored persons")
		log.Println("  GET /api/v1/subjects/latest - Latest reading per person")
		log.Println("  GET /api/v1/subjects/{personID}/latest - Latest reading")
		log.Println("  GET /api/v1/subjects/{personID}/readings - Recent or ranged readings")
		log.Println("  GET /api/v1/subjects/{personID}/report - Health report")
		log.Println("  GET /api/v1/subjects/{personID}/status - Latest vitals assessment")
		log.Println("  GET /api/v1/reports - Cohort reports")
		log.Println("  POST /api/v1/readings - Ingest a reading record")
		log.Println("  POST /api/v1/simulate - Generate synthetic history")
		log.Println("  GET /api/v1/export/readings.csv - Export readings to CSV")
		log.Println("  GET /api/v1/export/readings.xlsx - Export readings to Excel")
		log.Println("  GET /metrics - Prometheus metrics")
		log.Println("  WS /ws - WebSocket for real-time updates")
		log.Printf("🌐 Server running at http://localhost:%s", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ HTTP server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Stop simulator
	simulator.Stop()

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server shutdown complete")
}
