package http

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/VitalTrace/healthmon_backend/internal/cache"
	"github.com/VitalTrace/healthmon_backend/internal/export"
	"github.com/VitalTrace/healthmon_backend/internal/generator"
	"github.com/VitalTrace/healthmon_backend/internal/metrics"
	"github.com/VitalTrace/healthmon_backend/internal/models"
	"github.com/VitalTrace/healthmon_backend/internal/services"
	"github.com/VitalTrace/healthmon_backend/internal/stats"
	"github.com/VitalTrace/healthmon_backend/internal/store"
	"github.com/VitalTrace/healthmon_backend/internal/ws"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	store         store.DataStore
	analyzer      *stats.Analyzer
	gen           *generator.Generator
	simulator     *services.Simulator
	parser        *services.VitalsParser
	exportService *export.ExportService
	hub           *ws.Hub
	reportCache   *cache.RedisCache // nil when Redis is not configured
}

// NewHandlers creates a new handlers instance. hub and reportCache may be nil.
func NewHandlers(dataStore store.DataStore, analyzer *stats.Analyzer, gen *generator.Generator, simulator *services.Simulator, hub *ws.Hub, reportCache *cache.RedisCache) *Handlers {
	return &Handlers{
		store:         dataStore,
		analyzer:      analyzer,
		gen:           gen,
		simulator:     simulator,
		parser:        services.NewVitalsParser(),
		exportService: export.NewExportService(),
		hub:           hub,
		reportCache:   reportCache,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// sendJSONResponse sends a success response with the given payload
func (h *Handlers) sendJSONResponse(w http.ResponseWriter, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// sendErrorResponse sends a standardized error response
func (h *Handlers) sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	response := APIResponse{
		Success: false,
		Error:   message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// sendDomainError maps typed domain errors onto HTTP statuses:
// configuration problems are the caller's fault (400), malformed or
// inconsistent data is unprocessable (422), anything else is a 500.
func (h *Handlers) sendDomainError(w http.ResponseWriter, err error) {
	var cfgErr *models.ConfigError
	var dataErr *models.DataError

	switch {
	case errors.As(err, &cfgErr):
		h.sendErrorResponse(w, cfgErr.Error(), http.StatusBadRequest)
	case errors.As(err, &dataErr):
		h.sendErrorResponse(w, dataErr.Error(), http.StatusUnprocessableEntity)
	default:
		h.sendErrorResponse(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetSystemStats returns system statistics
func (h *Handlers) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	systemStats := map[string]interface{}{
		"total_readings":    h.store.GetReadingCount(),
		"monitored_persons": len(h.store.GetSubjects()),
		"simulator_running": h.simulator != nil && h.simulator.IsRunning(),
		"connected_clients": 0,
		"server_time":       time.Now(),
	}
	if h.hub != nil {
		systemStats["connected_clients"] = h.hub.GetConnectedClientsCount()
	}

	h.sendJSONResponse(w, systemStats)
}

// GetSubjects returns the list of persons with stored readings
func (h *Handlers) GetSubjects(w http.ResponseWriter, r *http.Request) {
	h.sendJSONResponse(w, h.store.GetSubjects())
}

// GetLatestReading returns the most recent reading for a person
func (h *Handlers) GetLatestReading(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	reading, exists := h.store.GetLatestReading(personID)
	if !exists {
		h.sendErrorResponse(w, "No readings available for person: "+personID, http.StatusNotFound)
		return
	}

	h.sendJSONResponse(w, reading)
}

// GetAllLatestReadings returns the latest reading for each monitored person
func (h *Handlers) GetAllLatestReadings(w http.ResponseWriter, r *http.Request) {
	readings := h.store.GetAllLatestReadings()

	if len(readings) == 0 {
		h.sendErrorResponse(w, "No readings available", http.StatusNotFound)
		return
	}

	h.sendJSONResponse(w, readings)
}

// GetPersonReadings returns readings for a person, either the most recent N
// (limit parameter, default 50) or a time window (start/end parameters)
func (h *Handlers) GetPersonReadings(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")
	limitStr := r.URL.Query().Get("limit")
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	// Time range query takes precedence when both bounds are given
	if startStr != "" || endStr != "" {
		if startStr == "" || endStr == "" {
			h.sendErrorResponse(w, "Both start and end time parameters are required", http.StatusBadRequest)
			return
		}

		start, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			h.sendErrorResponse(w, "Invalid start time format. Use RFC3339 format", http.StatusBadRequest)
			return
		}

		end, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			h.sendErrorResponse(w, "Invalid end time format. Use RFC3339 format", http.StatusBadRequest)
			return
		}

		if end.Before(start) {
			h.sendErrorResponse(w, "End time must be after start time", http.StatusBadRequest)
			return
		}

		h.sendJSONResponse(w, h.store.GetReadingsInRange(personID, start, end))
		return
	}

	limit := 50 // Default limit
	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	h.sendJSONResponse(w, h.store.GetRecentReadings(personID, limit))
}

// GetPersonReport returns the computed health report for a person's full
// stored series. Reports are served from the Redis cache when available and
// recomputed (then cached) on a miss.
func (h *Handlers) GetPersonReport(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	// Try the cache first
	if h.reportCache != nil {
		cached, found, err := h.reportCache.GetReport(personID)
		if err != nil {
			log.Printf("⚠️  Report cache lookup failed for %s: %v", personID, err)
		} else if found {
			metrics.ReportCacheHits.WithLabelValues("hit").Inc()
			w.Header().Set("Content-Type", "application/json")
			w.Write(cached)
			return
		} else {
			metrics.ReportCacheHits.WithLabelValues("miss").Inc()
		}
	}

	series, exists := h.store.GetSeries(personID)
	if !exists {
		h.sendErrorResponse(w, "No readings available for person: "+personID, http.StatusNotFound)
		return
	}

	report, err := h.analyzer.Summarize(series)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	h.recordAnomalyMetrics(report)

	response := APIResponse{
		Success: true,
		Data:    report,
	}

	if h.reportCache != nil {
		if err := h.reportCache.StoreReport(personID, response); err != nil {
			log.Printf("⚠️  Failed to cache report for %s: %v", personID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// GetPersonStatus assesses the latest reading for a person against the
// detection thresholds
func (h *Handlers) GetPersonStatus(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	reading, exists := h.store.GetLatestReading(personID)
	if !exists {
		h.sendErrorResponse(w, "No readings available for person: "+personID, http.StatusNotFound)
		return
	}

	status := h.analyzer.AssessReading(reading)
	h.sendJSONResponse(w, status)
}

// GetCohortReports returns one report per monitored person
func (h *Handlers) GetCohortReports(w http.ResponseWriter, r *http.Request) {
	subjects := h.store.GetSubjects()
	if len(subjects) == 0 {
		h.sendErrorResponse(w, "No readings available", http.StatusNotFound)
		return
	}

	batch := make(map[string]models.TimeSeries, len(subjects))
	for _, personID := range subjects {
		if series, exists := h.store.GetSeries(personID); exists {
			batch[personID] = series
		}
	}

	reports, err := h.analyzer.SummarizeCohort(batch)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	for _, report := range reports {
		h.recordAnomalyMetrics(report)
	}

	h.sendJSONResponse(w, reports)
}

// AddReading handles POST requests that ingest a single reading record
func (h *Handlers) AddReading(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reading, err := h.parser.ParseRecordJSON(body, "")
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	if err := h.store.AddReading(*reading); err != nil {
		h.sendErrorResponse(w, "Failed to store reading", http.StatusInternalServerError)
		return
	}

	metrics.ReadingsIngested.WithLabelValues("http").Inc()

	if h.reportCache != nil {
		if err := h.reportCache.InvalidateReport(reading.PersonID); err != nil {
			log.Printf("⚠️  Failed to invalidate cached report for %s: %v", reading.PersonID, err)
		}
	}

	if h.hub != nil {
		h.hub.BroadcastReading(reading)
	}

	response := APIResponse{
		Success: true,
		Message: "Reading added successfully",
		Data:    reading,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// SimulateBatch handles POST requests to generate a synthetic history for a
// set of persons and load it into the store
func (h *Handlers) SimulateBatch(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Subjects []string `json:"subjects"`
		Count    int      `json:"count"`
		Interval string   `json:"interval"`
		Start    string   `json:"start"`
	}

	// Parse request body
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.sendErrorResponse(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if len(request.Subjects) == 0 {
		h.sendErrorResponse(w, "subjects is required", http.StatusBadRequest)
		return
	}
	if request.Count <= 0 {
		request.Count = 100
	}

	interval := time.Minute
	if request.Interval != "" {
		parsed, err := time.ParseDuration(request.Interval)
		if err != nil || parsed <= 0 {
			h.sendErrorResponse(w, "Invalid interval. Use Go duration format, e.g. '1m'", http.StatusBadRequest)
			return
		}
		interval = parsed
	}

	start := time.Now().Add(-time.Duration(request.Count) * interval)
	if request.Start != "" {
		parsed, err := time.Parse(time.RFC3339, request.Start)
		if err != nil {
			h.sendErrorResponse(w, "Invalid start time format. Use RFC3339 format", http.StatusBadRequest)
			return
		}
		start = parsed
	}

	batch, err := h.gen.GenerateBatch(request.Subjects, start, request.Count, interval)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	stored := 0
	for _, series := range batch {
		for _, reading := range series.Readings {
			if err := h.store.AddReading(reading); err != nil {
				log.Printf("❌ Simulate: Failed to store reading for %s: %v", series.PersonID, err)
				continue
			}
			stored++
			metrics.ReadingsGenerated.Inc()
		}
		if h.reportCache != nil {
			if err := h.reportCache.InvalidateReport(series.PersonID); err != nil {
				log.Printf("⚠️  Failed to invalidate cached report for %s: %v", series.PersonID, err)
			}
		}
	}

	log.Printf("🧪 Simulate: Generated %d readings for %d subject(s)", stored, len(batch))

	response := APIResponse{
		Success: true,
		Message: "Batch generated successfully",
		Data: map[string]interface{}{
			"subjects":        request.Subjects,
			"stored_readings": stored,
			"interval":        interval.String(),
			"start":           start,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ExportReadingsCSV handles GET requests to export reading history as CSV
func (h *Handlers) ExportReadingsCSV(w http.ResponseWriter, r *http.Request) {
	readings, start, end, ok := h.collectExportReadings(w, r)
	if !ok {
		return
	}

	// Generate CSV data
	csvData, err := h.exportService.GenerateCSV(readings)
	if err != nil {
		h.sendErrorResponse(w, "Failed to generate CSV data", http.StatusInternalServerError)
		return
	}

	// Set response headers
	filename := fmt.Sprintf("healthmon_readings_%s_to_%s.csv",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	// Write CSV data to response
	csvWriter := csv.NewWriter(w)
	if err := h.exportService.WriteCSV(csvWriter, csvData); err != nil {
		h.sendErrorResponse(w, "Failed to write CSV data", http.StatusInternalServerError)
		return
	}
}

// ExportReadingsExcel handles GET requests to export reading history plus
// per-person reports as an Excel workbook
func (h *Handlers) ExportReadingsExcel(w http.ResponseWriter, r *http.Request) {
	readings, start, end, ok := h.collectExportReadings(w, r)
	if !ok {
		return
	}

	// Compute a report per person over the exported window
	grouped := make(map[string]models.TimeSeries)
	for _, reading := range readings {
		series := grouped[reading.PersonID]
		series.PersonID = reading.PersonID
		series.Readings = append(series.Readings, reading)
		grouped[reading.PersonID] = series
	}

	reports, err := h.analyzer.SummarizeCohort(grouped)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	subjects := make([]string, 0, len(grouped))
	for personID := range grouped {
		subjects = append(subjects, personID)
	}

	exportData := export.ExportData{
		Readings: readings,
		Reports:  reports,
		Metadata: export.ExportMetadata{
			GeneratedAt:   time.Now(),
			DateRange:     fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02")),
			TotalReadings: len(readings),
			Subjects:      subjects,
		},
	}

	// Generate Excel file
	excelFile, err := h.exportService.GenerateExcel(exportData)
	if err != nil {
		h.sendErrorResponse(w, "Failed to generate Excel file", http.StatusInternalServerError)
		return
	}

	// Set response headers
	filename := fmt.Sprintf("healthmon_readings_%s_to_%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	// Write Excel file to response
	if err := excelFile.Write(w); err != nil {
		h.sendErrorResponse(w, "Failed to write Excel file", http.StatusInternalServerError)
		return
	}
}

// collectExportReadings parses the shared export query parameters and gathers
// the readings to export. On failure it writes the error response and returns
// ok=false.
func (h *Handlers) collectExportReadings(w http.ResponseWriter, r *http.Request) ([]models.HealthReading, time.Time, time.Time, bool) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	personID := r.URL.Query().Get("person_id")

	var start, end time.Time
	var err error

	// Set default time range (last 30 days if not specified)
	if startStr == "" {
		start = time.Now().AddDate(0, 0, -30)
	} else {
		start, err = time.Parse(time.RFC3339, startStr)
		if err != nil {
			h.sendErrorResponse(w, "Invalid start date format. Use RFC3339 format", http.StatusBadRequest)
			return nil, start, end, false
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			h.sendErrorResponse(w, "Invalid end date format. Use RFC3339 format", http.StatusBadRequest)
			return nil, start, end, false
		}
	}

	var readings []models.HealthReading
	if personID != "" {
		readings = h.store.GetReadingsInRange(personID, start, end)
	} else {
		for _, subject := range h.store.GetSubjects() {
			readings = append(readings, h.store.GetReadingsInRange(subject, start, end)...)
		}
	}

	return readings, start, end, true
}

// recordAnomalyMetrics feeds the per-rule anomaly counters from a report
func (h *Handlers) recordAnomalyMetrics(report *stats.Report) {
	counts := map[string]int{
		"high_heart_rate": report.Anomalies.HighHeartRate,
		"low_heart_rate":  report.Anomalies.LowHeartRate,
		"low_oxygen":      report.Anomalies.LowOxygen,
		"high_temp":       report.Anomalies.HighTemp,
		"low_temp":        report.Anomalies.LowTemp,
		"high_bp":         report.Anomalies.HighBP,
		"low_bp":          report.Anomalies.LowBP,
		"high_stress":     report.Anomalies.HighStress,
		"poor_sleep":      report.Anomalies.PoorSleep,
		"excessive_sleep": report.Anomalies.ExcessiveSleep,
	}

	for rule, count := range counts {
		if count > 0 {
			metrics.AnomaliesDetected.WithLabelValues(rule).Add(float64(count))
		}
	}
}
