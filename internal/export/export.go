package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
	"github.com/VitalTrace/healthmon_backend/internal/stats"
	"github.com/xuri/excelize/v2"
)

// CSVHeader is the fixed column set of the tabular exchange format.
// Timestamps are ISO-8601 strings.
var CSVHeader = []string{
	"timestamp",
	"heart_rate",
	"spo2",
	"temperature",
	"systolic_bp",
	"diastolic_bp",
	"steps",
	"stress_level",
	"sleep_hours",
	"person_id",
}

// ExportService handles data export functionality
type ExportService struct{}

// NewExportService creates a new export service instance
func NewExportService() *ExportService {
	return &ExportService{}
}

// ExportData represents data to be exported
type ExportData struct {
	Readings []models.HealthReading
	Reports  map[string]*stats.Report
	Metadata ExportMetadata
}

// ExportMetadata contains information about the export
type ExportMetadata struct {
	GeneratedAt   time.Time `json:"generated_at"`
	DateRange     string    `json:"date_range"`
	TotalReadings int       `json:"total_readings"`
	Subjects      []string  `json:"subjects"`
}

// GenerateCSV creates tabular rows for readings, header first
func (es *ExportService) GenerateCSV(readings []models.HealthReading) ([][]string, error) {
	records := [][]string{CSVHeader}

	for _, r := range readings {
		record := []string{
			r.Timestamp.Format(time.RFC3339),
			strconv.Itoa(r.HeartRate),
			strconv.FormatFloat(r.SpO2, 'f', 1, 64),
			strconv.FormatFloat(r.Temperature, 'f', 1, 64),
			strconv.Itoa(r.SystolicBP),
			strconv.Itoa(r.DiastolicBP),
			strconv.Itoa(r.Steps),
			strconv.Itoa(r.StressLevel),
			strconv.FormatFloat(r.SleepHours, 'f', 1, 64),
			r.PersonID,
		}
		records = append(records, record)
	}

	return records, nil
}

// WriteCSV writes CSV data to a writer
func (es *ExportService) WriteCSV(w *csv.Writer, records [][]string) error {
	return w.WriteAll(records)
}

// ParseCSV reads the tabular exchange format back into readings. The header
// must contain every required column; a missing column or malformed value
// fails with a DataError rather than being defaulted.
func (es *ExportService) ParseCSV(r io.Reader) ([]models.HealthReading, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, &models.DataError{Msg: fmt.Sprintf("failed to read CSV header: %v", err)}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	for _, required := range CSVHeader {
		if _, ok := columns[required]; !ok {
			return nil, &models.DataError{Msg: fmt.Sprintf("CSV missing required column %q", required)}
		}
	}

	var readings []models.HealthReading
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &models.DataError{Msg: fmt.Sprintf("failed to read CSV line %d: %v", line, err)}
		}

		reading, err := parseRecord(record, columns, line)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}

	return readings, nil
}

func parseRecord(record []string, columns map[string]int, line int) (*models.HealthReading, error) {
	field := func(name string) string {
		return record[columns[name]]
	}

	timestamp, err := time.Parse(time.RFC3339, field("timestamp"))
	if err != nil {
		return nil, &models.DataError{Msg: fmt.Sprintf("line %d: invalid timestamp %q", line, field("timestamp"))}
	}

	reading := models.HealthReading{
		Timestamp: timestamp,
		PersonID:  field("person_id"),
	}

	for _, metric := range models.MetricNames {
		value, err := strconv.ParseFloat(field(metric), 64)
		if err != nil {
			return nil, &models.DataError{Msg: fmt.Sprintf("line %d: invalid %s value %q", line, metric, field(metric))}
		}
		reading.SetValue(metric, value)
	}

	return &reading, nil
}

// GenerateExcel creates an Excel workbook with readings and per-subject
// report summaries
func (es *ExportService) GenerateExcel(data ExportData) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set document properties
	f.SetDocProps(&excelize.DocProperties{
		Category:       "HealthMon Telemetry",
		Created:        data.Metadata.GeneratedAt.Format(time.RFC3339),
		Creator:        "HealthMon System",
		Description:    "Smartwatch health readings and anomaly report export",
		LastModifiedBy: "HealthMon Backend",
		Modified:       data.Metadata.GeneratedAt.Format(time.RFC3339),
		Subject:        "Health Monitoring Report",
		Title:          "HealthMon Telemetry Report",
		Version:        "1.0",
	})

	es.createSummarySheet(f, data)
	es.createReadingsSheet(f, data.Readings)
	es.createAnomalySheet(f, data.Reports)

	// Set active sheet to Summary
	f.SetActiveSheet(0)

	return f, nil
}

// createSummarySheet creates the summary overview sheet
func (es *ExportService) createSummarySheet(f *excelize.File, data ExportData) error {
	sheetName := "Summary"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", "HealthMon Telemetry Report")
	f.MergeCell(sheetName, "A1", "E1")
	f.SetCellStyle(sheetName, "A1", "E1", headerStyle)
	f.SetRowHeight(sheetName, 1, 25)

	f.SetCellValue(sheetName, "A3", "Generated At:")
	f.SetCellValue(sheetName, "B3", data.Metadata.GeneratedAt.Format("2006-01-02 15:04:05"))
	f.SetCellValue(sheetName, "A4", "Date Range:")
	f.SetCellValue(sheetName, "B4", data.Metadata.DateRange)
	f.SetCellValue(sheetName, "A5", "Total Readings:")
	f.SetCellValue(sheetName, "B5", data.Metadata.TotalReadings)
	f.SetCellValue(sheetName, "A6", "Subjects:")
	f.SetCellValue(sheetName, "B6", len(data.Metadata.Subjects))

	// Per-subject report rows
	f.SetCellValue(sheetName, "A8", "Subject Reports")
	f.SetCellStyle(sheetName, "A8", "A8", headerStyle)

	headers := []string{"Subject", "Readings", "Avg Heart Rate", "Avg SpO2", "Total Steps", "Total Anomalies"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 9)
		f.SetCellValue(sheetName, cell, header)
	}

	row := 10
	for _, personID := range data.Metadata.Subjects {
		report, ok := data.Reports[personID]
		if !ok {
			continue
		}
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), personID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), report.TotalReadings)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), report.Metrics[models.MetricHeartRate].Mean)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), report.Metrics[models.MetricSpO2].Mean)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), report.TotalSteps)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), report.TotalAnomalies)
		row++
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "F", 15)

	return nil
}

// createReadingsSheet creates the raw readings sheet
func (es *ExportService) createReadingsSheet(f *excelize.File, readings []models.HealthReading) error {
	sheetName := "Readings"
	f.NewSheet(sheetName)

	headers := []string{"Timestamp", "Person", "Heart Rate (bpm)", "SpO2 (%)", "Temperature (°C)",
		"Systolic BP (mmHg)", "Diastolic BP (mmHg)", "Steps", "Stress (1-10)", "Sleep (h)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"70AD47"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.SetCellStyle(sheetName, "A1", "J1", headerStyle)

	for i, r := range readings {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.Timestamp.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.PersonID)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.HeartRate)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.SpO2)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.Temperature)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.SystolicBP)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.DiastolicBP)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), r.Steps)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), r.StressLevel)
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), r.SleepHours)
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "J", 14)

	return nil
}

// createAnomalySheet creates the per-subject anomaly tally sheet
func (es *ExportService) createAnomalySheet(f *excelize.File, reports map[string]*stats.Report) error {
	sheetName := "Anomalies"
	f.NewSheet(sheetName)

	headers := []string{"Subject", "High HR", "Low HR", "Low O2", "High Temp", "Low Temp",
		"High BP", "Low BP", "High Stress", "Poor Sleep", "Excessive Sleep", "Total"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"C55A11"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	f.SetCellStyle(sheetName, "A1", "L1", headerStyle)

	// Deterministic row order
	subjects := make([]string, 0, len(reports))
	for personID := range reports {
		subjects = append(subjects, personID)
	}
	sort.Strings(subjects)

	for i, personID := range subjects {
		report := reports[personID]
		row := i + 2
		a := report.Anomalies
		values := []interface{}{personID, a.HighHeartRate, a.LowHeartRate, a.LowOxygen, a.HighTemp,
			a.LowTemp, a.HighBP, a.LowBP, a.HighStress, a.PoorSleep, a.ExcessiveSleep, report.TotalAnomalies}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "L", 12)

	return nil
}
