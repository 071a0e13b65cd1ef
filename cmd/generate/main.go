package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/VitalTrace/healthmon_backend/config"
	"github.com/VitalTrace/healthmon_backend/internal/export"
	"github.com/VitalTrace/healthmon_backend/internal/generator"
	"github.com/VitalTrace/healthmon_backend/internal/models"
	"github.com/VitalTrace/healthmon_backend/internal/stats"
)

func main() {
	var (
		subjectsFlag = flag.String("subjects", "Person_1,Person_2,Person_3,Person_4,Person_5,Person_6", "Comma-separated person identifiers")
		count        = flag.Int("count", 100, "Readings to generate per person")
		intervalStr  = flag.String("interval", "1m", "Time between readings (Go duration)")
		seed         = flag.Int64("seed", 0, "Random seed (0 = process entropy)")
		anomalyProb  = flag.Float64("anomaly-prob", generator.DefaultAnomalyProbability, "Per-reading anomaly probability")
		profilePath  = flag.String("profile", "", "Optional JSON vitals profile override")
		out          = flag.String("out", "health_data.csv", "Output file (.csv, .json or .xlsx)")
	)
	flag.Parse()

	log.Println("⌚ HealthMon Synthetic Data Generator")
	log.Println("=====================================")

	subjects := strings.Split(*subjectsFlag, ",")
	for i := range subjects {
		subjects[i] = strings.TrimSpace(subjects[i])
	}

	interval, err := time.ParseDuration(*intervalStr)
	if err != nil || interval <= 0 {
		log.Fatalf("❌ Invalid interval %q", *intervalStr)
	}

	profile, err := config.LoadVitalsProfile(*profilePath)
	if err != nil {
		log.Fatalf("❌ Failed to load vitals profile: %v", err)
	}

	gen, err := generator.NewGenerator(generator.Config{
		Normal:             profile.Normal,
		Anomalies:          profile.Anomalies,
		AnomalyProbability: *anomalyProb,
		Seed:               *seed,
	})
	if err != nil {
		log.Fatalf("❌ Invalid generator configuration: %v", err)
	}

	start := time.Now().Add(-time.Duration(*count) * interval).Truncate(time.Minute)

	log.Printf("🧪 Generating %d readings for %d subject(s), interval %s", *count, len(subjects), interval)

	batch, err := gen.GenerateBatch(subjects, start, *count, interval)
	if err != nil {
		log.Fatalf("❌ Generation failed: %v", err)
	}

	// Flatten in stable subject order
	ids := make([]string, 0, len(batch))
	for personID := range batch {
		ids = append(ids, personID)
	}
	sort.Strings(ids)

	var readings []models.HealthReading
	for _, personID := range ids {
		readings = append(readings, batch[personID].Readings...)
	}

	if err := writeOutput(*out, readings, batch, profile.Thresholds); err != nil {
		log.Fatalf("❌ Failed to write %s: %v", *out, err)
	}
	log.Printf("💾 Wrote %d readings to %s", len(readings), *out)

	printReports(batch, profile.Thresholds)
}

// writeOutput writes the generated readings in the format implied by the
// file extension
func writeOutput(path string, readings []models.HealthReading, batch map[string]models.TimeSeries, thresholds stats.Thresholds) error {
	exportService := export.NewExportService()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		records, err := exportService.GenerateCSV(readings)
		if err != nil {
			return err
		}
		return exportService.WriteCSV(csv.NewWriter(f), records)

	case ".json":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(readings)

	case ".xlsx":
		analyzer := stats.NewAnalyzer(thresholds)
		reports, err := analyzer.SummarizeCohort(batch)
		if err != nil {
			return err
		}

		subjects := make([]string, 0, len(batch))
		for personID := range batch {
			subjects = append(subjects, personID)
		}
		sort.Strings(subjects)

		file, err := exportService.GenerateExcel(export.ExportData{
			Readings: readings,
			Reports:  reports,
			Metadata: export.ExportMetadata{
				GeneratedAt:   time.Now(),
				DateRange:     dateRange(readings),
				TotalReadings: len(readings),
				Subjects:      subjects,
			},
		})
		if err != nil {
			return err
		}
		return file.SaveAs(path)

	default:
		return fmt.Errorf("unsupported output format %q (use .csv, .json or .xlsx)", filepath.Ext(path))
	}
}

func dateRange(readings []models.HealthReading) string {
	if len(readings) == 0 {
		return ""
	}
	earliest, latest := readings[0].Timestamp, readings[0].Timestamp
	for _, r := range readings {
		if r.Timestamp.Before(earliest) {
			earliest = r.Timestamp
		}
		if r.Timestamp.After(latest) {
			latest = r.Timestamp
		}
	}
	return fmt.Sprintf("%s to %s", earliest.Format("2006-01-02"), latest.Format("2006-01-02"))
}

// printReports summarizes each person's generated series on stdout
func printReports(batch map[string]models.TimeSeries, thresholds stats.Thresholds) {
	analyzer := stats.NewAnalyzer(thresholds)

	reports, err := analyzer.SummarizeCohort(batch)
	if err != nil {
		log.Printf("⚠️  Failed to compute reports: %v", err)
		return
	}

	ids := make([]string, 0, len(reports))
	for personID := range reports {
		ids = append(ids, personID)
	}
	sort.Strings(ids)

	for _, personID := range ids {
		report := reports[personID]
		fmt.Printf("\n📊 Report for %s (%d readings, %s - %s)\n",
			report.PersonID,
			report.TotalReadings,
			report.StartTime.Format("2006-01-02 15:04"),
			report.EndTime.Format("2006-01-02 15:04"))

		for _, metric := range models.MetricNames {
			summary, ok := report.Metrics[metric]
			if !ok {
				continue
			}
			line := fmt.Sprintf("   %-13s mean=%.1f min=%.1f max=%.1f", metric, summary.Mean, summary.Min, summary.Max)
			if summary.StdDev != nil {
				line += fmt.Sprintf(" std=%.2f", *summary.StdDev)
			}
			fmt.Println(line)
		}

		fmt.Printf("   total_steps=%d anomalies=%d\n", report.TotalSteps, report.TotalAnomalies)
	}
}
