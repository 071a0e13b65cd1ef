package generator

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/VitalTrace/healthmon_backend/internal/models"
)

// DefaultAnomalyProbability is the chance that any generated reading is
// anomalous when no anomaly is forced.
const DefaultAnomalyProbability = 0.15

// Config holds the generator configuration. Profiles are treated as
// immutable once the generator is constructed.
type Config struct {
	Normal             models.NormalProfile
	Anomalies          []models.AnomalyProfile
	AnomalyProbability float64
	// Seed makes generation reproducible. Zero means process entropy.
	Seed int64
}

// DefaultConfig returns a config with the built-in smartwatch profiles
func DefaultConfig() Config {
	return Config{
		Normal:             models.DefaultNormalProfile(),
		Anomalies:          models.DefaultAnomalyProfiles(),
		AnomalyProbability: DefaultAnomalyProbability,
	}
}

// Generator produces synthetic health readings with realistically distributed
// anomalies. It is not safe for concurrent use; GenerateBatch derives an
// independent generator per subject instead of sharing the random source.
type Generator struct {
	normal      models.NormalProfile
	anomalies   []models.AnomalyProfile
	byName      map[string]*models.AnomalyProfile
	totalWeight float64
	probability float64
	seed        int64
	rng         *rand.Rand
}

// NewGenerator validates the configuration and builds a generator
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.Normal.Validate(); err != nil {
		return nil, err
	}

	byName := make(map[string]*models.AnomalyProfile, len(cfg.Anomalies))
	totalWeight := 0.0
	for i := range cfg.Anomalies {
		ap := &cfg.Anomalies[i]
		if err := ap.Validate(cfg.Normal); err != nil {
			return nil, err
		}
		if _, exists := byName[ap.Name]; exists {
			return nil, &models.ConfigError{Msg: fmt.Sprintf("duplicate anomaly profile %q", ap.Name)}
		}
		byName[ap.Name] = ap
		totalWeight += ap.Weight
	}

	probability := cfg.AnomalyProbability
	if probability < 0 || probability > 1 {
		return nil, &models.ConfigError{Msg: fmt.Sprintf("anomaly probability %.3f outside [0, 1]", probability)}
	}

	seed := cfg.Seed
	src := seed
	if src == 0 {
		src = time.Now().UnixNano()
	}

	return &Generator{
		normal:      cfg.Normal,
		anomalies:   cfg.Anomalies,
		byName:      byName,
		totalWeight: totalWeight,
		probability: probability,
		seed:        seed,
		rng:         rand.New(rand.NewSource(src)),
	}, nil
}

// GenerateReading produces exactly one reading at the given timestamp.
// If forcedAnomaly names a known anomaly profile it is applied
// unconditionally; otherwise an independent trial with the configured
// probability decides whether the reading is anomalous, and the anomaly type
// is drawn by weighted random selection.
func (g *Generator) GenerateReading(timestamp time.Time, forcedAnomaly string) (models.HealthReading, error) {
	var profile *models.AnomalyProfile

	if forcedAnomaly != "" {
		p, ok := g.byName[forcedAnomaly]
		if !ok {
			return models.HealthReading{}, &models.ConfigError{Msg: fmt.Sprintf("unknown anomaly profile %q", forcedAnomaly)}
		}
		profile = p
	} else if len(g.anomalies) > 0 && g.rng.Float64() < g.probability {
		profile = g.selectAnomaly()
	}

	reading := models.HealthReading{Timestamp: timestamp}
	for _, metric := range models.MetricNames {
		mr := g.normal[metric]
		if profile != nil {
			if override, ok := profile.Overrides[metric]; ok {
				mr = override
			}
		}
		reading.SetValue(metric, g.sample(mr))
	}

	return reading, nil
}

// GenerateSeries produces count readings spaced by interval, all tagged with
// the subject identifier. With a seeded generator the series is reproducible.
func (g *Generator) GenerateSeries(personID string, start time.Time, count int, interval time.Duration) (models.TimeSeries, error) {
	if count < 0 {
		return models.TimeSeries{}, &models.ConfigError{Msg: fmt.Sprintf("negative reading count %d", count)}
	}

	series := models.TimeSeries{
		PersonID: personID,
		Readings: make([]models.HealthReading, 0, count),
	}

	for i := 0; i < count; i++ {
		timestamp := start.Add(time.Duration(i) * interval)
		reading, err := g.GenerateReading(timestamp, "")
		if err != nil {
			return models.TimeSeries{}, err
		}
		reading.PersonID = personID
		series.Readings = append(series.Readings, reading)
	}

	return series, nil
}

// GenerateBatch generates an independent series per subject. Subjects share
// no state, so each runs on its own goroutine with its own random source;
// a seeded batch derives one partitioned stream per subject to stay
// reproducible.
func (g *Generator) GenerateBatch(personIDs []string, start time.Time, count int, interval time.Duration) (map[string]models.TimeSeries, error) {
	batch := make(map[string]models.TimeSeries, len(personIDs))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, personID := range personIDs {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()

			sub, err := g.forSubject(idx)
			if err == nil {
				var series models.TimeSeries
				series, err = sub.GenerateSeries(id, start, count, interval)
				if err == nil {
					mu.Lock()
					batch[id] = series
					mu.Unlock()
					return
				}
			}

			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("subject %s: %w", id, err)
			}
			mu.Unlock()
		}(i, personID)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return batch, nil
}

// forSubject derives a generator with an independent random stream for the
// i-th subject of a batch
func (g *Generator) forSubject(i int) (*Generator, error) {
	cfg := Config{
		Normal:             g.normal,
		Anomalies:          g.anomalies,
		AnomalyProbability: g.probability,
	}
	if g.seed != 0 {
		cfg.Seed = g.seed + int64(i) + 1
	}
	return NewGenerator(cfg)
}

// selectAnomaly draws a profile by cumulative-weight partitioning of a
// uniform draw over the weight sum. Weights are relative, not probabilities.
func (g *Generator) selectAnomaly() *models.AnomalyProfile {
	target := g.rng.Float64() * g.totalWeight
	cumulative := 0.0
	for i := range g.anomalies {
		cumulative += g.anomalies[i].Weight
		if target < cumulative {
			return &g.anomalies[i]
		}
	}
	// Float rounding can leave target at the weight sum; fall back to the
	// last profile.
	return &g.anomalies[len(g.anomalies)-1]
}

// sample draws a value from the range, inclusive of both bounds.
// Continuous values are rounded to one decimal place.
func (g *Generator) sample(mr models.MetricRange) float64 {
	if mr.Kind == models.KindInteger {
		low := int(mr.Low)
		high := int(mr.High)
		return float64(low + g.rng.Intn(high-low+1))
	}
	value := mr.Low + g.rng.Float64()*(mr.High-mr.Low)
	return math.Round(value*10) / 10
}
