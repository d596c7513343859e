// Package storage keeps run records on disk: a metadata.json describing the
// scenario and final metric values, and a metrics.csv holding one row of
// diagnostics per step. Particle state is never written.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pbdsim/internal/sim"
)

var ErrNoSeries = errors.New("storage: series not recorded")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Scenario     string             `json:"scenario"`
	Timestamp    time.Time          `json:"timestamp"`
	Solver       string             `json:"solver"`
	Constraint   string             `json:"constraint"`
	Dt           float64            `json:"dt"`
	Steps        int                `json:"steps"`
	Iterations   int                `json:"iterations"`
	Relaxation   float64            `json:"relaxation"`
	Stiffness    float64            `json:"stiffness"`
	LinkDistance float64            `json:"link_distance"`
	Particles    int                `json:"particles"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes a run record and returns its id.
func (s *Store) Save(scenario string, cfg sim.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", scenario, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Scenario:     scenario,
		Timestamp:    now,
		Solver:       cfg.Solver.String(),
		Constraint:   cfg.Constraint.String(),
		Dt:           cfg.Dt,
		Steps:        result.Steps,
		Iterations:   cfg.Iterations,
		Relaxation:   cfg.Relaxation,
		Stiffness:    cfg.Stiffness,
		LinkDistance: cfg.LinkDistance,
		Particles:    len(cfg.Particles),
		Metrics:      result.Metrics,
	}

	if err := writeMetadata(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, "metrics.csv"), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeSeries(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"step"}, names...)); err != nil {
		return err
	}
	for i := 0; i < result.Steps; i++ {
		row := []string{strconv.Itoa(i + 1)}
		for _, name := range names {
			series := result.Series[name]
			if i < len(series) {
				row = append(row, strconv.FormatFloat(series[i], 'g', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable record, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads every diagnostic series of a run, keyed by metric name.
func (s *Store) LoadSeries(runID string) (map[string][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "metrics.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	out := make(map[string][]float64)
	if len(records) == 0 {
		return out, nil
	}

	header := records[0]
	for _, name := range header[1:] {
		out[name] = make([]float64, 0, len(records)-1)
	}
	for _, record := range records[1:] {
		for j := 1; j < len(record) && j < len(header); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			out[header[j]] = append(out[header[j]], val)
		}
	}
	return out, nil
}

// LoadMetric reads a single series.
func (s *Store) LoadMetric(runID, name string) ([]float64, error) {
	all, err := s.LoadSeries(runID)
	if err != nil {
		return nil, err
	}
	series, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoSeries, name, runID)
	}
	return series, nil
}
