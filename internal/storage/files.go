package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"isinglab/internal/lattice"
	"isinglab/internal/metrics"
)

// FilesStore keeps one directory per run under a base directory:
// metadata.json, samples.csv and lattice.csv.
type FilesStore struct {
	baseDir string
}

func NewFilesStore(baseDir string) *FilesStore {
	return &FilesStore{baseDir: baseDir}
}

func (s *FilesStore) Init(ctx context.Context) error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FilesStore) Close() error { return nil }

func (s *FilesStore) Save(ctx context.Context, rec *RunRecord) error {
	runDir := filepath.Join(s.baseDir, rec.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return err
	}

	if err := s.writeSamples(filepath.Join(runDir, "samples.csv"), rec.Samples); err != nil {
		return err
	}
	return s.writeLattice(filepath.Join(runDir, "lattice.csv"), rec)
}

func (s *FilesStore) writeSamples(path string, samples []metrics.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"sweep", "energy_per_site", "magnetization_per_site"}); err != nil {
		return err
	}
	for _, sm := range samples {
		row := []string{
			strconv.FormatUint(sm.Sweep, 10),
			strconv.FormatFloat(sm.EnergyPerSite, 'f', 9, 64),
			strconv.FormatFloat(sm.MagnetizationPerSite, 'f', 9, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func (s *FilesStore) writeLattice(path string, rec *RunRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	for y := 0; y < rec.Height; y++ {
		row := make([]string, rec.Width)
		for x := 0; x < rec.Width; x++ {
			row[x] = strconv.Itoa(int(rec.Lattice[y*rec.Width+x]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func (s *FilesStore) Load(ctx context.Context, id string) (*RunRecord, error) {
	runDir := filepath.Join(s.baseDir, id)

	data, err := os.ReadFile(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return nil, err
	}
	rec := &RunRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode metadata for %s: %w", id, err)
	}

	rec.Samples, err = s.readSamples(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return nil, err
	}
	rec.Lattice, err = s.readLattice(filepath.Join(runDir, "lattice.csv"), rec.Width, rec.Height)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *FilesStore) readSamples(path string) ([]metrics.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var samples []metrics.Sample
	for i, row := range rows {
		if i == 0 || len(row) < 3 {
			continue
		}
		sweep, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("samples row %d: %w", i, err)
		}
		e, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("samples row %d: %w", i, err)
		}
		m, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("samples row %d: %w", i, err)
		}
		samples = append(samples, metrics.Sample{Sweep: sweep, EnergyPerSite: e, MagnetizationPerSite: m})
	}
	return samples, nil
}

func (s *FilesStore) readLattice(path string, width, height int) ([]lattice.Spin, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) != height {
		return nil, fmt.Errorf("lattice file has %d rows, expected %d", len(rows), height)
	}

	cells := make([]lattice.Spin, 0, width*height)
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("lattice row %d has %d cells, expected %d", y, len(row), width)
		}
		for _, cell := range row {
			v, err := strconv.Atoi(cell)
			if err != nil {
				return nil, fmt.Errorf("lattice row %d: %w", y, err)
			}
			cells = append(cells, lattice.Spin(v))
		}
	}
	return cells, nil
}

func (s *FilesStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []Summary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.Load(ctx, entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, Summary{
			ID:          rec.ID,
			Timestamp:   rec.Timestamp,
			Width:       rec.Width,
			Height:      rec.Height,
			Temperature: rec.Temperature,
			Field:       rec.Field,
			SweepCount:  rec.SweepCount,
			Samples:     len(rec.Samples),
		})
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}
