// Package storage persists simulation runs. A stored record carries
// everything needed for exact resume: the flat ±1 lattice, the model
// parameters, the running totals and the full sample sequence.
//
// Two backends are available behind [New]: a files store writing
// metadata.json plus CSV files per run directory, and a sqlite store
// keeping all runs in one database file.
package storage

import (
	"context"
	"fmt"
	"time"

	"isinglab/internal/lattice"
	"isinglab/internal/metrics"
)

// RunRecord is the persisted form of one simulation run.
type RunRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`

	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Coupling    float64 `json:"coupling"`
	Field       float64 `json:"field"`
	Temperature float64 `json:"temperature"`
	Boltzmann   float64 `json:"boltzmann"`
	Seed        int64   `json:"seed"`
	Init        string  `json:"init"`
	Workers     int     `json:"workers"`

	SweepCount    uint64  `json:"sweep_count"`
	Energy        float64 `json:"energy"`
	Magnetization float64 `json:"magnetization"`

	Lattice []lattice.Spin   `json:"-"`
	Samples []metrics.Sample `json:"-"`

	Stats map[string]float64 `json:"stats,omitempty"`
}

// Summary is the listing view of a stored run.
type Summary struct {
	ID          string
	Timestamp   time.Time
	Width       int
	Height      int
	Temperature float64
	Field       float64
	SweepCount  uint64
	Samples     int
}

type Store interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, rec *RunRecord) error
	Load(ctx context.Context, id string) (*RunRecord, error)
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// New returns a store for the given backend kind: "files" (or empty)
// or "sqlite".
func New(kind, path string) (Store, error) {
	switch kind {
	case "", "files":
		return NewFilesStore(path), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// NewRunID builds a run identifier from the lattice size and the
// current time.
func NewRunID(width, height int) string {
	return fmt.Sprintf("ising_%dx%d_%d", width, height, time.Now().UnixNano())
}
