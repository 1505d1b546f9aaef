package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"isinglab/internal/lattice"
	"isinglab/internal/metrics"
)

// SQLiteStore keeps all runs in a single database file.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			coupling REAL NOT NULL,
			field REAL NOT NULL,
			temperature REAL NOT NULL,
			boltzmann REAL NOT NULL,
			seed INTEGER NOT NULL,
			init TEXT NOT NULL,
			workers INTEGER NOT NULL,
			sweep_count INTEGER NOT NULL,
			energy REAL NOT NULL,
			magnetization REAL NOT NULL,
			cells BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS samples (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			sweep INTEGER NOT NULL,
			energy_per_site REAL NOT NULL,
			magnetization_per_site REAL NOT NULL,
			PRIMARY KEY (run_id, idx)
		);
	`)
	return err
}

func parseTimestamp(ts string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, ts)
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	if s.db == nil {
		return nil, errors.New("sqlite store not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// encodeCells packs spins into one byte each; int8 survives the
// round trip through byte exactly.
func encodeCells(cells []lattice.Spin) []byte {
	out := make([]byte, len(cells))
	for i, c := range cells {
		out[i] = byte(c)
	}
	return out
}

func decodeCells(data []byte) []lattice.Spin {
	out := make([]lattice.Spin, len(data))
	for i, b := range data {
		out[i] = lattice.Spin(b)
	}
	return out
}

func (s *SQLiteStore) Save(ctx context.Context, rec *RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, timestamp, width, height, coupling, field,
			temperature, boltzmann, seed, init, workers, sweep_count,
			energy, magnetization, cells)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sweep_count = excluded.sweep_count,
			energy = excluded.energy,
			magnetization = excluded.magnetization,
			cells = excluded.cells
	`, rec.ID, rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Width, rec.Height, rec.Coupling, rec.Field,
		rec.Temperature, rec.Boltzmann, rec.Seed, rec.Init, rec.Workers,
		rec.SweepCount, rec.Energy, rec.Magnetization, encodeCells(rec.Lattice))
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM samples WHERE run_id = ?`, rec.ID); err != nil {
		return err
	}
	for i, sm := range rec.Samples {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO samples (run_id, idx, sweep, energy_per_site, magnetization_per_site)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, i, sm.Sweep, sm.EnergyPerSite, sm.MagnetizationPerSite)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rec := &RunRecord{}
	var ts string
	var cells []byte
	err = db.QueryRowContext(ctx, `
		SELECT id, timestamp, width, height, coupling, field, temperature,
			boltzmann, seed, init, workers, sweep_count, energy,
			magnetization, cells
		FROM runs WHERE id = ?
	`, id).Scan(&rec.ID, &ts, &rec.Width, &rec.Height, &rec.Coupling,
		&rec.Field, &rec.Temperature, &rec.Boltzmann, &rec.Seed, &rec.Init,
		&rec.Workers, &rec.SweepCount, &rec.Energy, &rec.Magnetization, &cells)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, err
	}

	rec.Timestamp, err = parseTimestamp(ts)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	rec.Lattice = decodeCells(cells)

	rows, err := db.QueryContext(ctx, `
		SELECT sweep, energy_per_site, magnetization_per_site
		FROM samples WHERE run_id = ? ORDER BY idx
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sm metrics.Sample
		if err := rows.Scan(&sm.Sweep, &sm.EnergyPerSite, &sm.MagnetizationPerSite); err != nil {
			return nil, err
		}
		rec.Samples = append(rec.Samples, sm)
	}
	return rec, rows.Err()
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT r.id, r.timestamp, r.width, r.height, r.temperature, r.field,
			r.sweep_count,
			(SELECT COUNT(*) FROM samples s WHERE s.run_id = r.id)
		FROM runs r ORDER BY r.timestamp
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Summary
	for rows.Next() {
		var sum Summary
		var ts string
		if err := rows.Scan(&sum.ID, &ts, &sum.Width, &sum.Height,
			&sum.Temperature, &sum.Field, &sum.SweepCount, &sum.Samples); err != nil {
			return nil, err
		}
		if sum.Timestamp, err = parseTimestamp(ts); err != nil {
			return nil, err
		}
		runs = append(runs, sum)
	}
	return runs, rows.Err()
}
