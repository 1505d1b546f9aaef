// Package sim orchestrates Metropolis sweeps over an Ising lattice.
//
// A [Controller] owns one simulation instance: the lattice, the trial
// engine, the sample tracker and the phase state machine
// (Idle -> Equilibrating -> Sampling -> Idle). All mutation goes
// through the controller; readers observe the run through [Snapshot],
// which copies state at a sweep boundary and is safe to call from
// another goroutine while a run is in progress.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"isinglab/internal/lattice"
	"isinglab/internal/metrics"
	"isinglab/internal/metropolis"
	"isinglab/internal/physics"
)

// Phase is the controller state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseEquilibrating
	PhaseSampling
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEquilibrating:
		return "equilibrating"
	case PhaseSampling:
		return "sampling"
	default:
		return "unknown"
	}
}

// InitMode selects the initial spin configuration.
type InitMode string

const (
	InitRandom InitMode = "random"
	InitUp     InitMode = "up"
	InitDown   InitMode = "down"
)

// Config describes one simulation instance.
type Config struct {
	Width  int
	Height int
	Params physics.Parameters
	Seed   int64
	Init   InitMode
	// Workers > 1 enables checkerboard-parallel sweeps. 0 or 1 runs
	// the sequential random-site engine.
	Workers int
}

// DriftTolerance is the maximum allowed divergence between running
// totals and a full recomputation before the instance is considered
// corrupt.
const DriftTolerance = 1e-6

// Controller drives one simulation instance. Exported methods are safe
// for concurrent use; sweeping holds the mutex per sweep so snapshots
// interleave at sweep boundaries only.
type Controller struct {
	mu      sync.Mutex
	cfg     Config
	engine  *metropolis.Engine
	sweeper *CheckerboardSweeper
	tracker *metrics.Tracker
	phase   Phase
	sweeps  uint64
}

func NewController(cfg Config) (*Controller, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	c := &Controller{cfg: cfg}
	c.initEngine(cfg.Seed, nil)
	c.tracker = metrics.NewTracker(cfg.Width*cfg.Height, cfg.Params.Boltzmann)
	return c, nil
}

func validateConfig(cfg Config) error {
	// Below 2x2 the periodic neighbor wrap reaches the site itself,
	// which breaks the delta/total energy consistency.
	if cfg.Width < 2 || cfg.Height < 2 {
		return fmt.Errorf("%w: lattice dimensions %dx%d, need at least 2x2", ErrInvalidParameter, cfg.Width, cfg.Height)
	}
	if err := cfg.Params.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	switch cfg.Init {
	case InitRandom, InitUp, InitDown, "":
	default:
		return fmt.Errorf("%w: unknown init mode %q", ErrInvalidParameter, cfg.Init)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", ErrInvalidParameter, cfg.Workers)
	}
	// The checkerboard two-coloring only closes under periodic wrap
	// when both dimensions are even; on an odd dimension the wrap
	// neighbor has the same color and concurrent updates would race.
	if cfg.Workers > 1 && (cfg.Width%2 != 0 || cfg.Height%2 != 0) {
		return fmt.Errorf("%w: checkerboard sweeps need even dimensions, got %dx%d", ErrInvalidParameter, cfg.Width, cfg.Height)
	}
	return nil
}

// initEngine builds the lattice and engine for the given seed. When
// cells is non-nil it restores that exact spin configuration instead
// of applying the init mode.
func (c *Controller) initEngine(seed int64, cells []lattice.Spin) {
	var lat *lattice.Lattice
	switch {
	case cells != nil:
		var err error
		lat, err = lattice.FromFlat(c.cfg.Width, c.cfg.Height, cells)
		if err != nil {
			panic(err)
		}
	case c.cfg.Init == InitUp:
		lat = lattice.NewUniform(c.cfg.Width, c.cfg.Height, 1)
	case c.cfg.Init == InitDown:
		lat = lattice.NewUniform(c.cfg.Width, c.cfg.Height, -1)
	default:
		lat = lattice.NewRandom(c.cfg.Width, c.cfg.Height, rand.New(rand.NewSource(seed)))
	}

	src := metropolis.NewSource(seed, c.cfg.Width, c.cfg.Height)
	c.engine = metropolis.NewEngine(lat, c.cfg.Params, src)
	c.cfg.Seed = seed

	if c.cfg.Workers > 1 {
		c.sweeper = NewCheckerboardSweeper(c.engine, c.cfg.Workers, seed)
	} else {
		c.sweeper = nil
	}
}

// Configure replaces the model parameters. Valid only while idle, so a
// sweep in progress never sees parameters change under it.
func (c *Controller) Configure(p physics.Parameters) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle {
		return fmt.Errorf("%w: configure during %s", ErrInvalidState, c.phase)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	c.cfg.Params = p
	c.engine.SetParameters(p)
	return nil
}

// RunEquilibration performs sweeps full-lattice sweeps without
// recording samples. Cancellation is checked between sweeps.
func (c *Controller) RunEquilibration(ctx context.Context, sweeps int) error {
	return c.run(ctx, PhaseEquilibrating, sweeps, 0)
}

// RunSampling performs sweeps full-lattice sweeps, appending one
// observable sample after every interval sweeps.
func (c *Controller) RunSampling(ctx context.Context, sweeps, interval int) error {
	if interval < 1 {
		return fmt.Errorf("%w: sampling interval must be positive, got %d", ErrInvalidParameter, interval)
	}
	return c.run(ctx, PhaseSampling, sweeps, interval)
}

func (c *Controller) run(ctx context.Context, phase Phase, sweeps, interval int) error {
	if sweeps < 1 {
		return fmt.Errorf("%w: sweep count must be positive, got %d", ErrInvalidParameter, sweeps)
	}

	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return fmt.Errorf("%w: run during %s", ErrInvalidState, c.phase)
	}
	c.phase = phase
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.phase = PhaseIdle
		c.mu.Unlock()
	}()

	for i := 0; i < sweeps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c.mu.Lock()
		if c.sweeper != nil {
			c.sweeper.Sweep()
		} else {
			c.engine.Sweep()
		}
		c.sweeps++
		if phase == PhaseSampling && (i+1)%interval == 0 {
			c.record()
		}
		c.mu.Unlock()
	}

	return nil
}

// record appends one sample from the current running totals.
// Called with the mutex held.
func (c *Controller) record() {
	n := float64(c.engine.Lattice().Sites())
	c.tracker.Add(metrics.Sample{
		Sweep:                c.sweeps,
		EnergyPerSite:        c.engine.Energy() / n,
		MagnetizationPerSite: c.engine.Magnetization() / n,
	})
}

// Reset reinitializes the lattice from seed per the configured init
// mode, recomputes running totals from scratch and clears the sample
// history. Valid only while idle.
func (c *Controller) Reset(seed int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle {
		return fmt.Errorf("%w: reset during %s", ErrInvalidState, c.phase)
	}

	c.initEngine(seed, nil)
	c.tracker.Reset()
	c.sweeps = 0
	return nil
}

// Snapshot is an immutable copy of simulation state taken at a sweep
// boundary. The grid is a row-major copy, never a live reference.
type Snapshot struct {
	Width                int
	Height               int
	Grid                 []lattice.Spin
	Params               physics.Parameters
	Phase                Phase
	SweepCount           uint64
	Energy               float64
	Magnetization        float64
	EnergyPerSite        float64
	MagnetizationPerSite float64
	AcceptanceRate       float64
	LastSample           metrics.Sample
	HasSample            bool
}

// Snapshot returns a consistent copy of the current state. Safe to
// call from any goroutine in any phase.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	lat := c.engine.Lattice()
	n := float64(lat.Sites())
	snap := Snapshot{
		Width:                lat.Width(),
		Height:               lat.Height(),
		Grid:                 lat.Flat(),
		Params:               c.cfg.Params,
		Phase:                c.phase,
		SweepCount:           c.sweeps,
		Energy:               c.engine.Energy(),
		Magnetization:        c.engine.Magnetization(),
		EnergyPerSite:        c.engine.Energy() / n,
		MagnetizationPerSite: c.engine.Magnetization() / n,
		AcceptanceRate:       c.engine.AcceptanceRate(),
	}
	snap.LastSample, snap.HasSample = c.tracker.Latest()
	return snap
}

// Samples returns a copy of the recorded sample history.
func (c *Controller) Samples() []metrics.Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.Samples()
}

// Stats summarizes the sample history over a trailing window
// (0 = full history).
type Stats struct {
	Samples              int
	MeanEnergy           float64
	MeanMagnetization    float64
	MeanAbsMagnetization float64
	SpecificHeat         float64
	Susceptibility       float64
}

func (c *Controller) Stats(window int) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.cfg.Params.Temperature
	return Stats{
		Samples:              c.tracker.Len(),
		MeanEnergy:           c.tracker.MeanEnergy(window),
		MeanMagnetization:    c.tracker.MeanMagnetization(window),
		MeanAbsMagnetization: c.tracker.MeanAbsMagnetization(window),
		SpecificHeat:         c.tracker.SpecificHeat(t, window),
		Susceptibility:       c.tracker.Susceptibility(t, window),
	}
}

// Config returns the instance configuration.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// CheckConsistency compares the running totals against a full
// recomputation and fails with ErrInvariant beyond tolerance.
func (c *Controller) CheckConsistency(tolerance float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if drift := c.engine.Drift(); drift > tolerance {
		return fmt.Errorf("%w: running energy drifted by %g", ErrInvariant, drift)
	}
	lat := c.engine.Lattice()
	if dm := math.Abs(c.engine.Magnetization() - physics.Magnetization(lat)); dm > tolerance {
		return fmt.Errorf("%w: running magnetization drifted by %g", ErrInvariant, dm)
	}
	return nil
}

// Restore rebuilds a controller from persisted state: the exact spin
// configuration plus the running totals and sample history recorded at
// save time. The stored totals are verified against a fresh
// recomputation so a corrupt record fails here rather than silently
// skewing every later sample.
func Restore(cfg Config, cells []lattice.Spin, sweeps uint64, energy, magnetization float64, samples []metrics.Sample) (*Controller, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if _, err := lattice.FromFlat(cfg.Width, cfg.Height, cells); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	c := &Controller{cfg: cfg}
	c.initEngine(cfg.Seed, cells)
	c.sweeps = sweeps

	if drift := math.Abs(c.engine.Energy() - energy); drift > DriftTolerance {
		return nil, fmt.Errorf("%w: stored energy %g disagrees with recomputation by %g", ErrInvariant, energy, drift)
	}
	if dm := math.Abs(c.engine.Magnetization() - magnetization); dm > DriftTolerance {
		return nil, fmt.Errorf("%w: stored magnetization %g disagrees with recomputation by %g", ErrInvariant, magnetization, dm)
	}
	c.engine.RestoreTotals(energy, magnetization)

	c.tracker = metrics.NewTracker(cfg.Width*cfg.Height, cfg.Params.Boltzmann)
	for _, s := range samples {
		c.tracker.Add(s)
	}
	return c, nil
}
