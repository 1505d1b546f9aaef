package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"isinglab/internal/physics"
)

func testConfig() Config {
	return Config{
		Width:  8,
		Height: 8,
		Params: physics.Parameters{Coupling: 1.0, Field: 0.0, Temperature: 2.0, Boltzmann: 1.0},
		Seed:   42,
		Init:   InitRandom,
	}
}

func TestNewControllerValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"negative height", func(c *Config) { c.Height = -2 }},
		{"one-wide lattice", func(c *Config) { c.Width = 1 }},
		{"one-high lattice", func(c *Config) { c.Height = 1 }},
		{"zero temperature", func(c *Config) { c.Params.Temperature = 0 }},
		{"negative temperature", func(c *Config) { c.Params.Temperature = -1 }},
		{"bad init mode", func(c *Config) { c.Init = "diagonal" }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"odd height with workers", func(c *Config) { c.Width, c.Height = 16, 15; c.Workers = 2 }},
		{"odd width with workers", func(c *Config) { c.Width, c.Height = 9, 16; c.Workers = 4 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewController(cfg)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestOddDimensionsRunSequentially(t *testing.T) {
	// Odd sizes are only a problem for the checkerboard decomposition;
	// the sequential engine handles them fine.
	cfg := testConfig()
	cfg.Width, cfg.Height = 9, 7
	c, err := NewController(cfg)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := c.RunEquilibration(context.Background(), 50); err != nil {
		t.Fatalf("equilibration failed: %v", err)
	}
	if err := c.CheckConsistency(DriftTolerance); err != nil {
		t.Errorf("sequential odd-size run drifted: %v", err)
	}
}

func TestRunEquilibrationAdvancesSweeps(t *testing.T) {
	c, err := NewController(testConfig())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := c.RunEquilibration(context.Background(), 10); err != nil {
		t.Fatalf("equilibration failed: %v", err)
	}

	snap := c.Snapshot()
	if snap.SweepCount != 10 {
		t.Errorf("expected 10 sweeps, got %d", snap.SweepCount)
	}
	if snap.Phase != PhaseIdle {
		t.Errorf("expected idle after run, got %s", snap.Phase)
	}
	if len(c.Samples()) != 0 {
		t.Error("equilibration must not record samples")
	}
}

func TestRunSamplingRecordsAtInterval(t *testing.T) {
	c, err := NewController(testConfig())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	if err := c.RunSampling(context.Background(), 20, 5); err != nil {
		t.Fatalf("sampling failed: %v", err)
	}

	samples := c.Samples()
	if len(samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Sweep <= samples[i-1].Sweep {
			t.Error("samples out of order")
		}
	}
	for _, s := range samples {
		if s.MagnetizationPerSite < -1.0 || s.MagnetizationPerSite > 1.0 {
			t.Errorf("magnetization per site %f out of [-1,1]", s.MagnetizationPerSite)
		}
	}
}

func TestRunRejectsBadArguments(t *testing.T) {
	c, _ := NewController(testConfig())

	if err := c.RunEquilibration(context.Background(), 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for zero sweeps, got %v", err)
	}
	if err := c.RunSampling(context.Background(), 10, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for zero interval, got %v", err)
	}
}

func TestConfigureRejectsInvalidTemperature(t *testing.T) {
	c, _ := NewController(testConfig())

	p := c.Config().Params
	p.Temperature = -3
	if err := c.Configure(p); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}

	// State unchanged on rejection.
	if c.Config().Params.Temperature != 2.0 {
		t.Error("rejected configure mutated parameters")
	}
}

func TestConfigureTakesEffect(t *testing.T) {
	c, _ := NewController(testConfig())

	p := c.Config().Params
	p.Temperature = 5.0
	p.Field = 0.25
	if err := c.Configure(p); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	snap := c.Snapshot()
	if snap.Params.Temperature != 5.0 || snap.Params.Field != 0.25 {
		t.Error("configure did not update parameters")
	}
	// Energy rebased for the new field term.
	if err := c.CheckConsistency(DriftTolerance); err != nil {
		t.Errorf("totals inconsistent after configure: %v", err)
	}
}

func TestCancellationStopsRun(t *testing.T) {
	c, _ := NewController(testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.RunEquilibration(ctx, 1000000)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// Aggregates stay coherent after an interrupted run.
	if err := c.CheckConsistency(DriftTolerance); err != nil {
		t.Errorf("consistency check failed after cancel: %v", err)
	}
	if c.Snapshot().Phase != PhaseIdle {
		t.Error("controller stuck in running phase after cancel")
	}
}

func TestNoDriftAfterLongRun(t *testing.T) {
	cfg := testConfig()
	cfg.Params.Field = 0.4
	c, _ := NewController(cfg)

	if err := c.RunSampling(context.Background(), 200, 10); err != nil {
		t.Fatalf("sampling failed: %v", err)
	}
	if err := c.CheckConsistency(DriftTolerance); err != nil {
		t.Errorf("running totals drifted: %v", err)
	}
}

func TestResetReproducesFreshConfigure(t *testing.T) {
	cfg := testConfig()
	a, _ := NewController(cfg)
	b, _ := NewController(cfg)

	// Disturb a, then reset it back to the same seed.
	if err := a.RunSampling(context.Background(), 50, 5); err != nil {
		t.Fatalf("sampling failed: %v", err)
	}
	if err := a.Reset(cfg.Seed); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if len(a.Samples()) != 0 {
		t.Error("reset did not clear sample history")
	}

	sa, sb := a.Snapshot(), b.Snapshot()
	if sa.SweepCount != 0 {
		t.Errorf("expected sweep count 0 after reset, got %d", sa.SweepCount)
	}
	if sa.Energy != sb.Energy || sa.Magnetization != sb.Magnetization {
		t.Error("reset state differs from fresh controller with same seed")
	}
	for i := range sa.Grid {
		if sa.Grid[i] != sb.Grid[i] {
			t.Fatal("reset lattice differs from fresh controller with same seed")
		}
	}

	// Identical evolution from the reset state.
	if err := a.RunEquilibration(context.Background(), 20); err != nil {
		t.Fatal(err)
	}
	if err := b.RunEquilibration(context.Background(), 20); err != nil {
		t.Fatal(err)
	}
	if a.Snapshot().Energy != b.Snapshot().Energy {
		t.Error("seeded runs diverged")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c, _ := NewController(testConfig())
	snap := c.Snapshot()

	snap.Grid[0] = -snap.Grid[0]
	if c.Snapshot().Grid[0] == snap.Grid[0] {
		t.Error("snapshot shares grid storage with live lattice")
	}
}

func TestHotRunDemagnetizes(t *testing.T) {
	cfg := testConfig()
	cfg.Width, cfg.Height = 16, 16
	cfg.Init = InitUp
	cfg.Params.Temperature = 100.0
	c, _ := NewController(cfg)

	if err := c.RunEquilibration(context.Background(), 100); err != nil {
		t.Fatal(err)
	}
	if err := c.RunSampling(context.Background(), 400, 2); err != nil {
		t.Fatal(err)
	}

	if m := c.Stats(0).MeanMagnetization; math.Abs(m) > 0.2 {
		t.Errorf("expected mean magnetization near 0 at high T, got %f", m)
	}
}

func TestColdRunStaysOrdered(t *testing.T) {
	cfg := testConfig()
	cfg.Init = InitUp
	cfg.Params.Temperature = 0.5
	c, _ := NewController(cfg)

	if err := c.RunSampling(context.Background(), 100, 10); err != nil {
		t.Fatal(err)
	}

	if m := c.Stats(0).MeanAbsMagnetization; m < 0.95 {
		t.Errorf("expected ordered phase below Tc, |m| = %f", m)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	c, _ := NewController(testConfig())
	if err := c.RunSampling(context.Background(), 30, 5); err != nil {
		t.Fatal(err)
	}

	snap := c.Snapshot()
	samples := c.Samples()

	r, err := Restore(c.Config(), snap.Grid, snap.SweepCount, snap.Energy, snap.Magnetization, samples)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	rs := r.Snapshot()
	if rs.Energy != snap.Energy || rs.Magnetization != snap.Magnetization {
		t.Error("restored totals differ")
	}
	if rs.SweepCount != snap.SweepCount {
		t.Error("restored sweep count differs")
	}
	if len(r.Samples()) != len(samples) {
		t.Error("restored sample history differs")
	}
}

func TestRestoreDetectsCorruptTotals(t *testing.T) {
	c, _ := NewController(testConfig())
	snap := c.Snapshot()

	_, err := Restore(c.Config(), snap.Grid, 0, snap.Energy+10.0, snap.Magnetization, nil)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("expected ErrInvariant for corrupt energy, got %v", err)
	}
}
