// Package metrics accumulates observable samples from a simulation run
// and derives ensemble statistics from them.
//
// Specific heat and magnetic susceptibility are fluctuation quantities;
// they are only meaningful over a sequence of samples, never from a
// single step:
//
//	C   = N * (<e^2> - <e>^2) / (k_B * T^2)
//	chi = N * (<m^2> - <m>^2) / (k_B * T)
//
// where e and m are per-site energy and magnetization and N the number
// of lattice sites. Both results are per-site quantities.
package metrics

import "math"

// Sample is one immutable observation taken at a sweep boundary.
type Sample struct {
	Sweep                uint64
	EnergyPerSite        float64
	MagnetizationPerSite float64
}

// Tracker holds the ordered, append-only sample sequence for one run.
type Tracker struct {
	sites     int
	boltzmann float64
	samples   []Sample
}

func NewTracker(sites int, boltzmann float64) *Tracker {
	return &Tracker{sites: sites, boltzmann: boltzmann}
}

func (t *Tracker) Add(s Sample) {
	t.samples = append(t.samples, s)
}

func (t *Tracker) Len() int { return len(t.samples) }

func (t *Tracker) Latest() (Sample, bool) {
	if len(t.samples) == 0 {
		return Sample{}, false
	}
	return t.samples[len(t.samples)-1], true
}

// Samples returns a copy of the full sample history.
func (t *Tracker) Samples() []Sample {
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}

func (t *Tracker) Reset() {
	t.samples = t.samples[:0]
}

// window returns the trailing n samples, or all samples when n <= 0 or
// exceeds the history length.
func (t *Tracker) window(n int) []Sample {
	if n <= 0 || n >= len(t.samples) {
		return t.samples
	}
	return t.samples[len(t.samples)-n:]
}

func (t *Tracker) MeanEnergy(window int) float64 {
	return mean(t.window(window), func(s Sample) float64 { return s.EnergyPerSite })
}

func (t *Tracker) MeanMagnetization(window int) float64 {
	return mean(t.window(window), func(s Sample) float64 { return s.MagnetizationPerSite })
}

// MeanAbsMagnetization averages |m|. In the symmetric phase m itself
// averages to zero while |m| tracks the order parameter.
func (t *Tracker) MeanAbsMagnetization(window int) float64 {
	return mean(t.window(window), func(s Sample) float64 { return math.Abs(s.MagnetizationPerSite) })
}

// SpecificHeat returns the per-site specific heat over the window at
// temperature temp.
func (t *Tracker) SpecificHeat(temp float64, window int) float64 {
	v := variance(t.window(window), func(s Sample) float64 { return s.EnergyPerSite })
	return float64(t.sites) * v / (t.boltzmann * temp * temp)
}

// Susceptibility returns the per-site magnetic susceptibility over the
// window at temperature temp.
func (t *Tracker) Susceptibility(temp float64, window int) float64 {
	v := variance(t.window(window), func(s Sample) float64 { return s.MagnetizationPerSite })
	return float64(t.sites) * v / (t.boltzmann * temp)
}

// EnergySeries returns per-site energies in sample order.
func (t *Tracker) EnergySeries() []float64 {
	return series(t.samples, func(s Sample) float64 { return s.EnergyPerSite })
}

// MagnetizationSeries returns per-site magnetizations in sample order.
func (t *Tracker) MagnetizationSeries() []float64 {
	return series(t.samples, func(s Sample) float64 { return s.MagnetizationPerSite })
}

func series(samples []Sample, f func(Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = f(s)
	}
	return out
}

func mean(samples []Sample, f func(Sample) float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += f(s)
	}
	return sum / float64(len(samples))
}

func variance(samples []Sample, f func(Sample) float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	m := mean(samples, f)
	sum := 0.0
	for _, s := range samples {
		d := f(s) - m
		sum += d * d
	}
	return sum / float64(len(samples))
}
