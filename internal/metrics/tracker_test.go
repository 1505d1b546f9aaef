package metrics

import (
	"testing"

	"github.com/onsi/gomega"
)

func addAll(t *Tracker, energies, mags []float64) {
	for i := range energies {
		t.Add(Sample{Sweep: uint64(i), EnergyPerSite: energies[i], MagnetizationPerSite: mags[i]})
	}
}

func TestMeans(t *testing.T) {
	g := gomega.NewWithT(t)

	tr := NewTracker(16, 1.0)
	addAll(tr, []float64{-2.0, -1.0, -1.5}, []float64{0.5, -0.5, 1.0})

	g.Expect(tr.MeanEnergy(0)).To(gomega.BeNumerically("~", -1.5, 1e-12))
	g.Expect(tr.MeanMagnetization(0)).To(gomega.BeNumerically("~", 1.0/3.0, 1e-12))
	g.Expect(tr.MeanAbsMagnetization(0)).To(gomega.BeNumerically("~", 2.0/3.0, 1e-12))
}

func TestTrailingWindow(t *testing.T) {
	g := gomega.NewWithT(t)

	tr := NewTracker(16, 1.0)
	addAll(tr, []float64{-10, -1, -2}, []float64{0, 1, 1})

	// Window of 2 ignores the first sample.
	g.Expect(tr.MeanEnergy(2)).To(gomega.BeNumerically("~", -1.5, 1e-12))
	g.Expect(tr.MeanMagnetization(2)).To(gomega.Equal(1.0))

	// Oversized window falls back to the full history.
	g.Expect(tr.MeanEnergy(99)).To(gomega.BeNumerically("~", -13.0/3.0, 1e-12))
}

func TestSpecificHeat(t *testing.T) {
	g := gomega.NewWithT(t)

	tr := NewTracker(4, 1.0)
	addAll(tr, []float64{-1.0, -2.0}, []float64{0, 0})

	// Var(e) = 0.25, N=4, T=2: C = 4*0.25/4 = 0.25
	g.Expect(tr.SpecificHeat(2.0, 0)).To(gomega.BeNumerically("~", 0.25, 1e-12))
}

func TestSusceptibility(t *testing.T) {
	g := gomega.NewWithT(t)

	tr := NewTracker(4, 1.0)
	addAll(tr, []float64{0, 0}, []float64{1.0, 0.0})

	// Var(m) = 0.25, N=4, T=2: chi = 4*0.25/2 = 0.5
	g.Expect(tr.Susceptibility(2.0, 0)).To(gomega.BeNumerically("~", 0.5, 1e-12))
}

func TestFluctuationsNeedSamples(t *testing.T) {
	g := gomega.NewWithT(t)

	tr := NewTracker(4, 1.0)
	g.Expect(tr.SpecificHeat(1.0, 0)).To(gomega.BeZero())

	tr.Add(Sample{EnergyPerSite: -2.0})
	g.Expect(tr.SpecificHeat(1.0, 0)).To(gomega.BeZero())
	g.Expect(tr.Susceptibility(1.0, 0)).To(gomega.BeZero())
}

func TestLatestAndReset(t *testing.T) {
	g := gomega.NewWithT(t)

	tr := NewTracker(16, 1.0)
	if _, ok := tr.Latest(); ok {
		t.Fatal("empty tracker should have no latest sample")
	}

	addAll(tr, []float64{-1, -2}, []float64{0.1, 0.2})
	last, ok := tr.Latest()
	g.Expect(ok).To(gomega.BeTrue())
	g.Expect(last.EnergyPerSite).To(gomega.Equal(-2.0))
	g.Expect(last.Sweep).To(gomega.Equal(uint64(1)))

	tr.Reset()
	g.Expect(tr.Len()).To(gomega.BeZero())
}

func TestSeriesOrder(t *testing.T) {
	g := gomega.NewWithT(t)

	tr := NewTracker(16, 1.0)
	addAll(tr, []float64{-1, -2, -3}, []float64{0.1, 0.2, 0.3})

	g.Expect(tr.EnergySeries()).To(gomega.Equal([]float64{-1, -2, -3}))
	g.Expect(tr.MagnetizationSeries()).To(gomega.Equal([]float64{0.1, 0.2, 0.3}))
}
