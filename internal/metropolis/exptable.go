package metropolis

import (
	"math"

	"isinglab/internal/lattice"
	"isinglab/internal/physics"
)

// AcceptTable precomputes the flip energy delta and the Metropolis
// acceptance probability for every reachable trial configuration. On a
// square lattice the four-neighbor sum of a site is one of
// {-4,-2,0,2,4} and the site spin is +-1, so for fixed parameters a
// trial can only see ten distinct configurations; the exp on the trial
// path becomes a table lookup.
//
// The table is valid for one parameter set. Build a fresh one after any
// parameter change.
type AcceptTable struct {
	delta [2][5]float64
	prob  [2][5]float64
}

// NewAcceptTable fills the table for the given parameters. The delta
// entries use the same expression as physics.DeltaEnergy, so looked-up
// and directly computed deltas agree exactly.
func NewAcceptTable(p physics.Parameters) *AcceptTable {
	t := &AcceptTable{}
	beta := p.Beta()
	for si, s := range [...]float64{-1, 1} {
		for ni := 0; ni < 5; ni++ {
			nsum := float64(2*ni - 4)
			dE := -2.0 * (-p.Coupling*s*nsum - p.Field*s)
			t.delta[si][ni] = dE
			if dE > 0 {
				t.prob[si][ni] = math.Exp(-dE * beta)
			} else {
				t.prob[si][ni] = 1
			}
		}
	}
	return t
}

// Lookup returns the energy delta and acceptance probability for
// flipping a spin s whose four neighbors sum to nsum.
func (t *AcceptTable) Lookup(s lattice.Spin, nsum int) (dE, prob float64) {
	si := 0
	if s > 0 {
		si = 1
	}
	ni := (nsum + 4) / 2
	return t.delta[si][ni], t.prob[si][ni]
}
