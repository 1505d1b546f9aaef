// Package metropolis implements the single-trial Metropolis-Hastings
// update for the 2D Ising model.
//
// A trial proposes flipping one randomly chosen spin and accepts the
// flip with probability min(1, exp(-dE/(k_B*T))), which satisfies
// detailed balance with respect to the Boltzmann distribution. Running
// energy and magnetization totals are updated incrementally on each
// accepted flip; they are never recomputed from scratch on the trial
// path.
package metropolis

import (
	"math"

	"isinglab/internal/lattice"
	"isinglab/internal/physics"
)

// Engine mutates one lattice through Metropolis trials. It is not
// safe for concurrent use; the sweep controller serializes access.
type Engine struct {
	lat    *lattice.Lattice
	params physics.Parameters
	src    Source
	accept *AcceptTable

	energy        float64
	magnetization float64
	accepted      uint64
	trials        uint64
}

// NewEngine computes the initial running totals from the full lattice.
// The caller is responsible for validating params beforehand.
func NewEngine(lat *lattice.Lattice, params physics.Parameters, src Source) *Engine {
	return &Engine{
		lat:           lat,
		params:        params,
		src:           src,
		accept:        NewAcceptTable(params),
		energy:        physics.TotalEnergy(lat, params),
		magnetization: physics.Magnetization(lat),
	}
}

// Trial performs one spin-flip proposal and reports whether it was
// accepted. Energy-lowering flips are accepted unconditionally; for
// dE > 0 the acceptance probability exp(-dE/(k_B*T)) underflows to 0
// for large dE/T, so deep quenches freeze without any special casing.
func (e *Engine) Trial() bool {
	x, y := e.src.Site()
	dE, prob := e.accept.Lookup(e.lat.At(x, y), e.lat.NeighborSum(x, y))

	e.trials++
	if dE > 0 {
		if e.src.Uniform() >= prob {
			return false
		}
	}

	s := e.lat.Flip(x, y)
	e.energy += dE
	e.magnetization += 2.0 * float64(s)
	e.accepted++
	return true
}

// Sweep performs sites-many trials, one per lattice site on average.
func (e *Engine) Sweep() {
	for i := 0; i < e.lat.Sites(); i++ {
		e.Trial()
	}
}

// SetParameters swaps the model parameters and rebases the running
// energy, which depends on J and h. Takes effect on the next trial.
func (e *Engine) SetParameters(params physics.Parameters) {
	e.params = params
	e.accept = NewAcceptTable(params)
	e.energy = physics.TotalEnergy(e.lat, params)
}

func (e *Engine) Lattice() *lattice.Lattice      { return e.lat }
func (e *Engine) Parameters() physics.Parameters { return e.params }
func (e *Engine) Energy() float64                { return e.energy }
func (e *Engine) Magnetization() float64         { return e.magnetization }

// AcceptanceRate returns the fraction of trials accepted so far.
func (e *Engine) AcceptanceRate() float64 {
	if e.trials == 0 {
		return 0
	}
	return float64(e.accepted) / float64(e.trials)
}

// Rebase recomputes both running totals from the full lattice,
// discarding any accumulated floating-point drift.
func (e *Engine) Rebase() {
	e.energy = physics.TotalEnergy(e.lat, e.params)
	e.magnetization = physics.Magnetization(e.lat)
}

// Drift returns the absolute difference between the running energy and
// a fresh full recomputation.
func (e *Engine) Drift() float64 {
	return math.Abs(e.energy - physics.TotalEnergy(e.lat, e.params))
}

// AddTotals accumulates an externally computed delta into the running
// totals. Used by sweep strategies that mutate the lattice outside
// Trial, such as the checkerboard sweeper.
func (e *Engine) AddTotals(dEnergy, dMagnetization float64) {
	e.energy += dEnergy
	e.magnetization += dMagnetization
}

// AddCounts folds externally performed trial and acceptance counts
// into the acceptance statistics, the counting counterpart of
// AddTotals.
func (e *Engine) AddCounts(trials, accepted uint64) {
	e.trials += trials
	e.accepted += accepted
}

// RestoreTotals installs previously persisted running totals, used when
// resuming a stored run. Callers must have verified them against the
// lattice first.
func (e *Engine) RestoreTotals(energy, magnetization float64) {
	e.energy = energy
	e.magnetization = magnetization
}
