package physics

import "isinglab/internal/lattice"

// LocalEnergy returns the energy contribution of the spin at (x,y):
//
//	E = -J * s * sum(neighbor spins) - h * s
//
// Each of the site's four bonds is counted in full here; summing
// LocalEnergy over all sites therefore counts every bond twice.
func LocalEnergy(l *lattice.Lattice, x, y int, p Parameters) float64 {
	s := float64(l.At(x, y))
	return -p.Coupling*s*float64(l.NeighborSum(x, y)) - p.Field*s
}

// DeltaEnergy returns the total energy change that flipping the spin at
// (x,y) would cause. Only the flipped site's interaction and field terms
// change sign, so the delta is exactly -2 times its local energy.
func DeltaEnergy(l *lattice.Lattice, x, y int, p Parameters) float64 {
	return -2.0 * LocalEnergy(l, x, y, p)
}

// TotalEnergy recomputes the energy of the whole lattice, counting each
// bond once (right and down neighbors only). O(W*H); used for
// initialization, reset and drift checks, never inside the trial loop.
func TotalEnergy(l *lattice.Lattice, p Parameters) float64 {
	w, h := l.Width(), l.Height()
	bonds := 0
	field := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := int(l.At(x, y))
			bonds += s * int(l.At((x+1)%w, y))
			bonds += s * int(l.At(x, (y+1)%h))
			field += s
		}
	}
	return -p.Coupling*float64(bonds) - p.Field*float64(field)
}

// Magnetization returns the sum of all spins.
func Magnetization(l *lattice.Lattice) float64 {
	return float64(l.SumSpins())
}
