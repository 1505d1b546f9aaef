package metropolis

import "math/rand"

// Source supplies the randomness for Metropolis trials. The engine
// depends only on the two statistical contracts here, not on any
// particular generator: Uniform values are independent draws from
// [0,1), Site coordinates are uniform over the lattice.
type Source interface {
	Uniform() float64
	Site() (x, y int)
}

type randSource struct {
	rng    *rand.Rand
	width  int
	height int
}

// NewSource returns a seeded Source drawing sites uniformly from a
// width x height lattice. Each simulation run owns its own Source so
// seeded runs reproduce bit-for-bit.
func NewSource(seed int64, width, height int) Source {
	return &randSource{
		rng:    rand.New(rand.NewSource(seed)),
		width:  width,
		height: height,
	}
}

func (s *randSource) Uniform() float64 {
	return s.rng.Float64()
}

func (s *randSource) Site() (int, int) {
	return s.rng.Intn(s.width), s.rng.Intn(s.height)
}
