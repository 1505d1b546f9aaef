package lattice

import (
	"fmt"
	"math/rand"
)

// Spin is a single lattice site value, always -1 or +1.
type Spin = int8

// Lattice is a W x H grid of spins with periodic boundaries.
// Cells are stored row-major in a flat slice.
type Lattice struct {
	width  int
	height int
	cells  []Spin
}

func New(width, height int) *Lattice {
	if width < 1 || height < 1 {
		panic(fmt.Sprintf("lattice: invalid dimensions %dx%d", width, height))
	}
	return &Lattice{
		width:  width,
		height: height,
		cells:  make([]Spin, width*height),
	}
}

// NewRandom creates a lattice with each spin drawn uniformly from {-1,+1}.
func NewRandom(width, height int, rng *rand.Rand) *Lattice {
	l := New(width, height)
	for i := range l.cells {
		if rng.Intn(2) == 0 {
			l.cells[i] = -1
		} else {
			l.cells[i] = 1
		}
	}
	return l
}

// NewUniform creates a lattice with every spin set to s.
func NewUniform(width, height int, s Spin) *Lattice {
	if s != -1 && s != 1 {
		panic(fmt.Sprintf("lattice: invalid spin %d", s))
	}
	l := New(width, height)
	for i := range l.cells {
		l.cells[i] = s
	}
	return l
}

func (l *Lattice) Width() int  { return l.width }
func (l *Lattice) Height() int { return l.height }
func (l *Lattice) Sites() int  { return l.width * l.height }

func (l *Lattice) index(x, y int) int {
	if x < 0 || x >= l.width || y < 0 || y >= l.height {
		panic(fmt.Sprintf("lattice: coordinate (%d,%d) out of range %dx%d", x, y, l.width, l.height))
	}
	return y*l.width + x
}

func (l *Lattice) At(x, y int) Spin {
	return l.cells[l.index(x, y)]
}

func (l *Lattice) Set(x, y int, s Spin) {
	if s != -1 && s != 1 {
		panic(fmt.Sprintf("lattice: invalid spin %d", s))
	}
	l.cells[l.index(x, y)] = s
}

// Flip negates the spin at (x,y) and returns the new value.
func (l *Lattice) Flip(x, y int) Spin {
	i := l.index(x, y)
	l.cells[i] = -l.cells[i]
	return l.cells[i]
}

// Neighbors returns the four nearest-neighbor coordinates of (x,y)
// under periodic wraparound, in left, right, up, down order.
func (l *Lattice) Neighbors(x, y int) [4][2]int {
	l.index(x, y)
	left := (x - 1 + l.width) % l.width
	right := (x + 1) % l.width
	up := (y - 1 + l.height) % l.height
	down := (y + 1) % l.height
	return [4][2]int{{left, y}, {right, y}, {x, up}, {x, down}}
}

// NeighborSum returns the sum of the four neighboring spins of (x,y).
func (l *Lattice) NeighborSum(x, y int) int {
	l.index(x, y)
	left := (x - 1 + l.width) % l.width
	right := (x + 1) % l.width
	up := (y - 1 + l.height) % l.height
	down := (y + 1) % l.height
	w := l.width
	return int(l.cells[y*w+left]) + int(l.cells[y*w+right]) +
		int(l.cells[up*w+x]) + int(l.cells[down*w+x])
}

// SumSpins returns the total magnetization, the sum of all spins.
func (l *Lattice) SumSpins() int {
	sum := 0
	for _, s := range l.cells {
		sum += int(s)
	}
	return sum
}

func (l *Lattice) Clone() *Lattice {
	c := New(l.width, l.height)
	copy(c.cells, l.cells)
	return c
}

// Flat returns a copy of the underlying row-major spin slice.
func (l *Lattice) Flat() []Spin {
	out := make([]Spin, len(l.cells))
	copy(out, l.cells)
	return out
}

// FromFlat rebuilds a lattice from a row-major spin slice, as produced
// by Flat. The slice length must equal width*height and every value
// must be -1 or +1.
func FromFlat(width, height int, cells []Spin) (*Lattice, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("lattice: invalid dimensions %dx%d", width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("lattice: expected %d cells, got %d", width*height, len(cells))
	}
	l := New(width, height)
	for i, s := range cells {
		if s != -1 && s != 1 {
			return nil, fmt.Errorf("lattice: invalid spin %d at cell %d", s, i)
		}
		l.cells[i] = s
	}
	return l, nil
}
