package physics

import (
	"math"
	"math/rand"
	"testing"

	"isinglab/internal/lattice"
)

func TestLocalEnergyAligned(t *testing.T) {
	l := lattice.NewUniform(4, 4, 1)
	p := Parameters{Coupling: 1.0, Field: 0.0, Temperature: 1.0, Boltzmann: 1.0}

	// All four neighbors aligned: E = -J * 1 * 4
	if got := LocalEnergy(l, 0, 0, p); got != -4.0 {
		t.Errorf("expected local energy -4, got %f", got)
	}
}

func TestLocalEnergyWithField(t *testing.T) {
	l := lattice.NewUniform(4, 4, 1)
	p := Parameters{Coupling: 1.0, Field: 0.5, Temperature: 1.0, Boltzmann: 1.0}

	if got := LocalEnergy(l, 1, 1, p); got != -4.5 {
		t.Errorf("expected local energy -4.5, got %f", got)
	}

	l.Set(1, 1, -1)
	// E = -J*(-1)*4 - h*(-1) = 4 + 0.5
	if got := LocalEnergy(l, 1, 1, p); got != 4.5 {
		t.Errorf("expected local energy 4.5, got %f", got)
	}
}

func TestTotalEnergyGroundState(t *testing.T) {
	l := lattice.NewUniform(4, 4, 1)
	p := Parameters{Coupling: 1.0, Field: 0.0, Temperature: 1.0, Boltzmann: 1.0}

	// 2*W*H bonds under periodic boundaries, all aligned: E = -2*J*W*H
	if got := TotalEnergy(l, p); got != -32.0 {
		t.Errorf("expected total energy -32, got %f", got)
	}
}

func TestDeltaEnergyMatchesFullRecompute(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	p := Parameters{Coupling: 1.3, Field: -0.7, Temperature: 1.0, Boltzmann: 1.0}

	for trial := 0; trial < 20; trial++ {
		l := lattice.NewRandom(6, 5, rng)
		x := rng.Intn(6)
		y := rng.Intn(5)

		before := TotalEnergy(l, p)
		delta := DeltaEnergy(l, x, y, p)
		l.Flip(x, y)
		after := TotalEnergy(l, p)

		if math.Abs((after-before)-delta) > 1e-9 {
			t.Fatalf("delta %f does not match recompute %f at (%d,%d)", delta, after-before, x, y)
		}
	}
}

func TestEnergyPerSiteBound(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := Parameters{Coupling: 2.0, Field: 1.5, Temperature: 1.0, Boltzmann: 1.0}
	bound := 2*math.Abs(p.Coupling) + math.Abs(p.Field)

	for trial := 0; trial < 10; trial++ {
		l := lattice.NewRandom(8, 8, rng)
		perSite := TotalEnergy(l, p) / float64(l.Sites())
		if math.Abs(perSite) > bound+1e-9 {
			t.Fatalf("energy per site %f exceeds bound %f", perSite, bound)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Parameters
		wantErr bool
	}{
		{"valid", Parameters{Coupling: 1, Temperature: 2.0, Boltzmann: 1}, false},
		{"zero temperature", Parameters{Coupling: 1, Temperature: 0, Boltzmann: 1}, true},
		{"negative temperature", Parameters{Coupling: 1, Temperature: -1, Boltzmann: 1}, true},
		{"zero boltzmann", Parameters{Coupling: 1, Temperature: 1, Boltzmann: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBeta(t *testing.T) {
	p := Parameters{Temperature: 2.0, Boltzmann: 1.0}
	if got := p.Beta(); got != 0.5 {
		t.Errorf("expected beta 0.5, got %f", got)
	}
}
