package physics

import "fmt"

// DefaultBoltzmann is the Boltzmann constant in reduced units, which puts
// the critical temperature of the square-lattice Ising model at
// Tc = 2/ln(1+sqrt(2)) ~ 2.269 J.
const DefaultBoltzmann = 1.0

// Parameters holds the Ising model parameters. Coupling > 0 is
// ferromagnetic; Field biases spins toward its own sign.
type Parameters struct {
	Coupling    float64
	Field       float64
	Temperature float64
	Boltzmann   float64
}

func DefaultParameters() Parameters {
	return Parameters{
		Coupling:    1.0,
		Field:       0.0,
		Temperature: 2.269,
		Boltzmann:   DefaultBoltzmann,
	}
}

func (p Parameters) Validate() error {
	if p.Temperature <= 0 {
		return fmt.Errorf("temperature must be positive, got %f", p.Temperature)
	}
	if p.Boltzmann <= 0 {
		return fmt.Errorf("boltzmann constant must be positive, got %f", p.Boltzmann)
	}
	return nil
}

// Beta returns 1/(k_B * T).
func (p Parameters) Beta() float64 {
	return 1.0 / (p.Boltzmann * p.Temperature)
}
