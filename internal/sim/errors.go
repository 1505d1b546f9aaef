package sim

import "errors"

// Domain errors for simulation control operations.
var (
	// ErrInvalidParameter indicates a rejected configuration value
	// (non-positive temperature, zero lattice dimension, bad sweep
	// counts). The simulation state is left unchanged.
	ErrInvalidParameter = errors.New("sim: invalid parameter")

	// ErrInvalidState indicates a control operation invoked in a phase
	// that forbids it, such as Configure while sweeping.
	ErrInvalidState = errors.New("sim: operation not allowed in current phase")

	// ErrInvariant indicates internal state corruption: running
	// aggregates drifted from a full recomputation beyond tolerance,
	// or a persisted record failed verification. Fatal for the
	// affected simulation instance.
	ErrInvariant = errors.New("sim: invariant violation")
)
