// Package physics defines the Ising Hamiltonian and its parameters.
//
// The model energy on a periodic square lattice is
//
//	H = -J * sum_<i,j> s_i*s_j - h * sum_i s_i
//
// with nearest-neighbor pairs <i,j> counted once. [LocalEnergy] and
// [DeltaEnergy] serve the O(1) trial path; [TotalEnergy] is the O(W*H)
// reference used for initialization and drift checks.
//
// All quantities are in reduced units with J setting the energy scale;
// with [DefaultBoltzmann] = 1 temperatures are in units of J/k_B.
package physics
