// Package fock provides truncated Fock-space linear algebra for
// continuous-variable photonic circuits: ladder operators, exactly unitary
// gate constructors, common optical states, Haar-random unitaries and Wigner
// functions.
//
// All operators act on the space spanned by the first `dim` Fock levels.
// Gates are built by exponentiating generators that have already been
// truncated to that space, so every returned gate is unitary on it to
// machine precision. Quadratures use the hbar = 2 convention.
package fock
