package fock

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
)

// Vacuum returns the vacuum state |0⟩ of dimension dim.
func Vacuum(dim int) []complex128 {
	psi := make([]complex128, dim)
	psi[0] = 1
	return psi
}

// FockState returns the number state |n⟩ of dimension dim.
func FockState(dim, n int) ([]complex128, error) {
	if n < 0 || n >= dim {
		return nil, fmt.Errorf("fock state |%d⟩ does not fit in %d levels", n, dim)
	}
	psi := make([]complex128, dim)
	psi[n] = 1
	return psi, nil
}

// Coherent returns the coherent state |alpha⟩ truncated to dim levels and
// renormalized. Coefficients follow c_n = e^(-|α|²/2)·αⁿ/√(n!), computed by
// the stable recurrence c_n = c_(n-1)·α/√n.
func Coherent(dim int, alpha complex128) []complex128 {
	psi := make([]complex128, dim)
	c := complex(math.Exp(-0.5*real(alpha*cmplx.Conj(alpha))), 0)
	for n := 0; n < dim; n++ {
		psi[n] = c
		c *= alpha / complex(math.Sqrt(float64(n+1)), 0)
	}
	Normalize(psi)
	return psi
}

// Cat returns the cat state N·(|alpha⟩ + e^(i·theta)·|-alpha⟩) truncated to
// dim levels. theta = 0 gives the even cat, theta = π the odd cat.
func Cat(dim int, alpha complex128, theta float64) []complex128 {
	plus := Coherent(dim, alpha)
	minus := Coherent(dim, -alpha)
	phase := cmplx.Rect(1, theta)
	psi := make([]complex128, dim)
	for n := 0; n < dim; n++ {
		psi[n] = plus[n] + phase*minus[n]
	}
	Normalize(psi)
	return psi
}

// ON returns the weighted superposition N·(|0⟩ + delta·|n⟩).
func ON(dim, n int, delta float64) ([]complex128, error) {
	psi, err := FockState(dim, n)
	if err != nil {
		return nil, err
	}
	psi[n] = complex(delta, 0)
	psi[0] += 1
	Normalize(psi)
	return psi, nil
}

// NOON returns the two-mode state (|n,0⟩ + |0,n⟩)/√2 on the cutoff² tensor
// space.
func NOON(cutoff, n int) ([]complex128, error) {
	if n < 0 || n >= cutoff {
		return nil, fmt.Errorf("noon state with n=%d does not fit in %d levels", n, cutoff)
	}
	psi := make([]complex128, cutoff*cutoff)
	inv := complex(1/math.Sqrt2, 0)
	psi[n*cutoff] = inv
	psi[n] = inv
	return psi, nil
}

// RandomState returns a Haar-random pure state of dimension dim.
func RandomState(dim int, rnd *rand.Rand) []complex128 {
	psi := make([]complex128, dim)
	for i := range psi {
		psi[i] = complex(rnd.NormFloat64(), rnd.NormFloat64())
	}
	Normalize(psi)
	return psi
}

// Normalize scales psi to unit norm in place and returns the original norm.
// A zero vector is left untouched.
func Normalize(psi []complex128) float64 {
	var sum float64
	for _, c := range psi {
		sum += real(c)*real(c) + imag(c)*imag(c)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return 0
	}
	inv := complex(1/norm, 0)
	for i := range psi {
		psi[i] *= inv
	}
	return norm
}
