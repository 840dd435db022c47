package fock

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Overlap returns the inner product ⟨a|b⟩.
func Overlap(a, b []complex128) complex128 {
	if len(a) != len(b) {
		panic("fock: vector dimension mismatch")
	}
	var sum complex128
	for i := range a {
		sum += cmplx.Conj(a[i]) * b[i]
	}
	return sum
}

// Fidelity returns |⟨a|b⟩|² for normalized states.
func Fidelity(a, b []complex128) float64 {
	ov := Overlap(a, b)
	return real(ov)*real(ov) + imag(ov)*imag(ov)
}

// ApplyTo returns U·psi.
func ApplyTo(u *mat.CDense, psi []complex128) []complex128 {
	r, c := u.Dims()
	if c != len(psi) {
		panic("fock: vector dimension mismatch")
	}
	out := make([]complex128, r)
	for i := 0; i < r; i++ {
		var sum complex128
		for j := 0; j < c; j++ {
			sum += u.At(i, j) * psi[j]
		}
		out[i] = sum
	}
	return out
}

// Column returns the j-th column of U as a state vector.
func Column(u *mat.CDense, j int) []complex128 {
	r, c := u.Dims()
	if j < 0 || j >= c {
		panic("fock: column index out of range")
	}
	out := make([]complex128, r)
	for i := 0; i < r; i++ {
		out[i] = u.At(i, j)
	}
	return out
}
