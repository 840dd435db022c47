package fock

import (
	"math/cmplx"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// RandomUnitary returns a dim × dim Haar-distributed random unitary.
//
// Columns of a complex Ginibre matrix are orthonormalized by modified
// Gram-Schmidt. The triangular factor of that decomposition has a positive
// real diagonal, which yields the Haar measure without the phase correction
// LAPACK-style QR would need.
func RandomUnitary(dim int, rnd *rand.Rand) *mat.CDense {
	cols := make([][]complex128, dim)
	for j := 0; j < dim; j++ {
		v := make([]complex128, dim)
		for i := range v {
			v[i] = complex(rnd.NormFloat64(), rnd.NormFloat64())
		}
		for k := 0; k < j; k++ {
			var proj complex128
			for i := range v {
				proj += cmplx.Conj(cols[k][i]) * v[i]
			}
			for i := range v {
				v[i] -= proj * cols[k][i]
			}
		}
		Normalize(v)
		cols[j] = v
	}

	u := mat.NewCDense(dim, dim, nil)
	for j, col := range cols {
		for i, c := range col {
			u.Set(i, j, c)
		}
	}
	return u
}
