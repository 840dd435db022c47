package fock

import (
	"gonum.org/v1/gonum/mat"
)

// Expm returns the matrix exponential of the square complex matrix a.
//
// gonum's scaling-and-squaring exponential handles real matrices only, so
// a = X + iY is embedded into the 2n × 2n real block matrix
//
//	[ X  -Y ]
//	[ Y   X ]
//
// The embedding is a ring homomorphism, hence the exponential of the block
// matrix is the embedding of exp(X + iY).
func Expm(a *mat.CDense) *mat.CDense {
	n, m := a.Dims()
	if n != m {
		panic(mat.ErrShape)
	}

	block := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := a.At(i, j)
			re, im := real(v), imag(v)
			block.Set(i, j, re)
			block.Set(i, n+j, -im)
			block.Set(n+i, j, im)
			block.Set(n+i, n+j, re)
		}
	}

	var eBlock mat.Dense
	eBlock.Exp(block)

	out := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set(i, j, complex(eBlock.At(i, j), eBlock.At(n+i, j)))
		}
	}
	return out
}
