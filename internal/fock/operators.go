package fock

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Destroy returns the annihilation operator on dim Fock levels.
// Matrix elements follow <m-1|a|m> = sqrt(m).
func Destroy(dim int) *mat.CDense {
	a := mat.NewCDense(dim, dim, nil)
	for m := 1; m < dim; m++ {
		a.Set(m-1, m, complex(math.Sqrt(float64(m)), 0))
	}
	return a
}

// Create returns the creation operator on dim Fock levels, the conjugate
// transpose of Destroy.
func Create(dim int) *mat.CDense {
	ad := mat.NewCDense(dim, dim, nil)
	for m := 1; m < dim; m++ {
		ad.Set(m, m-1, complex(math.Sqrt(float64(m)), 0))
	}
	return ad
}

// Number returns the photon number operator diag(0, 1, ..., dim-1).
func Number(dim int) *mat.CDense {
	n := mat.NewCDense(dim, dim, nil)
	for m := 0; m < dim; m++ {
		n.Set(m, m, complex(float64(m), 0))
	}
	return n
}

// Position returns the position quadrature x = a + a† (hbar = 2).
func Position(dim int) *mat.CDense {
	x := mat.NewCDense(dim, dim, nil)
	for m := 1; m < dim; m++ {
		s := complex(math.Sqrt(float64(m)), 0)
		x.Set(m-1, m, s)
		x.Set(m, m-1, s)
	}
	return x
}

// Identity returns the dim × dim identity matrix.
func Identity(dim int) *mat.CDense {
	id := mat.NewCDense(dim, dim, nil)
	for m := 0; m < dim; m++ {
		id.Set(m, m, 1)
	}
	return id
}

// Kron returns the Kronecker product a ⊗ b. For two-mode systems mode 0 is
// the left factor, so a single-mode gate G acts on mode 0 as Kron(G, I) and
// on mode 1 as Kron(I, G).
func Kron(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	out := mat.NewCDense(ar*br, ac*bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			av := a.At(i, j)
			if av == 0 {
				continue
			}
			for k := 0; k < br; k++ {
				for l := 0; l < bc; l++ {
					out.Set(i*br+k, j*bc+l, av*b.At(k, l))
				}
			}
		}
	}
	return out
}
