package fock

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Rotation returns the phase rotation gate R(phi) = exp(i·phi·n).
func Rotation(dim int, phi float64) *mat.CDense {
	r := mat.NewCDense(dim, dim, nil)
	for m := 0; m < dim; m++ {
		r.Set(m, m, cmplx.Exp(complex(0, phi*float64(m))))
	}
	return r
}

// Kerr returns the self-Kerr gate K(kappa) = exp(i·kappa·n²).
func Kerr(dim int, kappa float64) *mat.CDense {
	k := mat.NewCDense(dim, dim, nil)
	for m := 0; m < dim; m++ {
		k.Set(m, m, cmplx.Exp(complex(0, kappa*float64(m*m))))
	}
	return k
}

// Squeeze returns the squeezing gate S(z) = exp((z̄·a² - z·a†²)/2) for
// z = r·e^(i·phi).
func Squeeze(dim int, r, phi float64) *mat.CDense {
	if r == 0 {
		return Identity(dim)
	}
	z := cmplx.Rect(r, phi)

	a := Destroy(dim)
	var a2, ad2 mat.CDense
	a2.Mul(a, a)
	ad2.Mul(a.H(), a.H())

	gen := mat.NewCDense(dim, dim, nil)
	half := complex(0.5, 0)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			gen.Set(i, j, half*(cmplx.Conj(z)*a2.At(i, j)-z*ad2.At(i, j)))
		}
	}
	return Expm(gen)
}

// Displace returns the displacement gate D(alpha) = exp(alpha·a† - ᾱ·a) for
// alpha = r·e^(i·phi).
func Displace(dim int, r, phi float64) *mat.CDense {
	if r == 0 {
		return Identity(dim)
	}
	alpha := cmplx.Rect(r, phi)

	a := Destroy(dim)
	ad := a.H()

	gen := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			gen.Set(i, j, alpha*ad.At(i, j)-cmplx.Conj(alpha)*a.At(i, j))
		}
	}
	return Expm(gen)
}

// CubicPhase returns the cubic phase gate V(gamma) = exp(i·gamma·x³/(3·hbar))
// with hbar = 2.
func CubicPhase(dim int, gamma float64) *mat.CDense {
	if gamma == 0 {
		return Identity(dim)
	}

	x := Position(dim)
	var x2, x3 mat.CDense
	x2.Mul(x, x)
	x3.Mul(&x2, x)

	coeff := complex(0, gamma/6)
	gen := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			gen.Set(i, j, coeff*x3.At(i, j))
		}
	}
	return Expm(gen)
}

// Beamsplitter returns the two-mode beamsplitter gate
// BS(theta, phi) = exp(theta·(e^(i·phi)·a₁·a₂† - e^(-i·phi)·a₁†·a₂))
// acting on the cutoff² dimensional tensor space.
func Beamsplitter(cutoff int, theta, phi float64) *mat.CDense {
	if theta == 0 {
		return Identity(cutoff * cutoff)
	}

	a := Destroy(cutoff)
	id := Identity(cutoff)
	a1 := Kron(a, id)
	a2 := Kron(id, a)

	var t1, t2 mat.CDense
	t1.Mul(a1, a2.H())
	t2.Mul(a1.H(), a2)

	c := cmplx.Rect(1, phi)
	th := complex(theta, 0)
	dim := cutoff * cutoff
	gen := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			gen.Set(i, j, th*(c*t1.At(i, j)-cmplx.Conj(c)*t2.At(i, j)))
		}
	}
	return Expm(gen)
}

// CrossKerr returns the two-mode cross-Kerr gate CK(kappa) = exp(i·kappa·n₁·n₂)
// acting on the cutoff² dimensional tensor space.
func CrossKerr(cutoff int, kappa float64) *mat.CDense {
	dim := cutoff * cutoff
	ck := mat.NewCDense(dim, dim, nil)
	for m1 := 0; m1 < cutoff; m1++ {
		for m2 := 0; m2 < cutoff; m2++ {
			idx := m1*cutoff + m2
			ck.Set(idx, idx, cmplx.Exp(complex(0, kappa*float64(m1*m2))))
		}
	}
	return ck
}

// maxAbs returns the largest absolute entry of m.
func maxAbs(m *mat.CDense) float64 {
	r, c := m.Dims()
	max := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := cmplx.Abs(m.At(i, j)); v > max {
				max = v
			}
		}
	}
	return max
}

// DeviationFromUnitary returns the largest entry of |U·U† - I|, a direct
// measure of how far U is from unitary on the truncated space.
func DeviationFromUnitary(u *mat.CDense) float64 {
	n, _ := u.Dims()
	var prod mat.CDense
	prod.Mul(u, u.H())
	diff := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := prod.At(i, j)
			if i == j {
				v -= 1
			}
			diff.Set(i, j, v)
		}
	}
	return maxAbs(diff)
}
