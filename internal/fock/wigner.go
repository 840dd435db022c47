package fock

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Wigner evaluates the Wigner quasi-probability distribution of the pure
// state psi on the grid xs × ps (hbar = 2). The returned matrix has one row
// per momentum value and one column per position value, so W.At(pi, xi) is
// the value at (xs[xi], ps[pi]).
//
// Evaluation uses the iterative |m⟩⟨n| ladder recurrence over the density
// matrix, which needs O(dim²) work per grid point and no special functions.
func Wigner(psi []complex128, xs, ps []float64) *mat.Dense {
	dim := len(psi)
	rho := mat.NewCDense(dim, dim, nil)
	for m := 0; m < dim; m++ {
		for n := 0; n < dim; n++ {
			rho.Set(m, n, psi[m]*cmplx.Conj(psi[n]))
		}
	}

	w := mat.NewDense(len(ps), len(xs), nil)
	for pi, p := range ps {
		for xi, x := range xs {
			// hbar = 2 puts the scale factor g at 1.
			a := complex(0.5*x, 0.5*p)
			w.Set(pi, xi, wignerPoint(rho, a))
		}
	}
	return w
}

// wignerPoint evaluates the Wigner sum Σ rho_mn·W_mn(a) at one phase-space
// point, generating the W_mn values row by row from the m = 0 ladder.
func wignerPoint(rho *mat.CDense, a complex128) float64 {
	dim, _ := rho.Dims()
	wl := make([]complex128, dim)
	wl[0] = complex(math.Exp(-2*(real(a)*real(a)+imag(a)*imag(a)))/math.Pi, 0)

	sum := real(rho.At(0, 0)) * real(wl[0])
	for n := 1; n < dim; n++ {
		wl[n] = 2 * a * wl[n-1] / complex(math.Sqrt(float64(n)), 0)
		sum += 2 * real(rho.At(0, n)*wl[n])
	}

	for m := 1; m < dim; m++ {
		temp := wl[m]
		sqm := complex(math.Sqrt(float64(m)), 0)
		wl[m] = (2*cmplx.Conj(a)*temp - sqm*wl[m-1]) / sqm
		sum += real(rho.At(m, m) * wl[m])

		for n := m + 1; n < dim; n++ {
			next := (2*a*wl[n-1] - sqm*temp) / complex(math.Sqrt(float64(n-m)), 0)
			temp = wl[n]
			wl[n] = next
			sum += 2 * real(rho.At(m, n)*wl[n])
		}
	}

	return 0.5 * sum
}

// WignerGrid returns a symmetric linspace [-extent, extent] with points
// samples, the usual axis for Wigner plots.
func WignerGrid(extent float64, points int) []float64 {
	if points < 2 {
		return []float64{0}
	}
	grid := make([]float64, points)
	step := 2 * extent / float64(points-1)
	for i := range grid {
		grid[i] = -extent + float64(i)*step
	}
	return grid
}
