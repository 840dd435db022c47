package fock

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestAllGatesAreUnitary(t *testing.T) {
	const cutoff = 10

	tests := []struct {
		name string
		gate *mat.CDense
	}{
		{"rotation", Rotation(cutoff, 0.7)},
		{"kerr", Kerr(cutoff, 0.3)},
		{"squeeze", Squeeze(cutoff, 0.4, 1.1)},
		{"displace", Displace(cutoff, 0.5, -0.4)},
		{"cubic_phase", CubicPhase(cutoff, 0.05)},
		{"beamsplitter", Beamsplitter(5, 0.6, 0.2)},
		{"cross_kerr", CrossKerr(5, 0.8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Less(t, DeviationFromUnitary(tt.gate), 1e-10)
		})
	}
}

func TestRotationPhases(t *testing.T) {
	const phi = 0.9
	r := Rotation(5, phi)
	for m := 0; m < 5; m++ {
		expected := cmplx.Exp(complex(0, phi*float64(m)))
		assert.InDelta(t, 0, cmplx.Abs(r.At(m, m)-expected), 1e-12)
	}
}

func TestSqueezeZeroIsIdentity(t *testing.T) {
	s := Squeeze(6, 0, 1.2)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			expected := complex128(0)
			if i == j {
				expected = 1
			}
			assert.Equal(t, expected, s.At(i, j))
		}
	}
}

func TestSqueezedVacuumPhotonNumber(t *testing.T) {
	// ⟨n⟩ of squeezed vacuum is sinh²(r); at cutoff 20 and r = 0.2 the
	// truncation error is far below the tolerance.
	const (
		dim = 20
		r   = 0.2
	)
	s := Squeeze(dim, r, 0)
	psi := ApplyTo(s, Vacuum(dim))

	var meanN float64
	for n, c := range psi {
		meanN += float64(n) * (real(c)*real(c) + imag(c)*imag(c))
	}

	expected := math.Sinh(r) * math.Sinh(r)
	assert.InDelta(t, expected, meanN, 1e-6)
}

func TestDisplacedVacuumIsCoherent(t *testing.T) {
	const dim = 20
	alpha := complex(0.3, 0.2)

	d := Displace(dim, cmplx.Abs(alpha), cmplx.Phase(alpha))
	displaced := ApplyTo(d, Vacuum(dim))
	coherent := Coherent(dim, alpha)

	fid := Fidelity(displaced, coherent)
	assert.InDelta(t, 1.0, fid, 1e-8)
}

func TestDisplacementVacuumAmplitude(t *testing.T) {
	// ⟨0|D(α)|0⟩ = e^(-|α|²/2)
	const dim = 20
	const r = 0.4

	d := Displace(dim, r, 0)
	expected := math.Exp(-0.5 * r * r)
	assert.InDelta(t, expected, real(d.At(0, 0)), 1e-8)
	assert.InDelta(t, 0, imag(d.At(0, 0)), 1e-8)
}

func TestBeamsplitterSinglePhotonSector(t *testing.T) {
	// The beamsplitter preserves total photon number, so the single-photon
	// sector is exact under truncation: BS(θ,0)|1,0⟩ = cosθ|1,0⟩ - sinθ|0,1⟩.
	const cutoff = 4
	const theta = math.Pi / 4

	bs := Beamsplitter(cutoff, theta, 0)

	in := make([]complex128, cutoff*cutoff)
	in[1*cutoff] = 1 // |1,0⟩
	out := ApplyTo(bs, in)

	assert.InDelta(t, math.Cos(theta), real(out[1*cutoff]), 1e-10)
	assert.InDelta(t, math.Sin(theta), math.Abs(real(out[1])), 1e-10)

	var norm float64
	for _, c := range out {
		norm += real(c)*real(c) + imag(c)*imag(c)
	}
	assert.InDelta(t, 1.0, norm, 1e-10)
}

func TestCrossKerrPhases(t *testing.T) {
	const cutoff = 3
	const kappa = 0.5
	ck := CrossKerr(cutoff, kappa)

	for m1 := 0; m1 < cutoff; m1++ {
		for m2 := 0; m2 < cutoff; m2++ {
			idx := m1*cutoff + m2
			expected := cmplx.Exp(complex(0, kappa*float64(m1*m2)))
			assert.InDelta(t, 0, cmplx.Abs(ck.At(idx, idx)-expected), 1e-12)
		}
	}
}

func TestExpmDiagonal(t *testing.T) {
	// exp of a diagonal imaginary matrix has the closed form used by Rotation.
	const dim = 4
	const phi = 1.3

	gen := mat.NewCDense(dim, dim, nil)
	for m := 0; m < dim; m++ {
		gen.Set(m, m, complex(0, phi*float64(m)))
	}

	got := Expm(gen)
	expected := Rotation(dim, phi)
	for m := 0; m < dim; m++ {
		assert.InDelta(t, 0, cmplx.Abs(got.At(m, m)-expected.At(m, m)), 1e-12)
	}
}

func TestExpmInverse(t *testing.T) {
	// exp(A)·exp(-A) = I for any square A.
	rnd := rand.New(rand.NewPCG(7, 7))
	const dim = 6

	a := mat.NewCDense(dim, dim, nil)
	neg := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			v := complex(rnd.NormFloat64(), rnd.NormFloat64())
			a.Set(i, j, v)
			neg.Set(i, j, -v)
		}
	}

	var prod mat.CDense
	prod.Mul(Expm(a), Expm(neg))

	max := 0.0
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			v := prod.At(i, j)
			if i == j {
				v -= 1
			}
			if abs := cmplx.Abs(v); abs > max {
				max = abs
			}
		}
	}
	require.Less(t, max, 1e-9)
}
