// Package targets resolves named target specifications into the unitaries
// and states that synthesis runs learn to approximate.
package targets

import (
	"fmt"
	"math/cmplx"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/adarsh-anand15/quantum-learning/internal/fock"
)

// Spec names a target and its parameters. Custom targets carry an inline
// matrix or vector split into real and imaginary parts.
type Spec struct {
	Type   string             `json:"type" yaml:"type"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
	Matrix *CustomMatrix      `json:"matrix,omitempty" yaml:"matrix,omitempty"`
	Vector *CustomVector      `json:"vector,omitempty" yaml:"vector,omitempty"`
}

// CustomMatrix is an inline target unitary on the gate-cutoff subspace.
type CustomMatrix struct {
	Real [][]float64 `json:"real" yaml:"real"`
	Imag [][]float64 `json:"imag,omitempty" yaml:"imag,omitempty"`
}

// CustomVector is an inline target state on the full truncated space.
type CustomVector struct {
	Real []float64 `json:"real" yaml:"real"`
	Imag []float64 `json:"imag,omitempty" yaml:"imag,omitempty"`
}

// Info describes a registry entry for the catalog API.
type Info struct {
	Type        string   `json:"type"`
	Params      []string `json:"params"`
	Modes       int      `json:"modes"`
	Description string   `json:"description"`
}

// param fetches a required named parameter.
func (s Spec) param(name string) (float64, error) {
	v, ok := s.Params[name]
	if !ok {
		return 0, fmt.Errorf("target %q requires parameter %q", s.Type, name)
	}
	return v, nil
}

// paramOr fetches an optional named parameter with a default.
func (s Spec) paramOr(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}
	return def
}

// SubspaceIndices maps gate-cutoff subspace basis indices into the full
// truncated space. For one mode this is the first gateCutoff levels; for two
// modes gateCutoff applies per mode and the product basis is re-indexed into
// the cutoff² space.
func SubspaceIndices(cutoff, gateCutoff, modes int) []int {
	if modes == 2 {
		idx := make([]int, gateCutoff*gateCutoff)
		for m1 := 0; m1 < gateCutoff; m1++ {
			for m2 := 0; m2 < gateCutoff; m2++ {
				idx[m1*gateCutoff+m2] = m1*cutoff + m2
			}
		}
		return idx
	}
	idx := make([]int, gateCutoff)
	for j := range idx {
		idx[j] = j
	}
	return idx
}

// SubspaceDim returns the dimension of the gate-cutoff subspace.
func SubspaceDim(gateCutoff, modes int) int {
	if modes == 2 {
		return gateCutoff * gateCutoff
	}
	return gateCutoff
}

// ResolveGate builds the target unitary on the gate-cutoff subspace.
func ResolveGate(spec Spec, gateCutoff, modes int, rnd *rand.Rand) (*mat.CDense, error) {
	dim := SubspaceDim(gateCutoff, modes)

	switch spec.Type {
	case "identity":
		return fock.Identity(dim), nil
	case "random":
		return fock.RandomUnitary(dim, rnd), nil
	case "custom":
		return resolveCustomMatrix(spec, dim)
	}

	if modes == 2 {
		switch spec.Type {
		case "beamsplitter":
			theta, err := spec.param("theta")
			if err != nil {
				return nil, err
			}
			return fock.Beamsplitter(gateCutoff, theta, spec.paramOr("phi", 0)), nil
		case "cross_kerr":
			kappa, err := spec.param("kappa")
			if err != nil {
				return nil, err
			}
			return fock.CrossKerr(gateCutoff, kappa), nil
		}
		return nil, fmt.Errorf("unknown two-mode gate target %q", spec.Type)
	}

	switch spec.Type {
	case "rotation":
		phi, err := spec.param("phi")
		if err != nil {
			return nil, err
		}
		return fock.Rotation(dim, phi), nil
	case "kerr":
		kappa, err := spec.param("kappa")
		if err != nil {
			return nil, err
		}
		return fock.Kerr(dim, kappa), nil
	case "squeeze":
		r, err := spec.param("r")
		if err != nil {
			return nil, err
		}
		return fock.Squeeze(dim, r, spec.paramOr("phi", 0)), nil
	case "displace":
		r, err := spec.param("r")
		if err != nil {
			return nil, err
		}
		return fock.Displace(dim, r, spec.paramOr("phi", 0)), nil
	case "cubic_phase":
		gamma, err := spec.param("gamma")
		if err != nil {
			return nil, err
		}
		return fock.CubicPhase(dim, gamma), nil
	}
	return nil, fmt.Errorf("unknown gate target %q", spec.Type)
}

// ResolveState builds the target state on the full truncated space.
func ResolveState(spec Spec, cutoff, modes int, rnd *rand.Rand) ([]complex128, error) {
	dim := cutoff
	if modes == 2 {
		dim = cutoff * cutoff
	}

	switch spec.Type {
	case "vacuum":
		return fock.Vacuum(dim), nil
	case "random":
		return fock.RandomState(dim, rnd), nil
	case "custom":
		return resolveCustomVector(spec, dim)
	}

	if modes == 2 {
		switch spec.Type {
		case "noon":
			n, err := spec.param("n")
			if err != nil {
				return nil, err
			}
			return fock.NOON(cutoff, int(n))
		}
		return nil, fmt.Errorf("unknown two-mode state target %q", spec.Type)
	}

	switch spec.Type {
	case "fock":
		n, err := spec.param("n")
		if err != nil {
			return nil, err
		}
		return fock.FockState(dim, int(n))
	case "coherent":
		r, err := spec.param("r")
		if err != nil {
			return nil, err
		}
		return fock.Coherent(dim, cmplx.Rect(r, spec.paramOr("phi", 0))), nil
	case "cat":
		r, err := spec.param("r")
		if err != nil {
			return nil, err
		}
		alpha := cmplx.Rect(r, spec.paramOr("phi", 0))
		return fock.Cat(dim, alpha, spec.paramOr("theta", 0)), nil
	case "on":
		n, err := spec.param("n")
		if err != nil {
			return nil, err
		}
		delta, err := spec.param("delta")
		if err != nil {
			return nil, err
		}
		return fock.ON(dim, int(n), delta)
	}
	return nil, fmt.Errorf("unknown state target %q", spec.Type)
}

func resolveCustomMatrix(spec Spec, dim int) (*mat.CDense, error) {
	if spec.Matrix == nil {
		return nil, fmt.Errorf("custom gate target requires an inline matrix")
	}
	re := spec.Matrix.Real
	im := spec.Matrix.Imag
	if len(re) != dim {
		return nil, fmt.Errorf("custom matrix has %d rows, subspace needs %d", len(re), dim)
	}
	if im != nil && len(im) != dim {
		return nil, fmt.Errorf("custom matrix imaginary part has %d rows, subspace needs %d", len(im), dim)
	}

	u := mat.NewCDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		if len(re[i]) != dim {
			return nil, fmt.Errorf("custom matrix row %d has %d columns, subspace needs %d", i, len(re[i]), dim)
		}
		for j := 0; j < dim; j++ {
			var imag float64
			if im != nil {
				if len(im[i]) != dim {
					return nil, fmt.Errorf("custom matrix imaginary row %d has %d columns, subspace needs %d", i, len(im[i]), dim)
				}
				imag = im[i][j]
			}
			u.Set(i, j, complex(re[i][j], imag))
		}
	}

	if dev := fock.DeviationFromUnitary(u); dev > 1e-6 {
		return nil, fmt.Errorf("custom matrix is not unitary (deviation %.2e)", dev)
	}
	return u, nil
}

func resolveCustomVector(spec Spec, dim int) ([]complex128, error) {
	if spec.Vector == nil {
		return nil, fmt.Errorf("custom state target requires an inline vector")
	}
	re := spec.Vector.Real
	im := spec.Vector.Imag
	if len(re) != dim {
		return nil, fmt.Errorf("custom vector has %d entries, space needs %d", len(re), dim)
	}
	if im != nil && len(im) != dim {
		return nil, fmt.Errorf("custom vector imaginary part has %d entries, space needs %d", len(im), dim)
	}

	psi := make([]complex128, dim)
	for i := range psi {
		var imag float64
		if im != nil {
			imag = im[i]
		}
		psi[i] = complex(re[i], imag)
	}
	if fock.Normalize(psi) == 0 {
		return nil, fmt.Errorf("custom vector is zero")
	}
	return psi, nil
}

// GateCatalog lists the gate targets the service understands.
func GateCatalog() []Info {
	return []Info{
		{Type: "identity", Params: nil, Modes: 0, Description: "identity on the gate-cutoff subspace"},
		{Type: "rotation", Params: []string{"phi"}, Modes: 1, Description: "phase rotation exp(i·phi·n)"},
		{Type: "kerr", Params: []string{"kappa"}, Modes: 1, Description: "self-Kerr exp(i·kappa·n²)"},
		{Type: "squeeze", Params: []string{"r", "phi"}, Modes: 1, Description: "single-mode squeezing"},
		{Type: "displace", Params: []string{"r", "phi"}, Modes: 1, Description: "phase-space displacement"},
		{Type: "cubic_phase", Params: []string{"gamma"}, Modes: 1, Description: "cubic phase gate exp(i·gamma·x³/6)"},
		{Type: "beamsplitter", Params: []string{"theta", "phi"}, Modes: 2, Description: "two-mode beamsplitter"},
		{Type: "cross_kerr", Params: []string{"kappa"}, Modes: 2, Description: "cross-Kerr interaction exp(i·kappa·n₁·n₂)"},
		{Type: "random", Params: nil, Modes: 0, Description: "Haar-random unitary drawn from the run seed"},
		{Type: "custom", Params: nil, Modes: 0, Description: "inline unitary matrix"},
	}
}

// StateCatalog lists the state targets the service understands.
func StateCatalog() []Info {
	return []Info{
		{Type: "vacuum", Params: nil, Modes: 0, Description: "vacuum state"},
		{Type: "fock", Params: []string{"n"}, Modes: 1, Description: "number state |n⟩"},
		{Type: "coherent", Params: []string{"r", "phi"}, Modes: 1, Description: "coherent state |α⟩, α = r·e^(i·phi)"},
		{Type: "cat", Params: []string{"r", "phi", "theta"}, Modes: 1, Description: "cat state N(|α⟩ + e^(i·theta)|−α⟩)"},
		{Type: "on", Params: []string{"n", "delta"}, Modes: 1, Description: "ON state N(|0⟩ + delta·|n⟩)"},
		{Type: "noon", Params: []string{"n"}, Modes: 2, Description: "NOON state (|n,0⟩ + |0,n⟩)/√2"},
		{Type: "random", Params: nil, Modes: 0, Description: "Haar-random state drawn from the run seed"},
		{Type: "custom", Params: nil, Modes: 0, Description: "inline state vector"},
	}
}
