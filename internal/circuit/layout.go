// Package circuit builds parameterized layered photonic circuits over the
// truncated Fock space. A layer applies rotation, squeezing, displacement and
// Kerr gates (plus beamsplitters between modes for two-mode layouts); the
// full circuit is the ordered product of its layers.
package circuit

import (
	"fmt"
	"math/rand/v2"
)

// Layout describes the shape of a layered circuit.
type Layout struct {
	Modes  int `json:"modes"`
	Depth  int `json:"depth"`
	Cutoff int `json:"cutoff"`
}

// Parameter slots within a single-mode layer, in application order.
const (
	slotRot1 = iota
	slotSqueezeR
	slotSqueezePhi
	slotRot2
	slotDispR
	slotDispPhi
	slotKerr

	slotsPerLayer1 = 7
)

// Parameter slots within a two-mode layer. Beamsplitters play the role of the
// interferometers surrounding the squeezing block.
const (
	slot2BS1Theta = iota
	slot2BS1Phi
	slot2Rot1M0
	slot2Rot1M1
	slot2SqueezeRM0
	slot2SqueezePhiM0
	slot2SqueezeRM1
	slot2SqueezePhiM1
	slot2BS2Theta
	slot2BS2Phi
	slot2Rot2M0
	slot2Rot2M1
	slot2DispRM0
	slot2DispPhiM0
	slot2DispRM1
	slot2DispPhiM1
	slot2KerrM0
	slot2KerrM1

	slotsPerLayer2 = 18
)

var slotNames1 = []string{
	"rot1", "squeeze_r", "squeeze_phi", "rot2", "disp_r", "disp_phi", "kerr",
}

var slotNames2 = []string{
	"bs1_theta", "bs1_phi",
	"rot1.m0", "rot1.m1",
	"squeeze_r.m0", "squeeze_phi.m0", "squeeze_r.m1", "squeeze_phi.m1",
	"bs2_theta", "bs2_phi",
	"rot2.m0", "rot2.m1",
	"disp_r.m0", "disp_phi.m0", "disp_r.m1", "disp_phi.m1",
	"kerr.m0", "kerr.m1",
}

// active marks the energy-type slots (squeezing, displacement and Kerr
// magnitudes). Everything else is a passive phase or mixing angle.
var active1 = []bool{false, true, false, false, true, false, true}

var active2 = []bool{
	false, false,
	false, false,
	true, false, true, false,
	false, false,
	false, false,
	true, false, true, false,
	true, true,
}

// Validate checks the layout is buildable.
func (l Layout) Validate() error {
	if l.Modes != 1 && l.Modes != 2 {
		return fmt.Errorf("unsupported mode count %d", l.Modes)
	}
	if l.Depth < 1 {
		return fmt.Errorf("depth must be at least 1, got %d", l.Depth)
	}
	if l.Cutoff < 2 {
		return fmt.Errorf("cutoff must be at least 2, got %d", l.Cutoff)
	}
	return nil
}

// Dim returns the dimension of the state space the circuit acts on.
func (l Layout) Dim() int {
	if l.Modes == 2 {
		return l.Cutoff * l.Cutoff
	}
	return l.Cutoff
}

// ParamsPerLayer returns the number of parameters in one layer.
func (l Layout) ParamsPerLayer() int {
	if l.Modes == 2 {
		return slotsPerLayer2
	}
	return slotsPerLayer1
}

// TotalParams returns the length of the flat parameter vector.
func (l Layout) TotalParams() int {
	return l.Depth * l.ParamsPerLayer()
}

// Index returns the position of (layer, slot) in the flat parameter vector.
func (l Layout) Index(layer, slot int) int {
	return layer*l.ParamsPerLayer() + slot
}

// ActiveMask marks the active (energy-type) entries of the parameter vector.
// The mask drives initialization spread, L2 regularization and the adam
// weight-decay mask.
func (l Layout) ActiveMask() []bool {
	perLayer := active1
	if l.Modes == 2 {
		perLayer = active2
	}
	mask := make([]bool, l.TotalParams())
	for layer := 0; layer < l.Depth; layer++ {
		for slot, a := range perLayer {
			mask[l.Index(layer, slot)] = a
		}
	}
	return mask
}

// Describe returns one human-readable label per parameter, aligned with the
// flat vector, e.g. "layer03.squeeze_r" or "layer10.disp_phi.m1".
func (l Layout) Describe() []string {
	names := slotNames1
	if l.Modes == 2 {
		names = slotNames2
	}
	labels := make([]string, l.TotalParams())
	for layer := 0; layer < l.Depth; layer++ {
		for slot, name := range names {
			labels[l.Index(layer, slot)] = fmt.Sprintf("layer%02d.%s", layer, name)
		}
	}
	return labels
}

// InitParams draws an initial parameter vector: passive entries from
// N(0, passiveSD), active entries from N(0, activeSD).
func InitParams(l Layout, passiveSD, activeSD float64, rnd *rand.Rand) []float64 {
	mask := l.ActiveMask()
	params := make([]float64, l.TotalParams())
	for i := range params {
		sd := passiveSD
		if mask[i] {
			sd = activeSD
		}
		params[i] = rnd.NormFloat64() * sd
	}
	return params
}
