package circuit

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/adarsh-anand15/quantum-learning/internal/fock"
)

// Build constructs the circuit unitary U(params) = U_depth ··· U_1.
func Build(l Layout, params []float64) (*mat.CDense, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if len(params) != l.TotalParams() {
		return nil, fmt.Errorf("parameter vector has %d entries, layout needs %d", len(params), l.TotalParams())
	}

	total := fock.Identity(l.Dim())
	for layer := 0; layer < l.Depth; layer++ {
		for _, gate := range l.layerGates(layer, params) {
			var next mat.CDense
			next.Mul(gate, total)
			total = &next
		}
	}
	return total, nil
}

// layerGates returns the gates of one layer in application order.
func (l Layout) layerGates(layer int, params []float64) []*mat.CDense {
	p := func(slot int) float64 {
		return params[l.Index(layer, slot)]
	}

	if l.Modes == 1 {
		dim := l.Cutoff
		return []*mat.CDense{
			fock.Rotation(dim, p(slotRot1)),
			fock.Squeeze(dim, p(slotSqueezeR), p(slotSqueezePhi)),
			fock.Rotation(dim, p(slotRot2)),
			fock.Displace(dim, p(slotDispR), p(slotDispPhi)),
			fock.Kerr(dim, p(slotKerr)),
		}
	}

	cutoff := l.Cutoff
	id := fock.Identity(cutoff)
	onMode0 := func(g *mat.CDense) *mat.CDense { return fock.Kron(g, id) }
	onMode1 := func(g *mat.CDense) *mat.CDense { return fock.Kron(id, g) }

	return []*mat.CDense{
		fock.Beamsplitter(cutoff, p(slot2BS1Theta), p(slot2BS1Phi)),
		onMode0(fock.Rotation(cutoff, p(slot2Rot1M0))),
		onMode1(fock.Rotation(cutoff, p(slot2Rot1M1))),
		onMode0(fock.Squeeze(cutoff, p(slot2SqueezeRM0), p(slot2SqueezePhiM0))),
		onMode1(fock.Squeeze(cutoff, p(slot2SqueezeRM1), p(slot2SqueezePhiM1))),
		fock.Beamsplitter(cutoff, p(slot2BS2Theta), p(slot2BS2Phi)),
		onMode0(fock.Rotation(cutoff, p(slot2Rot2M0))),
		onMode1(fock.Rotation(cutoff, p(slot2Rot2M1))),
		onMode0(fock.Displace(cutoff, p(slot2DispRM0), p(slot2DispPhiM0))),
		onMode1(fock.Displace(cutoff, p(slot2DispRM1), p(slot2DispPhiM1))),
		onMode0(fock.Kerr(cutoff, p(slot2KerrM0))),
		onMode1(fock.Kerr(cutoff, p(slot2KerrM1))),
	}
}
