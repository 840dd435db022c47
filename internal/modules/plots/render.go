// Package plots renders optimization results as PNG images: cost and
// convergence curves from the stored trace, matrix heatmaps for gate runs,
// and Wigner functions for state runs.
package plots

import (
	"image/color"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
)

// Plot names served by the handlers.
const (
	PlotCost        = "cost"
	PlotConvergence = "convergence"
	PlotMatrix      = "matrix"
	PlotWigner      = "wigner"
)

// Matrix views.
const (
	WhichTarget  = "target"
	WhichLearned = "learned"
	WhichError   = "error"
)

// Matrix parts.
const (
	PartAbs  = "abs"
	PartReal = "real"
	PartImag = "imag"
)

// Wigner grid bounds. The phase-space window is fixed; only the sampling
// density is adjustable.
const (
	WignerExtent        = 5.0
	DefaultWignerPoints = 101
	MaxWignerPoints     = 201
)

const heatPaletteColors = 255

var (
	costLineColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	overlapLineColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

// CostPlot renders cost versus iteration. The Y axis switches to a log
// scale when every cost is strictly positive, which is the usual case for
// fidelity-style objectives approaching zero.
func CostPlot(trace []synthesis.TracePoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Optimization cost"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "cost"

	pts := make(plotter.XYs, 0, len(trace))
	logScale := len(trace) > 0
	for _, tp := range trace {
		if math.IsNaN(tp.Cost) || math.IsInf(tp.Cost, 0) {
			continue
		}
		if tp.Cost <= 0 {
			logScale = false
		}
		pts = append(pts, plotter.XY{X: float64(tp.Iteration), Y: tp.Cost})
	}
	if logScale && len(pts) > 0 {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = costLineColor

	p.Add(plotter.NewGrid(), line)
	return p, nil
}

// ConvergencePlot renders fidelity versus iteration, with the mean overlap
// as a second line when the trace carries one (gate runs).
func ConvergencePlot(trace []synthesis.TracePoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Convergence"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "fidelity"
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Legend.Top = true

	fid := make(plotter.XYs, 0, len(trace))
	overlap := make(plotter.XYs, 0, len(trace))
	hasOverlap := false
	for _, tp := range trace {
		if !math.IsNaN(tp.Fidelity) && !math.IsInf(tp.Fidelity, 0) {
			fid = append(fid, plotter.XY{X: float64(tp.Iteration), Y: tp.Fidelity})
		}
		if !math.IsNaN(tp.MeanOverlap) && !math.IsInf(tp.MeanOverlap, 0) {
			overlap = append(overlap, plotter.XY{X: float64(tp.Iteration), Y: tp.MeanOverlap})
			if tp.MeanOverlap != 0 {
				hasOverlap = true
			}
		}
	}

	fidLine, err := plotter.NewLine(fid)
	if err != nil {
		return nil, err
	}
	fidLine.LineStyle.Width = vg.Points(1.5)
	fidLine.LineStyle.Color = costLineColor
	p.Add(plotter.NewGrid(), fidLine)
	p.Legend.Add("fidelity", fidLine)

	if hasOverlap {
		overlapLine, err := plotter.NewLine(overlap)
		if err != nil {
			return nil, err
		}
		overlapLine.LineStyle.Width = vg.Points(1.5)
		overlapLine.LineStyle.Color = overlapLineColor
		p.Add(overlapLine)
		p.Legend.Add("mean overlap", overlapLine)
	}

	return p, nil
}

// MatrixHeatmap renders one part of a complex matrix as a heatmap. The abs
// part spans [0, max]; real and imag parts get a range symmetric around
// zero so the diverging palette centers correctly.
func MatrixHeatmap(m *mat.CDense, part string) *plot.Plot {
	p := plot.New()
	p.X.Label.Text = "basis index"
	p.Y.Label.Text = "basis index"

	h := plotter.NewHeatMap(matrixGrid{m: m, part: part}, heatPalette())
	if part == PartAbs {
		h.Min = 0
		if h.Max <= 0 {
			h.Max = 1
		}
	} else {
		symmetrize(h)
	}
	p.Add(h)
	return p
}

// WignerPlot renders a Wigner function over position and momentum axes.
// The color range is symmetric around zero, so negative regions read as
// blue regardless of the peak height.
func WignerPlot(w *mat.Dense, xs, ps []float64) *plot.Plot {
	p := plot.New()
	p.Title.Text = "Wigner function"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "p"

	h := plotter.NewHeatMap(wignerGrid{w: w, xs: xs, ps: ps}, heatPalette())
	symmetrize(h)
	p.Add(h)
	return p
}

// symmetrize widens the heatmap range to be symmetric around zero. A flat
// all-zero grid gets a unit range so the palette still has something to
// map onto.
func symmetrize(h *plotter.HeatMap) {
	bound := math.Max(math.Abs(h.Min), math.Abs(h.Max))
	if bound == 0 {
		bound = 1
	}
	h.Min, h.Max = -bound, bound
}

func heatPalette() palette.Palette {
	cm := moreland.SmoothBlueRed()
	cm.SetMin(0)
	cm.SetMax(1)
	return cm.Palette(heatPaletteColors)
}

// matrixGrid adapts a complex matrix to plotter.GridXYZ, selecting the
// magnitude, real part, or imaginary part of each entry.
type matrixGrid struct {
	m    *mat.CDense
	part string
}

func (g matrixGrid) Dims() (int, int) {
	r, c := g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 {
	v := g.m.At(r, c)
	switch g.part {
	case PartReal:
		return real(v)
	case PartImag:
		return imag(v)
	default:
		return cmplx.Abs(v)
	}
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

// wignerGrid adapts the Wigner matrix (rows are momentum, columns are
// position) to plotter.GridXYZ with phase-space coordinates on the axes.
type wignerGrid struct {
	w      *mat.Dense
	xs, ps []float64
}

func (g wignerGrid) Dims() (int, int)   { return len(g.xs), len(g.ps) }
func (g wignerGrid) Z(c, r int) float64 { return g.w.At(r, c) }
func (g wignerGrid) X(c int) float64    { return g.xs[c] }
func (g wignerGrid) Y(r int) float64    { return g.ps[r] }
