package plots

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/adarsh-anand15/quantum-learning/internal/fock"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
)

// ErrRunNotFinished is returned for plots of runs that are still queued or
// executing.
var ErrRunNotFinished = errors.New("run not finished")

// ErrWrongKind is returned when a plot does not apply to the run's kind.
var ErrWrongKind = errors.New("plot not available for this run")

// ErrNoData is returned when the run finished without the data the plot
// needs, such as a failure before the first trace point.
var ErrNoData = errors.New("no data recorded for run")

// ErrInvalidOptions is returned for unknown plot names or option values.
var ErrInvalidOptions = errors.New("invalid plot options")

// Options selects what to render. Zero values fall back to per-plot
// defaults during normalization.
type Options struct {
	Which  string
	Part   string
	Points int
}

// normalize fills defaults and validates the options for one plot name,
// clearing fields the plot does not use so cache keys stay canonical.
func (o *Options) normalize(name string) error {
	switch name {
	case PlotCost, PlotConvergence:
		*o = Options{}

	case PlotMatrix:
		if o.Which == "" {
			o.Which = WhichLearned
		}
		switch o.Which {
		case WhichTarget, WhichLearned, WhichError:
		default:
			return fmt.Errorf("%w: which=%q", ErrInvalidOptions, o.Which)
		}
		if o.Part == "" {
			o.Part = PartAbs
		}
		switch o.Part {
		case PartAbs, PartReal, PartImag:
		default:
			return fmt.Errorf("%w: part=%q", ErrInvalidOptions, o.Part)
		}
		o.Points = 0

	case PlotWigner:
		if o.Which == "" {
			o.Which = WhichLearned
		}
		switch o.Which {
		case WhichTarget, WhichLearned:
		default:
			return fmt.Errorf("%w: which=%q", ErrInvalidOptions, o.Which)
		}
		if o.Points == 0 {
			o.Points = DefaultWignerPoints
		}
		if o.Points < 2 || o.Points > MaxWignerPoints {
			return fmt.Errorf("%w: points=%d (must be 2..%d)", ErrInvalidOptions, o.Points, MaxWignerPoints)
		}
		o.Part = ""

	default:
		return fmt.Errorf("%w: unknown plot %q", ErrInvalidOptions, name)
	}
	return nil
}

// Service renders plots for finished runs. Rendering rebuilds the circuit
// from the stored spec and parameters, so nothing beyond the run record is
// persisted for it.
type Service struct {
	runService *runs.Service
	cache      *Cache
	log        zerolog.Logger
}

// NewService creates a new plots service.
func NewService(runService *runs.Service, cache *Cache, log zerolog.Logger) *Service {
	return &Service{
		runService: runService,
		cache:      cache,
		log:        log.With().Str("service", "plots").Logger(),
	}
}

// Render returns the PNG for one plot of a run, serving cached bytes when
// present. Runs must be terminal: traces and parameters are immutable from
// then on, which is what makes the cache safe.
func (s *Service) Render(runID, name string, opts Options) ([]byte, error) {
	if err := opts.normalize(name); err != nil {
		return nil, err
	}

	run, err := s.runService.Get(runID)
	if err != nil {
		return nil, err
	}
	if !run.IsTerminal() {
		return nil, fmt.Errorf("%w: run %s is %s", ErrRunNotFinished, runID, run.Status)
	}

	key := cacheKey(runID, name, opts)
	if png, ok := s.cache.Get(key); ok {
		return png, nil
	}

	var p *plot.Plot
	switch name {
	case PlotCost:
		p, err = s.renderCost(runID)
	case PlotConvergence:
		p, err = s.renderConvergence(runID)
	case PlotMatrix:
		p, err = s.renderMatrix(run, opts)
	case PlotWigner:
		p, err = s.renderWigner(run, opts)
	}
	if err != nil {
		return nil, err
	}

	w, h := sizeFor(name)
	png, err := encodePNG(p, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s plot: %w", name, err)
	}

	s.cache.Put(key, png)
	s.log.Debug().Str("run_id", runID).Str("plot", name).Int("bytes", len(png)).Msg("Plot rendered")
	return png, nil
}

func (s *Service) renderCost(runID string) (*plot.Plot, error) {
	trace, err := s.runService.Trace(runID)
	if err != nil {
		return nil, err
	}
	if len(trace) == 0 {
		return nil, fmt.Errorf("%w: no trace recorded", ErrNoData)
	}
	return CostPlot(trace)
}

func (s *Service) renderConvergence(runID string) (*plot.Plot, error) {
	trace, err := s.runService.Trace(runID)
	if err != nil {
		return nil, err
	}
	if len(trace) == 0 {
		return nil, fmt.Errorf("%w: no trace recorded", ErrNoData)
	}
	return ConvergencePlot(trace)
}

func (s *Service) renderMatrix(run *runs.Run, opts Options) (*plot.Plot, error) {
	if run.Kind != string(synthesis.KindGate) {
		return nil, fmt.Errorf("%w: matrix plots need a gate run", ErrWrongKind)
	}

	ev, err := s.evaluatorFor(run)
	if err != nil {
		return nil, err
	}

	var m *mat.CDense
	switch opts.Which {
	case WhichTarget:
		m = ev.TargetGate()
	case WhichLearned:
		m, err = s.learnedGate(ev, run.ID)
		if err != nil {
			return nil, err
		}
	case WhichError:
		learned, err := s.learnedGate(ev, run.ID)
		if err != nil {
			return nil, err
		}
		target := ev.TargetGate()
		d, _ := target.Dims()
		diff := mat.NewCDense(d, d, nil)
		for k := 0; k < d; k++ {
			for j := 0; j < d; j++ {
				diff.Set(k, j, learned.At(k, j)-target.At(k, j))
			}
		}
		m = diff
	}

	p := MatrixHeatmap(m, opts.Part)
	p.Title.Text = fmt.Sprintf("%s matrix (%s)", opts.Which, opts.Part)
	return p, nil
}

func (s *Service) renderWigner(run *runs.Run, opts Options) (*plot.Plot, error) {
	if run.Kind != string(synthesis.KindState) {
		return nil, fmt.Errorf("%w: wigner plots need a state run", ErrWrongKind)
	}
	if run.Spec.Hyperparameters.Modes != 1 {
		return nil, fmt.Errorf("%w: wigner plots need a single-mode run", ErrWrongKind)
	}

	ev, err := s.evaluatorFor(run)
	if err != nil {
		return nil, err
	}

	var psi []complex128
	if opts.Which == WhichTarget {
		psi = ev.TargetState()
	} else {
		params, err := s.runService.Params(run.ID)
		if err != nil {
			return nil, err
		}
		if len(params) == 0 {
			return nil, fmt.Errorf("%w: no parameters recorded", ErrNoData)
		}
		psi, err = ev.LearnedState(params)
		if err != nil {
			return nil, err
		}
	}

	grid := fock.WignerGrid(WignerExtent, opts.Points)
	w := fock.Wigner(psi, grid, grid)

	p := WignerPlot(w, grid, grid)
	p.Title.Text = fmt.Sprintf("Wigner function (%s)", opts.Which)
	return p, nil
}

func (s *Service) learnedGate(ev *synthesis.Evaluator, runID string) (*mat.CDense, error) {
	params, err := s.runService.Params(runID)
	if err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: no parameters recorded", ErrNoData)
	}
	return ev.LearnedGate(params)
}

// evaluatorFor rebuilds the evaluator with the run's stored seed, so random
// targets resolve to the same matrices the optimization trained against.
func (s *Service) evaluatorFor(run *runs.Run) (*synthesis.Evaluator, error) {
	seed := uint64(run.Seed)
	rnd := rand.New(rand.NewPCG(seed, seed))
	return synthesis.NewEvaluator(run.Spec, rnd)
}

const (
	lineWidth  = 7 * vg.Inch
	lineHeight = 4.5 * vg.Inch
	heatSize   = 5.5 * vg.Inch
)

func sizeFor(name string) (w, h vg.Length) {
	switch name {
	case PlotMatrix, PlotWigner:
		return heatSize, heatSize
	}
	return lineWidth, lineHeight
}

func encodePNG(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
