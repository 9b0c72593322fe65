package model_problems

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/notargets/sparsegrid/InputParameters"
	"github.com/notargets/sparsegrid/nodestore"
	"github.com/notargets/sparsegrid/sparsegrid"
	"github.com/notargets/sparsegrid/types"
	"github.com/notargets/sparsegrid/utils"
)

// StudyStep is one row of the convergence table.
type StudyStep struct {
	Iteration int
	Points    int
	Added     int
	MaxError  float64
	Integral  float64
}

/*
Study drives a grid the way a caller would: sample the target at the needed
points, load, refine and measure the error on a fixed random set of test
points after every pass.
*/
type Study struct {
	IP         InputParameters.RefinementStudy
	Grid       *sparsegrid.Grid
	Target     TargetFunc
	Params     sparsegrid.RefinementParams
	TestPoints [][]float64
	exact      utils.Matrix
}

func NewStudy(ip InputParameters.RefinementStudy, logger *slog.Logger) (s *Study, err error) {
	s = &Study{IP: ip}
	if s.Target, err = NewTarget(ip.Target); err != nil {
		return
	}
	cfg := sparsegrid.DefaultConfig(ip.Dimensions, 1)
	cfg.Depth, cfg.Order, cfg.LevelLimits, cfg.Logger = ip.Depth, ip.Order, ip.LevelLimits, logger
	if cfg.Rule, err = types.NewRuleKind(ip.Rule); err != nil {
		return
	}
	if ip.DomainLower != nil || ip.DomainUpper != nil {
		if cfg.Domain, err = nodestore.NewDomain(ip.DomainLower, ip.DomainUpper); err != nil {
			return
		}
	}
	s.Params = sparsegrid.DefaultRefinementParams(ip.Tolerance)
	s.Params.Output = ip.Output
	s.Params.MaxIterations = ip.Iterations
	if s.Params.Strategy, err = types.NewRefinementType(ip.Strategy); err != nil {
		return
	}
	if s.Params.Criterion, err = types.NewCriterion(ip.Criterion); err != nil {
		return
	}
	if s.Grid, err = sparsegrid.MakeGrid(cfg); err != nil {
		return
	}
	s.TestPoints = SampleBox(ip.TestPoints, cfg.Dimensions, cfg.Domain, ip.Seed)
	s.exact = utils.NewMatrixFromRows(s.Target.Vector(s.TestPoints), 1)
	return
}

// SampleBox draws n uniform points in the domain, the canonical cube for a nil domain.
func SampleBox(n, dims int, domain *nodestore.Domain, seed int64) (points [][]float64) {
	rnd := rand.New(rand.NewSource(seed))
	points = make([][]float64, n)
	for i := range points {
		x := make([]float64, dims)
		for d := range x {
			x[d] = 2*rnd.Float64() - 1
		}
		points[i] = domain.ToPhysical(x)
	}
	return
}

func (s *Study) load() error {
	return s.Grid.LoadNeededPoints(s.Target.Vector(s.Grid.GetNeededPoints()))
}

func (s *Study) MaxError() (e float64, err error) {
	var R utils.Matrix
	if R, err = s.Grid.EvaluateBatch(s.TestPoints); err != nil {
		return
	}
	return R.MaxAbsDiff(s.exact), nil
}

func (s *Study) step(iter, added int) (st StudyStep, err error) {
	st = StudyStep{
		Iteration: iter,
		Points:    s.Grid.GetNumPoints(),
		Added:     added,
		Integral:  s.Grid.Integrate()[0],
	}
	st.MaxError, err = s.MaxError()
	return
}

/*
Run loads the initial grid and refines until the grid converges, the first
step describes the initial grid. The iteration budget is the grid's iteration
cap, so a study that spends it leaves the grid converged with IterationCap.
A budget of zero runs no refinement pass.
*/
func (s *Study) Run() (steps []StudyStep, err error) {
	var st StudyStep
	if err = s.load(); err != nil {
		return
	}
	if st, err = s.step(0, 0); err != nil {
		return
	}
	steps = append(steps, st)
	if s.IP.Iterations == 0 {
		return
	}
	for iter := 1; ; iter++ {
		var added int
		if added, err = s.Grid.SetSurplusRefinement(s.Params); err != nil {
			return
		}
		if added == 0 {
			return
		}
		if err = s.load(); err != nil {
			return
		}
		if st, err = s.step(iter, added); err != nil {
			return
		}
		steps = append(steps, st)
	}
}

// FixedGridPoints is the size of the non adaptive grid of the given depth.
func FixedGridPoints(dims, depth int, rule string) (n int, err error) {
	cfg := sparsegrid.DefaultConfig(dims, 1)
	cfg.Depth = depth
	cfg.Logger = slog.New(slog.DiscardHandler)
	if cfg.Rule, err = types.NewRuleKind(rule); err != nil {
		return
	}
	var g *sparsegrid.Grid
	if g, err = sparsegrid.MakeGrid(cfg); err != nil {
		return 0, fmt.Errorf("fixed grid of depth %d: %w", depth, err)
	}
	return g.GetNumPoints(), nil
}
