package sparsegrid

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/sparsegrid/basis"
	"github.com/notargets/sparsegrid/refinement"
	"github.com/notargets/sparsegrid/types"
)

func cosine(x []float64) []float64 {
	return []float64{math.Cos(2*math.Pi + 2*x[0] + 2*x[1])}
}

func peak(x []float64) []float64 {
	return []float64{math.Exp(-2*math.Abs(x[0]-0.3) - 3*math.Abs(x[1]+0.2))}
}

func maxError(t *testing.T, g *Grid, points [][]float64, f func(x []float64) []float64) (e float64) {
	R, err := g.EvaluateBatch(points)
	require.NoError(t, err)
	for i, x := range points {
		for k, v := range f(x) {
			e = math.Max(e, math.Abs(v-R.At(i, k)))
		}
	}
	return
}

func TestRefinementScenario(t *testing.T) {
	var (
		rnd    = rand.New(rand.NewSource(1))
		points = make([][]float64, 1000)
	)
	for i := range points {
		points[i] = []float64{2*rnd.Float64() - 1, 2*rnd.Float64() - 1}
	}
	g := newGrid(t, testConfig(2, 1, 1))
	load(t, g, cosine)
	var (
		counts = []int{g.GetNumPoints()}
		errs   = []float64{maxError(t, g, points, cosine)}
		params = DefaultRefinementParams(1.e-5)
	)
	assert.Equal(t, types.Refine_FDS, params.Strategy)
	for iter := 0; iter < 6; iter++ {
		added, err := g.SetSurplusRefinement(params)
		require.NoError(t, err)
		assert.True(t, added > 0)
		assert.Equal(t, AwaitingValues, g.State())
		assert.Equal(t, added, g.GetNumNeeded())
		assert.True(t, g.ParentClosed())
		load(t, g, cosine)
		counts = append(counts, g.GetNumPoints())
		errs = append(errs, maxError(t, g, points, cosine))
	}
	assert.Equal(t, 6, g.Iterations())
	for i := 1; i < len(counts); i++ {
		assert.Greater(t, counts[i], counts[i-1], "point count must grow, %v", counts)
		assert.LessOrEqual(t, errs[i], errs[i-1]+1.e-12, "max error must not grow, %v", errs)
	}
	assert.Less(t, errs[len(errs)-1], 1.e-2)
}

func TestRefinementInvariants(t *testing.T) {
	strategies := []types.RefinementType{types.Refine_Classic, types.Refine_ParentsFirst,
		types.Refine_Direction, types.Refine_FDS}
	rules := []types.RuleKind{types.Rule_LocalP, types.Rule_SemiLocalP, types.Rule_LocalPZero}
	for _, rule := range rules {
		for _, strategy := range strategies {
			for order := basis.Linear; order <= basis.Cubic; order++ {
				cfg := testConfig(2, 1, 1)
				cfg.Rule, cfg.Order = rule, order
				g := newGrid(t, cfg)
				load(t, g, peak)
				params := DefaultRefinementParams(1.e-3)
				params.Strategy = strategy
				last := g.GetNumPoints()
				for iter := 0; iter < 4; iter++ {
					if _, err := g.SetSurplusRefinement(params); err != nil {
						require.NoError(t, err)
					}
					assert.True(t, g.ParentClosed(), "%s %s", rule, strategy)
					assert.GreaterOrEqual(t, g.GetNumPoints(), last)
					last = g.GetNumPoints()
					load(t, g, peak)
				}
				// Interpolation at every node
				nodes := g.GetPoints()
				assert.InDelta(t, 0., maxError(t, g, nodes, peak), 1.e-12, "%s %s order %d", rule, strategy, order)
			}
		}
	}
}

func TestRefinementLifecycle(t *testing.T) {
	{ // Refinement before loading
		g := newGrid(t, testConfig(2, 1, 1))
		_, err := g.SetSurplusRefinement(DefaultRefinementParams(1.e-3))
		require.True(t, errors.Is(err, types.ErrIncompleteLoad))
		var ge *types.GridError
		require.True(t, errors.As(err, &ge))
		assert.Equal(t, 5, ge.Actual)
	}
	{ // Invalid parameters leave the grid untouched
		g := newGrid(t, testConfig(2, 2, 1))
		load(t, g, func(x []float64) []float64 { return []float64{x[0], x[1]} })
		for _, mod := range []func(p *RefinementParams){
			func(p *RefinementParams) { p.Tolerance = -1 },
			func(p *RefinementParams) { p.Output = 2 },
			func(p *RefinementParams) { p.Strategy = types.RefinementType(11) },
			func(p *RefinementParams) { p.MaxIterations = -1 },
			func(p *RefinementParams) { p.LevelLimits = []int{1, -4} },
		} {
			p := DefaultRefinementParams(1.e-3)
			mod(&p)
			_, err := g.SetSurplusRefinement(p)
			assert.True(t, errors.Is(err, types.ErrInvalidConfiguration), "%v", err)
		}
		assert.Equal(t, Ready, g.State())
		assert.Equal(t, 5, g.GetNumPoints())
	}
	{ // Tolerance met, Converged is terminal
		g := newGrid(t, testConfig(2, 1, 1))
		load(t, g, func(x []float64) []float64 { return []float64{3} })
		// only the root carries a surplus and it has every child
		added, err := g.SetSurplusRefinement(DefaultRefinementParams(1.e-3))
		require.NoError(t, err)
		assert.Equal(t, 0, added)
		assert.Equal(t, Converged, g.State())
		assert.Equal(t, ToleranceMet, g.ConvergedReason())
		added, err = g.SetSurplusRefinement(DefaultRefinementParams(0))
		assert.NoError(t, err)
		assert.Equal(t, 0, added)
		assert.Equal(t, 5, g.GetNumPoints())
		assert.NoError(t, g.LoadNeededPoints(nil))
		assert.Equal(t, Converged, g.State())
	}
	{ // Iteration cap
		g := newGrid(t, testConfig(2, 1, 1))
		load(t, g, cosine)
		p := DefaultRefinementParams(1.e-6)
		p.MaxIterations = 2
		for iter := 0; iter < 2; iter++ {
			added, err := g.SetSurplusRefinement(p)
			require.NoError(t, err)
			require.True(t, added > 0)
			load(t, g, cosine)
		}
		added, err := g.SetSurplusRefinement(p)
		require.NoError(t, err)
		assert.Equal(t, 0, added)
		assert.Equal(t, IterationCap, g.ConvergedReason())
		assert.Equal(t, 2, g.Iterations())
	}
	{ // Level caps silently stop the growth
		cfg := testConfig(2, 1, 1)
		cfg.LevelLimits = []int{2, NoLimit}
		g := newGrid(t, cfg)
		load(t, g, peak)
		p := DefaultRefinementParams(1.e-9)
		p.Strategy = types.Refine_Classic
		p.LevelLimits = []int{NoLimit, 1}
		for iter := 0; iter < 5 && g.State() != Converged; iter++ {
			_, err := g.SetSurplusRefinement(p)
			require.NoError(t, err)
			load(t, g, peak)
		}
		assert.Equal(t, Converged, g.State())
		assert.Equal(t, Exhausted, g.ConvergedReason())
		assert.Equal(t, []int{2, 1}, g.MaxLevels())
		// full tensor grid of levels up to two by levels up to one
		assert.Equal(t, 5*3, g.GetNumPoints())
	}
	{ // Output selection and relative tolerance
		g := newGrid(t, testConfig(2, 2, 1))
		both := func(x []float64) []float64 { return []float64{7, 100 * peak(x)[0]} }
		load(t, g, both)
		p := DefaultRefinementParams(1.e-3)
		p.Output = 0
		added, err := g.SetSurplusRefinement(p)
		require.NoError(t, err)
		assert.Equal(t, 0, added, "the constant output has no surplus past the root")
		assert.Equal(t, ToleranceMet, g.ConvergedReason())

		g = newGrid(t, testConfig(2, 2, 1))
		load(t, g, both)
		p.Output = refinement.AllOutputs
		p.Criterion = types.Criterion_Relative
		p.Tolerance = 0.2
		added, err = g.SetSurplusRefinement(p)
		require.NoError(t, err)
		assert.True(t, added > 0)
	}
	{ // Reset returns to the initial grid
		g := newGrid(t, testConfig(2, 1, 1))
		load(t, g, cosine)
		_, err := g.SetSurplusRefinement(DefaultRefinementParams(1.e-5))
		require.NoError(t, err)
		g.Reset()
		assert.Equal(t, 5, g.GetNumPoints())
		assert.Equal(t, 5, g.GetNumNeeded())
		assert.Equal(t, AwaitingValues, g.State())
		assert.Equal(t, 0, g.Iterations())
	}
}

func TestMergeLimits(t *testing.T) {
	assert.Nil(t, mergeLimits(nil, nil, 2))
	assert.Equal(t, []int{NoLimit, 3}, mergeLimits(nil, []int{NoLimit, 3}, 2))
	assert.Equal(t, []int{1, 3}, mergeLimits([]int{1, 5}, []int{4, 3}, 2))
	assert.Equal(t, []int{1, 5}, mergeLimits([]int{1, 5}, []int{NoLimit, NoLimit}, 2))
}
