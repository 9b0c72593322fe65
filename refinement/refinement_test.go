package refinement

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/sparsegrid/basis"
	"github.com/notargets/sparsegrid/nodestore"
	"github.com/notargets/sparsegrid/types"
)

type fakeGrid struct {
	*nodestore.Store
	maxLevel    int
	directional map[int][]float64 // by dimension
}

func (g *fakeGrid) Allowed(mi types.MultiIndex) bool {
	for _, li := range mi {
		if li.Level > g.maxLevel {
			return false
		}
	}
	return true
}

func (g *fakeGrid) DirectionalSurplus(_ nodestore.NodeID, dim int) []float64 {
	return g.directional[dim]
}

func newFakeGrid(t *testing.T, mis ...types.MultiIndex) (g *fakeGrid, ids []nodestore.NodeID) {
	r, err := basis.NewRule(types.Rule_LocalP)
	require.NoError(t, err)
	g = &fakeGrid{
		Store:       nodestore.New(r, 2, nil),
		maxLevel:    types.MaxLevel,
		directional: map[int][]float64{0: {0}, 1: {0}},
	}
	for _, mi := range mis {
		id, _, err := g.AddNode(mi)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return
}

func keys(mis []types.MultiIndex) (k []string) {
	for _, mi := range mis {
		k = append(k, mi.String())
	}
	return
}

func TestStrategies(t *testing.T) {
	th, err := NewThreshold(1.e-3, types.Criterion_Absolute, AllOutputs, 1, nil)
	require.NoError(t, err)
	{ // Strategy lookup
		for _, kind := range []types.RefinementType{types.Refine_Classic, types.Refine_ParentsFirst,
			types.Refine_Direction, types.Refine_FDS} {
			s, err := New(kind)
			require.NoError(t, err)
			assert.Equal(t, kind, s.Kind())
		}
		_, err := New(types.RefinementType(9))
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
	}
	{ // Classic expands along every dimension
		g, ids := newFakeGrid(t, types.RootMultiIndex(2))
		cands := Classic{}.Candidates(g, ids[0], th)
		assert.Equal(t, []string{"[(1,0) (0,0)]", "[(1,1) (0,0)]", "[(0,0) (1,0)]", "[(0,0) (1,1)]"}, keys(cands))
		g.maxLevel = 0
		assert.Empty(t, Classic{}.Candidates(g, ids[0], th), "level limits refuse expansion")
	}
	{ // Directional strategies follow the one dimensional surpluses
		g, ids := newFakeGrid(t, types.RootMultiIndex(2))
		g.directional[1] = []float64{0.5}
		assert.Equal(t, []string{"[(0,0) (1,0)]", "[(0,0) (1,1)]"}, keys(Direction{}.Candidates(g, ids[0], th)))
		assert.Equal(t, []string{"[(0,0) (1,0)]", "[(0,0) (1,1)]"}, keys(FDS{}.Candidates(g, ids[0], th)))
		// No direction qualifies, a mixed term alone
		g.directional[1] = []float64{-1.e-4}
		assert.Empty(t, Direction{}.Candidates(g, ids[0], th))
		assert.Len(t, FDS{}.Candidates(g, ids[0], th), 4)
	}
	{ // ParentsFirst replaces children lacking ancestors by those ancestors
		g, ids := newFakeGrid(t,
			types.RootMultiIndex(2),
			types.NewMultiIndex([]int{1, 0}, []int{0, 0}),
			types.NewMultiIndex([]int{0, 1}, []int{0, 0}),
			types.NewMultiIndex([]int{0, 1}, []int{0, 1}),
		)
		// (1,0)x(0,0) along dim 1 gives (1,0)x(1,k), whose parents are all present
		cands := ParentsFirst{}.Candidates(g, ids[1], th)
		assert.Equal(t, []string{"[(2,0) (0,0)]", "[(1,0) (1,0)]", "[(1,0) (1,1)]"}, keys(cands))

		g2, ids2 := newFakeGrid(t,
			types.RootMultiIndex(2),
			types.NewMultiIndex([]int{1, 0}, []int{0, 0}),
		)
		cands = ParentsFirst{}.Candidates(g2, ids2[1], th)
		// (1,0)x(1,k) is deferred, its parent (0,0)x(1,k) comes first
		assert.Equal(t, []string{"[(2,0) (0,0)]", "[(0,0) (1,0)]", "[(0,0) (1,1)]"}, keys(cands))
	}
}

func TestThreshold(t *testing.T) {
	values := [][]float64{{1, -10}, nil, {-4, 2}}
	{ // Absolute
		th, err := NewThreshold(0.5, types.Criterion_Absolute, AllOutputs, 2, values)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, th.Outputs)
		assert.True(t, th.Exceeds([]float64{0, -0.6}))
		assert.False(t, th.Exceeds([]float64{0.5, -0.5}))
	}
	{ // Relative scales by the largest loaded magnitude of each output
		th, err := NewThreshold(0.1, types.Criterion_Relative, AllOutputs, 2, values)
		require.NoError(t, err)
		assert.Equal(t, []float64{4, 10}, th.Scale)
		assert.False(t, th.Exceeds([]float64{0.3, 0.9}))
		assert.True(t, th.Exceeds([]float64{0.5, 0}))
	}
	{ // Output selection
		th, err := NewThreshold(0.5, types.Criterion_Absolute, 1, 2, values)
		require.NoError(t, err)
		assert.False(t, th.Exceeds([]float64{100, 0.1}))
		assert.True(t, th.Exceeds([]float64{0, 1}))
	}
	{ // Invalid parameters
		_, err := NewThreshold(-1, types.Criterion_Absolute, AllOutputs, 1, nil)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
		_, err = NewThreshold(1, types.Criterion_Absolute, 1, 1, nil)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
		_, err = NewThreshold(1, types.Criterion_Absolute, -2, 1, nil)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
		_, err = NewThreshold(1, types.Criterion(7), 0, 1, nil)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
	}
}
