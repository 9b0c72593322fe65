package nodestore

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/sparsegrid/basis"
	"github.com/notargets/sparsegrid/types"
)

func newStore(t *testing.T, dims int, domain *Domain) *Store {
	r, err := basis.NewRule(types.Rule_LocalP)
	require.NoError(t, err)
	return New(r, dims, domain)
}

func TestStore(t *testing.T) {
	{ // Content addressing: re-adding never grows the store
		s := newStore(t, 2, nil)
		rnd := rand.New(rand.NewSource(7))
		unique := make(map[types.NodeKey]bool)
		for n := 0; n < 500; n++ {
			var mi types.MultiIndex
			for d := 0; d < 2; d++ {
				l := rnd.Intn(4)
				mi = append(mi, types.LevelIndex{Level: l, Index: rnd.Intn(s.Rule().NumPoints(l))})
			}
			before := s.Len()
			id, added, err := s.AddNode(mi)
			require.NoError(t, err)
			if unique[mi.Key()] {
				assert.False(t, added)
				assert.Equal(t, before, s.Len())
			} else {
				assert.True(t, added)
				assert.Equal(t, before+1, s.Len())
			}
			unique[mi.Key()] = true
			assert.Equal(t, mi, s.MultiIndex(id))
			found, ok := s.Lookup(mi)
			assert.True(t, ok)
			assert.Equal(t, id, found)
		}
		assert.Equal(t, len(unique), s.Len())
	}
	{ // Invalid multi-indices are refused
		s := newStore(t, 2, nil)
		_, _, err := s.AddNode(types.MultiIndex{{0, 0}, {-1, 0}})
		assert.True(t, errors.Is(err, types.ErrInvalidIndex))
		_, _, err = s.AddNode(types.MultiIndex{{0, 0}, {1, -2}})
		assert.True(t, errors.Is(err, types.ErrInvalidIndex))
		_, _, err = s.AddNode(types.MultiIndex{{0, 0}, {1, 2}})
		assert.True(t, errors.Is(err, types.ErrInvalidIndex))
		_, _, err = s.AddNode(types.MultiIndex{{0, 0}})
		assert.True(t, errors.Is(err, types.ErrInvalidIndex))
		assert.Equal(t, 0, s.Len())
		_, ok := s.Lookup(types.MultiIndex{{0, 0}, {-1, 0}})
		assert.False(t, ok)
	}
	{ // Coordinates, parents and children
		s := newStore(t, 2, nil)
		root, _, _ := s.AddNode(types.RootMultiIndex(2))
		left, _, _ := s.AddNode(types.MultiIndex{{1, 0}, {0, 0}})
		right, _, _ := s.AddNode(types.MultiIndex{{1, 1}, {0, 0}})
		up, _, _ := s.AddNode(types.MultiIndex{{0, 0}, {1, 1}})
		assert.Equal(t, []float64{-1, 0}, s.Coordinates(left))
		assert.Equal(t, []float64{0, 1}, s.Coordinates(up))

		p, ok := s.Parent(left, 0)
		assert.True(t, ok)
		assert.Equal(t, root, p)
		_, ok = s.Parent(left, 1)
		assert.False(t, ok, "level zero has no parent")
		_, ok = s.Parent(root, 0)
		assert.False(t, ok)

		assert.Equal(t, []NodeID{left, right}, s.Children(root, 0))
		assert.Equal(t, []NodeID{up}, s.Children(root, 1))
		assert.Len(t, s.ChildIndices(root, 1), 2)
		assert.Equal(t, types.MultiIndex{{2, 0}, {0, 0}}, s.ChildIndices(left, 0)[0])
		assert.Equal(t, []int{1, 1}, s.MaxLevels())
		assert.Len(t, s.ListPoints(), 4)
	}
	{ // Parent closure of a deep candidate
		s := newStore(t, 2, nil)
		_, _, _ = s.AddNode(types.RootMultiIndex(2))
		cand := types.MultiIndex{{2, 1}, {1, 0}}
		missing := s.MissingAncestors(cand)
		// (1,1)x(0,0), (0,0)x(1,0), (1,1)x(1,0), (2,1)x(0,0)
		assert.Len(t, missing, 4)
		for i := 1; i < len(missing); i++ {
			assert.LessOrEqual(t, missing[i-1].TotalLevel(), missing[i].TotalLevel())
		}
		for _, mi := range missing {
			_, _, err := s.AddNode(mi)
			require.NoError(t, err)
		}
		_, _, err := s.AddNode(cand)
		require.NoError(t, err)
		closed, offender := s.IsParentClosed()
		assert.True(t, closed)
		assert.Equal(t, NoNode, offender)
		assert.Empty(t, s.MissingAncestors(cand))

		// A node added without its ancestors is detected
		orphan, _, _ := s.AddNode(types.MultiIndex{{3, 0}, {0, 0}})
		closed, offender = s.IsParentClosed()
		assert.False(t, closed)
		assert.Equal(t, orphan, offender)
	}
	{ // Level ordered traversal
		s := newStore(t, 2, nil)
		for _, mi := range []types.MultiIndex{
			{{2, 0}, {0, 0}}, {{0, 0}, {0, 0}}, {{1, 0}, {1, 1}}, {{1, 0}, {0, 0}}, {{0, 0}, {1, 0}},
		} {
			_, _, err := s.AddNode(mi)
			require.NoError(t, err)
		}
		var totals []int
		var ids []NodeID
		s.AscendFrom(0, func(id NodeID, tl int) bool {
			totals = append(totals, tl)
			ids = append(ids, id)
			return true
		})
		assert.Equal(t, []int{0, 1, 1, 2, 2}, totals)
		assert.Equal(t, []NodeID{1, 3, 4, 0, 2}, ids)
		var fromTwo []NodeID
		s.AscendFrom(2, func(id NodeID, tl int) bool {
			fromTwo = append(fromTwo, id)
			return true
		})
		assert.Equal(t, []NodeID{0, 2}, fromTwo)
		buckets := s.LevelBuckets([]NodeID{4, 0, 1, 3})
		assert.Equal(t, [][]NodeID{{1}, {3, 4}, {0}}, buckets)
		// duplicates collapse, the walk starts at the coarsest requested total
		assert.Equal(t, [][]NodeID{{3, 4}, {0, 2}}, s.LevelBuckets([]NodeID{2, 4, 3, 0, 4}))
		assert.Equal(t, [][]NodeID{{2}}, s.LevelBuckets([]NodeID{2}))
		assert.Nil(t, s.LevelBuckets(nil))
		assert.Panics(t, func() { s.LevelBuckets([]NodeID{7}) })
		s.Reset()
		assert.Equal(t, 0, s.Len())
	}
	{ // Out of range ids are programmer errors
		s := newStore(t, 1, nil)
		assert.Panics(t, func() { s.MultiIndex(0) })
	}
}

func TestDomain(t *testing.T) {
	d, err := NewDomain([]float64{0, -2}, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0}, d.ToPhysical([]float64{0, 0}))
	assert.Equal(t, []float64{1, -2}, d.ToPhysical([]float64{1, -1}))
	assert.InDeltaSlice(t, []float64{-0.5, 0.5}, d.ToCanonical([]float64{0.25, 1}), 1.e-15)
	assert.Equal(t, 0.5*2, d.Jacobian())

	var none *Domain
	assert.Equal(t, []float64{0.3}, none.ToPhysical([]float64{0.3}))
	assert.Equal(t, 1., none.Jacobian())

	_, err = NewDomain([]float64{0}, []float64{0})
	assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
	_, err = NewDomain([]float64{0}, []float64{1, 2})
	assert.True(t, errors.Is(err, types.ErrSizeMismatch))

	s := newStore(t, 2, d)
	id, _, _ := s.AddNode(types.MultiIndex{{1, 1}, {1, 0}})
	assert.Equal(t, []float64{1, -2}, s.Coordinates(id))
	assert.Equal(t, []float64{1, -1}, s.Canonical(id))
}
