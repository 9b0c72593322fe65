package sparsegrid

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/notargets/sparsegrid/basis"
	"github.com/notargets/sparsegrid/nodestore"
	"github.com/notargets/sparsegrid/types"
	"github.com/notargets/sparsegrid/utils"
)

const minNodesPerBucket = 16

/*
updateSurpluses computes the surplus of every loaded node that lacks one.
Nodes are swept by total level, nodes of one total level only read coarser
surpluses and are computed in parallel. Nodes whose parents are not ready are
deferred and picked up by a later load.

Nonlocal rules reach nodes outside their subtree, a newly loaded coarse node
changes the surpluses of finer ones, so every loaded node is recomputed.
*/
func (g *Grid) updateSurpluses() (computed, deferred int) {
	var pending []NodeID
	for id, v := range g.values {
		if v == nil {
			continue
		}
		if g.rule.Nonlocal() {
			g.surplus[id] = nil
		}
		if g.surplus[id] == nil {
			pending = append(pending, NodeID(id))
		}
	}
	for _, bucket := range g.store.LevelBuckets(pending) {
		var (
			NP      = utils.ParallelDegree(g.cfg.ProcLimit, len(bucket), minNodesPerBucket)
			pm      = utils.NewPartitionMap(NP, len(bucket))
			skipped = make([]int, NP)
			eg      errgroup.Group
		)
		for bn := 0; bn < NP; bn++ {
			eg.Go(func() error {
				kmin, kmax := pm.GetBucketRange(bn)
				for _, id := range bucket[kmin:kmax] {
					s, err := g.computeSurplus(id)
					switch {
					case errors.Is(err, types.ErrMissingAncestor):
						skipped[bn]++
					case err != nil:
						return err
					default:
						g.surplus[id] = s
					}
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			panic(err)
		}
		for _, n := range skipped {
			deferred += n
		}
		computed += len(bucket)
	}
	computed -= deferred
	return
}

/*
computeSurplus is the loaded value of id minus the interpolant of the coarser
nodes at its point. Only nodes whose level is at most the level of id in every
dimension can be nonzero there, the rule lists them per dimension.
*/
func (g *Grid) computeSurplus(id NodeID) (s []float64, err error) {
	mi := g.store.MultiIndex(id)
	for d := range mi {
		pmi, ok := g.store.ParentIndex(mi, d)
		if !ok {
			continue
		}
		if p, found := g.store.Lookup(pmi); !found || g.surplus[p] == nil {
			return nil, types.NewNodeError(types.MissingAncestor, "computeSurplus", mi,
				fmt.Sprintf("parent %s along dimension %d is not ready", pmi, d))
		}
	}
	var (
		x = g.store.Canonical(id)
	)
	s = append([]float64(nil), g.values[id]...)
	g.forContributors(mi, func(m NodeID, mmi types.MultiIndex) {
		// placeholders and deferred nodes count as zero surplus
		sm := g.surplus[m]
		if sm == nil {
			return
		}
		if phi := basis.Evaluate(g.rule, g.cfg.Order, mmi, x); phi != 0 {
			for k := range s {
				s[k] -= sm[k] * phi
			}
		}
	})
	return
}

// forContributors visits the stored nodes whose functions may be nonzero at the node of mi.
func (g *Grid) forContributors(mi types.MultiIndex, fn func(m NodeID, mmi types.MultiIndex)) {
	var (
		dims    = len(mi)
		options = make([][]types.LevelIndex, dims)
		pos     = make([]int, dims)
		cur     = mi.Copy()
	)
	for d, li := range mi {
		options[d] = append([]types.LevelIndex{li}, g.rule.Contributors(li)...)
	}
	for {
		d := 0
		for ; d < dims; d++ {
			if pos[d]++; pos[d] < len(options[d]) {
				cur[d] = options[d][pos[d]]
				break
			}
			pos[d] = 0
			cur[d] = options[d][0]
		}
		if d == dims {
			return
		}
		if m, ok := g.store.Lookup(cur); ok {
			fn(m, g.store.MultiIndex(m))
		}
	}
}

// Surpluses returns the hierarchical coefficients, nodes × outputs. Rows of
// nodes without a surplus are zero.
func (g *Grid) Surpluses() (S utils.Matrix) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.surplusMatrix()
}

func (g *Grid) surplusMatrix() (S utils.Matrix) {
	S = utils.NewMatrix(g.store.Len(), g.cfg.Outputs)
	for id, s := range g.surplus {
		if s != nil {
			copy(S.Row(id), s)
		}
	}
	return
}

// Surplus returns the surplus of one node, ok is false while the node is not ready.
func (g *Grid) Surplus(id NodeID) (s []float64, ok bool, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err = g.checkID("Surplus", id); err != nil {
		return
	}
	if g.surplus[id] == nil {
		return
	}
	return append([]float64(nil), g.surplus[id]...), true, nil
}

func (g *Grid) readyNodes() (ready []NodeID) {
	for id, s := range g.surplus {
		if s != nil {
			ready = append(ready, nodestore.NodeID(id))
		}
	}
	return
}
