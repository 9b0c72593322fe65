package sparsegrid

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/notargets/sparsegrid/nodestore"
	"github.com/notargets/sparsegrid/refinement"
	"github.com/notargets/sparsegrid/types"
)

/*
SetSurplusRefinement runs one refinement pass and returns the number of new
needed points. Leaf nodes, those missing a child along some dimension, whose
surplus exceeds the threshold are handed to the strategy. The candidates are
closed under parents and added as needed nodes. A pass that flags nothing, or that cannot add a node, moves the
grid to Converged, as does reaching MaxIterations passes. Converged grids
ignore further calls.
*/
func (g *Grid) SetSurplusRefinement(p RefinementParams) (added int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == Converged {
		return
	}
	if len(g.needed) != 0 {
		err = types.NewCountError(types.IncompleteLoad, "SetSurplusRefinement", 0, len(g.needed),
			"every needed point must be loaded before refinement")
		return
	}
	var (
		strategy refinement.Strategy
		th       refinement.Threshold
	)
	if strategy, err = refinement.New(p.Strategy); err != nil {
		return
	}
	if p.MaxIterations < 0 {
		err = types.NewError(types.InvalidConfiguration, "SetSurplusRefinement",
			fmt.Sprintf("negative iteration cap %d", p.MaxIterations))
		return
	}
	if err = validateLimits("SetSurplusRefinement", p.LevelLimits, g.cfg.Dimensions); err != nil {
		return
	}
	if th, err = refinement.NewThreshold(p.Tolerance, p.Criterion, p.Output, g.cfg.Outputs, g.values); err != nil {
		return
	}
	if p.MaxIterations > 0 && g.iterations >= p.MaxIterations {
		g.converge(IterationCap, strategy)
		return
	}
	g.setState(Refining)

	var flagged []NodeID
	for id, s := range g.surplus {
		if s != nil && th.Exceeds(s) && g.isLeaf(NodeID(id)) {
			flagged = append(flagged, NodeID(id))
		}
	}
	if len(flagged) == 0 {
		g.converge(ToleranceMet, strategy)
		return
	}

	ctx := &refineContext{
		Store:  g.store,
		g:      g,
		limits: mergeLimits(g.cfg.LevelLimits, p.LevelLimits, g.cfg.Dimensions),
		memo:   make(map[dirKey][]float64),
	}
	var (
		seen       = make(map[types.NodeKey]bool)
		candidates []types.MultiIndex
		proposed   int
	)
	for _, id := range flagged {
		for _, c := range strategy.Candidates(ctx, id, th) {
			proposed++
			key := c.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			if _, exists := g.store.Lookup(c); !exists {
				candidates = append(candidates, c)
			}
		}
	}
	candidatesTotal.Add(float64(proposed))
	sort.Slice(candidates, func(i, j int) bool {
		ti, tj := candidates[i].TotalLevel(), candidates[j].TotalLevel()
		if ti != tj {
			return ti < tj
		}
		return candidates[i].Key() < candidates[j].Key()
	})
	var closure int
	for _, c := range candidates {
		for _, a := range g.store.MissingAncestors(c) {
			if ok, _ := g.mustAdd(a); ok {
				added++
				closure++
			}
		}
		if ok, _ := g.mustAdd(c); ok {
			added++
		}
	}
	if added == 0 {
		g.converge(Exhausted, strategy)
		return
	}
	g.iterations++
	passesTotal.WithLabelValues(strategy.Kind().String(), "refined").Inc()
	g.log.Debug("refinement pass",
		slog.Int("iteration", g.iterations),
		slog.String("strategy", strategy.Kind().String()),
		slog.Int("flagged", len(flagged)),
		slog.Int("proposed", proposed),
		slog.Int("added", added),
		slog.Int("closure", closure))
	g.setState(AwaitingValues)
	return
}

// isLeaf reports whether some child of id along some dimension is absent.
func (g *Grid) isLeaf(id NodeID) bool {
	for d := 0; d < g.cfg.Dimensions; d++ {
		for _, c := range g.store.ChildIndices(id, d) {
			if _, ok := g.store.Lookup(c); !ok {
				return true
			}
		}
	}
	return false
}

func (g *Grid) mustAdd(mi types.MultiIndex) (added bool, err error) {
	if added, err = g.addNode(mi); err != nil {
		// candidates come from the rule itself
		panic(err)
	}
	return
}

func (g *Grid) converge(reason ConvergedReason, strategy refinement.Strategy) {
	g.reason = reason
	passesTotal.WithLabelValues(strategy.Kind().String(), reason.String()).Inc()
	g.setState(Converged)
	g.log.Info("refinement converged",
		slog.String("reason", reason.String()),
		slog.Int("iterations", g.iterations),
		slog.Int("points", g.store.Len()))
}

// mergeLimits takes the tighter of the grid and pass limits per dimension.
func mergeLimits(grid, pass []int, dims int) (limits []int) {
	if grid == nil && pass == nil {
		return
	}
	limits = make([]int, dims)
	for d := range limits {
		limits[d] = NoLimit
		for _, src := range [][]int{grid, pass} {
			if src == nil || src[d] == NoLimit {
				continue
			}
			if limits[d] == NoLimit || src[d] < limits[d] {
				limits[d] = src[d]
			}
		}
	}
	return
}

type dirKey struct {
	id  NodeID
	dim int
}

// refineContext exposes the grid to the refinement strategies for one pass.
type refineContext struct {
	*nodestore.Store
	g      *Grid
	limits []int
	memo   map[dirKey][]float64
}

func (c *refineContext) Allowed(mi types.MultiIndex) bool {
	if c.limits == nil {
		return true
	}
	for d, li := range mi {
		if l := c.limits[d]; l != NoLimit && li.Level > l {
			return false
		}
	}
	return true
}

/*
DirectionalSurplus is the hierarchical surplus of id along the grid line
through the node in direction dim: the loaded value minus the one dimensional
interpolant of the coarser loaded nodes on that line.
*/
func (c *refineContext) DirectionalSurplus(id NodeID, dim int) (s []float64) {
	key := dirKey{id, dim}
	if s, ok := c.memo[key]; ok {
		return s
	}
	var (
		mi = c.MultiIndex(id)
		x  = c.Canonical(id)[dim]
	)
	s = append([]float64(nil), c.g.values[id]...)
	for _, li := range c.g.rule.Contributors(mi[dim]) {
		m, ok := c.Lookup(mi.With(dim, li))
		if !ok || c.g.values[m] == nil {
			continue
		}
		phi := c.g.rule.Evaluate(c.g.cfg.Order, li, x)
		if phi == 0 {
			continue
		}
		sm := c.DirectionalSurplus(m, dim)
		for k := range s {
			s[k] -= phi * sm[k]
		}
	}
	c.memo[key] = s
	return
}
