package sparsegrid

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/notargets/sparsegrid/basis"
	"github.com/notargets/sparsegrid/nodestore"
	"github.com/notargets/sparsegrid/types"
	"github.com/notargets/sparsegrid/utils"
)

type NodeID = nodestore.NodeID

/*
Grid is an adaptive hierarchical sparse grid. The caller asks for the needed
points, evaluates its target there and loads the values back, the grid keeps
the hierarchical surpluses of the loaded nodes and refines where they are
large.

All mutation happens under the write lock, so at most one load or refinement
is in flight per grid. Queries and evaluation take the read lock and may run
concurrently.
*/
type Grid struct {
	mu         sync.RWMutex
	id         string
	log        *slog.Logger
	cfg        Config
	rule       basis.Rule
	store      *nodestore.Store
	values     [][]float64 // nil until loaded
	surplus    [][]float64 // nil until the node is ready
	needed     []NodeID    // insertion order
	state      State
	reason     ConvergedReason
	iterations int
}

func MakeGrid(cfg Config) (g *Grid, err error) {
	if err = cfg.validate(); err != nil {
		return
	}
	rule, _ := basis.NewRule(cfg.Rule)
	if cfg.LevelLimits != nil {
		cfg.LevelLimits = append([]int(nil), cfg.LevelLimits...)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	g = &Grid{
		id:    uuid.NewString()[:8],
		cfg:   cfg,
		rule:  rule,
		store: nodestore.New(rule, cfg.Dimensions, cfg.Domain),
	}
	g.log = logger.With(slog.String("grid", g.id))
	g.reset()
	g.log.Info("grid created",
		slog.Int("dimensions", cfg.Dimensions),
		slog.Int("outputs", cfg.Outputs),
		slog.Int("depth", cfg.Depth),
		slog.Int("order", cfg.Order),
		slog.String("rule", rule.Kind().String()),
		slog.Int("points", g.store.Len()))
	return
}

// Reset drops every node and value and rebuilds the initial grid.
func (g *Grid) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reset()
	g.log.Info("grid reset", slog.Int("points", g.store.Len()))
}

func (g *Grid) reset() {
	g.store.Reset()
	g.values, g.surplus, g.needed = nil, nil, nil
	g.state, g.reason, g.iterations = AwaitingValues, NotConverged, 0
	for _, levels := range levelVectors(g.cfg.Dimensions, g.cfg.Depth, g.cfg.LevelLimits) {
		g.addTensorBlock(levels)
	}
}

// levelVectors lists every level vector with total at most depth, coarse totals first.
func levelVectors(dims, depth int, limits []int) (vectors [][]int) {
	var (
		cur  = make([]int, dims)
		walk func(d, budget int)
	)
	// the first dimension varies fastest
	walk = func(d, budget int) {
		if d < 0 {
			vectors = append(vectors, append([]int(nil), cur...))
			return
		}
		top := budget
		if limits != nil && limits[d] != NoLimit && limits[d] < top {
			top = limits[d]
		}
		for l := 0; l <= top; l++ {
			cur[d] = l
			walk(d-1, budget-l)
		}
	}
	walk(dims-1, depth)
	byTotal := make([][][]int, depth+1)
	for _, v := range vectors {
		total := 0
		for _, l := range v {
			total += l
		}
		byTotal[total] = append(byTotal[total], v)
	}
	vectors = vectors[:0]
	for _, vs := range byTotal {
		vectors = append(vectors, vs...)
	}
	return
}

func (g *Grid) addTensorBlock(levels []int) {
	var (
		dims    = len(levels)
		indices = make([]int, dims)
	)
	for {
		mi := types.NewMultiIndex(levels, indices)
		if _, err := g.addNode(mi); err != nil {
			panic(err)
		}
		d := 0
		for ; d < dims; d++ {
			if indices[d]++; indices[d] < g.rule.NumPoints(levels[d]) {
				break
			}
			indices[d] = 0
		}
		if d == dims {
			return
		}
	}
}

// addNode stores mi as a needed node, existing nodes are left untouched.
func (g *Grid) addNode(mi types.MultiIndex) (added bool, err error) {
	var id NodeID
	if id, added, err = g.store.AddNode(mi); err != nil || !added {
		return
	}
	if int(id) != len(g.values) {
		panic(fmt.Errorf("node %d added out of sequence, have %d nodes", id, len(g.values)))
	}
	g.values = append(g.values, nil)
	g.surplus = append(g.surplus, nil)
	g.needed = append(g.needed, id)
	nodesTotal.WithLabelValues(g.rule.Kind().String()).Inc()
	return
}

func (g *Grid) ID() string { return g.id }

func (g *Grid) Config() (cfg Config) {
	cfg = g.cfg
	if cfg.LevelLimits != nil {
		cfg.LevelLimits = append([]int(nil), cfg.LevelLimits...)
	}
	return
}

// GetPoints returns the coordinates of every node in NodeID order.
func (g *Grid) GetPoints() [][]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store.ListPoints()
}

// GetNeededPoints returns the points awaiting values, in the order LoadNeededPoints expects.
func (g *Grid) GetNeededPoints() (points [][]float64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	points = make([][]float64, len(g.needed))
	for i, id := range g.needed {
		points[i] = g.store.Coordinates(id)
	}
	return
}

func (g *Grid) GetNeededNodes() []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]NodeID(nil), g.needed...)
}

// GetLoadedPoints returns the points carrying values, in NodeID order.
func (g *Grid) GetLoadedPoints() (points [][]float64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for id, v := range g.values {
		if v != nil {
			points = append(points, g.store.Coordinates(NodeID(id)))
		}
	}
	return
}

func (g *Grid) GetNumPoints() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store.Len()
}

func (g *Grid) GetNumNeeded() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.needed)
}

func (g *Grid) GetNumLoaded() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store.Len() - len(g.needed)
}

// NodeMultiIndex returns a copy of the multi-index of id.
func (g *Grid) NodeMultiIndex(id NodeID) (mi types.MultiIndex, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err = g.checkID("NodeMultiIndex", id); err != nil {
		return
	}
	return g.store.MultiIndex(id).Copy(), nil
}

// MaxLevels is the finest level present along each dimension.
func (g *Grid) MaxLevels() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store.MaxLevels()
}

// ParentClosed reports whether every ancestor of every node is present.
func (g *Grid) ParentClosed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	closed, _ := g.store.IsParentClosed()
	return closed
}

func (g *Grid) checkID(op string, id NodeID) (err error) {
	if id < 0 || int(id) >= g.store.Len() {
		err = types.NewError(types.InvalidIndex, op,
			fmt.Sprintf("node id %d out of range [0,%d)", id, g.store.Len()))
	}
	return
}

func (g *Grid) checkRow(op string, id NodeID, row []float64) (err error) {
	if len(row) != g.cfg.Outputs {
		return types.NewSizeError(op, g.cfg.Outputs, len(row),
			fmt.Sprintf("value row of node %s", g.store.MultiIndex(id)))
	}
	if utils.IsNan(row) {
		return types.NewNodeError(types.InvalidValue, op, g.store.MultiIndex(id), "NaN in loaded values")
	}
	return
}

/*
LoadNeededPoints assigns one value row per needed point, in the order of
GetNeededPoints. Nothing is loaded unless every row is valid.
*/
func (g *Grid) LoadNeededPoints(values [][]float64) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(values) != len(g.needed) {
		return types.NewSizeError("LoadNeededPoints", len(g.needed), len(values),
			"one value row per needed point")
	}
	for i, id := range g.needed {
		if err = g.checkRow("LoadNeededPoints", id, values[i]); err != nil {
			return
		}
	}
	for i, id := range g.needed {
		g.values[id] = append([]float64(nil), values[i]...)
	}
	loaded := len(g.needed)
	g.needed = nil
	g.afterLoad(loaded)
	return
}

/*
LoadNodeValues loads values for a subset of the needed nodes in any order.
Surpluses of nodes whose ancestors are still needed are computed once the
ancestors arrive.
*/
func (g *Grid) LoadNodeValues(ids []NodeID, values [][]float64) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(ids) != len(values) {
		return types.NewSizeError("LoadNodeValues", len(ids), len(values), "one value row per node id")
	}
	seen := make(map[NodeID]bool, len(ids))
	for i, id := range ids {
		if err = g.checkID("LoadNodeValues", id); err != nil {
			return
		}
		if g.values[id] != nil || seen[id] {
			return types.NewNodeError(types.InvalidIndex, "LoadNodeValues", g.store.MultiIndex(id),
				"node is not needed or appears twice")
		}
		seen[id] = true
		if err = g.checkRow("LoadNodeValues", id, values[i]); err != nil {
			return
		}
	}
	for i, id := range ids {
		g.values[id] = append([]float64(nil), values[i]...)
	}
	remaining := g.needed[:0]
	for _, id := range g.needed {
		if !seen[id] {
			remaining = append(remaining, id)
		}
	}
	g.needed = remaining
	g.afterLoad(len(ids))
	return
}

func (g *Grid) afterLoad(loaded int) {
	computed, deferred := g.updateSurpluses()
	if g.state != Converged {
		if len(g.needed) == 0 {
			g.setState(Ready)
		} else {
			g.setState(AwaitingValues)
		}
	}
	g.log.Debug("values loaded",
		slog.Int("loaded", loaded),
		slog.Int("computed", computed),
		slog.Int("deferred", deferred),
		slog.Int("needed", len(g.needed)))
}

func (g *Grid) setState(s State) {
	if s == g.state {
		return
	}
	g.log.Info("state change",
		slog.String("from", g.state.String()),
		slog.String("state", s.String()),
		slog.Int("points", g.store.Len()),
		slog.Int("needed", len(g.needed)))
	g.state = s
}

func (g *Grid) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

func (g *Grid) ConvergedReason() ConvergedReason {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reason
}

// Iterations counts the refinement passes that added nodes.
func (g *Grid) Iterations() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.iterations
}
