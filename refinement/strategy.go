package refinement

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/notargets/sparsegrid/nodestore"
	"github.com/notargets/sparsegrid/types"
)

// Context is the read only view of a grid that strategies pick children from.
type Context interface {
	Dims() int
	MultiIndex(id nodestore.NodeID) types.MultiIndex
	ChildIndices(id nodestore.NodeID, dim int) []types.MultiIndex
	MissingAncestors(mi types.MultiIndex) []types.MultiIndex
	// Allowed is false for multi-indices beyond the level limits
	Allowed(mi types.MultiIndex) bool
	// DirectionalSurplus is the one dimensional surplus of the node along dim,
	// one entry per output.
	DirectionalSurplus(id nodestore.NodeID, dim int) []float64
}

/*
Strategy decides which candidates a node flagged by the threshold contributes
to the next refinement pass. Candidates may already exist in the grid and may
lack ancestors, the grid skips the former and closes the latter.
*/
type Strategy interface {
	Kind() types.RefinementType
	Candidates(ctx Context, id nodestore.NodeID, th Threshold) []types.MultiIndex
}

func New(kind types.RefinementType) (s Strategy, err error) {
	switch kind {
	case types.Refine_Classic:
		s = Classic{}
	case types.Refine_ParentsFirst:
		s = ParentsFirst{}
	case types.Refine_Direction:
		s = Direction{}
	case types.Refine_FDS:
		s = FDS{}
	default:
		err = types.NewError(types.InvalidConfiguration, "refinement.New",
			fmt.Sprintf("unknown refinement strategy %d", kind))
	}
	return
}

func allDims(ctx Context) []int { return lo.Range(ctx.Dims()) }

func children(ctx Context, id nodestore.NodeID, dims []int) []types.MultiIndex {
	return lo.FlatMap(dims, func(d int, _ int) []types.MultiIndex {
		return lo.Filter(ctx.ChildIndices(id, d), func(mi types.MultiIndex, _ int) bool {
			return ctx.Allowed(mi)
		})
	})
}

func directions(ctx Context, id nodestore.NodeID, th Threshold) []int {
	return lo.Filter(allDims(ctx), func(d int, _ int) bool {
		return th.Exceeds(ctx.DirectionalSurplus(id, d))
	})
}

// Classic expands a flagged node along every dimension.
type Classic struct{}

func (Classic) Kind() types.RefinementType { return types.Refine_Classic }

func (Classic) Candidates(ctx Context, id nodestore.NodeID, _ Threshold) []types.MultiIndex {
	return children(ctx, id, allDims(ctx))
}

/*
ParentsFirst expands along every dimension, but a child with missing ancestors
is replaced by those ancestors. The child itself is generated by a later pass
once its ancestors carry values, if the node is still flagged then.
*/
type ParentsFirst struct{}

func (ParentsFirst) Kind() types.RefinementType { return types.Refine_ParentsFirst }

func (ParentsFirst) Candidates(ctx Context, id nodestore.NodeID, _ Threshold) []types.MultiIndex {
	cands := lo.FlatMap(children(ctx, id, allDims(ctx)), func(c types.MultiIndex, _ int) []types.MultiIndex {
		if missing := ctx.MissingAncestors(c); len(missing) != 0 {
			return missing
		}
		return []types.MultiIndex{c}
	})
	return lo.UniqBy(cands, func(mi types.MultiIndex) types.NodeKey { return mi.Key() })
}

// Direction expands only along the dimensions whose directional surplus exceeds the threshold.
type Direction struct{}

func (Direction) Kind() types.RefinementType { return types.Refine_Direction }

func (Direction) Candidates(ctx Context, id nodestore.NodeID, th Threshold) []types.MultiIndex {
	return children(ctx, id, directions(ctx, id, th))
}

/*
FDS is direction selective with a full expansion fallback: a flagged node with
no single direction over the threshold carries a mixed error term and is
expanded along every dimension.
*/
type FDS struct{}

func (FDS) Kind() types.RefinementType { return types.Refine_FDS }

func (FDS) Candidates(ctx Context, id nodestore.NodeID, th Threshold) []types.MultiIndex {
	dims := directions(ctx, id, th)
	if len(dims) == 0 {
		dims = allDims(ctx)
	}
	return children(ctx, id, dims)
}
