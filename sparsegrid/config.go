package sparsegrid

import (
	"fmt"
	"log/slog"

	"github.com/notargets/sparsegrid/basis"
	"github.com/notargets/sparsegrid/nodestore"
	"github.com/notargets/sparsegrid/refinement"
	"github.com/notargets/sparsegrid/types"
)

const (
	// NoLimit leaves a dimension without a maximum level.
	NoLimit = -1
	// MaxInitialNodes bounds the size of the grid MakeGrid builds.
	MaxInitialNodes = 1 << 24
)

type Config struct {
	Dimensions int
	Outputs    int
	Depth      int // every node with total level up to Depth is created
	Order      int // basis.Linear, basis.Quadratic or basis.Cubic
	Rule       types.RuleKind
	// LevelLimits caps the level per dimension, nil or NoLimit entries leave
	// the dimension unbounded.
	LevelLimits []int
	// Domain maps the canonical cube onto the physical box, nil keeps [-1,1]^d.
	Domain *nodestore.Domain
	// ProcLimit bounds the goroutines used by evaluation, zero uses every CPU.
	ProcLimit int
	Logger    *slog.Logger
}

func DefaultConfig(dimensions, outputs int) Config {
	return Config{
		Dimensions: dimensions,
		Outputs:    outputs,
		Depth:      1,
		Order:      basis.Linear,
		Rule:       types.Rule_LocalP,
	}
}

func (c Config) validate() (err error) {
	switch {
	case c.Dimensions < 1:
		err = types.NewError(types.InvalidConfiguration, "MakeGrid",
			fmt.Sprintf("dimensions must be positive, have %d", c.Dimensions))
	case c.Outputs < 1:
		err = types.NewError(types.InvalidConfiguration, "MakeGrid",
			fmt.Sprintf("outputs must be positive, have %d", c.Outputs))
	case c.Depth < 0 || c.Depth > types.MaxLevel:
		err = types.NewError(types.InvalidConfiguration, "MakeGrid",
			fmt.Sprintf("depth %d out of range [0,%d]", c.Depth, types.MaxLevel))
	case c.ProcLimit < 0:
		err = types.NewError(types.InvalidConfiguration, "MakeGrid",
			fmt.Sprintf("negative process limit %d", c.ProcLimit))
	case c.Domain != nil && c.Domain.Dims() != c.Dimensions:
		err = types.NewSizeError("MakeGrid", c.Dimensions, c.Domain.Dims(),
			"domain dimensions differ from grid dimensions")
	}
	if err != nil {
		return
	}
	if err = basis.ValidateOrder(c.Order); err != nil {
		return
	}
	var rule basis.Rule
	if rule, err = basis.NewRule(c.Rule); err != nil {
		return
	}
	if err = validateLimits("MakeGrid", c.LevelLimits, c.Dimensions); err != nil {
		return
	}
	if n := initialNodes(rule, c.Dimensions, c.Depth, c.LevelLimits); n > MaxInitialNodes {
		err = types.NewError(types.InvalidConfiguration, "MakeGrid",
			fmt.Sprintf("depth %d in %d dimensions exceeds %d initial nodes", c.Depth, c.Dimensions, MaxInitialNodes))
	}
	return
}

// initialNodes counts the nodes with total level up to depth, saturating just
// above MaxInitialNodes.
func initialNodes(rule basis.Rule, dims, depth int, limits []int) (n int) {
	const ceiling = MaxInitialNodes + 1
	var (
		byTotal = make([]int, depth+1) // nodes per total level over the dimensions so far
	)
	byTotal[0] = 1
	for d := 0; d < dims; d++ {
		top := depth
		if limits != nil && limits[d] != NoLimit && limits[d] < top {
			top = limits[d]
		}
		next := make([]int, depth+1)
		for t, count := range byTotal {
			if count == 0 {
				continue
			}
			for l := 0; l <= top && t+l <= depth; l++ {
				np := rule.NumPoints(l)
				if count > ceiling/np {
					next[t+l] = ceiling
					continue
				}
				next[t+l] = min(next[t+l]+count*np, ceiling)
			}
		}
		byTotal = next
	}
	for _, count := range byTotal {
		n = min(n+count, ceiling)
	}
	return
}

func validateLimits(op string, limits []int, dims int) (err error) {
	if limits == nil {
		return
	}
	if len(limits) != dims {
		return types.NewSizeError(op, dims, len(limits), "one level limit per dimension")
	}
	for d, l := range limits {
		if l < NoLimit {
			return types.NewError(types.InvalidConfiguration, op,
				fmt.Sprintf("level limit %d in dimension %d", l, d))
		}
	}
	return
}

// State of the refinement lifecycle.
type State uint8

const (
	AwaitingValues State = iota // needed points remain to be loaded
	Ready                       // every value is loaded, no refinement requested yet
	Refining
	Converged
)

var stateNames = []string{"awaiting-values", "ready", "refining", "converged"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

type ConvergedReason uint8

const (
	NotConverged ConvergedReason = iota
	ToleranceMet
	IterationCap
	// Exhausted means every flagged node is already expanded as far as the
	// level limits permit.
	Exhausted
)

var reasonNames = []string{"not-converged", "tolerance-met", "iteration-cap", "exhausted"}

func (r ConvergedReason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("ConvergedReason(%d)", r)
}

/*
RefinementParams configures one refinement pass. Output selects the output
the criterion looks at, refinement.AllOutputs uses every output. LevelLimits
tightens the grid limits for this pass. MaxIterations of zero leaves the
number of passes unbounded.
*/
type RefinementParams struct {
	Tolerance     float64
	Output        int
	Criterion     types.Criterion
	Strategy      types.RefinementType
	LevelLimits   []int
	MaxIterations int
}

func DefaultRefinementParams(tol float64) RefinementParams {
	return RefinementParams{
		Tolerance: tol,
		Output:    refinement.AllOutputs,
		Criterion: types.Criterion_Absolute,
		Strategy:  types.Refine_FDS,
	}
}
