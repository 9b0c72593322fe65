package basis

import (
	"fmt"
	"math"

	"github.com/notargets/sparsegrid/types"
)

const (
	Linear    = 1
	Quadratic = 2
	Cubic     = 3
	MaxOrder  = Cubic
)

/*
Rule is a one dimensional hierarchical rule on the canonical interval [-1,1].
It fixes where the nodes of each level are, the parent/child relation between
levels and the shape of the local basis functions for each polynomial order.

Every basis function of level l vanishes at every node of a level lower than l
and at every other node of level l, which makes the hierarchical interpolation
matrix triangular in level order.
*/
type Rule interface {
	Kind() types.RuleKind
	NumPoints(level int) int
	Coordinate(li types.LevelIndex) float64
	Parent(li types.LevelIndex) (parent types.LevelIndex, ok bool)
	Children(li types.LevelIndex) []types.LevelIndex
	Support(li types.LevelIndex) (a, b float64)
	Evaluate(order int, li types.LevelIndex, x float64) float64
	Integral(order int, li types.LevelIndex) float64
	// Contributors lists the coarser functions that can be nonzero at the node of li.
	Contributors(li types.LevelIndex) []types.LevelIndex
	// Nonlocal rules have functions that do not vanish at non descendant nodes
	// of finer levels, so surpluses of existing nodes change as nodes are added.
	Nonlocal() bool
}

func NewRule(kind types.RuleKind) (r Rule, err error) {
	switch kind {
	case types.Rule_LocalP:
		r = LocalP{}
	case types.Rule_SemiLocalP:
		r = SemiLocalP{}
	case types.Rule_LocalPZero:
		r = LocalPZero{}
	default:
		err = types.NewError(types.InvalidConfiguration, "NewRule",
			fmt.Sprintf("unknown rule kind %d", kind))
	}
	return
}

func ValidateOrder(order int) (err error) {
	if order < Linear || order > MaxOrder {
		err = types.NewError(types.InvalidConfiguration, "ValidateOrder",
			fmt.Sprintf("basis order %d, must be between %d and %d", order, Linear, MaxOrder))
	}
	return
}

// Check validates a single axis location against the rule.
func Check(r Rule, li types.LevelIndex) (err error) {
	switch {
	case li.Level < 0 || li.Index < 0:
		err = fmt.Errorf("negative level or index %s", li)
	case li.Level > types.MaxLevel:
		err = fmt.Errorf("level %d exceeds the maximum level %d", li.Level, types.MaxLevel)
	case li.Index >= r.NumPoints(li.Level):
		err = fmt.Errorf("index %d out of range for level %d with %d points",
			li.Index, li.Level, r.NumPoints(li.Level))
	}
	return
}

// Ancestors returns the chain of parents of li, nearest first, excluding li.
func Ancestors(r Rule, li types.LevelIndex) (chain []types.LevelIndex) {
	for p, ok := r.Parent(li); ok; p, ok = r.Parent(p) {
		chain = append(chain, p)
	}
	return
}

func inSupport(r Rule, li types.LevelIndex, x float64) bool {
	a, b := r.Support(li)
	return x >= a && x <= b
}

// hierarchical shape on a symmetric support of half width h around xc
func localShape(order int, t, parentSide float64) (y float64) {
	switch order {
	case Linear:
		y = 1 - math.Abs(t)
	case Quadratic:
		y = 1 - t*t
	default:
		// third root sits three half widths away on the parent side
		y = (1 - t*t) * (1 - t/(3*parentSide))
	}
	if y < 0 {
		y = 0
	}
	return
}

func localIntegral(order int, h float64) float64 {
	if order == Linear {
		return h
	}
	// The odd factor of the cubic integrates to zero
	return 4. * h / 3.
}

// cubic shapes need a parent on one side of the support, coarse levels fall back
func effectiveOrder(order, level int) int {
	if order == Cubic && level < 2 {
		return Quadratic
	}
	return order
}

func dyadicHalfWidth(level int) float64 {
	return math.Ldexp(1, -level)
}
