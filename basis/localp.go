package basis

import (
	"github.com/notargets/sparsegrid/types"
)

/*
LocalP is the classic local polynomial rule including the boundary:
level 0 is the midpoint, level 1 the two end points and every finer level adds
the midpoints of the previous intervals.

	level 0:                0
	level 1:  -1                        1
	level 2:        -1/2         1/2
	level 3:   -3/4     -1/4  1/4    3/4
*/
type LocalP struct{}

func (LocalP) Kind() types.RuleKind { return types.Rule_LocalP }
func (LocalP) Nonlocal() bool       { return false }

func (LocalP) NumPoints(level int) int {
	switch level {
	case 0:
		return 1
	case 1:
		return 2
	}
	return 1 << (level - 1)
}

func (LocalP) Coordinate(li types.LevelIndex) float64 {
	switch li.Level {
	case 0:
		return 0
	case 1:
		return float64(2*li.Index - 1)
	}
	return -1 + float64(2*li.Index+1)*dyadicHalfWidth(li.Level-1)
}

func (LocalP) Parent(li types.LevelIndex) (p types.LevelIndex, ok bool) {
	switch li.Level {
	case 0:
		return
	case 1:
		return types.LevelIndex{}, true
	case 2:
		return types.LevelIndex{Level: 1, Index: li.Index}, true
	}
	return types.LevelIndex{Level: li.Level - 1, Index: li.Index / 2}, true
}

func (LocalP) Children(li types.LevelIndex) []types.LevelIndex {
	switch li.Level {
	case 0:
		return []types.LevelIndex{{1, 0}, {1, 1}}
	case 1:
		return []types.LevelIndex{{2, li.Index}}
	}
	return []types.LevelIndex{{li.Level + 1, 2 * li.Index}, {li.Level + 1, 2*li.Index + 1}}
}

func (r LocalP) Support(li types.LevelIndex) (a, b float64) {
	switch li.Level {
	case 0:
		return -1, 1
	case 1:
		if li.Index == 0 {
			return -1, 0
		}
		return 0, 1
	}
	h := dyadicHalfWidth(li.Level - 1)
	xc := r.Coordinate(li)
	return xc - h, xc + h
}

func (r LocalP) Evaluate(order int, li types.LevelIndex, x float64) float64 {
	if !inSupport(r, li, x) {
		return 0
	}
	switch li.Level {
	case 0:
		return 1
	case 1:
		if li.Index == 0 {
			return -x
		}
		return x
	}
	var (
		h  = dyadicHalfWidth(li.Level - 1)
		xc = r.Coordinate(li)
	)
	return localShape(effectiveOrder(order, li.Level), (x-xc)/h, r.parentSide(li))
}

func (r LocalP) Integral(order int, li types.LevelIndex) float64 {
	switch li.Level {
	case 0:
		return 2
	case 1:
		return 0.5
	}
	return localIntegral(effectiveOrder(order, li.Level), dyadicHalfWidth(li.Level-1))
}

func (r LocalP) Contributors(li types.LevelIndex) []types.LevelIndex { return Ancestors(r, li) }

func (r LocalP) parentSide(li types.LevelIndex) float64 {
	p, _ := r.Parent(li)
	if r.Coordinate(p) > r.Coordinate(li) {
		return 1
	}
	return -1
}

/*
SemiLocalP shares the nodes and the tree of LocalP, but the two level one
functions are global quadratics on [-1,1]. Those functions do not vanish at
every finer node, so the rule is nonlocal.
*/
type SemiLocalP struct {
	LocalP
}

func (SemiLocalP) Kind() types.RuleKind { return types.Rule_SemiLocalP }
func (SemiLocalP) Nonlocal() bool       { return true }

func (r SemiLocalP) Support(li types.LevelIndex) (a, b float64) {
	if li.Level == 1 {
		return -1, 1
	}
	return r.LocalP.Support(li)
}

func (r SemiLocalP) Evaluate(order int, li types.LevelIndex, x float64) float64 {
	if li.Level != 1 {
		return r.LocalP.Evaluate(order, li, x)
	}
	if x < -1 || x > 1 {
		return 0
	}
	if li.Index == 0 {
		return 0.5 * x * (x - 1)
	}
	return 0.5 * x * (x + 1)
}

// Contributors adds the level one function that is not an ancestor of li.
func (r SemiLocalP) Contributors(li types.LevelIndex) (c []types.LevelIndex) {
	c = Ancestors(r.LocalP, li)
	if li.Level < 2 {
		return
	}
	for _, a := range c {
		if a.Level == 1 {
			c = append(c, types.LevelIndex{Level: 1, Index: 1 - a.Index})
			break
		}
	}
	return
}

func (r SemiLocalP) Integral(order int, li types.LevelIndex) float64 {
	if li.Level == 1 {
		return 1. / 3.
	}
	return r.LocalP.Integral(order, li)
}

/*
LocalPZero has no boundary nodes and every function vanishes on the boundary
of [-1,1]. Level l holds 2^l nodes at the odd multiples of 2^-l from -1.

	level 0:            0
	level 1:     -1/2       1/2
	level 2:  -3/4  -1/4 1/4  3/4
*/
type LocalPZero struct{}

func (LocalPZero) Kind() types.RuleKind { return types.Rule_LocalPZero }
func (LocalPZero) Nonlocal() bool       { return false }

func (LocalPZero) NumPoints(level int) int { return 1 << level }

func (LocalPZero) Coordinate(li types.LevelIndex) float64 {
	return -1 + float64(2*li.Index+1)*dyadicHalfWidth(li.Level)
}

func (LocalPZero) Parent(li types.LevelIndex) (p types.LevelIndex, ok bool) {
	if li.Level == 0 {
		return
	}
	return types.LevelIndex{Level: li.Level - 1, Index: li.Index / 2}, true
}

func (LocalPZero) Children(li types.LevelIndex) []types.LevelIndex {
	return []types.LevelIndex{{li.Level + 1, 2 * li.Index}, {li.Level + 1, 2*li.Index + 1}}
}

func (r LocalPZero) Support(li types.LevelIndex) (a, b float64) {
	h := dyadicHalfWidth(li.Level)
	xc := r.Coordinate(li)
	return xc - h, xc + h
}

func (r LocalPZero) Evaluate(order int, li types.LevelIndex, x float64) float64 {
	if !inSupport(r, li, x) {
		return 0
	}
	var (
		h    = dyadicHalfWidth(li.Level)
		xc   = r.Coordinate(li)
		side = 1.
	)
	if p, ok := r.Parent(li); ok && r.Coordinate(p) < xc {
		side = -1
	}
	return localShape(effectiveOrder(order, li.Level), (x-xc)/h, side)
}

func (r LocalPZero) Contributors(li types.LevelIndex) []types.LevelIndex {
	return Ancestors(r, li)
}

func (r LocalPZero) Integral(order int, li types.LevelIndex) float64 {
	return localIntegral(effectiveOrder(order, li.Level), dyadicHalfWidth(li.Level))
}
