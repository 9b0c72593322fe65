package basis

import (
	"fmt"

	"github.com/notargets/sparsegrid/types"
	"github.com/notargets/sparsegrid/utils"
)

// Evaluate is the tensor product basis function of mi at the canonical point x.
func Evaluate(r Rule, order int, mi types.MultiIndex, x []float64) (v float64) {
	v = 1
	for d, li := range mi {
		if v *= r.Evaluate(order, li, x[d]); v == 0 {
			return
		}
	}
	return
}

// Integral of the tensor product function over the canonical cube.
func Integral(r Rule, order int, mi types.MultiIndex) (w float64) {
	w = 1
	for _, li := range mi {
		w *= r.Integral(order, li)
	}
	return
}

// Coordinates maps a multi-index to its canonical point.
func Coordinates(r Rule, mi types.MultiIndex) (x []float64) {
	x = make([]float64, len(mi))
	for d, li := range mi {
		x[d] = r.Coordinate(li)
	}
	return
}

// CheckMultiIndex validates every dimension of mi against the rule.
func CheckMultiIndex(r Rule, mi types.MultiIndex) (err error) {
	for d, li := range mi {
		if err = Check(r, li); err != nil {
			return types.NewNodeError(types.InvalidIndex, "CheckMultiIndex", mi,
				fmt.Sprintf("dimension %d: %v", d, err))
		}
	}
	return
}

/*
EvaluateBatch returns the point × node matrix of basis values. Rows are
independent of each other, callers may split points across goroutines and
call it per chunk.
*/
func EvaluateBatch(r Rule, order int, mis []types.MultiIndex, points [][]float64) (B utils.Matrix) {
	B = utils.NewMatrix(len(points), len(mis))
	if len(points) == 0 || len(mis) == 0 {
		return
	}
	for i, x := range points {
		row := B.Row(i)
		for j, mi := range mis {
			row[j] = Evaluate(r, order, mi, x)
		}
	}
	return
}
