package refinement

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/notargets/sparsegrid/types"
)

// AllOutputs selects every output for the refinement criterion.
const AllOutputs = -1

/*
Threshold flags a surplus row when the magnitude of any selected output exceeds
the tolerance. Relative thresholds scale the tolerance per output by the
largest loaded magnitude of that output.
*/
type Threshold struct {
	Tolerance float64
	Criterion types.Criterion
	Outputs   []int
	Scale     []float64
}

func NewThreshold(tol float64, criterion types.Criterion, output, numOutputs int,
	values [][]float64) (th Threshold, err error) {
	switch {
	case math.IsNaN(tol) || tol < 0:
		err = types.NewError(types.InvalidConfiguration, "NewThreshold",
			fmt.Sprintf("tolerance %v must be non negative", tol))
		return
	case output < AllOutputs || output >= numOutputs:
		err = types.NewError(types.InvalidConfiguration, "NewThreshold",
			fmt.Sprintf("output %d out of range, grid has %d outputs", output, numOutputs))
		return
	case criterion != types.Criterion_Absolute && criterion != types.Criterion_Relative:
		err = types.NewError(types.InvalidConfiguration, "NewThreshold",
			fmt.Sprintf("unknown criterion %d", criterion))
		return
	}
	th = Threshold{
		Tolerance: tol,
		Criterion: criterion,
		Outputs:   lo.Range(numOutputs),
	}
	if output != AllOutputs {
		th.Outputs = []int{output}
	}
	th.Scale = make([]float64, len(th.Outputs))
	for j, k := range th.Outputs {
		if criterion == types.Criterion_Absolute {
			th.Scale[j] = 1
			continue
		}
		for _, row := range values {
			if row != nil {
				th.Scale[j] = math.Max(th.Scale[j], math.Abs(row[k]))
			}
		}
	}
	return
}

func (th Threshold) Exceeds(row []float64) bool {
	for j, k := range th.Outputs {
		if math.Abs(row[k]) > th.Tolerance*th.Scale[j] {
			return true
		}
	}
	return false
}
