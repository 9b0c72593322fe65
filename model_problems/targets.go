package model_problems

import (
	"fmt"
	"math"
	"strings"
)

// TargetFunc is a scalar analytic function sampled by the refinement studies.
type TargetFunc func(x []float64) float64

var (
	// Peak weights and centers, cycled over the dimensions
	PeakC = []float64{2, 3}
	PeakW = []float64{1, 5}
)

// Cosine is cos(2π + 2 Σ x_i).
func Cosine(x []float64) float64 {
	arg := 2 * math.Pi
	for _, xi := range x {
		arg += 2 * xi
	}
	return math.Cos(arg)
}

// Peak is exp(-Σ c_i |x_i - w_i|), a kink at w wherever it falls inside the domain.
func Peak(x []float64) float64 {
	var arg float64
	for i, xi := range x {
		arg -= PeakC[i%len(PeakC)] * math.Abs(xi-PeakW[i%len(PeakW)])
	}
	return math.Exp(arg)
}

var TargetNameMap = map[string]TargetFunc{
	"cosine": Cosine,
	"cos":    Cosine,
	"peak":   Peak,
	"exp":    Peak,
}

func NewTarget(label string) (f TargetFunc, err error) {
	var ok bool
	if f, ok = TargetNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown target function %q", label)
	}
	return
}

// Vector adapts a scalar target to the one output rows a grid loads.
func (f TargetFunc) Vector(points [][]float64) (values [][]float64) {
	values = make([][]float64, len(points))
	for i, x := range points {
		values[i] = []float64{f(x)}
	}
	return
}
