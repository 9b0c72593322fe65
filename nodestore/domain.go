package nodestore

import (
	"fmt"

	"github.com/notargets/sparsegrid/types"
)

// Domain is the axis aligned box the canonical cube [-1,1]^d is mapped onto.
type Domain struct {
	Lower, Upper []float64
}

func NewDomain(lower, upper []float64) (d *Domain, err error) {
	if len(lower) != len(upper) {
		err = types.NewSizeError("NewDomain", len(lower), len(upper), "lower and upper bounds differ in length")
		return
	}
	for i := range lower {
		if !(lower[i] < upper[i]) {
			err = types.NewError(types.InvalidConfiguration, "NewDomain",
				fmt.Sprintf("dimension %d: lower bound %v is not below upper bound %v", i, lower[i], upper[i]))
			return
		}
	}
	d = &Domain{
		Lower: append([]float64(nil), lower...),
		Upper: append([]float64(nil), upper...),
	}
	return
}

func (d *Domain) Dims() int { return len(d.Lower) }

func (d *Domain) ToPhysical(x []float64) (y []float64) {
	y = make([]float64, len(x))
	if d == nil {
		copy(y, x)
		return
	}
	for i, xi := range x {
		y[i] = d.Lower[i] + 0.5*(xi+1)*(d.Upper[i]-d.Lower[i])
	}
	return
}

// ToCanonicalInto writes the canonical image of y into x, which must have len(y).
func (d *Domain) ToCanonicalInto(x, y []float64) {
	if d == nil {
		copy(x, y)
		return
	}
	for i, yi := range y {
		x[i] = (2*yi - d.Lower[i] - d.Upper[i]) / (d.Upper[i] - d.Lower[i])
	}
}

func (d *Domain) ToCanonical(y []float64) (x []float64) {
	x = make([]float64, len(y))
	d.ToCanonicalInto(x, y)
	return
}

// Jacobian is the volume scale from the canonical cube to the domain.
func (d *Domain) Jacobian() (J float64) {
	J = 1
	if d == nil {
		return
	}
	for i := range d.Lower {
		J *= 0.5 * (d.Upper[i] - d.Lower[i])
	}
	return
}
