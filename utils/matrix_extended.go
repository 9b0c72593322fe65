package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a row major dense matrix. Grids return point × output and
// point × node results in this form.
type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	switch {
	case nr == 0 || nc == 0:
		// gonum refuses zero sized allocations, an empty Dense reports 0 x 0
		m = &mat.Dense{}
	case len(dataO) != 0:
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	default:
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{m}
	return
}

// NewMatrixFromRows packs a slice of equal length rows, nc is used when rows is empty
func NewMatrixFromRows(rows [][]float64, nc int) (R Matrix) {
	if len(rows) != 0 {
		nc = len(rows[0])
	}
	R = NewMatrix(len(rows), nc)
	data := R.Data()
	for i, row := range rows {
		if len(row) != nc {
			panic(fmt.Errorf("row %d has %d columns, expected %d", i, len(row), nc))
		}
		copy(data[i*nc:(i+1)*nc], row)
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)    { return m.M.Dims() }
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix       { return m.M.T() }
func (m Matrix) Data() []float64     { return m.M.RawMatrix().Data }

// Row returns a view into the row storage, writes go through to the matrix
func (m Matrix) Row(i int) []float64 {
	return m.M.RawRowView(i)
}

// MaxAbsDiff is the largest entrywise |m - a|, neither matrix is changed
func (m Matrix) MaxAbsDiff(a Matrix) (diff float64) {
	var (
		data  = m.Data()
		dataA = a.Data()
	)
	if len(data) != len(dataA) {
		panic(fmt.Errorf("dimension mismatch: %d != %d", len(data), len(dataA)))
	}
	for i := range data {
		diff = math.Max(diff, math.Abs(data[i]-dataA[i]))
	}
	return
}
