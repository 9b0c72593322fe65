package sparsegrid

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/notargets/sparsegrid/basis"
	"github.com/notargets/sparsegrid/types"
	"github.com/notargets/sparsegrid/utils"
)

const minPointsPerBucket = 64

func (g *Grid) checkPoints(op string, points [][]float64) (err error) {
	for i, x := range points {
		if len(x) != g.cfg.Dimensions {
			return types.NewSizeError(op, g.cfg.Dimensions, len(x), fmt.Sprintf("point %d", i))
		}
		if utils.IsNan(x) {
			return types.NewError(types.InvalidValue, op, fmt.Sprintf("point %d has a NaN coordinate", i))
		}
	}
	return
}

// forPoints splits the points over goroutines, fn gets the canonical image of each point.
func (g *Grid) forPoints(points [][]float64, fn func(i int, x []float64)) {
	var (
		NP = utils.ParallelDegree(g.cfg.ProcLimit, len(points), minPointsPerBucket)
		pm = utils.NewPartitionMap(NP, len(points))
		eg errgroup.Group
	)
	for bn := 0; bn < NP; bn++ {
		eg.Go(func() error {
			x := make([]float64, g.cfg.Dimensions)
			kmin, kmax := pm.GetBucketRange(bn)
			for i := kmin; i < kmax; i++ {
				g.cfg.Domain.ToCanonicalInto(x, points[i])
				fn(i, x)
			}
			return nil
		})
	}
	_ = eg.Wait()
}

// forPointBlocks is forPoints over blocks of at most minPointsPerBucket
// points, fn gets the index of the first point and the canonical images.
func (g *Grid) forPointBlocks(points [][]float64, fn func(start int, xs [][]float64)) {
	var (
		NP = utils.ParallelDegree(g.cfg.ProcLimit, len(points), minPointsPerBucket)
		pm = utils.NewPartitionMap(NP, len(points))
		eg errgroup.Group
	)
	for bn := 0; bn < NP; bn++ {
		eg.Go(func() error {
			kmin, kmax := pm.GetBucketRange(bn)
			xs := make([][]float64, 0, minPointsPerBucket)
			for start := kmin; start < kmax; start += minPointsPerBucket {
				end := min(start+minPointsPerBucket, kmax)
				xs = xs[:0]
				for i := start; i < end; i++ {
					xs = append(xs, g.cfg.Domain.ToCanonical(points[i]))
				}
				fn(start, xs)
			}
			return nil
		})
	}
	_ = eg.Wait()
}

/*
EvaluateBatch returns the interpolant at each point, points × outputs. Only
nodes with a surplus contribute, a grid without loaded values evaluates to
zero everywhere.
*/
func (g *Grid) EvaluateBatch(points [][]float64) (R utils.Matrix, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	defer observe("dense", time.Now())
	if err = g.checkPoints("EvaluateBatch", points); err != nil {
		return
	}
	R = utils.NewMatrix(len(points), g.cfg.Outputs)
	ready := g.readyNodes()
	if len(points) == 0 || len(ready) == 0 {
		return
	}
	mis := make([]types.MultiIndex, len(ready))
	for j, id := range ready {
		mis[j] = g.store.MultiIndex(id)
	}
	g.forPointBlocks(points, func(start int, xs [][]float64) {
		B := basis.EvaluateBatch(g.rule, g.cfg.Order, mis, xs)
		for i := range xs {
			row := R.Row(start + i)
			for j, phi := range B.Row(i) {
				if phi == 0 {
					continue
				}
				for k, s := range g.surplus[ready[j]] {
					row[k] += s * phi
				}
			}
		}
	})
	return
}

func (g *Grid) Evaluate(x []float64) (y []float64, err error) {
	var R utils.Matrix
	if R, err = g.EvaluateBatch([][]float64{x}); err != nil {
		return
	}
	return append([]float64(nil), R.Row(0)...), nil
}

/*
HierarchicalBasisMatrix returns the values of every node function at the
points, points × nodes in NodeID order. Multiplied by Surpluses it gives the
interpolant.
*/
func (g *Grid) HierarchicalBasisMatrix(points [][]float64) (B utils.CSR, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err = g.checkPoints("HierarchicalBasisMatrix", points); err != nil {
		return
	}
	return g.basisMatrix(points), nil
}

func (g *Grid) basisMatrix(points [][]float64) utils.CSR {
	type entry struct {
		col int
		val float64
	}
	var (
		N    = g.store.Len()
		rows = make([][]entry, len(points))
	)
	g.forPoints(points, func(i int, x []float64) {
		for j := 0; j < N; j++ {
			id := NodeID(j)
			if phi := basis.Evaluate(g.rule, g.cfg.Order, g.store.MultiIndex(id), x); phi != 0 {
				rows[i] = append(rows[i], entry{j, phi})
			}
		}
	})
	dok := utils.NewDOK(len(points), N)
	for i, row := range rows {
		for _, e := range row {
			dok.Set(i, e.col, e.val)
		}
	}
	dok.SetReadOnly("HierarchicalBasisMatrix")
	return dok.ToCSR()
}

// EvaluateSparse computes EvaluateBatch through the hierarchical basis matrix.
func (g *Grid) EvaluateSparse(points [][]float64) (R utils.Matrix, err error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	defer observe("sparse", time.Now())
	if err = g.checkPoints("EvaluateSparse", points); err != nil {
		return
	}
	if len(points) == 0 || g.store.Len() == 0 {
		return utils.NewMatrix(len(points), g.cfg.Outputs), nil
	}
	return g.basisMatrix(points).MulDense(g.surplusMatrix()), nil
}

// Integrate returns the integral of the interpolant over the grid domain, one entry per output.
func (g *Grid) Integrate() (I []float64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	I = make([]float64, g.cfg.Outputs)
	for _, id := range g.readyNodes() {
		w := basis.Integral(g.rule, g.cfg.Order, g.store.MultiIndex(id))
		for k, s := range g.surplus[id] {
			I[k] += s * w
		}
	}
	J := g.cfg.Domain.Jacobian()
	for k := range I {
		I[k] *= J
	}
	return
}

func observe(method string, start time.Time) {
	evaluateSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
