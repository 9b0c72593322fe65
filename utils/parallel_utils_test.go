package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	{ // Test PartitionMap
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				kMin, kMax := pm.GetBucketRange(np)
				maxK := kMax - kMin
				histo[maxK]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
		assert.Equal(t, map[int]int{8: 32}, getHisto(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		assert.Equal(t, 287, getTotal(getHisto(287, 32)))
		for n := 64; n < 2000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
	{ // Test bucket ranges cover every index once
		for maxIndex := 10; maxIndex < 500; maxIndex++ {
			var (
				pm   = NewPartitionMap(5, maxIndex)
				next int
			)
			for bn := 0; bn < pm.ParallelDegree; bn++ {
				kmin, kmax := pm.GetBucketRange(bn)
				assert.Equal(t, next, kmin)
				next = kmax
			}
			assert.Equal(t, maxIndex, next)
		}
	}
	{ // Test parallel degree selection
		assert.Equal(t, 4, ParallelDegree(4, 1000, 1))
		assert.Equal(t, 1, ParallelDegree(4, 0, 1))
		assert.Equal(t, 2, ParallelDegree(8, 100, 50))
		assert.Equal(t, 1, ParallelDegree(8, 10, 50))
	}
}
