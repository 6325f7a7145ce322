package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit1D(t *testing.T) {
	pm := NewPartitionMap(4, 10)
	total := 0
	prevEnd := 0
	for n := 0; n < 4; n++ {
		kMin, kMax := pm.GetBucketRange(n)
		assert.Equal(t, prevEnd, kMin)
		assert.LessOrEqual(t, kMax-kMin, 3)
		assert.GreaterOrEqual(t, kMax-kMin, 2)
		total += kMax - kMin
		prevEnd = kMax
	}
	assert.Equal(t, 10, total)
	assert.Equal(t, 10, pm.GetBucketDimension(-1))
}

func TestParallelForVisitsEachIndexOnce(t *testing.T) {
	const n = 1003
	counts := make([]int, n)
	var mu sync.Mutex
	ParallelFor(n, 100, func(k int) {
		mu.Lock()
		counts[k]++
		mu.Unlock()
	})
	for k := 0; k < n; k++ {
		require.Equal(t, 1, counts[k], "index %d", k)
	}
}

func TestParallelForEmptyAndSmall(t *testing.T) {
	ParallelFor(0, 100, func(k int) { t.Fatal("should not be called") })

	visited := 0
	ParallelFor(3, 100, func(k int) { visited++ }) // single block, runs inline
	assert.Equal(t, 3, visited)
}
