package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeRanksSumsBothPasses(t *testing.T) {
	forward := map[int]float64{1: 0.3, 2: 0.1}
	reverse := map[int]float64{1: 0.2, 3: 0.5}

	merged := mergeRanks(forward, reverse)

	assert.InDelta(t, 0.5, merged[1], 1e-9)
	assert.InDelta(t, 0.1, merged[2], 1e-9)
	assert.InDelta(t, 0.5, merged[3], 1e-9)
}

func TestTopIDsOrdersByScoreDescending(t *testing.T) {
	ranks := map[int]float64{1: 0.1, 2: 0.9, 3: 0.5}

	ids := topIDs(ranks, 2)

	assert.Equal(t, []int{2, 3}, ids)
}

func TestMaxScoreReturnsHighestValue(t *testing.T) {
	assert.InDelta(t, 0.9, maxScore(map[int]float64{1: 0.1, 2: 0.9, 3: 0.5}), 1e-9)
}

func TestMaxScoreDefaultsToOneWhenEmpty(t *testing.T) {
	assert.InDelta(t, 1.0, maxScore(map[int]float64{}), 1e-9)
}
