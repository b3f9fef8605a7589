package sampling

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixed returns the same draw every time.
type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

func TestWeights_ForDefaultIsNotRenormalized(t *testing.T) {
	w := Weights{"Map": {"Narva": 5}}

	got := w.For("Map", []any{"Narva", "Gorodok", "Kohat", "Mutaha"})
	assert.Equal(t, []float64{5, 0.25, 0.25, 0.25}, got)

	assert.Equal(t, []float64{0.5, 0.5}, w.For("Gamemode", []any{"AAS", "RAAS"}))
	assert.Nil(t, w.For("Map", nil))
}

func TestWeights_NonStringKeys(t *testing.T) {
	w := Weights{"Scored": {"1": 3}}
	assert.Equal(t, []float64{0.5, 3}, w.For("Scored", []any{int64(0), int64(1)}))
}

func TestChoose_CumulativeSum(t *testing.T) {
	weights := []float64{1, 0, 3}

	tests := []struct {
		draw float64
		want int
	}{
		{0, 0},
		{0.2499, 0},
		{0.25, 2},
		{0.9999, 2},
	}
	for _, tt := range tests {
		i, ok := Choose(fixed(tt.draw), weights)
		require.True(t, ok)
		assert.Equal(t, tt.want, i, "draw %v", tt.draw)
	}
}

func TestChoose_NoPositiveWeight(t *testing.T) {
	_, ok := Choose(fixed(0.5), []float64{0, -1})
	assert.False(t, ok)
	_, ok = Choose(fixed(0.5), nil)
	assert.False(t, ok)
}

func TestChoose_RoundingFallsToLastPositive(t *testing.T) {
	i, ok := Choose(fixed(1), []float64{1, 2, 0})
	require.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestPick_HeavyWeightDominates(t *testing.T) {
	src := NewLockedSource(rand.New(rand.NewPCG(1, 2)))
	w := Weights{"Map": {"A": 100, "B": 1}}

	counts := map[any]int{}
	for i := 0; i < 10000; i++ {
		v, ok := Pick(src, w, "Map", []any{"A", "B"})
		require.True(t, ok)
		counts[v]++
	}

	assert.Equal(t, 10000, counts["A"]+counts["B"])
	assert.Greater(t, counts["B"], 0, "B still reachable")
	assert.Greater(t, counts["A"], 20*counts["B"], "A=%d B=%d", counts["A"], counts["B"])
}
