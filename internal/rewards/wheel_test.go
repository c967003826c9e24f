package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWheel_RejectsEmptyAndNonPositiveWeights(t *testing.T) {
	_, err := NewWheel(nil)
	assert.Error(t, err)

	_, err = NewWheel([]Prize{{ID: "x", Probability: 0}})
	assert.Error(t, err)

	_, err = NewWheel([]Prize{{ID: "x", Probability: -5}})
	assert.Error(t, err)
}

func TestSpin_PicksByCumulativeWeight(t *testing.T) {
	w, err := NewWheel(DefaultPrizes())
	require.NoError(t, err)
	require.Equal(t, 100, w.total)

	// Weights: discount_10 20, discount_20 15, points_100 25, points_200 15,
	// gift 5, nothing 20. Check the segment boundaries.
	cases := []struct {
		roll int
		want string
	}{
		{0, "discount_10"},
		{19, "discount_10"},
		{20, "discount_20"},
		{34, "discount_20"},
		{35, "points_100"},
		{59, "points_100"},
		{60, "points_200"},
		{74, "points_200"},
		{75, "gift"},
		{79, "gift"},
		{80, "nothing"},
		{99, "nothing"},
	}

	for _, tc := range cases {
		w.randIntN = func(n int) int { return tc.roll }
		assert.Equal(t, tc.want, w.Spin().ID, "roll %d", tc.roll)
	}
}

func TestSpin_Distribution(t *testing.T) {
	w, err := NewWheel(DefaultPrizes())
	require.NoError(t, err)

	// Deterministic sweep over every roll hits each prize exactly
	// weight-many times.
	counts := map[string]int{}
	for roll := 0; roll < 100; roll++ {
		r := roll
		w.randIntN = func(n int) int { return r }
		counts[w.Spin().ID]++
	}

	assert.Equal(t, 20, counts["discount_10"])
	assert.Equal(t, 15, counts["discount_20"])
	assert.Equal(t, 25, counts["points_100"])
	assert.Equal(t, 15, counts["points_200"])
	assert.Equal(t, 5, counts["gift"])
	assert.Equal(t, 20, counts["nothing"])
}

func TestDefaultPrizes_WeightsSumTo100(t *testing.T) {
	total := 0
	for _, p := range DefaultPrizes() {
		total += p.Probability
	}
	assert.Equal(t, 100, total)
}
