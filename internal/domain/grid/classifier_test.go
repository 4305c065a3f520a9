package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_Corners(t *testing.T) {
	for _, c := range [][2]int{{0, 0}, {24, 0}, {0, 24}, {24, 24}} {
		assert.Equal(t, TierBig, Classify(c[0], c[1], 24, 24), "corner %v", c)
	}
}

func TestClassify_CenterAndMidpoints(t *testing.T) {
	assert.Equal(t, TierCenterBig, Classify(12, 12, 24, 24))

	for _, c := range [][2]int{{12, 0}, {24, 12}, {12, 24}, {0, 12}} {
		assert.Equal(t, TierMedium, Classify(c[0], c[1], 24, 24), "midpoint %v", c)
	}
}

func TestClassify_QuarterPoints(t *testing.T) {
	small := [][2]int{
		{6, 0}, {18, 0}, {24, 6}, {24, 18},
		{6, 24}, {18, 24}, {0, 6}, {0, 18},
		{6, 12}, {18, 12}, {12, 6}, {12, 18},
	}
	for _, c := range small {
		assert.Equal(t, TierSmall, Classify(c[0], c[1], 24, 24), "quarter %v", c)
	}
}

func TestClassify_EveryCellHasOneTier(t *testing.T) {
	counts := map[Tier]int{}
	for x := 0; x <= 24; x++ {
		for y := 0; y <= 24; y++ {
			tier := Classify(x, y, 24, 24)
			require.Contains(t, Tiers, tier)
			counts[tier]++
		}
	}

	assert.Equal(t, 4, counts[TierBig])
	assert.Equal(t, 1, counts[TierCenterBig])
	assert.Equal(t, 4, counts[TierMedium])
	assert.Equal(t, 12, counts[TierSmall])
	assert.Equal(t, 25*25-21, counts[TierTiny])
}

func TestClassify_OffGridAndOddSizes(t *testing.T) {
	assert.Equal(t, TierTiny, Classify(6, 6, 24, 24))
	assert.Equal(t, TierTiny, Classify(-1, 0, 24, 24))
	assert.Equal(t, TierTiny, Classify(25, 12, 24, 24))

	// 25 has no integer midpoint, only the corners survive.
	assert.Equal(t, TierBig, Classify(25, 25, 25, 25))
	assert.Equal(t, TierTiny, Classify(12, 12, 25, 25))
	assert.Equal(t, TierTiny, Classify(13, 0, 25, 25))
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("centerBig")
	require.NoError(t, err)
	assert.Equal(t, TierCenterBig, tier)

	tier, err = ParseTier("")
	require.NoError(t, err)
	assert.Equal(t, TierAuto, tier)

	tier, err = ParseTier("auto")
	require.NoError(t, err)
	assert.Equal(t, TierAuto, tier)

	_, err = ParseTier("huge")
	assert.ErrorIs(t, err, ErrInvalidTier)
}
