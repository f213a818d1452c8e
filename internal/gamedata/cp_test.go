package gamedata

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokewatch/internal/types"
)

func TestCPM(t *testing.T) {
	v, ok := CPM(1)
	require.True(t, ok)
	assert.Equal(t, 0.094, v)

	v, ok = CPM(40)
	require.True(t, ok)
	assert.Equal(t, 0.79030001, v)

	half, ok := CPM(1.5)
	require.True(t, ok)
	want := math.Sqrt((0.094*0.094 + 0.16639787*0.16639787) / 2)
	assert.InDelta(t, want, half, 1e-12)

	for _, bad := range []float64{0, 0.5, 51.5, 20.25} {
		_, ok := CPM(bad)
		assert.False(t, ok, "level %v", bad)
	}
}

func TestCPRange_Mewtwo(t *testing.T) {
	tbl := Default()

	tests := []struct {
		level   float64
		wantMin int
		wantMax int
	}{
		{20, 2294, 2387},
		{25, 2868, 2984},
	}
	for _, tt := range tests {
		lo, hi := tbl.CPRange(150, 0, tt.level)
		assert.Equal(t, types.Known(tt.wantMin), lo, "level %v min", tt.level)
		assert.Equal(t, types.Known(tt.wantMax), hi, "level %v max", tt.level)
	}
}

func TestCPRange_Unknown(t *testing.T) {
	tbl := Default()

	lo, hi := tbl.CPRange(9999, 0, 20)
	assert.False(t, lo.IsKnown())
	assert.False(t, hi.IsKnown())

	lo, hi = tbl.CPRange(150, 0, 60)
	assert.False(t, lo.IsKnown())
	assert.False(t, hi.IsKnown())
}

func TestCP_Floor(t *testing.T) {
	assert.Equal(t, 10, CP(BaseStats{Attack: 29, Defense: 85, Stamina: 100}, 15, 15, 15, 0.094))
	assert.Equal(t, 907, CP(BaseStats{Attack: 112, Defense: 152, Stamina: 225}, 15, 15, 15, 0.59740001))
}

func TestPowerUpCost(t *testing.T) {
	tests := []struct {
		level        float64
		wantCandy    int
		wantStardust int
	}{
		{1, 1, 200},
		{2.5, 1, 200},
		{3, 1, 400},
		{11, 2, 1300},
		{20.5, 2, 2500},
		{21, 3, 3000},
		{30.5, 4, 5000},
		{31, 6, 6000},
		{39, 15, 10000},
		{41, 10, 11000},
		{49.5, 20, 15000},
	}
	for _, tt := range tests {
		c, s, ok := PowerUpCost(tt.level)
		require.True(t, ok, "level %v", tt.level)
		assert.Equal(t, tt.wantCandy, c, "candy at %v", tt.level)
		assert.Equal(t, tt.wantStardust, s, "stardust at %v", tt.level)
	}

	_, _, ok := PowerUpCost(MaxLevel)
	assert.False(t, ok)
}

func TestPowerUpTotal(t *testing.T) {
	c, s := PowerUpTotal(1, 2)
	assert.Equal(t, 2, c)
	assert.Equal(t, 400, s)

	c, s = PowerUpTotal(20, 20)
	assert.Zero(t, c)
	assert.Zero(t, s)
}
