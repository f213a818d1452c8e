package gamedata

import (
	"math"

	"pokewatch/internal/types"
)

// MaxLevel is the highest level reachable with power-ups.
const MaxLevel = 51.0

// cpmWhole holds the combat power multiplier for levels 1 through 51.
var cpmWhole = [...]float64{
	0.094, 0.16639787, 0.21573247, 0.25572005, 0.29024988,
	0.3210876, 0.34921268, 0.37523559, 0.39956728, 0.42250001,
	0.44310755, 0.46279839, 0.48168495, 0.49985844, 0.51739395,
	0.53435433, 0.55079269, 0.56675452, 0.58227891, 0.59740001,
	0.61215729, 0.62656713, 0.64065295, 0.65443563, 0.667934,
	0.68116492, 0.69414365, 0.70688421, 0.71939909, 0.7317,
	0.73776948, 0.74378943, 0.74976104, 0.75568551, 0.76156384,
	0.76739717, 0.7731865, 0.77893275, 0.784637, 0.79030001,
	0.79530001, 0.8003, 0.8053, 0.81029999, 0.81529999,
	0.82029999, 0.82529999, 0.83029999, 0.83529999, 0.84029999,
	0.84529999,
}

// CPM returns the combat power multiplier for a whole or half level in
// [1, 51]. Half levels sit on the quadratic mean of their neighbours.
func CPM(level float64) (float64, bool) {
	if level < 1 || level > MaxLevel {
		return 0, false
	}
	doubled := level * 2
	if doubled != math.Trunc(doubled) {
		return 0, false
	}
	lo := int(math.Floor(level))
	if float64(lo) == level {
		return cpmWhole[lo-1], true
	}
	a, b := cpmWhole[lo-1], cpmWhole[lo]
	return math.Sqrt((a*a + b*b) / 2), true
}

// CP computes combat power for base stats, IVs and a CPM. The game never
// reports less than 10.
func CP(stats BaseStats, atk, def, sta int, cpm float64) int {
	a := float64(stats.Attack + atk)
	d := math.Sqrt(float64(stats.Defense + def))
	s := math.Sqrt(float64(stats.Stamina + sta))
	cp := int(math.Floor(a * d * s * cpm * cpm / 10))
	if cp < 10 {
		return 10
	}
	return cp
}

// Raid bosses are caught with IVs of at least 10 in every stat.
const (
	raidMinIV = 10
	raidMaxIV = types.MaxIV
)

// CPRange returns the catch CP range of a species/form at level.
// Both bounds are Unknown when the species is not listed or the level is
// outside the CPM table.
func (t *Tables) CPRange(species, form int, level float64) (types.Opt[int], types.Opt[int]) {
	stats, ok := t.Stats(species, form)
	if !ok {
		return types.Unknown[int](), types.Unknown[int]()
	}
	cpm, ok := CPM(level)
	if !ok {
		return types.Unknown[int](), types.Unknown[int]()
	}
	lo := CP(stats, raidMinIV, raidMinIV, raidMinIV, cpm)
	hi := CP(stats, raidMaxIV, raidMaxIV, raidMaxIV, cpm)
	return types.Known(lo), types.Known(hi)
}

// PowerUpCost returns the candy and stardust needed to raise a creature from
// level to level+0.5. ok is false at or above MaxLevel.
func PowerUpCost(level float64) (candy, stardust int, ok bool) {
	if level < 1 || level >= MaxLevel {
		return 0, 0, false
	}
	band := int(math.Floor((level - 1) / 2)) // 1-2.5 is band 0, 3-4.5 band 1, ...
	switch {
	case band < 10:
		stardust = []int{200, 400, 600, 800, 1000, 1300, 1600, 1900, 2200, 2500}[band]
	case band < 15:
		stardust = 3000 + (band-10)*500
	case band < 20:
		stardust = 6000 + (band-15)*1000
	default:
		stardust = 11000 + (band-20)*1000
	}
	switch {
	case level < 11:
		candy = 1
	case level < 21:
		candy = 2
	case level < 26:
		candy = 3
	case level < 31:
		candy = 4
	case level < 33:
		candy = 6
	case level < 35:
		candy = 8
	case level < 37:
		candy = 10
	case level < 39:
		candy = 12
	case level < 41:
		candy = 15
	case level < 43:
		candy = 10 // XL candy
	case level < 45:
		candy = 12
	case level < 47:
		candy = 15
	case level < 49:
		candy = 17
	default:
		candy = 20
	}
	return candy, stardust, true
}

// PowerUpTotal sums PowerUpCost from one level up to another.
func PowerUpTotal(from, to float64) (candy, stardust int) {
	for l := from; l < to; l += 0.5 {
		c, s, ok := PowerUpCost(l)
		if !ok {
			break
		}
		candy += c
		stardust += s
	}
	return candy, stardust
}
