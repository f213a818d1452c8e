// Package pvp ranks an individual creature for the CP-capped battle leagues.
package pvp

import (
	"sync"

	"pokewatch/internal/gamedata"
	"pokewatch/internal/types"
)

// League is a CP-capped competitive bracket.
type League struct {
	Name string
	Cap  int
}

var (
	GreatLeague = League{Name: "great", Cap: 1500}
	UltraLeague = League{Name: "ultra", Cap: 2500}
)

// LevelCap is the highest level considered when powering up for a league.
const LevelCap = 50.0

// Rank is the best placement of one creature in one league. Species is the
// evolution the placement applies to.
type Rank struct {
	Species  int
	Product  types.Opt[float64] // percent of the best stat product for Species
	CP       types.Opt[int]
	Level    types.Opt[float64]
	Candy    types.Opt[int]
	Stardust types.Opt[int]
}

// UnknownRank is the placement reported when it cannot be computed.
func UnknownRank(species int) Rank {
	return Rank{Species: species}
}

// Result holds the placements in both leagues.
type Result struct {
	Great Rank
	Ultra Rank
}

// Ranker computes league placements for known IVs. level is the creature's
// current level when the payload carried one.
type Ranker interface {
	Rank(species, form, atk, def, sta int, level types.Opt[float64]) Result
}

// Calculator is the default Ranker. It considers the species and every
// evolution listed in the game tables and keeps the best placement.
type Calculator struct {
	tables *gamedata.Tables
	levels []float64 // descending, LevelCap down to 1
	cpms   []float64

	mu   sync.Mutex
	best map[bestKey]float64
}

type bestKey struct {
	species, form, cap int
}

// NewCalculator returns a Calculator over tables.
func NewCalculator(tables *gamedata.Tables) *Calculator {
	c := &Calculator{
		tables: tables,
		best:   make(map[bestKey]float64),
	}
	for l := LevelCap; l >= 1; l -= 0.5 {
		cpm, _ := gamedata.CPM(l)
		c.levels = append(c.levels, l)
		c.cpms = append(c.cpms, cpm)
	}
	return c
}

// Rank implements Ranker.
func (c *Calculator) Rank(species, form, atk, def, sta int, level types.Opt[float64]) Result {
	return Result{
		Great: c.rankLeague(GreatLeague, species, form, atk, def, sta, level),
		Ultra: c.rankLeague(UltraLeague, species, form, atk, def, sta, level),
	}
}

func (c *Calculator) rankLeague(lg League, species, form, atk, def, sta int, level types.Opt[float64]) Rank {
	candidates := append([]int{species}, c.tables.Evolutions(species)...)

	out := UnknownRank(species)
	bestPct := -1.0
	for _, cand := range candidates {
		stats, ok := c.tables.Stats(cand, form)
		if !ok {
			continue
		}
		idx, ok := c.maxLevelIndex(stats, atk, def, sta, lg.Cap)
		if !ok {
			continue
		}
		lvl := c.levels[idx]
		if cur, known := level.Get(); known && lvl < cur {
			// cannot be powered down
			continue
		}
		top := c.bestProduct(cand, form, stats, lg.Cap)
		if top <= 0 {
			continue
		}
		pct := 100 * product(stats, atk, def, sta, c.cpms[idx]) / top
		if pct <= bestPct {
			continue
		}
		bestPct = pct
		out = Rank{
			Species: cand,
			Product: types.Known(pct),
			CP:      types.Known(gamedata.CP(stats, atk, def, sta, c.cpms[idx])),
			Level:   types.Known(lvl),
		}
		if cur, known := level.Get(); known {
			candy, dust := gamedata.PowerUpTotal(cur, lvl)
			out.Candy = types.Known(candy)
			out.Stardust = types.Known(dust)
		}
	}
	return out
}

// maxLevelIndex finds the highest level whose CP stays within limit.
func (c *Calculator) maxLevelIndex(stats gamedata.BaseStats, atk, def, sta, limit int) (int, bool) {
	for i, cpm := range c.cpms {
		if gamedata.CP(stats, atk, def, sta, cpm) <= limit {
			return i, true
		}
	}
	return 0, false
}

// bestProduct is the highest stat product any IV spread reaches within limit.
func (c *Calculator) bestProduct(species, form int, stats gamedata.BaseStats, limit int) float64 {
	key := bestKey{species: species, form: form, cap: limit}
	c.mu.Lock()
	v, ok := c.best[key]
	c.mu.Unlock()
	if ok {
		return v
	}

	var top float64
	for a := types.MinIV; a <= types.MaxIV; a++ {
		for d := types.MinIV; d <= types.MaxIV; d++ {
			for s := types.MinIV; s <= types.MaxIV; s++ {
				idx, ok := c.maxLevelIndex(stats, a, d, s, limit)
				if !ok {
					continue
				}
				if p := product(stats, a, d, s, c.cpms[idx]); p > top {
					top = p
				}
			}
		}
	}

	c.mu.Lock()
	c.best[key] = top
	c.mu.Unlock()
	return top
}

// product is attack times defense times floored HP at a CPM.
func product(stats gamedata.BaseStats, atk, def, sta int, cpm float64) float64 {
	a := float64(stats.Attack+atk) * cpm
	d := float64(stats.Defense+def) * cpm
	hp := float64(int(float64(stats.Stamina+sta) * cpm))
	if hp < 10 {
		hp = 10
	}
	return a * d * hp
}
