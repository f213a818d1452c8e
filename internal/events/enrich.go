package events

import (
	"pokewatch/internal/cache"
	"pokewatch/internal/types"
)

// CacheSnapshot is the read side of the cache an event reconciles against.
type CacheSnapshot interface {
	Generation() uint64
	WeatherAt(lat, lng float64) types.Opt[int]
	GymSlots(id string) types.Opt[int]
	GymTeam(id string) types.Opt[int]
	Gym(id string) (cache.Gym, bool)
}

// UpdateWithCache fills in state the payload lacked from snap: weather (and
// what derives from it) for sightings, raids and eggs; gym slots, team and
// details for raids, eggs and gyms. It runs at most once per snapshot
// generation and reports whether it did anything. Cache misses leave fields
// untouched.
func (e *Event) UpdateWithCache(snap CacheSnapshot) bool {
	if snap == nil {
		return false
	}
	gen := snap.Generation()
	if e.enriched && e.cacheGen == gen {
		return false
	}
	e.enriched, e.cacheGen = true, gen

	weather := snap.WeatherAt(e.Lat, e.Lng)

	switch e.Kind {
	case types.KindMonster:
		m := e.Monster
		if weather.IsKnown() {
			m.WeatherID = weather
			m.BoostedWeatherID = boostedWeather(e.tables, weather, m.SpeciesID, m.FormID)
		}
	case types.KindRaid:
		r := e.Raid
		if weather.IsKnown() {
			r.WeatherID = weather
			r.applyWeather(e.tables)
		}
		fill(&r.TeamID, snap.GymTeam(r.GymID))
		reconcileGym(snap, r.GymID, &r.GymInfo)
	case types.KindEgg:
		egg := e.Egg
		if weather.IsKnown() {
			egg.WeatherID = weather
		}
		fill(&egg.TeamID, snap.GymTeam(egg.GymID))
		reconcileGym(snap, egg.GymID, &egg.GymInfo)
	case types.KindGym:
		gym := e.Gym
		gym.OldTeamID = snap.GymTeam(gym.GymID)
		reconcileGym(snap, gym.GymID, &gym.GymInfo)
	}
	return true
}

// reconcileGym takes slot counts from the cache and details only where the
// payload had none.
func reconcileGym(snap CacheSnapshot, id string, dst *GymInfo) {
	if slots := snap.GymSlots(id); slots.IsKnown() {
		dst.SlotsAvailable = slots
		dst.GuardCount = guardCount(slots)
	}
	g, ok := snap.Gym(id)
	if !ok {
		return
	}
	fill(&dst.Name, g.Name)
	fill(&dst.Description, g.Description)
	fill(&dst.Image, g.Image)
	fill(&dst.Park, g.Park)
	fill(&dst.Sponsor, g.Sponsor)
	fill(&dst.ExEligible, g.ExEligible)
}

func fill[T any](dst *types.Opt[T], src types.Opt[T]) {
	if !dst.IsKnown() {
		*dst = src
	}
}

// CacheUpdate records what this event teaches the cache: weather reports set
// their cell, gym events set team, slots and details, and raids and eggs
// contribute gym details. Other kinds leave the cache alone.
func (e *Event) CacheUpdate(tx *cache.Txn) {
	switch e.Kind {
	case types.KindWeather:
		tx.SetCellWeather(e.Weather.CellID, e.Weather.WeatherID)
	case types.KindGym:
		g := e.Gym
		tx.MergeGym(g.GymID, cacheGym(g.GymInfo, types.Known(g.NewTeamID)))
	case types.KindRaid:
		tx.MergeGym(e.Raid.GymID, cacheGym(e.Raid.GymInfo, e.Raid.TeamID))
	case types.KindEgg:
		tx.MergeGym(e.Egg.GymID, cacheGym(e.Egg.GymInfo, e.Egg.TeamID))
	}
}

func cacheGym(info GymInfo, team types.Opt[int]) cache.Gym {
	return cache.Gym{
		Name:        info.Name,
		Description: info.Description,
		Image:       info.Image,
		Park:        info.Park,
		Sponsor:     info.Sponsor,
		ExEligible:  info.ExEligible,
		Team:        team,
		Slots:       info.SlotsAvailable,
	}
}
