// Package events normalizes raw scanner payloads into canonical Event records
// with derived attributes, and exposes those attributes by name to the filter
// engine and as a flat map to the templating layer.
package events

import (
	"maps"
	"time"

	"pokewatch/internal/gamedata"
	"pokewatch/internal/pvp"
	"pokewatch/internal/types"
)

// Event is one normalized payload. Exactly one of the per-kind pointers is
// set, selected by Kind.
type Event struct {
	Kind types.EventKind
	ID   string
	Lat  float64
	Lng  float64

	// Expiry is zero for kinds that never expire.
	Expiry time.Time
	// Received is when the payload was normalized.
	Received time.Time

	// Filled in by collaborators after normalization.
	Distance  types.Opt[float64] // meters
	Direction types.Opt[string]
	Geofence  types.Opt[string]
	CustomDTS map[string]string

	Monster  *MonsterData
	Raid     *RaidData
	Egg      *EggData
	Gym      *GymData
	Weather  *WeatherData
	Quest    *QuestData
	Invasion *InvasionData

	tables   *gamedata.Tables
	enriched bool
	cacheGen uint64
}

// TimeLeft returns whole seconds until Expiry, never negative. Unknown when
// the event has no expiry.
func (e *Event) TimeLeft(now time.Time) types.Opt[int] {
	if e.Expiry.IsZero() {
		return types.Unknown[int]()
	}
	left := int(e.Expiry.Sub(now) / time.Second)
	if left < 0 {
		left = 0
	}
	return types.Known(left)
}

// SetDistance records the distance and bearing from the observer.
func (e *Event) SetDistance(meters float64, direction string) {
	e.Distance = types.Known(meters)
	if direction != "" {
		e.Direction = types.Known(direction)
	}
}

// SetGeofence records the name of the geofence the event was matched in.
func (e *Event) SetGeofence(name string) {
	e.Geofence = types.Known(name)
}

// SetCustomDTS replaces the filter-supplied overrides merged into Attributes.
func (e *Event) SetCustomDTS(dts map[string]string) {
	e.CustomDTS = maps.Clone(dts)
}

// MoveStats are a move id and its table-derived stats.
type MoveStats struct {
	ID       types.Opt[int]
	Type     types.Opt[int]
	Damage   types.Opt[float64]
	DPS      types.Opt[float64]
	Duration types.Opt[int]
	Energy   types.Opt[int]
}

// MonsterData is a creature sighting.
type MonsterData struct {
	SpeciesID int
	FormID    int
	CostumeID int

	Level types.Opt[int]
	CP    types.Opt[int]

	Attack  types.Opt[int]
	Defense types.Opt[int]
	Stamina types.Opt[int]
	IV      types.Opt[float64]

	Quick  MoveStats
	Charge MoveStats

	Great pvp.Rank
	Ultra pvp.Rank

	Gender     types.Opt[string]
	Height     types.Opt[float64]
	Weight     types.Opt[float64]
	SizeID     types.Opt[int]
	Types      []int
	CanBeShiny types.Opt[bool]

	WeatherID        types.Opt[int]
	BoostedWeatherID types.Opt[int]

	SpawnStart    types.Opt[int]
	SpawnEnd      types.Opt[int]
	SpawnVerified types.Opt[int]
	SpawnpointID  types.Opt[string]

	BaseCatch  types.Opt[float64]
	GreatCatch types.Opt[float64]
	UltraCatch types.Opt[float64]

	Rarity       types.Opt[int]
	AttackGrade  types.Opt[string]
	DefenseGrade types.Opt[string]

	DisplaySpeciesID int
	DisplayFormID    int
	DisplayCostumeID int
	DisplayGender    types.Opt[string]
}

// GymInfo is the gym description shared by raids, eggs and gym updates.
type GymInfo struct {
	GymID          string
	Name           types.Opt[string]
	Description    types.Opt[string]
	Image          types.Opt[string]
	Park           types.Opt[string]
	Sponsor        types.Opt[int]
	ExEligible     types.Opt[bool]
	SlotsAvailable types.Opt[int]
	GuardCount     types.Opt[int]
}

// Sponsored reports whether the gym carries a sponsor.
func (g GymInfo) Sponsored() types.Opt[bool] {
	return types.Map(g.Sponsor, func(id int) bool { return id > 0 })
}

// RaidData is an active raid boss.
type RaidData struct {
	GymInfo

	Level       int
	SpeciesID   int
	FormID      int
	CostumeID   int
	EvolutionID int
	CP          int
	BossLevel   int
	MinCP       types.Opt[int]
	MaxCP       types.Opt[int]

	Quick  MoveStats
	Charge MoveStats

	Gender     types.Opt[string]
	Types      []int
	CanBeShiny types.Opt[bool]

	WeatherID        types.Opt[int]
	BoostedWeatherID types.Opt[int]

	TeamID types.Opt[int]
}

// EggData is a raid egg that has not hatched.
type EggData struct {
	GymInfo

	Level     int
	Hatch     time.Time
	WeatherID types.Opt[int]
	TeamID    types.Opt[int]
}

// GymData is a change of gym ownership or state.
type GymData struct {
	GymInfo

	OldTeamID types.Opt[int]
	NewTeamID int
}

// WeatherData is the weather report of one S2 cell.
type WeatherData struct {
	CellID     uint64
	WeatherID  int
	Severity   types.Opt[int]
	Warning    types.Opt[bool]
	DayOrNight types.Opt[int]
}

// QuestData is a field research task at a stop.
type QuestData struct {
	StopID      string
	StopName    types.Opt[string]
	StopImage   types.Opt[string]
	Task        types.Opt[string]
	RewardType  types.Opt[int]
	ItemID      types.Opt[int]
	ItemAmount  types.Opt[int]
	RewardMonID types.Opt[int]
	RewardForm  types.Opt[int]
}

// InvasionData is an invasion at a stop.
type InvasionData struct {
	StopID    string
	StopName  types.Opt[string]
	StopImage types.Opt[string]
	GruntType types.Opt[int]
	Gender    types.Opt[string]
}
