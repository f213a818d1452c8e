package events

import (
	"sort"
	"time"

	"pokewatch/internal/types"
)

// ValueType is the static type of an attribute.
type ValueType int

const (
	TypeInt ValueType = iota
	TypeFloat
	TypeString
	TypeBool
	TypeIntList
)

func (t ValueType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeIntList:
		return "int_list"
	}
	return "invalid"
}

// Numeric reports whether values of the type compare as numbers.
func (t ValueType) Numeric() bool {
	return t == TypeInt || t == TypeFloat
}

// Value is an attribute read from an event. The zero Value is Unknown.
type Value struct {
	Known bool
	Num   float64 // TypeInt and TypeFloat
	Str   string
	Bool  bool
	List  []int
}

// Int returns the value as an integer.
func (v Value) Int() int { return int(v.Num) }

func intValue(o types.Opt[int]) Value {
	n, ok := o.Get()
	return Value{Known: ok, Num: float64(n)}
}

func floatValue(o types.Opt[float64]) Value {
	f, ok := o.Get()
	return Value{Known: ok, Num: f}
}

func stringValue(o types.Opt[string]) Value {
	s, ok := o.Get()
	return Value{Known: ok, Str: s}
}

func boolValue(o types.Opt[bool]) Value {
	b, ok := o.Get()
	return Value{Known: ok, Bool: b}
}

func knownInt(n int) Value { return Value{Known: true, Num: float64(n)} }

// listValue is Unknown for a nil list, which only happens when the species is
// missing from the game tables.
func listValue(l []int) Value {
	return Value{Known: l != nil, List: l}
}

// Attribute is a named, typed accessor over events of one kind.
type Attribute struct {
	Kind types.EventKind
	Name string
	Type ValueType
	get  func(e *Event, now time.Time) Value
}

// Get reads the attribute. An event of another kind reads as Unknown.
func (a Attribute) Get(e *Event, now time.Time) Value {
	if e == nil || e.Kind != a.Kind {
		return Value{}
	}
	return a.get(e, now)
}

var registry = map[types.EventKind]map[string]Attribute{}

func register(kind types.EventKind, name string, typ ValueType, get func(*Event, time.Time) Value) {
	m, ok := registry[kind]
	if !ok {
		m = map[string]Attribute{}
		registry[kind] = m
	}
	if _, dup := m[name]; dup {
		panic("events: attribute registered twice: " + string(kind) + "." + name)
	}
	m[name] = Attribute{Kind: kind, Name: name, Type: typ, get: get}
}

// LookupAttribute resolves a kind's attribute by name.
func LookupAttribute(kind types.EventKind, name string) (Attribute, bool) {
	a, ok := registry[kind][name]
	return a, ok
}

// AttributeNames lists a kind's attributes, sorted.
func AttributeNames(kind types.EventKind) []string {
	names := make([]string, 0, len(registry[kind]))
	for n := range registry[kind] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func init() {
	for _, k := range types.AllKinds {
		register(k, "distance", TypeFloat, func(e *Event, _ time.Time) Value { return floatValue(e.Distance) })
	}
	for _, k := range []types.EventKind{types.KindMonster, types.KindRaid, types.KindEgg, types.KindQuest, types.KindInvasion} {
		register(k, "time_left", TypeInt, func(e *Event, now time.Time) Value { return intValue(e.TimeLeft(now)) })
	}

	registerMonster()
	registerRaid()
	registerEgg()
	registerGym()
	registerWeather()
	registerQuest()
	registerInvasion()
}

func registerMonster() {
	k := types.KindMonster
	mi := func(name string, f func(m *MonsterData) types.Opt[int]) {
		register(k, name, TypeInt, func(e *Event, _ time.Time) Value { return intValue(f(e.Monster)) })
	}
	mf := func(name string, f func(m *MonsterData) types.Opt[float64]) {
		register(k, name, TypeFloat, func(e *Event, _ time.Time) Value { return floatValue(f(e.Monster)) })
	}

	register(k, "mon_id", TypeInt, func(e *Event, _ time.Time) Value { return knownInt(e.Monster.SpeciesID) })
	register(k, "form_id", TypeInt, func(e *Event, _ time.Time) Value { return knownInt(e.Monster.FormID) })
	register(k, "costume_id", TypeInt, func(e *Event, _ time.Time) Value { return knownInt(e.Monster.CostumeID) })
	mi("mon_lvl", func(m *MonsterData) types.Opt[int] { return m.Level })
	mi("cp", func(m *MonsterData) types.Opt[int] { return m.CP })
	mi("atk_iv", func(m *MonsterData) types.Opt[int] { return m.Attack })
	mi("def_iv", func(m *MonsterData) types.Opt[int] { return m.Defense })
	mi("sta_iv", func(m *MonsterData) types.Opt[int] { return m.Stamina })
	mf("iv", func(m *MonsterData) types.Opt[float64] { return m.IV })
	mi("quick_id", func(m *MonsterData) types.Opt[int] { return m.Quick.ID })
	mi("charge_id", func(m *MonsterData) types.Opt[int] { return m.Charge.ID })
	mi("size_id", func(m *MonsterData) types.Opt[int] { return m.SizeID })
	mf("height", func(m *MonsterData) types.Opt[float64] { return m.Height })
	mf("weight", func(m *MonsterData) types.Opt[float64] { return m.Weight })
	mi("weather_id", func(m *MonsterData) types.Opt[int] { return m.WeatherID })
	mi("boosted_weather_id", func(m *MonsterData) types.Opt[int] { return m.BoostedWeatherID })
	mi("rarity_id", func(m *MonsterData) types.Opt[int] { return m.Rarity })
	mi("spawn_verified", func(m *MonsterData) types.Opt[int] { return m.SpawnVerified })
	mf("base_catch", func(m *MonsterData) types.Opt[float64] { return m.BaseCatch })
	mf("great_catch", func(m *MonsterData) types.Opt[float64] { return m.GreatCatch })
	mf("ultra_catch", func(m *MonsterData) types.Opt[float64] { return m.UltraCatch })
	mf("great_product", func(m *MonsterData) types.Opt[float64] { return m.Great.Product })
	mf("ultra_product", func(m *MonsterData) types.Opt[float64] { return m.Ultra.Product })
	mi("great_cp", func(m *MonsterData) types.Opt[int] { return m.Great.CP })
	mi("ultra_cp", func(m *MonsterData) types.Opt[int] { return m.Ultra.CP })
	register(k, "great_mon_id", TypeInt, func(e *Event, _ time.Time) Value { return knownInt(e.Monster.Great.Species) })
	register(k, "ultra_mon_id", TypeInt, func(e *Event, _ time.Time) Value { return knownInt(e.Monster.Ultra.Species) })
	register(k, "gender", TypeString, func(e *Event, _ time.Time) Value { return stringValue(e.Monster.Gender) })
	register(k, "atk_grade", TypeString, func(e *Event, _ time.Time) Value { return stringValue(e.Monster.AttackGrade) })
	register(k, "def_grade", TypeString, func(e *Event, _ time.Time) Value { return stringValue(e.Monster.DefenseGrade) })
	register(k, "can_be_shiny", TypeBool, func(e *Event, _ time.Time) Value { return boolValue(e.Monster.CanBeShiny) })
	register(k, "types", TypeIntList, func(e *Event, _ time.Time) Value { return listValue(e.Monster.Types) })
}

func registerGymInfo(k types.EventKind, info func(e *Event) *GymInfo) {
	register(k, "gym_name", TypeString, func(e *Event, _ time.Time) Value { return stringValue(info(e).Name) })
	register(k, "gym_description", TypeString, func(e *Event, _ time.Time) Value { return stringValue(info(e).Description) })
	register(k, "park", TypeString, func(e *Event, _ time.Time) Value { return stringValue(info(e).Park) })
	register(k, "sponsor_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(info(e).Sponsor) })
	register(k, "sponsored", TypeBool, func(e *Event, _ time.Time) Value { return boolValue(info(e).Sponsored()) })
	register(k, "ex_eligible", TypeBool, func(e *Event, _ time.Time) Value { return boolValue(info(e).ExEligible) })
	register(k, "slots_available", TypeInt, func(e *Event, _ time.Time) Value { return intValue(info(e).SlotsAvailable) })
	register(k, "guard_count", TypeInt, func(e *Event, _ time.Time) Value { return intValue(info(e).GuardCount) })
}

func registerRaid() {
	k := types.KindRaid
	registerGymInfo(k, func(e *Event) *GymInfo { return &e.Raid.GymInfo })
	ri := func(name string, f func(r *RaidData) types.Opt[int]) {
		register(k, name, TypeInt, func(e *Event, _ time.Time) Value { return intValue(f(e.Raid)) })
	}
	rk := func(name string, f func(r *RaidData) int) {
		register(k, name, TypeInt, func(e *Event, _ time.Time) Value { return knownInt(f(e.Raid)) })
	}

	rk("mon_id", func(r *RaidData) int { return r.SpeciesID })
	rk("raid_lvl", func(r *RaidData) int { return r.Level })
	rk("form_id", func(r *RaidData) int { return r.FormID })
	rk("costume_id", func(r *RaidData) int { return r.CostumeID })
	rk("evolution_id", func(r *RaidData) int { return r.EvolutionID })
	rk("cp", func(r *RaidData) int { return r.CP })
	rk("boss_level", func(r *RaidData) int { return r.BossLevel })
	ri("min_cp", func(r *RaidData) types.Opt[int] { return r.MinCP })
	ri("max_cp", func(r *RaidData) types.Opt[int] { return r.MaxCP })
	ri("quick_id", func(r *RaidData) types.Opt[int] { return r.Quick.ID })
	ri("charge_id", func(r *RaidData) types.Opt[int] { return r.Charge.ID })
	ri("weather_id", func(r *RaidData) types.Opt[int] { return r.WeatherID })
	ri("boosted_weather_id", func(r *RaidData) types.Opt[int] { return r.BoostedWeatherID })
	ri("current_team_id", func(r *RaidData) types.Opt[int] { return r.TeamID })
	register(k, "gender", TypeString, func(e *Event, _ time.Time) Value { return stringValue(e.Raid.Gender) })
	register(k, "can_be_shiny", TypeBool, func(e *Event, _ time.Time) Value { return boolValue(e.Raid.CanBeShiny) })
	register(k, "types", TypeIntList, func(e *Event, _ time.Time) Value { return listValue(e.Raid.Types) })
}

func registerEgg() {
	k := types.KindEgg
	registerGymInfo(k, func(e *Event) *GymInfo { return &e.Egg.GymInfo })
	register(k, "egg_lvl", TypeInt, func(e *Event, _ time.Time) Value { return knownInt(e.Egg.Level) })
	register(k, "weather_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Egg.WeatherID) })
	register(k, "current_team_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Egg.TeamID) })
	register(k, "hatch_time_left", TypeInt, func(e *Event, now time.Time) Value {
		left := int(e.Egg.Hatch.Sub(now) / time.Second)
		return knownInt(max(left, 0))
	})
}

func registerGym() {
	k := types.KindGym
	registerGymInfo(k, func(e *Event) *GymInfo { return &e.Gym.GymInfo })
	register(k, "old_team_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Gym.OldTeamID) })
	register(k, "new_team_id", TypeInt, func(e *Event, _ time.Time) Value { return knownInt(e.Gym.NewTeamID) })
}

func registerWeather() {
	k := types.KindWeather
	register(k, "weather_id", TypeInt, func(e *Event, _ time.Time) Value { return knownInt(e.Weather.WeatherID) })
	register(k, "severity", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Weather.Severity) })
	register(k, "warning", TypeBool, func(e *Event, _ time.Time) Value { return boolValue(e.Weather.Warning) })
	register(k, "day_or_night_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Weather.DayOrNight) })
}

func registerQuest() {
	k := types.KindQuest
	register(k, "stop_name", TypeString, func(e *Event, _ time.Time) Value { return stringValue(e.Quest.StopName) })
	register(k, "quest_task", TypeString, func(e *Event, _ time.Time) Value { return stringValue(e.Quest.Task) })
	register(k, "reward_type_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Quest.RewardType) })
	register(k, "item_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Quest.ItemID) })
	register(k, "item_amount", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Quest.ItemAmount) })
	register(k, "mon_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Quest.RewardMonID) })
	register(k, "form_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Quest.RewardForm) })
}

func registerInvasion() {
	k := types.KindInvasion
	register(k, "stop_name", TypeString, func(e *Event, _ time.Time) Value { return stringValue(e.Invasion.StopName) })
	register(k, "grunt_type_id", TypeInt, func(e *Event, _ time.Time) Value { return intValue(e.Invasion.GruntType) })
	register(k, "gender", TypeString, func(e *Event, _ time.Time) Value { return stringValue(e.Invasion.Gender) })
}
