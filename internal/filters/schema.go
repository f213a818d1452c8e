package filters

import (
	"fmt"

	"pokewatch/internal/events"
	"pokewatch/internal/types"
)

// Element names the parser applied to a configured limit or to each member
// of a configured set.
type Element string

const (
	ElemInt     Element = "int"
	ElemFloat   Element = "float"
	ElemBool    Element = "bool"
	ElemString  Element = "string"
	ElemRegex   Element = "regex"
	ElemMonster Element = "monster"
	ElemMove    Element = "move"
	ElemType    Element = "type"
	ElemWeather Element = "weather"
	ElemTeam    Element = "team"
	ElemGender  Element = "gender"
	ElemSize    Element = "size"
)

// stringElement reports whether the element parses to a string rather than
// an integer id.
func (e Element) stringElement() bool {
	return e == ElemString || e == ElemGender
}

// FieldSpec maps one configuration key to a condition on an attribute.
type FieldSpec struct {
	Key  string
	Attr string
	Op   types.Operator
	Elem Element
}

func minMax(suffix, attr string, elem Element) []FieldSpec {
	return []FieldSpec{
		{"min_" + suffix, attr, types.OpMin, elem},
		{"max_" + suffix, attr, types.OpMax, elem},
	}
}

func inOut(key, excludeKey, attr string, elem Element) []FieldSpec {
	return []FieldSpec{
		{key, attr, types.OpIn, elem},
		{excludeKey, attr, types.OpNotIn, elem},
	}
}

func regexPair(prefix, attr string) []FieldSpec {
	return []FieldSpec{
		{prefix + "_contains", attr, types.OpRegexAny, ElemRegex},
		{prefix + "_excludes", attr, types.OpRegexNone, ElemRegex},
	}
}

func join(parts ...[]FieldSpec) []FieldSpec {
	var out []FieldSpec
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var (
	distance = minMax("dist", "distance", ElemFloat)
	timeLeft = minMax("time_left", "time_left", ElemInt)

	gymFields = join(
		regexPair("gym_name", "gym_name"),
		[]FieldSpec{
			{"park_contains", "park", types.OpRegexAny, ElemRegex},
			{"sponsored", "sponsored", types.OpEquals, ElemBool},
			{"is_ex_eligible", "ex_eligible", types.OpEquals, ElemBool},
		},
	)
)

// schemas lists, per kind, the configuration keys a filter accepts in the
// order their conditions are evaluated.
var schemas = map[types.EventKind][]FieldSpec{
	types.KindMonster: join(
		inOut("monsters", "monsters_exclude", "mon_id", ElemMonster),
		distance,
		timeLeft,
		minMax("lvl", "mon_lvl", ElemInt),
		minMax("cp", "cp", ElemInt),
		minMax("iv", "iv", ElemFloat),
		minMax("atk", "atk_iv", ElemInt),
		minMax("def", "def_iv", ElemInt),
		minMax("sta", "sta_iv", ElemInt),
		inOut("form_ids", "exclude_forms", "form_id", ElemInt),
		inOut("costume_ids", "exclude_costumes", "costume_id", ElemInt),
		[]FieldSpec{
			{"quick_moves", "quick_id", types.OpIn, ElemMove},
			{"charge_moves", "charge_id", types.OpIn, ElemMove},
			{"genders", "gender", types.OpIn, ElemGender},
			{"types", "types", types.OpAnyIn, ElemType},
			{"sizes", "size_id", types.OpIn, ElemSize},
			{"weather", "weather_id", types.OpIn, ElemWeather},
			{"boosted_weather", "boosted_weather_id", types.OpIn, ElemWeather},
			{"rarity", "rarity_id", types.OpIn, ElemInt},
			{"can_be_shiny", "can_be_shiny", types.OpEquals, ElemBool},
			{"atk_grades", "atk_grade", types.OpIn, ElemString},
			{"def_grades", "def_grade", types.OpIn, ElemString},
			{"great_league_monsters", "great_mon_id", types.OpIn, ElemMonster},
			{"ultra_league_monsters", "ultra_mon_id", types.OpIn, ElemMonster},
		},
		minMax("height", "height", ElemFloat),
		minMax("weight", "weight", ElemFloat),
		minMax("great_product", "great_product", ElemFloat),
		minMax("ultra_product", "ultra_product", ElemFloat),
		minMax("great_cp", "great_cp", ElemInt),
		minMax("ultra_cp", "ultra_cp", ElemInt),
		minMax("base_catch", "base_catch", ElemFloat),
		minMax("great_catch", "great_catch", ElemFloat),
		minMax("ultra_catch", "ultra_catch", ElemFloat),
	),

	types.KindRaid: join(
		inOut("monsters", "monsters_exclude", "mon_id", ElemMonster),
		[]FieldSpec{{"types", "types", types.OpAnyIn, ElemType}},
		distance,
		timeLeft,
		minMax("raid_lvl", "raid_lvl", ElemInt),
		inOut("form_ids", "exclude_forms", "form_id", ElemInt),
		inOut("costume_ids", "exclude_costumes", "costume_id", ElemInt),
		[]FieldSpec{
			{"can_be_shiny", "can_be_shiny", types.OpEquals, ElemBool},
			{"genders", "gender", types.OpIn, ElemGender},
		},
		minMax("cp", "cp", ElemInt),
		[]FieldSpec{
			{"quick_moves", "quick_id", types.OpIn, ElemMove},
			{"charge_moves", "charge_id", types.OpIn, ElemMove},
		},
		gymFields,
		[]FieldSpec{
			{"current_teams", "current_team_id", types.OpIn, ElemTeam},
			{"weather", "weather_id", types.OpIn, ElemWeather},
		},
		minMax("slots", "slots_available", ElemInt),
	),

	types.KindEgg: join(
		distance,
		timeLeft,
		minMax("egg_lvl", "egg_lvl", ElemInt),
		gymFields,
		[]FieldSpec{
			{"current_teams", "current_team_id", types.OpIn, ElemTeam},
			{"weather", "weather_id", types.OpIn, ElemWeather},
		},
		minMax("slots", "slots_available", ElemInt),
	),

	types.KindGym: join(
		distance,
		[]FieldSpec{
			{"old_teams", "old_team_id", types.OpIn, ElemTeam},
			{"new_teams", "new_team_id", types.OpIn, ElemTeam},
		},
		gymFields,
		minMax("slots", "slots_available", ElemInt),
	),

	types.KindWeather: join(
		distance,
		[]FieldSpec{
			{"weather", "weather_id", types.OpIn, ElemWeather},
			{"severity", "severity", types.OpIn, ElemInt},
			{"day_or_night", "day_or_night_id", types.OpIn, ElemInt},
			{"is_warning", "warning", types.OpEquals, ElemBool},
		},
	),

	types.KindQuest: join(
		distance,
		regexPair("stop_name", "stop_name"),
		regexPair("task", "quest_task"),
		[]FieldSpec{
			{"reward_types", "reward_type_id", types.OpIn, ElemInt},
			{"items", "item_id", types.OpIn, ElemInt},
			{"monsters", "mon_id", types.OpIn, ElemMonster},
			{"form_ids", "form_id", types.OpIn, ElemInt},
		},
		minMax("item_amount", "item_amount", ElemInt),
	),

	types.KindInvasion: join(
		distance,
		timeLeft,
		regexPair("stop_name", "stop_name"),
		inOut("grunt_types", "exclude_grunt_types", "grunt_type_id", ElemInt),
		[]FieldSpec{{"genders", "gender", types.OpIn, ElemGender}},
	),
}

// Common keys accepted by every kind after its schema.
const (
	keyGeofences        = "geofences"
	keyExcludeGeofences = "exclude_geofences"
	keyMinTime          = "min_time"
	keyMaxTime          = "max_time"
	keyCustomDTS        = "custom_dts"
	keyIsMissingInfo    = "is_missing_info"
)

// Schema returns the keys a filter of kind accepts, in evaluation order.
func Schema(kind types.EventKind) []FieldSpec {
	return schemas[kind]
}

// resolve binds the spec to its attribute and checks the operator suits the
// attribute type.
func (s FieldSpec) resolve(kind types.EventKind) (events.Attribute, error) {
	a, ok := events.LookupAttribute(kind, s.Attr)
	if !ok {
		return a, fmt.Errorf("%s has no attribute %q", kind, s.Attr)
	}

	var want []events.ValueType
	switch s.Op {
	case types.OpMin, types.OpMax:
		want = []events.ValueType{events.TypeInt, events.TypeFloat}
	case types.OpEquals:
		want = []events.ValueType{events.TypeBool}
	case types.OpRegexAny, types.OpRegexNone:
		want = []events.ValueType{events.TypeString}
	case types.OpAnyIn:
		want = []events.ValueType{events.TypeIntList}
	case types.OpIn, types.OpNotIn:
		if s.Elem.stringElement() {
			want = []events.ValueType{events.TypeString}
		} else {
			want = []events.ValueType{events.TypeInt}
		}
	default:
		return a, fmt.Errorf("unsupported operator %q", s.Op)
	}
	for _, t := range want {
		if a.Type == t {
			return a, nil
		}
	}
	return a, fmt.Errorf("operator %s cannot apply to %s attribute %q", s.Op, a.Type, s.Attr)
}
