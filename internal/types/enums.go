package types

// EventKind discriminates the Event variant.
type EventKind string

const (
	KindMonster  EventKind = "monster"
	KindRaid     EventKind = "raid"
	KindEgg      EventKind = "egg"
	KindGym      EventKind = "gym"
	KindWeather  EventKind = "weather"
	KindQuest    EventKind = "quest"
	KindInvasion EventKind = "invasion"
)

// AllKinds lists every event kind in filter-file section order.
var AllKinds = []EventKind{
	KindMonster, KindRaid, KindEgg, KindGym, KindWeather, KindQuest, KindInvasion,
}

// ParseEventKind returns the kind named s.
func ParseEventKind(s string) (EventKind, bool) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Operator is the evaluator a Condition applies to an attribute.
type Operator string

const (
	OpMin       Operator = "min"        // limit <= value
	OpMax       Operator = "max"        // limit >= value
	OpIn        Operator = "in"         // value in set
	OpNotIn     Operator = "not_in"     // value not in set
	OpAnyIn     Operator = "any_in"     // any element of value in set
	OpRegexAny  Operator = "regex_any"  // value matches at least one pattern
	OpRegexNone Operator = "regex_none" // value matches no pattern
	OpEquals    Operator = "equals"     // value == limit (bool)
)

// Team ids as sent by scanners.
const (
	TeamUncontested = 0
	TeamMystic      = 1
	TeamValor       = 2
	TeamInstinct    = 3
)

// Gender symbols used both in events and in filter limits.
const (
	GenderMale       = "♂"
	GenderFemale     = "♀"
	GenderGenderless = "⚲"
)

// Weather condition ids.
const (
	WeatherNone         = 0
	WeatherClear        = 1
	WeatherRainy        = 2
	WeatherPartlyCloudy = 3
	WeatherOvercast     = 4
	WeatherWindy        = 5
	WeatherSnow         = 6
	WeatherFog          = 7
)

// GymSlots is the number of defender slots in a gym.
const GymSlots = 6
