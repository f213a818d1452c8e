package filters

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pokewatch/internal/gamedata"
)

// caseInsensitive is prepended to every configured pattern.
const caseInsensitive = "(?i)"

func compilePattern(s string) (*regexp.Regexp, error) {
	return regexp.Compile(caseInsensitive + s)
}

func patternSource(re *regexp.Regexp) string {
	return strings.TrimPrefix(re.String(), caseInsensitive)
}

// asList accepts the list shapes produced by YAML and JSON decoding as well
// as typed slices built in code.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	return false, false
}

// parseID converts one set member to an integer id using the element's
// name table.
func parseID(t *gamedata.Tables, elem Element, v any) (int, error) {
	if elem == ElemInt {
		n, ok := asInt(v)
		if !ok {
			return 0, fmt.Errorf("unable to interpret %v as an integer", v)
		}
		return n, nil
	}
	s, ok := asString(v)
	if !ok {
		return 0, fmt.Errorf("unable to interpret %v as a %s", v, elem)
	}
	switch elem {
	case ElemMonster:
		return t.SpeciesID(s)
	case ElemMove:
		return t.MoveID(s)
	case ElemType:
		return t.TypeID(s)
	case ElemWeather:
		return t.WeatherID(s)
	case ElemSize:
		return t.SizeID(s)
	case ElemTeam:
		return gamedata.TeamID(s)
	}
	return 0, fmt.Errorf("no id parser for %s", elem)
}

func parseStr(elem Element, v any) (string, error) {
	s, ok := asString(v)
	if !ok {
		return "", fmt.Errorf("unable to interpret %v as a string", v)
	}
	if elem == ElemGender {
		return gamedata.ParseGender(s)
	}
	return s, nil
}

// parseClock reads an "HH:MM" time of day as minutes after midnight.
func parseClock(v any) (int, error) {
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("expected a time of day as \"HH:MM\", got %v", v)
	}
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("unable to interpret %q as a time of day (HH:MM)", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
