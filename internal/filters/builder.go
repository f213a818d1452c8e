package filters

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"pokewatch/internal/gamedata"
	"pokewatch/internal/geofence"
	"pokewatch/internal/types"
)

// allGeofences in a geofence list selects every loaded geofence.
const allGeofences = "all"

// Builder constructs filters against one set of geofences and game tables.
type Builder struct {
	Geofences *geofence.Registry
	GameData  *gamedata.Tables
	Clock     types.Clock
	// Location is the time zone daily windows are evaluated in.
	Location *time.Location
}

// NewBuilder fills in defaults for nil collaborators.
func NewBuilder(fences *geofence.Registry, tables *gamedata.Tables, clock types.Clock, loc *time.Location) *Builder {
	if tables == nil {
		tables = gamedata.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{Geofences: fences, GameData: tables, Clock: clock, Location: loc}
}

// Build constructs a filter of kind from record. Every key of record must be
// recognized; the record itself is not modified.
func (b *Builder) Build(kind types.EventKind, name string, record map[string]any) (*Filter, error) {
	spec, ok := schemas[kind]
	if !ok {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeConfigInvalidValue,
			fmt.Sprintf("filter %q: unknown event kind %q", name, kind), nil,
			map[string]any{"filter": name, "kind": string(kind)})
	}

	data := maps.Clone(record)
	if data == nil {
		data = map[string]any{}
	}
	fb := filterBuild{b: b, kind: kind, name: name, data: data}

	f := &Filter{
		kind:  kind,
		name:  name,
		clock: b.clock(),
		loc:   b.location(),
	}

	for _, s := range spec {
		c, err := fb.condition(s)
		if err != nil {
			return nil, err
		}
		if c != nil {
			f.conditions = append(f.conditions, c)
		}
	}

	var err error
	if f.include, f.includeNames, err = fb.geofences(keyGeofences); err != nil {
		return nil, err
	}
	if f.exclude, f.excludeNames, err = fb.geofences(keyExcludeGeofences); err != nil {
		return nil, err
	}
	if f.window, err = fb.window(); err != nil {
		return nil, err
	}
	if f.customDTS, err = fb.customDTS(); err != nil {
		return nil, err
	}
	if v, ok := fb.pop(keyIsMissingInfo); ok {
		flag, ok := asBool(v)
		if !ok {
			return nil, fb.invalid(keyIsMissingInfo, fmt.Sprintf("expected true or false, got %v", v), nil)
		}
		f.missing = types.Known(flag)
	}

	if len(fb.data) > 0 {
		keys := slices.Sorted(maps.Keys(fb.data))
		return nil, types.NewAppErrorWithDetails(types.ErrCodeConfigUnknownKey,
			fmt.Sprintf("%q is not a recognized parameter for %s filter %q", keys[0], kind, name), nil,
			map[string]any{"filter": name, "kind": string(kind), "key": keys[0], "keys": keys})
	}
	return f, nil
}

func (b *Builder) clock() types.Clock {
	if b.Clock == nil {
		return types.RealClock{}
	}
	return b.Clock
}

func (b *Builder) location() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

func (b *Builder) tables() *gamedata.Tables {
	if b.GameData == nil {
		return gamedata.Default()
	}
	return b.GameData
}

// filterBuild is the state of one Build call.
type filterBuild struct {
	b    *Builder
	kind types.EventKind
	name string
	data map[string]any
}

// pop removes key and returns its value. A null value counts as absent.
func (fb *filterBuild) pop(key string) (any, bool) {
	v, ok := fb.data[key]
	delete(fb.data, key)
	return v, ok && v != nil
}

func (fb *filterBuild) invalid(key, msg string, err error) error {
	return types.NewAppErrorWithDetails(types.ErrCodeConfigInvalidValue,
		fmt.Sprintf("%s filter %q, %q: %s", fb.kind, fb.name, key, msg), err,
		map[string]any{"filter": fb.name, "kind": string(fb.kind), "key": key})
}

func (fb *filterBuild) condition(s FieldSpec) (*Condition, error) {
	v, ok := fb.pop(s.Key)
	if !ok {
		return nil, nil
	}
	attr, err := s.resolve(fb.kind)
	if err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeConfigUnknownAttribute,
			fmt.Sprintf("%s filter %q, %q: %v", fb.kind, fb.name, s.Key, err), err,
			map[string]any{"filter": fb.name, "kind": string(fb.kind), "key": s.Key, "attribute": s.Attr})
	}
	c := &Condition{Key: s.Key, Attr: attr, Op: s.Op, elem: s.Elem}

	switch s.Op {
	case types.OpMin, types.OpMax:
		if s.Elem == ElemInt {
			n, ok := asInt(v)
			if !ok {
				return nil, fb.invalid(s.Key, fmt.Sprintf("expected an integer, got %v", v), nil)
			}
			c.num = float64(n)
		} else {
			f, ok := asFloat(v)
			if !ok {
				return nil, fb.invalid(s.Key, fmt.Sprintf("expected a number, got %v", v), nil)
			}
			c.num = f
		}
	case types.OpEquals:
		flag, ok := asBool(v)
		if !ok {
			return nil, fb.invalid(s.Key, fmt.Sprintf("expected true or false, got %v", v), nil)
		}
		c.flag = flag
	case types.OpRegexAny, types.OpRegexNone:
		list, err := fb.list(s.Key, v)
		if err != nil {
			return nil, err
		}
		for _, item := range list {
			src, ok := item.(string)
			if !ok {
				return nil, fb.invalid(s.Key, fmt.Sprintf("expected a pattern string, got %v", item), nil)
			}
			re, err := compilePattern(src)
			if err != nil {
				return nil, fb.invalid(s.Key, fmt.Sprintf("bad pattern %q", src), err)
			}
			c.patterns = append(c.patterns, re)
		}
	default:
		list, err := fb.list(s.Key, v)
		if err != nil {
			return nil, err
		}
		if s.Elem.stringElement() {
			c.strs = make(map[string]struct{}, len(list))
			for _, item := range list {
				str, err := parseStr(s.Elem, item)
				if err != nil {
					return nil, fb.unknownName(s.Key, err)
				}
				c.strs[str] = struct{}{}
			}
		} else {
			c.ints = make(map[int]struct{}, len(list))
			for _, item := range list {
				id, err := parseID(fb.b.tables(), s.Elem, item)
				if err != nil {
					return nil, fb.unknownName(s.Key, err)
				}
				c.ints[id] = struct{}{}
			}
		}
	}
	return c, nil
}

func (fb *filterBuild) list(key string, v any) ([]any, error) {
	list, ok := asList(v)
	if !ok {
		return nil, fb.invalid(key, fmt.Sprintf("expected a list, got %v", v), nil)
	}
	return list, nil
}

func (fb *filterBuild) unknownName(key string, err error) error {
	return types.NewAppErrorWithDetails(types.ErrCodeConfigUnknownName,
		fmt.Sprintf("%s filter %q, %q: %v", fb.kind, fb.name, key, err), err,
		map[string]any{"filter": fb.name, "kind": string(fb.kind), "key": key})
}

// geofences resolves a list of geofence names. "all" expands to every
// loaded geofence in file order.
func (fb *filterBuild) geofences(key string) ([]*geofence.Geofence, []string, error) {
	v, ok := fb.pop(key)
	if !ok {
		return nil, nil, nil
	}
	list, err := fb.list(key, v)
	if err != nil {
		return nil, nil, err
	}

	reg := fb.b.Geofences
	names := make([]string, 0, len(list))
	var fences []*geofence.Geofence
	for _, item := range list {
		name, ok := item.(string)
		if !ok {
			return nil, nil, fb.invalid(key, fmt.Sprintf("expected a geofence name, got %v", item), nil)
		}
		names = append(names, name)
		if name == allGeofences {
			for _, n := range reg.Names() {
				g, _ := reg.Get(n)
				fences = append(fences, g)
			}
			continue
		}
		g, ok := reg.Get(name)
		if !ok {
			return nil, nil, types.NewAppErrorWithDetails(types.ErrCodeConfigUnknownGeofence,
				fmt.Sprintf("%s filter %q: geofence %q is not defined", fb.kind, fb.name, name), nil,
				map[string]any{"filter": fb.name, "kind": string(fb.kind), "key": key, "geofence": name})
		}
		fences = append(fences, g)
	}
	return fences, names, nil
}

// window reads min_time and max_time. Both must be set together.
func (fb *filterBuild) window() (*Window, error) {
	minV, hasMin := fb.pop(keyMinTime)
	maxV, hasMax := fb.pop(keyMaxTime)
	if !hasMin && !hasMax {
		return nil, nil
	}

	windowErr := func(msg string, err error) error {
		return types.NewAppErrorWithDetails(types.ErrCodeConfigTimeWindow,
			fmt.Sprintf("%s filter %q: %s", fb.kind, fb.name, msg), err,
			map[string]any{"filter": fb.name, "kind": string(fb.kind)})
	}
	if hasMin != hasMax {
		return nil, windowErr("min_time and max_time must be set together", nil)
	}
	lo, err := parseClock(minV)
	if err != nil {
		return nil, windowErr(err.Error(), err)
	}
	hi, err := parseClock(maxV)
	if err != nil {
		return nil, windowErr(err.Error(), err)
	}
	return &Window{Min: lo, Max: hi}, nil
}

func (fb *filterBuild) customDTS() (map[string]string, error) {
	v, ok := fb.pop(keyCustomDTS)
	if !ok {
		return nil, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		if typed, isTyped := v.(map[string]string); isTyped {
			return maps.Clone(typed), nil
		}
		return nil, fb.invalid(keyCustomDTS, fmt.Sprintf("expected a mapping, got %v", v), nil)
	}
	out := make(map[string]string, len(raw))
	for k, item := range raw {
		s, ok := asString(item)
		if !ok {
			if flag, isBool := item.(bool); isBool {
				s = fmt.Sprint(flag)
			} else {
				return nil, fb.invalid(keyCustomDTS, fmt.Sprintf("value of %q must be a scalar", k), nil)
			}
		}
		out[k] = s
	}
	return out, nil
}
