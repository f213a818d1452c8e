// Package filters builds declarative filters from configuration records and
// evaluates events against them.
package filters

import (
	"maps"
	"time"

	"pokewatch/internal/events"
	"pokewatch/internal/geofence"
	"pokewatch/internal/types"
)

// Window is a daily time-of-day range in minutes after midnight. Both ends
// are inclusive; Min > Max wraps past midnight.
type Window struct {
	Min, Max int
}

// Contains reports whether t's time of day falls in the window. Seconds past
// the last minute are outside it.
func (w Window) Contains(t time.Time) bool {
	sec := t.Hour()*3600 + t.Minute()*60 + t.Second()
	lo, hi := w.Min*60, w.Max*60
	if lo <= hi {
		return lo <= sec && sec <= hi
	}
	return sec >= lo || sec <= hi
}

// Filter is an immutable rule over events of one kind.
type Filter struct {
	kind types.EventKind
	name string

	conditions []*Condition
	include    []*geofence.Geofence
	exclude    []*geofence.Geofence
	window     *Window
	customDTS  map[string]string
	missing    types.Opt[bool]

	// configured geofence names, kept for export
	includeNames []string
	excludeNames []string

	clock types.Clock
	loc   *time.Location
}

// Kind is the event kind the filter applies to.
func (f *Filter) Kind() types.EventKind { return f.kind }

// Name is the filter's configured name.
func (f *Filter) Name() string { return f.name }

// Conditions returns the filter's conditions in evaluation order.
func (f *Filter) Conditions() []*Condition { return f.conditions }

// CustomDTS returns a copy of the filter's template overrides.
func (f *Filter) CustomDTS() map[string]string { return maps.Clone(f.customDTS) }

// Matches evaluates e at the current time.
func (f *Filter) Matches(e *events.Event) bool {
	return f.MatchesAt(e, f.clock.Now())
}

// MatchesAt evaluates e as of now. Conditions run first in declaration
// order, then included geofences, excluded geofences and the time window;
// the first failure decides.
//
// A condition whose attribute is Unknown fails the filter. With
// is_missing_info set to true such conditions are skipped instead, and the
// filter only matches if at least one of them was skipped.
func (f *Filter) MatchesAt(e *events.Event, now time.Time) bool {
	if e == nil || e.Kind != f.kind {
		return false
	}

	wantMissing := f.missing.OrElse(false)
	sawMissing := false
	for _, c := range f.conditions {
		v := c.Attr.Get(e, now)
		if !v.Known {
			if !wantMissing {
				return false
			}
			sawMissing = true
			continue
		}
		if !c.Test(v) {
			return false
		}
	}
	if wantMissing && !sawMissing {
		return false
	}

	if len(f.include) > 0 {
		if _, ok := f.containing(e); !ok {
			return false
		}
	}
	for _, g := range f.exclude {
		if g.Contains(e.Lat, e.Lng) {
			return false
		}
	}

	if f.window != nil && !f.window.Contains(now.In(f.loc)) {
		return false
	}
	return true
}

// Geofence names the first included geofence containing e. Unknown when the
// filter has no included geofences or none contains the event.
func (f *Filter) Geofence(e *events.Event) types.Opt[string] {
	if name, ok := f.containing(e); ok {
		return types.Known(name)
	}
	return types.Unknown[string]()
}

func (f *Filter) containing(e *events.Event) (string, bool) {
	for _, g := range f.include {
		if g.Contains(e.Lat, e.Lng) {
			return g.Name(), true
		}
	}
	return "", false
}

// ToConfig exports the explicitly configured fields under their original
// keys, in a form Build accepts.
func (f *Filter) ToConfig() map[string]any {
	out := make(map[string]any, len(f.conditions)+6)
	for _, c := range f.conditions {
		out[c.Key] = c.limit()
	}
	if f.includeNames != nil {
		out[keyGeofences] = stringsToAny(f.includeNames)
	}
	if f.excludeNames != nil {
		out[keyExcludeGeofences] = stringsToAny(f.excludeNames)
	}
	if f.window != nil {
		out[keyMinTime] = formatClock(f.window.Min)
		out[keyMaxTime] = formatClock(f.window.Max)
	}
	if f.customDTS != nil {
		dts := make(map[string]any, len(f.customDTS))
		for k, v := range f.customDTS {
			dts[k] = v
		}
		out[keyCustomDTS] = dts
	}
	if v, ok := f.missing.Get(); ok {
		out[keyIsMissingInfo] = v
	}
	return out
}

func stringsToAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
