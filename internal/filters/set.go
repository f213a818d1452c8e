package filters

import (
	"time"

	"pokewatch/internal/events"
	"pokewatch/internal/types"
)

// Set is the ordered filters configured for one event kind.
type Set struct {
	Kind    types.EventKind
	Enabled bool
	Filters []*Filter
}

// FirstMatch returns the first filter, in configured order, that e matches.
func (s *Set) FirstMatch(e *events.Event, now time.Time) (*Filter, bool) {
	if s == nil {
		return nil, false
	}
	for _, f := range s.Filters {
		if f.MatchesAt(e, now) {
			return f, true
		}
	}
	return nil, false
}

// AllMatches returns every filter that e matches, in configured order.
func (s *Set) AllMatches(e *events.Event, now time.Time) []*Filter {
	if s == nil {
		return nil
	}
	var out []*Filter
	for _, f := range s.Filters {
		if f.MatchesAt(e, now) {
			out = append(out, f)
		}
	}
	return out
}

// Len is the number of filters in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Filters)
}

// Sets holds one Set per configured kind.
type Sets map[types.EventKind]*Set

// Count is the total number of filters across all kinds.
func (ss Sets) Count() int {
	n := 0
	for _, s := range ss {
		n += s.Len()
	}
	return n
}
