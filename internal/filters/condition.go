package filters

import (
	"regexp"
	"slices"

	"pokewatch/internal/events"
	"pokewatch/internal/types"
)

// Condition is one constraint on a single attribute. The limit is parsed once
// when the filter is built.
type Condition struct {
	Key  string // configuration key it was built from
	Attr events.Attribute
	Op   types.Operator

	num      float64
	ints     map[int]struct{}
	strs     map[string]struct{}
	patterns []*regexp.Regexp
	flag     bool

	elem Element
}

// Test applies the condition to a known value.
func (c *Condition) Test(v events.Value) bool {
	switch c.Op {
	case types.OpMin:
		return c.num <= v.Num
	case types.OpMax:
		return c.num >= v.Num
	case types.OpIn:
		return c.contains(v)
	case types.OpNotIn:
		return !c.contains(v)
	case types.OpAnyIn:
		for _, x := range v.List {
			if _, ok := c.ints[x]; ok {
				return true
			}
		}
		return false
	case types.OpRegexAny:
		for _, re := range c.patterns {
			if re.MatchString(v.Str) {
				return true
			}
		}
		return false
	case types.OpRegexNone:
		for _, re := range c.patterns {
			if re.MatchString(v.Str) {
				return false
			}
		}
		return true
	case types.OpEquals:
		return c.flag == v.Bool
	}
	return false
}

func (c *Condition) contains(v events.Value) bool {
	if c.strs != nil {
		_, ok := c.strs[v.Str]
		return ok
	}
	_, ok := c.ints[v.Int()]
	return ok
}

// limit renders the parsed limit back into configuration form: ids rather
// than names, sets sorted, patterns as written.
func (c *Condition) limit() any {
	switch c.Op {
	case types.OpMin, types.OpMax:
		if c.elem == ElemInt {
			return int(c.num)
		}
		return c.num
	case types.OpEquals:
		return c.flag
	case types.OpRegexAny, types.OpRegexNone:
		out := make([]any, len(c.patterns))
		for i, re := range c.patterns {
			out[i] = patternSource(re)
		}
		return out
	}
	if c.strs != nil {
		keys := make([]string, 0, len(c.strs))
		for k := range c.strs {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out
	}
	keys := make([]int, 0, len(c.ints))
	for k := range c.ints {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
