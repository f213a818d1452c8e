package events

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pokewatch/internal/types"
)

// payload reads typed fields out of a decoded webhook message. Keys are tried
// in order, so alternate spellings from different scanners can be listed.
type payload struct {
	kind types.EventKind
	raw  map[string]any
}

func (p payload) lookup(keys ...string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := p.raw[k]; ok && v != nil {
			return k, v, true
		}
	}
	if len(keys) > 0 {
		return keys[0], nil, false
	}
	return "", nil, false
}

func (p payload) missing(key string) error {
	return types.NewAppErrorWithDetails(types.ErrCodePayloadMissingField,
		fmt.Sprintf("%s payload is missing required field %q", p.kind, key), nil,
		map[string]any{"kind": string(p.kind), "field": key})
}

func (p payload) invalid(key string, v any, want string) error {
	return types.NewAppErrorWithDetails(types.ErrCodePayloadInvalidField,
		fmt.Sprintf("%s payload field %q: cannot use %v as %s", p.kind, key, v, want), nil,
		map[string]any{"kind": string(p.kind), "field": key})
}

func (p payload) reqInt(keys ...string) (int, error) {
	k, v, ok := p.lookup(keys...)
	if !ok {
		return 0, p.missing(k)
	}
	n, ok := toInt(v)
	if !ok {
		return 0, p.invalid(k, v, "integer")
	}
	return n, nil
}

func (p payload) reqFloat(keys ...string) (float64, error) {
	k, v, ok := p.lookup(keys...)
	if !ok {
		return 0, p.missing(k)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, p.invalid(k, v, "number")
	}
	return f, nil
}

func (p payload) reqString(keys ...string) (string, error) {
	k, v, ok := p.lookup(keys...)
	if !ok {
		return "", p.missing(k)
	}
	s, ok := toString(v)
	if !ok || s == "" {
		return "", p.invalid(k, v, "identifier")
	}
	return s, nil
}

// reqTime reads a unix timestamp in seconds.
func (p payload) reqTime(keys ...string) (time.Time, error) {
	k, v, ok := p.lookup(keys...)
	if !ok {
		return time.Time{}, p.missing(k)
	}
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return time.Time{}, p.invalid(k, v, "unix timestamp")
	}
	return unix(f), nil
}

func (p payload) optTime(keys ...string) time.Time {
	_, v, ok := p.lookup(keys...)
	if !ok {
		return time.Time{}
	}
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return time.Time{}
	}
	return unix(f)
}

func unix(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

func (p payload) optInt(keys ...string) types.Opt[int] {
	_, v, ok := p.lookup(keys...)
	if !ok {
		return types.Unknown[int]()
	}
	n, ok := toInt(v)
	if !ok {
		return types.Unknown[int]()
	}
	return types.Known(n)
}

func (p payload) intOr(def int, keys ...string) int {
	return p.optInt(keys...).OrElse(def)
}

func (p payload) optFloat(keys ...string) types.Opt[float64] {
	_, v, ok := p.lookup(keys...)
	if !ok {
		return types.Unknown[float64]()
	}
	f, ok := toFloat(v)
	if !ok {
		return types.Unknown[float64]()
	}
	return types.Known(f)
}

// optString trims surrounding whitespace. An empty string stays known.
func (p payload) optString(keys ...string) types.Opt[string] {
	_, v, ok := p.lookup(keys...)
	if !ok {
		return types.Unknown[string]()
	}
	s, ok := toString(v)
	if !ok {
		return types.Unknown[string]()
	}
	return types.Known(strings.TrimSpace(s))
}

// optBool accepts booleans and 0/1 style numbers.
func (p payload) optBool(keys ...string) types.Opt[bool] {
	_, v, ok := p.lookup(keys...)
	if !ok {
		return types.Unknown[bool]()
	}
	if b, ok := v.(bool); ok {
		return types.Known(b)
	}
	if s, ok := v.(string); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return types.Known(b)
		}
	}
	n, ok := toInt(v)
	if !ok {
		return types.Unknown[bool]()
	}
	return types.Known(n != 0)
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	f, ok := toFloat(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// toString renders identifiers. Integral numbers print without a decimal
// point so numeric and string ids compare equal.
func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}
