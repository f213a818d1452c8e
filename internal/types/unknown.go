package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Opt is a tri-state field value: either a concrete value or Unknown.
// Unknown means "absent from the payload" and is distinct from a legitimate
// zero or false. The zero Opt is Unknown.
type Opt[T any] struct {
	v     T
	known bool
}

// Known wraps a concrete value.
func Known[T any](v T) Opt[T] {
	return Opt[T]{v: v, known: true}
}

// Unknown returns the Unknown value for T.
func Unknown[T any]() Opt[T] {
	return Opt[T]{}
}

// Get returns the value and whether it is known.
func (o Opt[T]) Get() (T, bool) {
	return o.v, o.known
}

// IsKnown reports whether the value is known.
func (o Opt[T]) IsKnown() bool {
	return o.known
}

// OrElse returns the value if known, otherwise d.
func (o Opt[T]) OrElse(d T) T {
	if o.known {
		return o.v
	}
	return d
}

// MarshalJSON encodes Unknown as null.
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.known {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}

// UnmarshalJSON decodes null as Unknown.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Opt[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Known(v)
	return nil
}

// Map applies f when o is known.
func Map[T, U any](o Opt[T], f func(T) U) Opt[U] {
	v, ok := o.Get()
	if !ok {
		return Unknown[U]()
	}
	return Known(f(v))
}

// Map2 applies f only when both operands are known.
func Map2[A, B, U any](a Opt[A], b Opt[B], f func(A, B) U) Opt[U] {
	av, aok := a.Get()
	bv, bok := b.Get()
	if !aok || !bok {
		return Unknown[U]()
	}
	return Known(f(av, bv))
}

// Map3 applies f only when all three operands are known.
func Map3[A, B, C, U any](a Opt[A], b Opt[B], c Opt[C], f func(A, B, C) U) Opt[U] {
	av, aok := a.Get()
	bv, bok := b.Get()
	cv, cok := c.Get()
	if !aok || !bok || !cok {
		return Unknown[U]()
	}
	return Known(f(av, bv, cv))
}

// UnknownWidth selects how an Unknown renders in exported attribute maps.
type UnknownWidth int

const (
	UnknownTiny UnknownWidth = iota
	UnknownSmall
	UnknownRegular
)

// String returns the placeholder text for the width.
func (w UnknownWidth) String() string {
	switch w {
	case UnknownTiny:
		return "?"
	case UnknownSmall:
		return "???"
	default:
		return "unknown"
	}
}

// FormatInt renders o in base 10, or the placeholder for w.
func FormatInt(o Opt[int], w UnknownWidth) string {
	v, ok := o.Get()
	if !ok {
		return w.String()
	}
	return strconv.Itoa(v)
}

// FormatPadded renders o zero-padded to digits, or the placeholder for w.
func FormatPadded(o Opt[int], digits int, w UnknownWidth) string {
	v, ok := o.Get()
	if !ok {
		return w.String()
	}
	return fmt.Sprintf("%0*d", digits, v)
}

// FormatFloat renders o with a fixed number of decimals, or the placeholder for w.
func FormatFloat(o Opt[float64], precision int, w UnknownWidth) string {
	v, ok := o.Get()
	if !ok {
		return w.String()
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// FormatString renders o, or the placeholder for w.
func FormatString(o Opt[string], w UnknownWidth) string {
	v, ok := o.Get()
	if !ok {
		return w.String()
	}
	return v
}

// OrEmpty renders o, or "" when Unknown.
func OrEmpty[T any](o Opt[T]) string {
	v, ok := o.Get()
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

// ExportValue returns the concrete value, or the placeholder string for w.
// Used when building attribute maps for the templating layer.
func ExportValue[T any](o Opt[T], w UnknownWidth) any {
	v, ok := o.Get()
	if !ok {
		return w.String()
	}
	return v
}
