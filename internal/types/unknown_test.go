package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpt_ZeroValueIsUnknown(t *testing.T) {
	var o Opt[int]
	assert.False(t, o.IsKnown())
	assert.Equal(t, 7, o.OrElse(7))
}

func TestOpt_KnownZeroIsDistinctFromUnknown(t *testing.T) {
	zero := Known(0)
	v, ok := zero.Get()
	assert.True(t, ok)
	assert.Equal(t, 0, v)
	assert.NotEqual(t, Unknown[int](), zero)
}

func TestMap3_RequiresAllOperands(t *testing.T) {
	sum := func(a, b, c int) int { return a + b + c }

	assert.Equal(t, Known(30), Map3(Known(10), Known(10), Known(10), sum))
	assert.False(t, Map3(Known(10), Unknown[int](), Known(10), sum).IsKnown())
	assert.False(t, Map3(Unknown[int](), Known(10), Known(10), sum).IsKnown())
	assert.False(t, Map3(Known(10), Known(10), Unknown[int](), sum).IsKnown())
}

func TestMap2AndMap(t *testing.T) {
	ratio := Map2(Known(14.0), Known(10.0), func(a, b float64) float64 { return a / b })
	assert.Equal(t, Known(1.4), ratio)
	assert.False(t, Map2(Unknown[float64](), Known(1.0), func(a, b float64) float64 { return a }).IsKnown())

	doubled := Map(Known(4), func(v int) int { return v * 2 })
	assert.Equal(t, Known(8), doubled)
	assert.False(t, Map(Unknown[int](), func(v int) int { return v }).IsKnown())
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"int known", FormatInt(Known(25), UnknownTiny), "25"},
		{"int unknown tiny", FormatInt(Unknown[int](), UnknownTiny), "?"},
		{"padded", FormatPadded(Known(7), 3, UnknownTiny), "007"},
		{"padded unknown", FormatPadded(Unknown[int](), 3, UnknownSmall), "???"},
		{"float one decimal", FormatFloat(Known(97.7777), 1, UnknownSmall), "97.8"},
		{"float zero decimals", FormatFloat(Known(97.7777), 0, UnknownTiny), "98"},
		{"float unknown", FormatFloat(Unknown[float64](), 2, UnknownSmall), "???"},
		{"string unknown regular", FormatString(Unknown[string](), UnknownRegular), "unknown"},
		{"or empty unknown", OrEmpty(Unknown[string]()), ""},
		{"or empty known", OrEmpty(Known("Rainy")), "Rainy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestOpt_JSONRoundTrip(t *testing.T) {
	type record struct {
		CP     Opt[int]     `json:"cp"`
		Height Opt[float64] `json:"height"`
	}

	data, err := json.Marshal(record{CP: Known(0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cp":0,"height":null}`, string(data))

	var back record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Known(0), back.CP)
	assert.False(t, back.Height.IsKnown())
}
