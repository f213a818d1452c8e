package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokewatch/internal/filters"
	"pokewatch/internal/geofence"
	"pokewatch/internal/types"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

const rules = `
monsters:
  filters:
    hundo:
      min_iv: 100
      custom_dts: {channel: hundos}
    rain karp:
      monsters: [Magikarp]
      boosted_weather: [rainy]
      geofences: [Harbor]
gyms:
  filters:
    changed:
      old_teams: [valor]
raids:
  enabled: false
`

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func harbor(t *testing.T) *geofence.Registry {
	t.Helper()
	g, err := geofence.New("Harbor", []geofence.Point{
		{Lat: 40.70, Lng: -74.02}, {Lat: 40.70, Lng: -73.99}, {Lat: 40.73, Lng: -73.99}, {Lat: 40.73, Lng: -74.02},
	})
	require.NoError(t, err)
	reg, err := geofence.NewRegistry(g)
	require.NoError(t, err)
	return reg
}

func newTestEngine(t *testing.T) (*Engine, *prometheus.Registry) {
	t.Helper()
	clock := types.FixedClock(fixedNow)
	fences := harbor(t)

	b := filters.NewBuilder(fences, nil, clock, time.UTC)
	sets, err := b.Load(strings.NewReader(rules))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	e := New(Options{Clock: clock, Metrics: NewMetrics(reg), Workers: 4})
	e.Swap(NewGeneration(sets, fences, fixedNow))
	return e, reg
}

func karp(iv float64, withWeather bool) Message {
	msg := map[string]any{
		"encounter_id":       "enc-karp",
		"pokemon_id":         float64(129),
		"latitude":           40.7128,
		"longitude":          -74.0060,
		"disappear_time":     float64(fixedNow.Add(10 * time.Minute).Unix()),
		"individual_attack":  iv,
		"individual_defense": iv,
		"individual_stamina": iv,
	}
	if withWeather {
		msg["weather"] = float64(types.WeatherRainy)
	}
	return Message{Type: "pokemon", Message: msg}
}

func gym(team int) Message {
	return Message{Type: "gym", Message: map[string]any{
		"gym_id": "gym-1", "team_id": float64(team), "latitude": 40.71, "longitude": -74.0,
		"slots_available": float64(3),
	}}
}

func TestProcess_BeforeSwap(t *testing.T) {
	e := New(Options{})
	_, err := e.Process(context.Background(), karp(15, true))
	require.Error(t, err)
	assert.Nil(t, e.Active())
}

func TestProcess_FirstMatchWins(t *testing.T) {
	e, reg := newTestEngine(t)

	v, err := e.Process(context.Background(), karp(15, true))
	require.NoError(t, err)
	assert.True(t, v.Matched())
	assert.Equal(t, "hundo", v.Filter)
	assert.Equal(t, e.Active().ID, v.Generation)
	assert.Equal(t, map[string]string{"channel": "hundos"}, v.Event.CustomDTS)
	assert.Equal(t, types.Known("Harbor"), v.Event.Geofence)

	v, err = e.Process(context.Background(), karp(10, true))
	require.NoError(t, err)
	assert.Equal(t, "rain karp", v.Filter)

	v, err = e.Process(context.Background(), karp(10, false))
	require.NoError(t, err)
	assert.Equal(t, types.ResultRejected, v.Result)
	assert.Empty(t, v.Filter)

	processed, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, processed)
	assert.Equal(t, 2.0, counterValue(t, e.metrics.processed.WithLabelValues("monster", types.ResultMatched)))
	assert.Equal(t, 1.0, counterValue(t, e.metrics.processed.WithLabelValues("monster", types.ResultRejected)))
}

func TestProcess_DisabledAndMissingSections(t *testing.T) {
	e, _ := newTestEngine(t)

	raid := Message{Type: "raid", Message: map[string]any{
		"gym_id": "gym-1", "latitude": 1.0, "longitude": 2.0, "level": float64(5),
		"pokemon_id": float64(150), "cp": float64(54148), "end": float64(fixedNow.Add(time.Hour).Unix()),
	}}
	v, err := e.Process(context.Background(), raid)
	require.NoError(t, err)
	assert.Equal(t, types.ResultDisabled, v.Result)

	weather := Message{Type: "weather", Message: map[string]any{
		"latitude": 1.0, "longitude": 2.0, "gameplay_condition": float64(types.WeatherClear),
	}}
	v, err = e.Process(context.Background(), weather)
	require.NoError(t, err)
	assert.Equal(t, types.ResultDisabled, v.Result)
}

func TestProcess_Malformed(t *testing.T) {
	e, reg := newTestEngine(t)

	msg := karp(15, true)
	delete(msg.Message, "pokemon_id")
	_, err := e.Process(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMalformedPayload))
	assert.Equal(t, 1.0, counterValue(t, e.metrics.malformed.WithLabelValues("monster")))

	_, err = e.Process(context.Background(), Message{Type: "pokestop"})
	assert.True(t, errors.Is(err, types.ErrMalformedPayload))
	_, err = e.Process(context.Background(), Message{Type: "pokestop-" + strings.Repeat("x", 64)})
	assert.True(t, errors.Is(err, types.ErrMalformedPayload))
	assert.Equal(t, 2.0, counterValue(t, e.metrics.malformed.WithLabelValues(types.KindLabelUnsupported)))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "pokewatch_malformed_payloads_total" {
			continue
		}
		assert.Len(t, mf.GetMetric(), 2, "one series for monster, one for unsupported types")
	}
}

func TestProcess_WeatherFeedsLaterSightings(t *testing.T) {
	e, _ := newTestEngine(t)

	v, err := e.Process(context.Background(), karp(10, false))
	require.NoError(t, err)
	assert.False(t, v.Matched())

	_, err = e.Process(context.Background(), Message{Type: "weather", Message: map[string]any{
		"latitude": 40.7128, "longitude": -74.0060, "gameplay_condition": float64(types.WeatherRainy),
	}})
	require.NoError(t, err)

	v, err = e.Process(context.Background(), karp(10, false))
	require.NoError(t, err)
	assert.Equal(t, "rain karp", v.Filter)
	assert.Equal(t, types.Known(types.WeatherRainy), v.Event.Monster.BoostedWeatherID)
}

func TestProcess_DistanceFromObserver(t *testing.T) {
	const nearby = `
monsters:
  filters:
    close:
      max_dist: 1000
    far:
      min_dist: 50000
`
	clock := types.FixedClock(fixedNow)
	sets, err := filters.NewBuilder(nil, nil, clock, time.UTC).Load(strings.NewReader(nearby))
	require.NoError(t, err)

	tests := []struct {
		name       string
		observer   *types.Location
		wantFilter string
		wantDir    string
	}{
		{"observer a block north", &types.Location{Lat: 40.7200, Lng: -74.0060}, "close", "S"},
		{"observer in another city", &types.Location{Lat: 42.3601, Lng: -71.0589}, "far", "SW"},
		{"no observer", nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Options{Clock: clock, Observer: tt.observer})
			e.Swap(NewGeneration(sets, nil, fixedNow))

			v, err := e.Process(context.Background(), karp(0, false))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFilter, v.Filter)
			if tt.observer == nil {
				assert.False(t, v.Event.Distance.IsKnown())
				assert.Equal(t, types.ResultRejected, v.Result)
				return
			}
			assert.True(t, v.Event.Distance.IsKnown())
			assert.Equal(t, types.Known(tt.wantDir), v.Event.Direction)
			assert.NotEqual(t, "???", v.Event.Attributes(fixedNow, time.UTC)["distance"])
		})
	}
}

func TestProcess_GymTeamChange(t *testing.T) {
	e, _ := newTestEngine(t)

	v, err := e.Process(context.Background(), gym(types.TeamValor))
	require.NoError(t, err)
	assert.False(t, v.Matched())
	assert.Equal(t, types.Known(types.TeamValor), e.Cache().Snapshot().GymTeam("gym-1"))

	v, err = e.Process(context.Background(), gym(types.TeamMystic))
	require.NoError(t, err)
	assert.True(t, v.Matched())
	assert.Equal(t, types.Known(types.TeamValor), v.Event.Gym.OldTeamID)
	assert.Equal(t, types.Known(types.TeamMystic), e.Cache().Snapshot().GymTeam("gym-1"))
}

func TestProcessBatch(t *testing.T) {
	e, _ := newTestEngine(t)

	bad := karp(15, true)
	delete(bad.Message, "latitude")
	msgs := []Message{karp(15, true), bad, karp(10, true), {Type: "nope"}, karp(0, false)}

	results := e.ProcessBatch(context.Background(), msgs)
	require.Len(t, results, len(msgs))

	assert.Equal(t, "hundo", results[0].Verdict.Filter)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Verdict)
	assert.Equal(t, "rain karp", results[2].Verdict.Filter)
	assert.Error(t, results[3].Err)
	assert.Equal(t, types.ResultRejected, results[4].Verdict.Result)
}

func TestProcessBatch_Cancelled(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := e.ProcessBatch(ctx, []Message{karp(15, true), karp(15, true)})
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestSwapDuringEvaluation(t *testing.T) {
	e, _ := newTestEngine(t)
	first := e.Active()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				v, err := e.Process(context.Background(), karp(15, true))
				if assert.NoError(t, err) {
					assert.True(t, v.Matched())
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		e.Swap(NewGeneration(first.Sets, first.Geofences, fixedNow))
	}
	wg.Wait()

	assert.NotEqual(t, first.ID, e.Active().ID)
	prev := e.Swap(first)
	assert.NotNil(t, prev)
	assert.Equal(t, first.ID, e.Active().ID)
}
