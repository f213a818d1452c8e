package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokewatch/internal/cache"
	"pokewatch/internal/types"
)

func mustAttr(t *testing.T, kind types.EventKind, name string) Attribute {
	t.Helper()
	a, ok := LookupAttribute(kind, name)
	require.True(t, ok, "attribute %s.%s", kind, name)
	return a
}

func TestRegistry_CommonAttributes(t *testing.T) {
	for _, k := range types.AllKinds {
		names := AttributeNames(k)
		assert.Contains(t, names, "distance", string(k))
		assert.IsIncreasing(t, names)
	}

	_, ok := LookupAttribute(types.KindWeather, "time_left")
	assert.False(t, ok)
	_, ok = LookupAttribute(types.KindMonster, "egg_lvl")
	assert.False(t, ok)
}

func TestRegistry_Types(t *testing.T) {
	tests := []struct {
		kind types.EventKind
		name string
		want ValueType
	}{
		{types.KindMonster, "iv", TypeFloat},
		{types.KindMonster, "cp", TypeInt},
		{types.KindMonster, "gender", TypeString},
		{types.KindMonster, "can_be_shiny", TypeBool},
		{types.KindMonster, "types", TypeIntList},
		{types.KindRaid, "sponsored", TypeBool},
		{types.KindEgg, "egg_lvl", TypeInt},
		{types.KindGym, "old_team_id", TypeInt},
		{types.KindWeather, "severity", TypeInt},
		{types.KindQuest, "quest_task", TypeString},
		{types.KindInvasion, "grunt_type_id", TypeInt},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"."+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustAttr(t, tt.kind, tt.name).Type)
		})
	}
	assert.True(t, TypeFloat.Numeric())
	assert.False(t, TypeString.Numeric())
}

func TestAttribute_Get(t *testing.T) {
	e, err := newTestNormalizer().Normalize(types.KindMonster, monsterPayload())
	require.NoError(t, err)

	assert.Equal(t, Value{Known: true, Num: 100}, mustAttr(t, types.KindMonster, "iv").Get(e, fixedNow))
	assert.Equal(t, 129, mustAttr(t, types.KindMonster, "mon_id").Get(e, fixedNow).Int())
	assert.Equal(t, []int{11}, mustAttr(t, types.KindMonster, "types").Get(e, fixedNow).List)

	tl := mustAttr(t, types.KindMonster, "time_left")
	assert.Equal(t, 600, tl.Get(e, fixedNow).Int())
	assert.Equal(t, 0, tl.Get(e, fixedNow.Add(time.Hour)).Int())

	assert.False(t, mustAttr(t, types.KindMonster, "distance").Get(e, fixedNow).Known)
	e.SetDistance(125.5, "NE")
	assert.Equal(t, 125.5, mustAttr(t, types.KindMonster, "distance").Get(e, fixedNow).Num)

	// reading through another kind's attribute is Unknown, not a panic
	assert.False(t, mustAttr(t, types.KindRaid, "raid_lvl").Get(e, fixedNow).Known)
}

type fakeSnapshot struct {
	gen     uint64
	weather types.Opt[int]
	gyms    map[string]cache.Gym
	calls   int
}

func (f *fakeSnapshot) Generation() uint64 { return f.gen }

func (f *fakeSnapshot) WeatherAt(float64, float64) types.Opt[int] {
	f.calls++
	return f.weather
}

func (f *fakeSnapshot) Gym(id string) (cache.Gym, bool) {
	g, ok := f.gyms[id]
	return g, ok
}

func (f *fakeSnapshot) GymSlots(id string) types.Opt[int] { return f.gyms[id].Slots }

func (f *fakeSnapshot) GymTeam(id string) types.Opt[int] { return f.gyms[id].Team }

func TestUpdateWithCache_RunsOncePerGeneration(t *testing.T) {
	raw := monsterPayload()
	delete(raw, "weather")
	e, err := newTestNormalizer().Normalize(types.KindMonster, raw)
	require.NoError(t, err)

	snap := &fakeSnapshot{gen: 3, weather: types.Known(types.WeatherRainy)}
	assert.True(t, e.UpdateWithCache(snap))
	assert.False(t, e.UpdateWithCache(snap))
	assert.Equal(t, 1, snap.calls)

	assert.Equal(t, types.Known(types.WeatherRainy), e.Monster.WeatherID)
	assert.Equal(t, types.Known(types.WeatherRainy), e.Monster.BoostedWeatherID)

	snap.gen = 4
	assert.True(t, e.UpdateWithCache(snap))
	assert.False(t, e.UpdateWithCache(nil))
}

func TestUpdateWithCache_CacheMissLeavesFields(t *testing.T) {
	e, err := newTestNormalizer().Normalize(types.KindMonster, monsterPayload())
	require.NoError(t, err)

	e.UpdateWithCache(&fakeSnapshot{gen: 1})
	assert.Equal(t, types.Known(types.WeatherRainy), e.Monster.WeatherID)
}

func TestUpdateWithCache_Raid(t *testing.T) {
	raw := raidPayload()
	delete(raw, "team_id")
	delete(raw, "name")
	e, err := newTestNormalizer().Normalize(types.KindRaid, raw)
	require.NoError(t, err)

	e.UpdateWithCache(&fakeSnapshot{
		gen:     1,
		weather: types.Known(types.WeatherWindy),
		gyms: map[string]cache.Gym{"gym-1": {
			Name:  types.Known("Cached Name"),
			Slots: types.Known(5),
			Team:  types.Known(types.TeamInstinct),
		}},
	})

	r := e.Raid
	assert.Equal(t, BoostedBossLevel, r.BossLevel)
	assert.Equal(t, types.Known(2868), r.MinCP)
	assert.Equal(t, types.Known("Cached Name"), r.Name)
	assert.Equal(t, types.Known(5), r.SlotsAvailable)
	assert.Equal(t, types.Known(1), r.GuardCount)
	assert.Equal(t, types.Known(types.TeamInstinct), r.TeamID)
}

func TestUpdateWithCache_GymOldTeam(t *testing.T) {
	e, err := newTestNormalizer().Normalize(types.KindGym, map[string]any{
		"gym_id": "gym-1", "team_id": float64(types.TeamValor), "latitude": 1.0, "longitude": 2.0,
		"name": "Payload Name",
	})
	require.NoError(t, err)

	e.UpdateWithCache(&fakeSnapshot{gen: 1, gyms: map[string]cache.Gym{"gym-1": {
		Name: types.Known("Cached Name"),
		Team: types.Known(types.TeamMystic),
	}}})

	assert.Equal(t, types.Known(types.TeamMystic), e.Gym.OldTeamID)
	assert.Equal(t, types.Known("Payload Name"), e.Gym.Name)
}

func TestCacheUpdate(t *testing.T) {
	n := newTestNormalizer()
	mem := cache.NewMemory(types.FixedClock(fixedNow))

	w, err := n.Normalize(types.KindWeather, map[string]any{
		"latitude": 40.7128, "longitude": -74.0060, "gameplay_condition": float64(types.WeatherSnow),
	})
	require.NoError(t, err)
	g, err := n.Normalize(types.KindGym, map[string]any{
		"gym_id": "gym-1", "team_id": float64(types.TeamValor), "latitude": 1.0, "longitude": 2.0,
		"slots_available": float64(3),
	})
	require.NoError(t, err)

	snap := mem.Update(func(tx *cache.Txn) {
		w.CacheUpdate(tx)
		g.CacheUpdate(tx)
	})

	assert.Equal(t, types.Known(types.WeatherSnow), snap.WeatherAt(40.7128, -74.0060))
	assert.Equal(t, types.Known(types.TeamValor), snap.GymTeam("gym-1"))
	assert.Equal(t, types.Known(3), snap.GymSlots("gym-1"))
}
