package cache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokewatch/internal/types"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCellID_SameCellNearby(t *testing.T) {
	a := CellID(40.7128, -74.0060)
	b := CellID(40.7129, -74.0061)
	c := CellID(34.0522, -118.2437)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestNilSnapshot(t *testing.T) {
	var s *Snapshot
	assert.Zero(t, s.Generation())
	assert.False(t, s.WeatherAt(1, 1).IsKnown())
	assert.False(t, s.GymSlots("g").IsKnown())
	_, ok := s.Gym("g")
	assert.False(t, ok)
}

func TestMemory_UpdatePublishesNewGeneration(t *testing.T) {
	m := NewMemory(types.FixedClock(fixedNow))
	before := m.Snapshot()

	after := m.Update(func(tx *Txn) {
		tx.SetCellWeather(CellID(40.7128, -74.0060), types.WeatherRainy)
		tx.MergeGym("gym-1", Gym{Slots: types.Known(2), Team: types.Known(types.TeamValor)})
	})

	assert.Equal(t, before.Generation()+1, after.Generation())
	assert.Same(t, after, m.Snapshot())

	assert.Equal(t, types.Known(types.WeatherRainy), after.WeatherAt(40.7128, -74.0060))
	assert.Equal(t, types.Known(2), after.GymSlots("gym-1"))
	assert.Equal(t, types.Known(types.TeamValor), after.GymTeam("gym-1"))

	// the earlier snapshot is untouched
	assert.False(t, before.WeatherAt(40.7128, -74.0060).IsKnown())
	assert.False(t, before.GymSlots("gym-1").IsKnown())

	g, ok := after.Gym("gym-1")
	require.True(t, ok)
	assert.Equal(t, fixedNow, g.UpdatedAt)
}

func TestMemory_EmptyUpdateKeepsGeneration(t *testing.T) {
	m := NewMemory(nil)
	before := m.Snapshot()
	after := m.Update(func(*Txn) {})
	assert.Same(t, before, after)
}

func TestMemory_MergeGymKeepsKnownFields(t *testing.T) {
	m := NewMemory(types.FixedClock(fixedNow))
	m.Update(func(tx *Txn) {
		tx.MergeGym("g", Gym{Name: types.Known("Fountain"), Team: types.Known(types.TeamMystic)})
	})
	s := m.Update(func(tx *Txn) {
		tx.MergeGym("g", Gym{Park: types.Known("Central Park"), Team: types.Known(types.TeamInstinct)})
	})

	g, ok := s.Gym("g")
	require.True(t, ok)
	assert.Equal(t, types.Known("Fountain"), g.Name)
	assert.Equal(t, types.Known("Central Park"), g.Park)
	assert.Equal(t, types.Known(types.TeamInstinct), g.Team)
	assert.False(t, g.Slots.IsKnown())
}

func TestMemory_ConcurrentReadersAndWriters(t *testing.T) {
	m := NewMemory(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.Update(func(tx *Txn) { tx.SetCellWeather(uint64(i), i%8) })
		}(i)
		go func() {
			defer wg.Done()
			s := m.Snapshot()
			_ = s.CellWeather(1)
		}()
	}
	wg.Wait()

	cells, _ := m.Snapshot().Len()
	assert.Equal(t, 8, cells)
	assert.Equal(t, uint64(8), m.Snapshot().Generation())
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cache.json.zst")
	store := NewFileStore(path, types.FixedClock(fixedNow), nil)

	m := NewMemory(types.FixedClock(fixedNow))
	snap := m.Update(func(tx *Txn) {
		tx.SetCellWeather(42, types.WeatherFog)
		tx.MergeGym("g", Gym{Name: types.Known("Fountain"), Slots: types.Known(0), ExEligible: types.Known(true)})
	})
	require.NoError(t, store.Save(snap))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file removed after rename")

	loaded, err := store.Load()
	require.NoError(t, err)

	restored := NewMemory(nil).Restore(loaded)
	assert.Equal(t, types.Known(types.WeatherFog), restored.CellWeather(42))
	g, ok := restored.Gym("g")
	require.True(t, ok)
	assert.Equal(t, types.Known("Fountain"), g.Name)
	assert.Equal(t, types.Known(0), g.Slots)
	assert.Equal(t, types.Known(true), g.ExEligible)
	assert.False(t, g.Team.IsKnown())
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "none.zst"), nil, nil)
	s, err := store.Load()
	require.NoError(t, err)
	cells, gyms := s.Len()
	assert.Zero(t, cells)
	assert.Zero(t, gyms)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zst")
	require.NoError(t, os.WriteFile(path, []byte("not zstd"), 0o600))

	_, err := NewFileStore(path, nil, nil).Load()
	require.Error(t, err)
	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeCacheRead, appErr.Code)
}
