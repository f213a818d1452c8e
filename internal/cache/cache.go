// Package cache keeps the last known world state that raw payloads often omit:
// weather per S2 cell and gym team, slots and details per gym id.
//
// Readers take an immutable Snapshot and never lock. Writers batch mutations
// through Memory.Update, which copies what it touches and publishes a new
// generation atomically.
package cache

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/geo/s2"

	"pokewatch/internal/types"
)

// WeatherCellLevel is the S2 level weather is reported at.
const WeatherCellLevel = 10

// CellID returns the weather cell containing (lat, lng).
func CellID(lat, lng float64) uint64 {
	return uint64(s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lng)).Parent(WeatherCellLevel))
}

// CellWeather is the last reported condition of one weather cell.
type CellWeather struct {
	WeatherID int       `json:"weather_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Gym is the cached state of one gym. Fields the scanners never sent stay
// Unknown.
type Gym struct {
	Name        types.Opt[string] `json:"name"`
	Description types.Opt[string] `json:"description"`
	Image       types.Opt[string] `json:"image"`
	Park        types.Opt[string] `json:"park"`
	Sponsor     types.Opt[int]    `json:"sponsor"`
	ExEligible  types.Opt[bool]   `json:"ex_eligible"`
	Team        types.Opt[int]    `json:"team"`
	Slots       types.Opt[int]    `json:"slots"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Snapshot is one immutable generation of cache contents. A nil Snapshot is
// empty.
type Snapshot struct {
	generation uint64
	weather    map[uint64]CellWeather
	gyms       map[string]Gym
}

// Generation identifies the snapshot. Every published update increments it.
func (s *Snapshot) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation
}

// WeatherAt returns the weather of the cell containing (lat, lng).
func (s *Snapshot) WeatherAt(lat, lng float64) types.Opt[int] {
	return s.CellWeather(CellID(lat, lng))
}

// CellWeather returns the weather of a cell.
func (s *Snapshot) CellWeather(cell uint64) types.Opt[int] {
	if s == nil {
		return types.Unknown[int]()
	}
	w, ok := s.weather[cell]
	if !ok {
		return types.Unknown[int]()
	}
	return types.Known(w.WeatherID)
}

// Gym returns the cached state of a gym.
func (s *Snapshot) Gym(id string) (Gym, bool) {
	if s == nil {
		return Gym{}, false
	}
	g, ok := s.gyms[id]
	return g, ok
}

// GymSlots returns the open defender slots of a gym.
func (s *Snapshot) GymSlots(id string) types.Opt[int] {
	g, _ := s.Gym(id)
	return g.Slots
}

// GymTeam returns the controlling team of a gym.
func (s *Snapshot) GymTeam(id string) types.Opt[int] {
	g, _ := s.Gym(id)
	return g.Team
}

// Len returns the number of weather cells and gyms held.
func (s *Snapshot) Len() (cells, gyms int) {
	if s == nil {
		return 0, 0
	}
	return len(s.weather), len(s.gyms)
}

// Memory is the in-process cache.
type Memory struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[Snapshot]
	now func() time.Time
}

// NewMemory returns an empty cache stamping updates with clock.
func NewMemory(clock types.Clock) *Memory {
	if clock == nil {
		clock = types.RealClock{}
	}
	m := &Memory{now: clock.Now}
	m.cur.Store(&Snapshot{
		weather: map[uint64]CellWeather{},
		gyms:    map[string]Gym{},
	})
	return m
}

// Snapshot returns the current generation.
func (m *Memory) Snapshot() *Snapshot {
	return m.cur.Load()
}

// Update applies fn to a transaction and publishes the result if fn changed
// anything. It returns the snapshot current after the call.
func (m *Memory) Update(fn func(*Txn)) *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := m.cur.Load()
	tx := &Txn{base: base, now: m.now()}
	fn(tx)
	if !tx.dirty() {
		return base
	}

	next := &Snapshot{
		generation: base.generation + 1,
		weather:    base.weather,
		gyms:       base.gyms,
	}
	if tx.weather != nil {
		next.weather = tx.weather
	}
	if tx.gyms != nil {
		next.gyms = tx.gyms
	}
	m.cur.Store(next)
	return next
}

// Restore replaces the contents with s, as read from a FileStore, under a new
// generation.
func (m *Memory) Restore(s *Snapshot) *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	base := m.cur.Load()
	next := &Snapshot{
		generation: base.generation + 1,
		weather:    map[uint64]CellWeather{},
		gyms:       map[string]Gym{},
	}
	if s != nil {
		maps.Copy(next.weather, s.weather)
		maps.Copy(next.gyms, s.gyms)
	}
	m.cur.Store(next)
	return next
}

// Txn stages mutations against a base snapshot. Maps are copied on first
// write so the base stays untouched.
type Txn struct {
	base    *Snapshot
	now     time.Time
	weather map[uint64]CellWeather
	gyms    map[string]Gym
}

func (t *Txn) dirty() bool {
	return t.weather != nil || t.gyms != nil
}

func (t *Txn) weatherMap() map[uint64]CellWeather {
	if t.weather == nil {
		t.weather = make(map[uint64]CellWeather, len(t.base.weather)+1)
		maps.Copy(t.weather, t.base.weather)
	}
	return t.weather
}

func (t *Txn) gymMap() map[string]Gym {
	if t.gyms == nil {
		t.gyms = make(map[string]Gym, len(t.base.gyms)+1)
		maps.Copy(t.gyms, t.base.gyms)
	}
	return t.gyms
}

func (t *Txn) gym(id string) Gym {
	if t.gyms != nil {
		return t.gyms[id]
	}
	return t.base.gyms[id]
}

// SetCellWeather records the weather of a cell.
func (t *Txn) SetCellWeather(cell uint64, weatherID int) {
	t.weatherMap()[cell] = CellWeather{WeatherID: weatherID, UpdatedAt: t.now}
}

// MergeGym overlays the known fields of update onto the cached gym.
func (t *Txn) MergeGym(id string, update Gym) {
	g := t.gym(id)
	overlay(&g.Name, update.Name)
	overlay(&g.Description, update.Description)
	overlay(&g.Image, update.Image)
	overlay(&g.Park, update.Park)
	overlay(&g.Sponsor, update.Sponsor)
	overlay(&g.ExEligible, update.ExEligible)
	overlay(&g.Team, update.Team)
	overlay(&g.Slots, update.Slots)
	g.UpdatedAt = t.now
	t.gymMap()[id] = g
}

func overlay[T any](dst *types.Opt[T], src types.Opt[T]) {
	if src.IsKnown() {
		*dst = src
	}
}
