// Package gamedata holds the static game tables the event model reads from:
// species with their forms, base stats, types and evolutions, moves, weather
// boost rules and size names.
//
// Tables are immutable once loaded and safe for concurrent use. Misses are
// reported as ok=false (or Unknown) and never as errors; callers turn them into
// Unknown attributes.
package gamedata

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"pokewatch/internal/types"
)

//go:embed data/default.yaml
var defaultData []byte

// BaseStats are a species' base attack, defense and stamina.
type BaseStats struct {
	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	Stamina int `yaml:"stamina"`
}

// Form overrides a species' types, stats or shiny eligibility.
type Form struct {
	Name  string     `yaml:"name"`
	Types []int      `yaml:"types"`
	Stats *BaseStats `yaml:"stats"`
	Shiny *bool      `yaml:"shiny"`
}

// Species is one entry of the species table. Height and Weight are the
// species' base measurements in meters and kilograms.
type Species struct {
	ID         int          `yaml:"id"`
	Name       string       `yaml:"name"`
	Types      []int        `yaml:"types"`
	Stats      BaseStats    `yaml:"stats"`
	Height     float64      `yaml:"height"`
	Weight     float64      `yaml:"weight"`
	Shiny      bool         `yaml:"shiny"`
	Evolutions []int        `yaml:"evolutions"`
	Forms      map[int]Form `yaml:"forms"`
}

// Move is one entry of the move table. Duration is in milliseconds. Energy is
// the energy gained by a fast move or spent by a charged move.
type Move struct {
	ID       int     `yaml:"id"`
	Name     string  `yaml:"name"`
	Type     int     `yaml:"type"`
	Damage   float64 `yaml:"damage"`
	Duration int     `yaml:"duration"`
	Energy   int     `yaml:"energy"`
}

// DPS is damage per second of move animation.
func (m Move) DPS() float64 {
	if m.Duration <= 0 {
		return 0
	}
	return m.Damage / (float64(m.Duration) / 1000)
}

// Weather describes one weather condition and the types it boosts.
type Weather struct {
	Name   string `yaml:"name"`
	Boosts []int  `yaml:"boosts"`
}

type document struct {
	Types   map[int]string  `yaml:"types"`
	Weather map[int]Weather `yaml:"weather"`
	Sizes   map[int]string  `yaml:"sizes"`
	Species []Species       `yaml:"species"`
	Moves   []Move          `yaml:"moves"`
}

// Tables is a loaded, read-only set of game tables.
type Tables struct {
	species       map[int]*Species
	speciesByName map[string]int
	moves         map[int]*Move
	movesByName   map[string]int
	types         map[int]string
	typesByName   map[string]int
	weather       map[int]Weather
	weatherByName map[string]int
	sizes         map[int]string
	sizesByName   map[string]int
	// weather ids keyed by the type they boost
	boostedBy map[int][]int
}

// Load parses a YAML game-data document.
func Load(r io.Reader) (*Tables, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode game data: %w", err)
	}
	return build(doc)
}

// LoadFile reads a YAML game-data file from disk.
func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeConfigUnreadable, "cannot open game data file "+path, err)
	}
	defer f.Close()
	return Load(f)
}

var loadDefault = sync.OnceValues(func() (*Tables, error) {
	return Load(bytes.NewReader(defaultData))
})

// Default returns the built-in tables. It panics if the embedded document is
// invalid, which is a build defect.
func Default() *Tables {
	t, err := loadDefault()
	if err != nil {
		panic(fmt.Sprintf("gamedata: embedded tables invalid: %v", err))
	}
	return t
}

func build(doc document) (*Tables, error) {
	t := &Tables{
		species:       make(map[int]*Species, len(doc.Species)),
		speciesByName: make(map[string]int, len(doc.Species)),
		moves:         make(map[int]*Move, len(doc.Moves)),
		movesByName:   make(map[string]int, len(doc.Moves)),
		types:         doc.Types,
		typesByName:   make(map[string]int, len(doc.Types)),
		weather:       doc.Weather,
		weatherByName: make(map[string]int, len(doc.Weather)),
		sizes:         doc.Sizes,
		sizesByName:   make(map[string]int, len(doc.Sizes)),
		boostedBy:     make(map[int][]int),
	}
	if t.types == nil {
		t.types = map[int]string{}
	}
	if t.weather == nil {
		t.weather = map[int]Weather{}
	}
	if t.sizes == nil {
		t.sizes = map[int]string{}
	}

	for i := range doc.Species {
		s := doc.Species[i]
		if s.ID <= 0 {
			return nil, fmt.Errorf("species %q: id must be positive", s.Name)
		}
		if _, dup := t.species[s.ID]; dup {
			return nil, fmt.Errorf("species %d listed twice", s.ID)
		}
		if len(s.Types) == 0 || len(s.Types) > 2 {
			return nil, fmt.Errorf("species %d: expected one or two types, got %d", s.ID, len(s.Types))
		}
		t.species[s.ID] = &s
		t.speciesByName[normalizeName(s.Name)] = s.ID
	}
	for i := range doc.Moves {
		m := doc.Moves[i]
		if _, dup := t.moves[m.ID]; dup {
			return nil, fmt.Errorf("move %d listed twice", m.ID)
		}
		t.moves[m.ID] = &m
		t.movesByName[normalizeName(m.Name)] = m.ID
	}
	for id, name := range t.types {
		t.typesByName[normalizeName(name)] = id
	}
	for id, w := range t.weather {
		t.weatherByName[normalizeName(w.Name)] = id
		for _, typ := range w.Boosts {
			t.boostedBy[typ] = append(t.boostedBy[typ], id)
		}
	}
	for typ := range t.boostedBy {
		sort.Ints(t.boostedBy[typ])
	}
	for id, name := range t.sizes {
		t.sizesByName[normalizeName(name)] = id
	}
	return t, nil
}

// normalizeName folds case and treats spaces, dashes and underscores alike so
// "Partly Cloudy", "partly-cloudy" and "partly_cloudy" resolve the same.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// Species returns the species entry for id.
func (t *Tables) Species(id int) (*Species, bool) {
	s, ok := t.species[id]
	return s, ok
}

// Move returns the move entry for id.
func (t *Tables) Move(id int) (*Move, bool) {
	m, ok := t.moves[id]
	return m, ok
}

// Types returns the types of a species, honoring a form override. The result
// is nil when the species is unknown.
func (t *Tables) Types(species, form int) []int {
	s, ok := t.species[species]
	if !ok {
		return nil
	}
	if f, ok := s.Forms[form]; ok && len(f.Types) > 0 {
		return f.Types
	}
	return s.Types
}

// Stats returns base stats for a species, honoring a form override.
func (t *Tables) Stats(species, form int) (BaseStats, bool) {
	s, ok := t.species[species]
	if !ok {
		return BaseStats{}, false
	}
	if f, ok := s.Forms[form]; ok && f.Stats != nil {
		return *f.Stats, true
	}
	return s.Stats, true
}

// CanBeShiny reports shiny eligibility, Unknown when the species is not listed.
func (t *Tables) CanBeShiny(species, form int) types.Opt[bool] {
	s, ok := t.species[species]
	if !ok {
		return types.Unknown[bool]()
	}
	if f, ok := s.Forms[form]; ok && f.Shiny != nil {
		return types.Known(*f.Shiny)
	}
	return types.Known(s.Shiny)
}

// Evolutions lists the species ids a species can evolve into.
func (t *Tables) Evolutions(species int) []int {
	if s, ok := t.species[species]; ok {
		return s.Evolutions
	}
	return nil
}

// BoostSet returns the sorted weather ids that boost the species/form.
func (t *Tables) BoostSet(species, form int) []int {
	seen := map[int]bool{}
	var out []int
	for _, typ := range t.Types(species, form) {
		for _, w := range t.boostedBy[typ] {
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}
	sort.Ints(out)
	return out
}

// IsWeatherBoosted reports whether weather boosts the species/form. An Unknown
// weather id is never boosting.
func (t *Tables) IsWeatherBoosted(weather types.Opt[int], species, form int) bool {
	w, ok := weather.Get()
	if !ok {
		return false
	}
	for _, b := range t.BoostSet(species, form) {
		if b == w {
			return true
		}
	}
	return false
}

// TypeName returns the display name of a type id.
func (t *Tables) TypeName(id int) (string, bool) {
	n, ok := t.types[id]
	return n, ok
}

// WeatherName returns the display name of a weather id. Id 0 is "none".
func (t *Tables) WeatherName(id int) (string, bool) {
	if id == types.WeatherNone {
		return "none", true
	}
	w, ok := t.weather[id]
	return w.Name, ok
}

// SizeName returns the display name of a size tier.
func (t *Tables) SizeName(id int) (string, bool) {
	n, ok := t.sizes[id]
	return n, ok
}

// SpeciesName returns the name of a species.
func (t *Tables) SpeciesName(id int) (string, bool) {
	s, ok := t.species[id]
	if !ok {
		return "", false
	}
	return s.Name, true
}

// MoveName returns the name of a move.
func (t *Tables) MoveName(id int) (string, bool) {
	m, ok := t.moves[id]
	if !ok {
		return "", false
	}
	return m.Name, true
}

// Size tier ids.
const (
	SizeTiny   = 1
	SizeSmall  = 2
	SizeNormal = 3
	SizeLarge  = 4
	SizeBig    = 5
)

// SizeTier classifies a measured height and weight against the species'
// base measurements. Unknown when either measurement is Unknown or the
// species has no size data.
func (t *Tables) SizeTier(species int, height, weight types.Opt[float64]) types.Opt[int] {
	s, ok := t.species[species]
	if !ok || s.Height <= 0 || s.Weight <= 0 {
		return types.Unknown[int]()
	}
	return types.Map2(height, weight, func(h, w float64) int {
		score := h/s.Height + w/s.Weight
		switch {
		case score < 1.5:
			return SizeTiny
		case score <= 1.75:
			return SizeSmall
		case score < 2.25:
			return SizeNormal
		case score <= 2.5:
			return SizeLarge
		default:
			return SizeBig
		}
	})
}

// SpeciesID parses a species from a numeric id or a name.
func (t *Tables) SpeciesID(s string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && id > 0 {
		return id, nil
	}
	if id, ok := t.speciesByName[normalizeName(s)]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unable to interpret %q as a valid monster name or id", s)
}

// MoveID parses a move from a numeric id or a name.
func (t *Tables) MoveID(s string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && id > 0 {
		return id, nil
	}
	if id, ok := t.movesByName[normalizeName(s)]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unable to interpret %q as a valid move name or id", s)
}

// TypeID parses a type from a numeric id or a name.
func (t *Tables) TypeID(s string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if _, ok := t.types[id]; ok {
			return id, nil
		}
	}
	if id, ok := t.typesByName[normalizeName(s)]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unable to interpret %q as a valid type name or id", s)
}

// WeatherID parses a weather condition from a numeric id or a name.
func (t *Tables) WeatherID(s string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if _, ok := t.weather[id]; ok || id == types.WeatherNone {
			return id, nil
		}
	}
	n := normalizeName(s)
	if n == "none" {
		return types.WeatherNone, nil
	}
	if id, ok := t.weatherByName[n]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unable to interpret %q as a valid weather name or id", s)
}

// SizeID parses a size tier from a numeric id or a name.
func (t *Tables) SizeID(s string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if _, ok := t.sizes[id]; ok {
			return id, nil
		}
	}
	if id, ok := t.sizesByName[normalizeName(s)]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unable to interpret %q as a valid size name or id", s)
}

var teamNames = map[string]int{
	"uncontested": types.TeamUncontested,
	"neutral":     types.TeamUncontested,
	"none":        types.TeamUncontested,
	"mystic":      types.TeamMystic,
	"blue":        types.TeamMystic,
	"valor":       types.TeamValor,
	"red":         types.TeamValor,
	"instinct":    types.TeamInstinct,
	"yellow":      types.TeamInstinct,
}

// TeamID parses a team from a numeric id or a name.
func TeamID(s string) (int, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && id >= types.TeamUncontested && id <= types.TeamInstinct {
		return id, nil
	}
	if id, ok := teamNames[normalizeName(s)]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("unable to interpret %q as a valid team name or id", s)
}

// GenderSymbol maps a payload gender id (1 male, 2 female, 3 genderless) to
// its symbol.
func GenderSymbol(id types.Opt[int]) types.Opt[string] {
	v, ok := id.Get()
	if !ok {
		return types.Unknown[string]()
	}
	switch v {
	case 1:
		return types.Known(types.GenderMale)
	case 2:
		return types.Known(types.GenderFemale)
	case 3:
		return types.Known(types.GenderGenderless)
	}
	return types.Unknown[string]()
}

// ParseGender accepts a symbol, a name or a payload id.
func ParseGender(s string) (string, error) {
	switch normalizeName(s) {
	case types.GenderMale, "male", "1":
		return types.GenderMale, nil
	case types.GenderFemale, "female", "2":
		return types.GenderFemale, nil
	case types.GenderGenderless, "neutral", "genderless", "3":
		return types.GenderGenderless, nil
	}
	return "", fmt.Errorf("unable to interpret %q as a valid gender", s)
}
