package events

import (
	"fmt"
	"strconv"

	"pokewatch/internal/cache"
	"pokewatch/internal/gamedata"
	"pokewatch/internal/pvp"
	"pokewatch/internal/types"
)

// Raid boss levels. Weather boosted bosses are caught at the higher level.
const (
	BossLevel        = 20
	BoostedBossLevel = 25
)

// Normalizer turns raw payloads into Events. It is safe for concurrent use.
type Normalizer struct {
	GameData *gamedata.Tables
	Ranker   pvp.Ranker
	Clock    types.Clock
}

// NewNormalizer wires a Normalizer. A nil ranker uses pvp.Calculator and a
// nil clock uses the system clock.
func NewNormalizer(tables *gamedata.Tables, ranker pvp.Ranker, clock types.Clock) *Normalizer {
	if tables == nil {
		tables = gamedata.Default()
	}
	if ranker == nil {
		ranker = pvp.NewCalculator(tables)
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Normalizer{GameData: tables, Ranker: ranker, Clock: clock}
}

// KindFromWebhook maps a webhook message type to an event kind. Raids without
// a boss are eggs.
func KindFromWebhook(typ string, msg map[string]any) (types.EventKind, bool) {
	switch typ {
	case "pokemon":
		return types.KindMonster, true
	case "raid":
		if id, ok := toInt(msg["pokemon_id"]); ok && id > 0 {
			return types.KindRaid, true
		}
		return types.KindEgg, true
	case "gym", "gym_details":
		return types.KindGym, true
	case "weather":
		return types.KindWeather, true
	case "quest":
		return types.KindQuest, true
	case "invasion":
		return types.KindInvasion, true
	}
	return "", false
}

// Normalize builds an Event of kind from raw. A missing or untypeable
// required field fails with a payload_ AppError naming the field.
func (n *Normalizer) Normalize(kind types.EventKind, raw map[string]any) (*Event, error) {
	p := payload{kind: kind, raw: raw}

	var (
		e   *Event
		err error
	)
	switch kind {
	case types.KindMonster:
		e, err = n.monster(p)
	case types.KindRaid:
		e, err = n.raid(p)
	case types.KindEgg:
		e, err = n.egg(p)
	case types.KindGym:
		e, err = n.gym(p)
	case types.KindWeather:
		e, err = n.weather(p)
	case types.KindQuest:
		e, err = n.quest(p)
	case types.KindInvasion:
		e, err = n.invasion(p)
	default:
		return nil, types.NewAppErrorWithDetails(types.ErrCodePayloadUnknownKind,
			fmt.Sprintf("unknown event kind %q", kind), nil, map[string]any{"kind": string(kind)})
	}
	if err != nil {
		return nil, err
	}
	e.Kind = kind
	e.Received = n.Clock.Now()
	e.tables = n.GameData
	return e, nil
}

func (n *Normalizer) located(p payload, id string) (*Event, error) {
	lat, err := p.reqFloat("latitude")
	if err != nil {
		return nil, err
	}
	lng, err := p.reqFloat("longitude")
	if err != nil {
		return nil, err
	}
	if err := types.ValidateCoordinate(lat, lng); err != nil {
		return nil, p.invalid("latitude", fmt.Sprintf("%v,%v", lat, lng), "coordinate")
	}
	return &Event{ID: id, Lat: lat, Lng: lng}, nil
}

func (n *Normalizer) monster(p payload) (*Event, error) {
	id, err := p.reqString("encounter_id")
	if err != nil {
		return nil, err
	}
	species, err := p.reqInt("pokemon_id")
	if err != nil {
		return nil, err
	}
	expiry, err := p.reqTime("disappear_time")
	if err != nil {
		return nil, err
	}
	e, err := n.located(p, id)
	if err != nil {
		return nil, err
	}
	e.Expiry = expiry

	m := &MonsterData{
		SpeciesID: species,
		FormID:    p.intOr(0, "form"),
		CostumeID: p.intOr(0, "costume"),

		Level: p.optInt("pokemon_level"),
		CP:    p.optInt("cp"),

		SpawnStart:    p.optInt("spawn_start"),
		SpawnEnd:      p.optInt("spawn_end"),
		SpawnVerified: p.optInt("verified", "disappear_time_verified"),
		SpawnpointID:  p.optString("spawnpoint_id"),

		BaseCatch:  p.optFloat("base_catch", "capture_1"),
		GreatCatch: p.optFloat("great_catch", "capture_2"),
		UltraCatch: p.optFloat("ultra_catch", "capture_3"),

		Rarity:       p.optInt("rarity"),
		AttackGrade:  p.optString("atk_grade"),
		DefenseGrade: p.optString("def_grade"),

		Gender: gamedata.GenderSymbol(p.optInt("gender")),
		Height: p.optFloat("height"),
		Weight: p.optFloat("weight"),

		DisplaySpeciesID: p.intOr(0, "display_pokemon_id"),
		DisplayFormID:    p.intOr(0, "display_form"),
		DisplayCostumeID: p.intOr(0, "display_costume"),
		DisplayGender:    gamedata.GenderSymbol(p.optInt("display_gender")),
	}

	for _, iv := range []struct {
		key string
		dst *types.Opt[int]
	}{
		{"individual_attack", &m.Attack},
		{"individual_defense", &m.Defense},
		{"individual_stamina", &m.Stamina},
	} {
		v := p.optInt(iv.key)
		if x, ok := v.Get(); ok && !types.ValidIV(x) {
			return nil, p.invalid(iv.key, x, "individual value 0-15")
		}
		*iv.dst = v
	}
	m.IV = types.Map3(m.Attack, m.Defense, m.Stamina, func(a, d, s int) float64 {
		return 100 * float64(a+d+s) / 45
	})

	m.Great, m.Ultra = pvp.UnknownRank(species), pvp.UnknownRank(species)
	if a, d, s, ok := allKnown(m.Attack, m.Defense, m.Stamina); ok {
		lvl := types.Map(m.Level, func(l int) float64 { return float64(l) })
		r := n.Ranker.Rank(species, m.FormID, a, d, s, lvl)
		m.Great, m.Ultra = r.Great, r.Ultra
	}

	m.Quick = moveStats(n.GameData, p.optInt("move_1"))
	m.Charge = moveStats(n.GameData, p.optInt("move_2"))

	m.SizeID = n.GameData.SizeTier(species, m.Height, m.Weight)
	m.Types = n.GameData.Types(species, m.FormID)
	m.CanBeShiny = n.GameData.CanBeShiny(species, m.FormID)

	m.WeatherID = p.optInt("weather")
	m.BoostedWeatherID = boostedWeather(n.GameData, m.WeatherID, species, m.FormID)

	e.Monster = m
	return e, nil
}

func allKnown(a, d, s types.Opt[int]) (int, int, int, bool) {
	av, aok := a.Get()
	dv, dok := d.Get()
	sv, sok := s.Get()
	return av, dv, sv, aok && dok && sok
}

func (n *Normalizer) gymInfo(p payload, id string) GymInfo {
	g := GymInfo{
		GymID:          id,
		Name:           p.optString("name", "gym_name"),
		Description:    p.optString("description"),
		Image:          p.optString("url"),
		Park:           p.optString("park"),
		Sponsor:        p.optInt("sponsor", "sponsor_id"),
		ExEligible:     p.optBool("is_ex_raid_eligible", "ex_raid_eligible"),
		SlotsAvailable: p.optInt("slots_available"),
	}
	g.GuardCount = guardCount(g.SlotsAvailable)
	return g
}

func guardCount(slots types.Opt[int]) types.Opt[int] {
	return types.Map(slots, func(s int) int { return types.GymSlots - s })
}

func (n *Normalizer) raid(p payload) (*Event, error) {
	gymID, err := p.reqString("gym_id")
	if err != nil {
		return nil, err
	}
	expiry, err := p.reqTime("end", "raid_end")
	if err != nil {
		return nil, err
	}
	level, err := p.reqInt("level")
	if err != nil {
		return nil, err
	}
	species, err := p.reqInt("pokemon_id")
	if err != nil {
		return nil, err
	}
	cp, err := p.reqInt("cp")
	if err != nil {
		return nil, err
	}
	e, err := n.located(p, gymID)
	if err != nil {
		return nil, err
	}
	e.Expiry = expiry

	r := &RaidData{
		GymInfo:     n.gymInfo(p, gymID),
		Level:       level,
		SpeciesID:   species,
		FormID:      p.intOr(0, "form"),
		CostumeID:   p.intOr(0, "costume"),
		EvolutionID: p.intOr(0, "evolution"),
		CP:          cp,
		Gender:      gamedata.GenderSymbol(p.optInt("gender")),
		TeamID:      p.optInt("team_id", "team"),
		WeatherID:   p.optInt("weather"),
	}
	r.Types = n.GameData.Types(species, r.FormID)
	r.CanBeShiny = n.GameData.CanBeShiny(species, r.FormID)
	r.Quick = moveStats(n.GameData, p.optInt("move_1"))
	r.Charge = moveStats(n.GameData, p.optInt("move_2"))
	r.applyWeather(n.GameData)

	e.Raid = r
	return e, nil
}

// applyWeather derives the boosted weather, boss level and CP range from the
// current weather id.
func (r *RaidData) applyWeather(t *gamedata.Tables) {
	r.BoostedWeatherID = boostedWeather(t, r.WeatherID, r.SpeciesID, r.FormID)
	r.BossLevel = BossLevel
	if b, ok := r.BoostedWeatherID.Get(); ok && b != types.WeatherNone {
		r.BossLevel = BoostedBossLevel
	}
	r.MinCP, r.MaxCP = t.CPRange(r.SpeciesID, r.FormID, float64(r.BossLevel))
}

func (n *Normalizer) egg(p payload) (*Event, error) {
	gymID, err := p.reqString("gym_id")
	if err != nil {
		return nil, err
	}
	hatch, err := p.reqTime("start", "raid_begin")
	if err != nil {
		return nil, err
	}
	expiry, err := p.reqTime("end", "raid_end")
	if err != nil {
		return nil, err
	}
	level, err := p.reqInt("level")
	if err != nil {
		return nil, err
	}
	e, err := n.located(p, gymID)
	if err != nil {
		return nil, err
	}
	e.Expiry = expiry
	e.Egg = &EggData{
		GymInfo:   n.gymInfo(p, gymID),
		Level:     level,
		Hatch:     hatch,
		WeatherID: p.optInt("weather"),
		TeamID:    p.optInt("team_id", "team"),
	}
	return e, nil
}

func (n *Normalizer) gym(p payload) (*Event, error) {
	gymID, err := p.reqString("gym_id", "id")
	if err != nil {
		return nil, err
	}
	team, err := p.reqInt("team_id", "team")
	if err != nil {
		return nil, err
	}
	e, err := n.located(p, gymID)
	if err != nil {
		return nil, err
	}
	e.Gym = &GymData{
		GymInfo:   n.gymInfo(p, gymID),
		NewTeamID: team,
	}
	return e, nil
}

func (n *Normalizer) weather(p payload) (*Event, error) {
	lat, err := p.reqFloat("latitude")
	if err != nil {
		return nil, err
	}
	lng, err := p.reqFloat("longitude")
	if err != nil {
		return nil, err
	}
	condition, err := p.reqInt("gameplay_condition", "condition", "weather")
	if err != nil {
		return nil, err
	}

	cell := cache.CellID(lat, lng)
	if id, ok := p.optString("s2_cell_id").Get(); ok && id != "" {
		parsed, perr := strconv.ParseUint(id, 10, 64)
		if perr != nil {
			return nil, p.invalid("s2_cell_id", id, "cell id")
		}
		cell = parsed
	}

	e, err := n.located(p, strconv.FormatUint(cell, 10))
	if err != nil {
		return nil, err
	}
	e.Weather = &WeatherData{
		CellID:     cell,
		WeatherID:  condition,
		Severity:   p.optInt("severity"),
		Warning:    p.optBool("warn_weather", "warning"),
		DayOrNight: p.optInt("world_time", "day"),
	}
	return e, nil
}

func (n *Normalizer) quest(p payload) (*Event, error) {
	stopID, err := p.reqString("pokestop_id")
	if err != nil {
		return nil, err
	}
	e, err := n.located(p, stopID)
	if err != nil {
		return nil, err
	}
	e.Expiry = p.optTime("expiration", "quest_expiration")
	e.Quest = &QuestData{
		StopID:      stopID,
		StopName:    p.optString("name", "pokestop_name"),
		StopImage:   p.optString("url", "pokestop_url"),
		Task:        p.optString("quest_task", "task"),
		RewardType:  p.optInt("quest_reward_type", "reward_type"),
		ItemID:      p.optInt("item_id", "quest_item_id"),
		ItemAmount:  p.optInt("item_amount", "quest_reward_amount"),
		RewardMonID: p.optInt("pokemon_id", "quest_pokemon_id"),
		RewardForm:  p.optInt("form", "quest_pokemon_form_id"),
	}
	return e, nil
}

func (n *Normalizer) invasion(p payload) (*Event, error) {
	stopID, err := p.reqString("pokestop_id")
	if err != nil {
		return nil, err
	}
	expiry, err := p.reqTime("incident_expiration", "incident_expire_timestamp")
	if err != nil {
		return nil, err
	}
	e, err := n.located(p, stopID)
	if err != nil {
		return nil, err
	}
	e.Expiry = expiry
	e.Invasion = &InvasionData{
		StopID:    stopID,
		StopName:  p.optString("name", "pokestop_name"),
		StopImage: p.optString("url", "pokestop_url"),
		GruntType: p.optInt("incident_grunt_type", "grunt_type"),
		Gender:    gamedata.GenderSymbol(p.optInt("gender")),
	}
	return e, nil
}

// boostedWeather is the weather id when it boosts the species, 0 when the
// weather is known but not boosting, and Unknown when the weather is Unknown.
func boostedWeather(t *gamedata.Tables, weather types.Opt[int], species, form int) types.Opt[int] {
	w, ok := weather.Get()
	if !ok {
		return types.Unknown[int]()
	}
	if t.IsWeatherBoosted(weather, species, form) {
		return types.Known(w)
	}
	return types.Known(types.WeatherNone)
}

func moveStats(t *gamedata.Tables, id types.Opt[int]) MoveStats {
	ms := MoveStats{ID: id}
	v, ok := id.Get()
	if !ok {
		return ms
	}
	m, ok := t.Move(v)
	if !ok {
		return ms
	}
	ms.Type = types.Known(m.Type)
	ms.Damage = types.Known(m.Damage)
	ms.DPS = types.Known(m.DPS())
	ms.Duration = types.Known(m.Duration)
	ms.Energy = types.Known(m.Energy)
	return ms
}
