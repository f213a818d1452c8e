package events

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pokewatch/internal/gamedata"
	"pokewatch/internal/types"
)

// Thresholds for the big_karp and tiny_rat badges, in kilograms.
const (
	bigKarpWeight = 13.13
	tinyRatWeight = 2.41

	speciesMagikarp = 129
	speciesRattata  = 19
)

// Attributes exports the display token set consumed by message templates.
// Times render in loc. Filter-supplied custom DTS entries are laid down first
// and overwritten by event fields of the same name.
func (e *Event) Attributes(now time.Time, loc *time.Location) map[string]any {
	if loc == nil {
		loc = time.UTC
	}
	dts := make(map[string]any, 128)
	for k, v := range e.CustomDTS {
		dts[k] = v
	}

	t := e.tables
	if t == nil {
		t = gamedata.Default()
	}
	x := exporter{dts: dts, t: t}

	dts["id"] = e.ID
	dts["lat"] = e.Lat
	dts["lng"] = e.Lng
	dts["lat_5"] = fmt.Sprintf("%.5f", e.Lat)
	dts["lng_5"] = fmt.Sprintf("%.5f", e.Lng)
	dts["distance"] = types.FormatFloat(e.Distance, 0, types.UnknownSmall)
	dts["direction"] = types.FormatString(e.Direction, types.UnknownTiny)
	dts["geofence"] = types.FormatString(e.Geofence, types.UnknownRegular)
	dts["current_timestamp_utc"] = now.UTC()
	if !e.Expiry.IsZero() {
		x.times("", e.Expiry, now, loc)
	}

	switch e.Kind {
	case types.KindMonster:
		x.monster(e.Monster)
	case types.KindRaid:
		x.raid(e.Raid)
	case types.KindEgg:
		x.egg(e.Egg, now, loc)
	case types.KindGym:
		x.gym(e.Gym)
	case types.KindWeather:
		x.weather(e.Weather)
	case types.KindQuest:
		x.quest(e.Quest)
	case types.KindInvasion:
		x.invasion(e.Invasion)
	}
	return dts
}

type exporter struct {
	dts map[string]any
	t   *gamedata.Tables
}

// times writes the countdown and clock strings for at, under an optional key
// prefix.
func (x exporter) times(prefix string, at, now time.Time, loc *time.Location) {
	left := int(at.Sub(now) / time.Second)
	if left < 0 {
		left = 0
	}
	h, m, s := left/3600, (left%3600)/60, left%60
	local := at.In(loc)

	if h > 0 {
		x.dts[prefix+"time_left"] = fmt.Sprintf("%dh %dm %ds", h, m, s)
		x.dts[prefix+"time_left_no_secs"] = fmt.Sprintf("%dh %dm", h, m)
	} else {
		x.dts[prefix+"time_left"] = fmt.Sprintf("%dm %ds", m, s)
		x.dts[prefix+"time_left_no_secs"] = fmt.Sprintf("%dm", m)
	}
	x.dts[prefix+"12h_time"] = strings.ToLower(local.Format("03:04:05PM"))
	x.dts[prefix+"24h_time"] = local.Format("15:04:05")
	x.dts[prefix+"12h_time_no_secs"] = strings.ToLower(local.Format("03:04PM"))
	x.dts[prefix+"24h_time_no_secs"] = local.Format("15:04")
	x.dts[prefix+"time_left_raw_hours"] = h
	x.dts[prefix+"time_left_raw_minutes"] = m
	x.dts[prefix+"time_left_raw_seconds"] = s
	x.dts[prefix+"time_utc"] = at.UTC()
}

func (x exporter) speciesName(id int) string {
	if n, ok := x.t.SpeciesName(id); ok {
		return n
	}
	return types.UnknownRegular.String()
}

func (x exporter) moveName(id types.Opt[int]) string {
	if v, ok := id.Get(); ok {
		if n, ok := x.t.MoveName(v); ok {
			return n
		}
	}
	return types.UnknownRegular.String()
}

func (x exporter) typeName(id types.Opt[int]) string {
	if v, ok := id.Get(); ok {
		if n, ok := x.t.TypeName(v); ok {
			return n
		}
	}
	return types.UnknownRegular.String()
}

func (x exporter) weatherName(id types.Opt[int]) types.Opt[string] {
	if v, ok := id.Get(); ok {
		if n, ok := x.t.WeatherName(v); ok {
			return types.Known(n)
		}
	}
	return types.Unknown[string]()
}

func (x exporter) species(prefix string, id, form, costume int) {
	x.dts[prefix+"mon_id"] = id
	x.dts[prefix+"mon_id_3"] = fmt.Sprintf("%03d", id)
	x.dts[prefix+"mon_name"] = x.speciesName(id)
	x.dts[prefix+"form_id"] = form
	x.dts[prefix+"form_id_2"] = fmt.Sprintf("%02d", form)
	x.dts[prefix+"form_id_3"] = fmt.Sprintf("%03d", form)
	x.dts[prefix+"costume_id"] = costume
	x.dts[prefix+"costume_id_2"] = fmt.Sprintf("%02d", costume)
	x.dts[prefix+"costume_id_3"] = fmt.Sprintf("%03d", costume)
}

func (x exporter) typeList(list []int) {
	t1, t2 := types.Unknown[int](), types.Unknown[int]()
	if len(list) > 0 {
		t1 = types.Known(list[0])
	}
	if len(list) > 1 {
		t2 = types.Known(list[1])
	}
	n1, n2 := x.typeName(t1), x.typeName(t2)
	x.dts["type1"] = n1
	x.dts["type1_or_empty"] = orEmptyName(t1, n1)
	x.dts["type2"] = n2
	x.dts["type2_or_empty"] = orEmptyName(t2, n2)
	if t2.IsKnown() {
		x.dts["types"] = n1 + "/" + n2
	} else {
		x.dts["types"] = n1
	}
}

func orEmptyName(id types.Opt[int], name string) string {
	if !id.IsKnown() {
		return ""
	}
	return name
}

func (x exporter) move(prefix string, ms MoveStats) {
	x.dts[prefix+"_move"] = x.moveName(ms.ID)
	x.dts[prefix+"_id"] = types.ExportValue(ms.ID, types.UnknownTiny)
	x.dts[prefix+"_type_id"] = types.ExportValue(ms.Type, types.UnknownTiny)
	x.dts[prefix+"_type"] = x.typeName(ms.Type)
	x.dts[prefix+"_damage"] = types.ExportValue(ms.Damage, types.UnknownTiny)
	x.dts[prefix+"_dps"] = types.FormatFloat(ms.DPS, 2, types.UnknownTiny)
	x.dts[prefix+"_duration"] = types.ExportValue(ms.Duration, types.UnknownTiny)
	x.dts[prefix+"_energy"] = types.ExportValue(ms.Energy, types.UnknownTiny)
}

func (x exporter) weatherPair(weather, boosted types.Opt[int]) {
	wn := x.weatherName(weather)
	bn := x.weatherName(boosted)
	x.dts["weather_id"] = types.ExportValue(weather, types.UnknownTiny)
	x.dts["weather"] = types.FormatString(wn, types.UnknownRegular)
	x.dts["weather_or_empty"] = types.OrEmpty(wn)
	x.dts["boosted_weather_id"] = types.ExportValue(boosted, types.UnknownTiny)
	x.dts["boosted_weather"] = types.FormatString(bn, types.UnknownRegular)

	b, ok := boosted.Get()
	isBoosted := ok && b != types.WeatherNone
	if isBoosted {
		x.dts["boosted_weather_or_empty"] = types.OrEmpty(bn)
		x.dts["boosted_or_empty"] = "boosted"
	} else {
		x.dts["boosted_weather_or_empty"] = ""
		x.dts["boosted_or_empty"] = ""
	}
}

func (x exporter) rank(prefix string, r rankView) {
	x.dts[prefix+"_mon_id"] = r.species
	x.dts[prefix+"_mon_name"] = x.speciesName(r.species)
	x.dts[prefix+"_product"] = types.FormatFloat(r.product, 2, types.UnknownSmall)
	x.dts[prefix+"_cp"] = types.ExportValue(r.cp, types.UnknownSmall)
	x.dts[prefix+"_level"] = types.ExportValue(r.level, types.UnknownSmall)
	x.dts[prefix+"_candy"] = types.ExportValue(r.candy, types.UnknownSmall)
	x.dts[prefix+"_stardust"] = types.ExportValue(r.stardust, types.UnknownSmall)
}

type rankView struct {
	species  int
	product  types.Opt[float64]
	cp       types.Opt[int]
	level    types.Opt[float64]
	candy    types.Opt[int]
	stardust types.Opt[int]
}

func (x exporter) monster(m *MonsterData) {
	d := x.dts
	x.species("", m.SpeciesID, m.FormID, m.CostumeID)

	d["spawn_start"] = types.ExportValue(m.SpawnStart, types.UnknownRegular)
	d["spawn_end"] = types.ExportValue(m.SpawnEnd, types.UnknownRegular)
	d["spawn_verified"] = types.ExportValue(types.Map(m.SpawnVerified, func(v int) bool { return v > 0 }), types.UnknownRegular)
	d["spawnpoint_id"] = types.FormatString(m.SpawnpointID, types.UnknownRegular)

	x.weatherPair(m.WeatherID, m.BoostedWeatherID)

	d["mon_lvl"] = types.ExportValue(m.Level, types.UnknownTiny)
	d["cp"] = types.ExportValue(m.CP, types.UnknownTiny)
	d["iv_0"] = types.FormatFloat(m.IV, 0, types.UnknownTiny)
	d["iv"] = types.FormatFloat(m.IV, 1, types.UnknownSmall)
	d["iv_2"] = types.FormatFloat(m.IV, 2, types.UnknownSmall)
	d["atk"] = types.ExportValue(m.Attack, types.UnknownTiny)
	d["def"] = types.ExportValue(m.Defense, types.UnknownTiny)
	d["sta"] = types.ExportValue(m.Stamina, types.UnknownTiny)

	x.rank("great", rankView{m.Great.Species, m.Great.Product, m.Great.CP, m.Great.Level, m.Great.Candy, m.Great.Stardust})
	x.rank("ultra", rankView{m.Ultra.Species, m.Ultra.Product, m.Ultra.CP, m.Ultra.Level, m.Ultra.Candy, m.Ultra.Stardust})

	x.typeList(m.Types)
	x.move("quick", m.Quick)
	x.move("charge", m.Charge)

	d["gender"] = types.FormatString(m.Gender, types.UnknownTiny)
	d["height_0"] = types.FormatFloat(m.Height, 0, types.UnknownTiny)
	d["height"] = types.FormatFloat(m.Height, 1, types.UnknownSmall)
	d["height_2"] = types.FormatFloat(m.Height, 2, types.UnknownSmall)
	d["weight_0"] = types.FormatFloat(m.Weight, 0, types.UnknownTiny)
	d["weight"] = types.FormatFloat(m.Weight, 1, types.UnknownSmall)
	d["weight_2"] = types.FormatFloat(m.Weight, 2, types.UnknownSmall)
	d["size_id"] = types.ExportValue(m.SizeID, types.UnknownSmall)
	d["size"] = types.UnknownSmall.String()
	if id, ok := m.SizeID.Get(); ok {
		if n, ok := x.t.SizeName(id); ok {
			d["size"] = n
		}
	}
	d["can_be_shiny"] = types.ExportValue(m.CanBeShiny, types.UnknownRegular)

	x.species("display_", m.DisplaySpeciesID, m.DisplayFormID, m.DisplayCostumeID)
	d["display_gender"] = types.FormatString(m.DisplayGender, types.UnknownTiny)

	d["atk_grade"] = types.FormatString(m.AttackGrade, types.UnknownTiny)
	d["def_grade"] = types.FormatString(m.DefenseGrade, types.UnknownTiny)
	d["rarity_id"] = types.ExportValue(m.Rarity, types.UnknownTiny)

	for _, c := range []struct {
		name string
		v    types.Opt[float64]
	}{{"base_catch", m.BaseCatch}, {"great_catch", m.GreatCatch}, {"ultra_catch", m.UltraCatch}} {
		pct := types.Map(c.v, func(f float64) float64 { return f * 100 })
		d[c.name+"_0"] = types.FormatFloat(pct, 0, types.UnknownTiny)
		d[c.name] = types.FormatFloat(pct, 1, types.UnknownSmall)
		d[c.name+"_2"] = types.FormatFloat(pct, 2, types.UnknownSmall)
	}

	d["big_karp"] = ""
	if w, ok := m.Weight.Get(); ok && m.SpeciesID == speciesMagikarp && w >= bigKarpWeight {
		d["big_karp"] = "big"
	}
	d["tiny_rat"] = ""
	if w, ok := m.Weight.Get(); ok && m.SpeciesID == speciesRattata && w <= tinyRatWeight {
		d["tiny_rat"] = "tiny"
	}
}

func (x exporter) gymInfo(g GymInfo) {
	d := x.dts
	d["gym_id"] = g.GymID
	d["gym_name"] = types.FormatString(g.Name, types.UnknownRegular)
	d["gym_description"] = types.FormatString(g.Description, types.UnknownRegular)
	d["gym_image"] = types.FormatString(g.Image, types.UnknownRegular)
	d["park"] = types.FormatString(g.Park, types.UnknownRegular)
	d["sponsor_id"] = types.ExportValue(g.Sponsor, types.UnknownTiny)
	d["sponsored"] = types.ExportValue(g.Sponsored(), types.UnknownRegular)
	d["ex_eligible"] = types.ExportValue(g.ExEligible, types.UnknownRegular)
	d["slots_available"] = types.ExportValue(g.SlotsAvailable, types.UnknownTiny)
	d["guard_count"] = types.ExportValue(g.GuardCount, types.UnknownTiny)
}

func teamName(id types.Opt[int]) string {
	v, ok := id.Get()
	if !ok {
		return types.UnknownRegular.String()
	}
	switch v {
	case types.TeamMystic:
		return "Mystic"
	case types.TeamValor:
		return "Valor"
	case types.TeamInstinct:
		return "Instinct"
	case types.TeamUncontested:
		return "Uncontested"
	}
	return types.UnknownRegular.String()
}

func (x exporter) raid(r *RaidData) {
	d := x.dts
	x.gymInfo(r.GymInfo)
	x.species("", r.SpeciesID, r.FormID, r.CostumeID)
	d["raid_lvl"] = r.Level
	d["cp"] = r.CP
	d["min_cp"] = types.ExportValue(r.MinCP, types.UnknownSmall)
	d["max_cp"] = types.ExportValue(r.MaxCP, types.UnknownSmall)
	d["boss_level"] = r.BossLevel
	d["evolution_id"] = r.EvolutionID
	d["gender"] = types.FormatString(r.Gender, types.UnknownTiny)
	d["can_be_shiny"] = types.ExportValue(r.CanBeShiny, types.UnknownRegular)
	d["team_id"] = types.ExportValue(r.TeamID, types.UnknownTiny)
	d["team_name"] = teamName(r.TeamID)
	x.typeList(r.Types)
	x.move("quick", r.Quick)
	x.move("charge", r.Charge)
	x.weatherPair(r.WeatherID, r.BoostedWeatherID)
}

func (x exporter) egg(g *EggData, now time.Time, loc *time.Location) {
	d := x.dts
	x.gymInfo(g.GymInfo)
	d["egg_lvl"] = g.Level
	d["team_id"] = types.ExportValue(g.TeamID, types.UnknownTiny)
	d["team_name"] = teamName(g.TeamID)
	d["weather_id"] = types.ExportValue(g.WeatherID, types.UnknownTiny)
	d["weather"] = types.FormatString(x.weatherName(g.WeatherID), types.UnknownRegular)
	x.times("hatch_", g.Hatch, now, loc)
}

func (x exporter) gym(g *GymData) {
	d := x.dts
	x.gymInfo(g.GymInfo)
	d["old_team_id"] = types.ExportValue(g.OldTeamID, types.UnknownTiny)
	d["old_team"] = teamName(g.OldTeamID)
	d["new_team_id"] = g.NewTeamID
	d["new_team"] = teamName(types.Known(g.NewTeamID))
}

func (x exporter) weather(w *WeatherData) {
	d := x.dts
	id := types.Known(w.WeatherID)
	d["s2_cell_id"] = strconv.FormatUint(w.CellID, 10)
	d["weather_id"] = w.WeatherID
	d["weather"] = types.FormatString(x.weatherName(id), types.UnknownRegular)
	d["severity_id"] = types.ExportValue(w.Severity, types.UnknownTiny)
	d["warning"] = types.ExportValue(w.Warning, types.UnknownRegular)
	d["day_or_night_id"] = types.ExportValue(w.DayOrNight, types.UnknownTiny)
}

func (x exporter) quest(q *QuestData) {
	d := x.dts
	d["stop_id"] = q.StopID
	d["stop_name"] = types.FormatString(q.StopName, types.UnknownRegular)
	d["stop_image"] = types.FormatString(q.StopImage, types.UnknownRegular)
	d["quest_task"] = types.FormatString(q.Task, types.UnknownRegular)
	d["reward_type_id"] = types.ExportValue(q.RewardType, types.UnknownTiny)
	d["item_id"] = types.ExportValue(q.ItemID, types.UnknownTiny)
	d["item_amount"] = types.ExportValue(q.ItemAmount, types.UnknownTiny)
	d["mon_id"] = types.ExportValue(q.RewardMonID, types.UnknownTiny)
	d["form_id"] = types.ExportValue(q.RewardForm, types.UnknownTiny)
	if id, ok := q.RewardMonID.Get(); ok {
		d["mon_name"] = x.speciesName(id)
	}
}

func (x exporter) invasion(inv *InvasionData) {
	d := x.dts
	d["stop_id"] = inv.StopID
	d["stop_name"] = types.FormatString(inv.StopName, types.UnknownRegular)
	d["stop_image"] = types.FormatString(inv.StopImage, types.UnknownRegular)
	d["grunt_type_id"] = types.ExportValue(inv.GruntType, types.UnknownTiny)
	d["gender"] = types.FormatString(inv.Gender, types.UnknownTiny)
}
