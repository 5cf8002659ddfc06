// Package convert derives tabletop stat blocks from creature records.
//
// Every function here is pure: the same record and level always produce the
// same StatBlock. Integer division truncates toward zero, so a score of 9
// yields a modifier of 0 rather than -1.
package convert

import (
	"math"
	"strings"

	"github.com/darkcaves/dragonites/pkg/models"
)

// MaxLevel is the highest level Convert computes; larger levels are clamped.
const MaxLevel = 255

const (
	minScore   = 8
	maxScore   = 20
	statWeight = 0.08
	levelPivot = 50.0

	hitDie       = 8
	baseAC       = 10
	maxNatural   = 5
	baseSpeed    = 30
	maxSpeedBump = 20
	statTotalCap = 600.0
)

var resistanceTable = map[string][]models.DamageType{
	"fire":     {models.DamageFire},
	"water":    {models.DamageWater},
	"grass":    {models.DamageGrass},
	"electric": {models.DamageElectric},
	"steel":    {models.DamageSteel, models.DamagePoison},
}

var vulnerabilityTable = map[string][]models.DamageType{
	"fire":  {models.DamageWater},
	"water": {models.DamageElectric},
	"grass": {models.DamageFire},
	"ice":   {models.DamageFire},
}

// Convert builds a StatBlock for rec at the given level. Negative levels are
// treated as 0 and levels above MaxLevel as MaxLevel.
func Convert(rec models.CreatureRecord, level int) models.StatBlock {
	level = min(max(level, 0), MaxLevel)
	stats := rec.BaseStats
	return models.StatBlock{
		Abilities:       Abilities(stats, level),
		ArmorClass:      ArmorClass(stats),
		HitPoints:       HitPoints(stats, level),
		Speed:           Speed(stats),
		Skills:          []models.Skill{},
		Resistances:     Resistances(rec.Types),
		Vulnerabilities: Vulnerabilities(rec.Types),
		Actions:         []models.Action{},
		ChallengeRating: ChallengeRating(stats, level),
	}
}

// LevelFactor is the multiplier applied to base stats at a level.
func LevelFactor(level int) float64 {
	return float64(level) / levelPivot
}

// ScaleStat maps a base stat onto the [8, 20] ability score range, truncating.
func ScaleStat(base int, factor float64) int {
	scaled := float64(base)*factor*statWeight + minScore
	scaled = math.Min(maxScore, math.Max(minScore, scaled))
	return int(scaled)
}

// Modifier returns (score-10)/2 truncated toward zero.
func Modifier(score int) int {
	return (score - 10) / 2
}

// Abilities maps base stats to the six ability scores.
func Abilities(stats models.BaseStats, level int) models.AbilityScores {
	f := LevelFactor(level)
	return models.AbilityScores{
		Strength:     ScaleStat(stats.Attack, f),
		Dexterity:    ScaleStat(stats.Speed, f),
		Constitution: ScaleStat(stats.HP, f),
		Intelligence: ScaleStat(stats.SpecialAttack, f),
		Wisdom:       ScaleStat(stats.SpecialDefense, f),
		Charisma:     ScaleStat((stats.Attack+stats.SpecialAttack)/2, f),
	}
}

// HitPoints is level d8s plus the constitution modifier per level, at least 1.
func HitPoints(stats models.BaseStats, level int) int {
	con := Modifier(ScaleStat(stats.HP, LevelFactor(level)))
	return max(1, level*hitDie+con*level)
}

// ArmorClass is 10 plus the unscaled dexterity modifier plus natural armor, at least 10.
func ArmorClass(stats models.BaseStats) int {
	dex := Modifier(ScaleStat(stats.Speed, 1.0))
	natural := min(maxNatural, stats.Defense/20)
	return max(baseAC, baseAC+dex+natural)
}

// Speed is 30 ft. plus a tenth of the speed stat, capped at +20.
func Speed(stats models.BaseStats) int {
	return baseSpeed + min(maxSpeedBump, stats.Speed/10)
}

// ChallengeRating scales the base stat total by level and rounds half-up to a quarter.
func ChallengeRating(stats models.BaseStats, level int) float64 {
	base := float64(stats.Total()) / statTotalCap * LevelFactor(level)
	return math.Round(base*4) / 4
}

// Resistances looks up damage resistances for each type tag.
// Duplicates are kept when several tags grant the same resistance.
func Resistances(types []models.TypeTag) []models.DamageType {
	return lookup(resistanceTable, types)
}

// Vulnerabilities looks up damage vulnerabilities for each type tag.
func Vulnerabilities(types []models.TypeTag) []models.DamageType {
	return lookup(vulnerabilityTable, types)
}

func lookup(table map[string][]models.DamageType, types []models.TypeTag) []models.DamageType {
	out := []models.DamageType{}
	for _, t := range types {
		out = append(out, table[strings.ToLower(t.Name)]...)
	}
	return out
}
