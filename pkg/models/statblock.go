package models

// DamageType is one of the closed set of elemental damage types.
type DamageType string

const (
	DamageFire     DamageType = "Fire"
	DamageWater    DamageType = "Water"
	DamageGrass    DamageType = "Grass"
	DamageElectric DamageType = "Electric"
	DamagePsychic  DamageType = "Psychic"
	DamageIce      DamageType = "Ice"
	DamageDragon   DamageType = "Dragon"
	DamageDark     DamageType = "Dark"
	DamageFighting DamageType = "Fighting"
	DamagePoison   DamageType = "Poison"
	DamageGround   DamageType = "Ground"
	DamageFlying   DamageType = "Flying"
	DamageBug      DamageType = "Bug"
	DamageRock     DamageType = "Rock"
	DamageGhost    DamageType = "Ghost"
	DamageSteel    DamageType = "Steel"
	DamageFairy    DamageType = "Fairy"
	DamageNormal   DamageType = "Normal"
)

// StatBlock is a tabletop stat block derived from a CreatureRecord and a level.
// It is recomputed on demand and never persisted.
type StatBlock struct {
	Abilities       AbilityScores `json:"ability_scores"`
	ArmorClass      int           `json:"armor_class"`
	HitPoints       int           `json:"hit_points"`
	Speed           int           `json:"speed"`
	Skills          []Skill       `json:"skills"`
	Resistances     []DamageType  `json:"resistances"`
	Vulnerabilities []DamageType  `json:"vulnerabilities"`
	Actions         []Action      `json:"actions"`
	ChallengeRating float64       `json:"challenge_rating"`
}

// AbilityScores are the six ability scores, each in [8, 20].
type AbilityScores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// Skill is a proficiency line on a stat block.
type Skill struct {
	Name       string `json:"name"`
	Modifier   int    `json:"modifier"`
	Proficient bool   `json:"proficient"`
}

// Action is an attack or ability usable on the creature's turn.
type Action struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	AttackBonus *int        `json:"attack_bonus,omitempty"`
	DamageDice  *string     `json:"damage_dice,omitempty"`
	DamageType  *DamageType `json:"damage_type,omitempty"`
	Range       *string     `json:"range,omitempty"`
	Recharge    *string     `json:"recharge,omitempty"`
}
