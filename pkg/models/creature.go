package models

import "strings"

// MaxMoves bounds how many moves a CreatureRecord carries.
const MaxMoves = 20

// CreatureRecord is the canonical representation of one species.
type CreatureRecord struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	BaseStats BaseStats    `json:"base_stats"`
	Types     []TypeTag    `json:"types"`
	Moves     []MoveRef    `json:"moves"`
	Abilities []AbilityRef `json:"abilities"`
	Images    ImageSet     `json:"sprites"`
}

// BaseStats holds the six base stats. Missing upstream values are stored as 0.
type BaseStats struct {
	HP             int `json:"hp"`
	Attack         int `json:"attack"`
	Defense        int `json:"defense"`
	SpecialAttack  int `json:"special_attack"`
	SpecialDefense int `json:"special_defense"`
	Speed          int `json:"speed"`
}

// Total returns the sum of all six base stats.
func (s BaseStats) Total() int {
	return s.HP + s.Attack + s.Defense + s.SpecialAttack + s.SpecialDefense + s.Speed
}

// TypeTag is an elemental type in slot order.
type TypeTag struct {
	Name string `json:"name"`
	Slot int    `json:"slot"`
}

// MoveRef names a learnable move.
type MoveRef struct {
	Name string `json:"name"`
}

// AbilityRef names an ability and the slot it occupies.
type AbilityRef struct {
	Name   string `json:"name"`
	Hidden bool   `json:"is_hidden"`
	Slot   int    `json:"slot"`
}

// ImageSet holds optional sprite URLs.
type ImageSet struct {
	FrontDefault *string `json:"front_default,omitempty"`
	FrontShiny   *string `json:"front_shiny,omitempty"`
	BackDefault  *string `json:"back_default,omitempty"`
	BackShiny    *string `json:"back_shiny,omitempty"`
	Artwork      *string `json:"official_artwork,omitempty"`
}

// HasType reports whether the record carries the named type, ignoring case.
func (c CreatureRecord) HasType(name string) bool {
	for _, t := range c.Types {
		if strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}
