package export

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/darkcaves/dragonites/pkg/models"
)

func sampleBlock() models.StatBlock {
	return models.StatBlock{
		Abilities: models.AbilityScores{
			Strength: 11, Dexterity: 9, Constitution: 8,
			Intelligence: 13, Wisdom: 20, Charisma: 12,
		},
		ArmorClass:      12,
		HitPoints:       400,
		Speed:           34,
		Skills:          []models.Skill{},
		Resistances:     []models.DamageType{models.DamageGrass},
		Vulnerabilities: []models.DamageType{},
		Actions:         []models.Action{},
		ChallengeRating: 0.5,
	}
}

func TestExportText(t *testing.T) {
	got, err := Export(sampleBlock(), "text")
	if err != nil {
		t.Fatal(err)
	}
	want := `
=== D&D 5e Stat Block ===

Ability Scores:
STR: 11 (+0)  DEX: 9 (+0)  CON: 8 (-1)
INT: 13 (+1)  WIS: 20 (+5)  CHA: 12 (+1)

Armor Class: 12
Hit Points: 400
Speed: 34 ft.
Challenge Rating: 0.5

Damage Resistances: 1 types
Damage Vulnerabilities: None

Actions: 0 actions available
`
	if got != want {
		t.Errorf("unexpected text export:\n%s\nwant:\n%s", got, want)
	}
}

func TestExportJSON(t *testing.T) {
	got, err := Export(sampleBlock(), "JSON")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "\n  \"ability_scores\": {\n    \"strength\": 11,") {
		t.Errorf("expected two-space indentation, got:\n%s", got)
	}

	var back models.StatBlock
	if err := json.Unmarshal([]byte(got), &back); err != nil {
		t.Fatal(err)
	}
	if back.HitPoints != 400 || back.ChallengeRating != 0.5 || back.Resistances[0] != models.DamageGrass {
		t.Errorf("unexpected decoded block %+v", back)
	}
}

func TestExportUnsupported(t *testing.T) {
	_, err := Export(sampleBlock(), "xml")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFormatCR(t *testing.T) {
	cases := map[float64]string{0: "0", 0.25: "0.25", 0.5: "0.5", 2: "2", 12.75: "12.75"}
	for in, want := range cases {
		if got := FormatCR(in); got != want {
			t.Errorf("FormatCR(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"bulbasaur": "Bulbasaur",
		"mr-mime":   "Mr Mime",
		"ho-oh":     "Ho Oh",
	}
	for in, want := range cases {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
