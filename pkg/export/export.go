// Package export renders stat blocks for humans and other tools.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/darkcaves/dragonites/pkg/models"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// ErrUnsupportedFormat is returned for any format other than json or text.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Export renders block in the named format.
func Export(block models.StatBlock, format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		data, err := json.MarshalIndent(block, "", "  ")
		if err != nil {
			return "", fmt.Errorf("export json: %w", err)
		}
		return string(data), nil
	case FormatText:
		return Text(block), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Text renders the plain-text stat block.
func Text(block models.StatBlock) string {
	a := block.Abilities
	var b strings.Builder
	b.WriteString("\n=== D&D 5e Stat Block ===\n\n")
	b.WriteString("Ability Scores:\n")
	fmt.Fprintf(&b, "STR: %s  DEX: %s  CON: %s\n", score(a.Strength), score(a.Dexterity), score(a.Constitution))
	fmt.Fprintf(&b, "INT: %s  WIS: %s  CHA: %s\n\n", score(a.Intelligence), score(a.Wisdom), score(a.Charisma))
	fmt.Fprintf(&b, "Armor Class: %d\n", block.ArmorClass)
	fmt.Fprintf(&b, "Hit Points: %d\n", block.HitPoints)
	fmt.Fprintf(&b, "Speed: %d ft.\n", block.Speed)
	fmt.Fprintf(&b, "Challenge Rating: %s\n\n", FormatCR(block.ChallengeRating))
	fmt.Fprintf(&b, "Damage Resistances: %s\n", typeCount(len(block.Resistances)))
	fmt.Fprintf(&b, "Damage Vulnerabilities: %s\n\n", typeCount(len(block.Vulnerabilities)))
	fmt.Fprintf(&b, "Actions: %d actions available\n", len(block.Actions))
	return b.String()
}

// FormatCR prints a challenge rating without trailing zeros, e.g. 0.25 or 2.
func FormatCR(cr float64) string {
	return strconv.FormatFloat(cr, 'f', -1, 64)
}

// DisplayName turns an upstream slug like "mr-mime" into "Mr Mime".
func DisplayName(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}

func score(v int) string {
	return fmt.Sprintf("%d (%+d)", v, (v-10)/2)
}

func typeCount(n int) string {
	if n == 0 {
		return "None"
	}
	return fmt.Sprintf("%d types", n)
}
