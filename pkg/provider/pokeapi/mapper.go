package pokeapi

import (
	"path"
	"strconv"
	"strings"

	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/provider"
)

// Normalize maps an upstream payload to a CreatureRecord. Absent fields become
// zero stats or empty lists; unknown stat names are ignored.
func Normalize(p CreaturePayload) models.CreatureRecord {
	rec := models.CreatureRecord{
		ID:        p.ID,
		Name:      p.Name,
		BaseStats: mapStats(p.Stats),
		Types:     make([]models.TypeTag, 0, len(p.Types)),
		Moves:     make([]models.MoveRef, 0, min(len(p.Moves), models.MaxMoves)),
		Abilities: make([]models.AbilityRef, 0, len(p.Abilities)),
		Images: models.ImageSet{
			FrontDefault: p.Sprites.FrontDefault,
			FrontShiny:   p.Sprites.FrontShiny,
			BackDefault:  p.Sprites.BackDefault,
			BackShiny:    p.Sprites.BackShiny,
			Artwork:      p.Sprites.Other.OfficialArtwork.FrontDefault,
		},
	}
	for _, t := range p.Types {
		rec.Types = append(rec.Types, models.TypeTag{Name: t.Type.Name, Slot: t.Slot})
	}
	for _, m := range p.Moves {
		if len(rec.Moves) == models.MaxMoves {
			break
		}
		rec.Moves = append(rec.Moves, models.MoveRef{Name: m.Move.Name})
	}
	for _, a := range p.Abilities {
		rec.Abilities = append(rec.Abilities, models.AbilityRef{Name: a.Ability.Name, Hidden: a.IsHidden, Slot: a.Slot})
	}
	return rec
}

func mapStats(stats []statSlot) models.BaseStats {
	var out models.BaseStats
	for _, s := range stats {
		v := max(0, s.BaseStat)
		switch s.Stat.Name {
		case "hp":
			out.HP = v
		case "attack":
			out.Attack = v
		case "defense":
			out.Defense = v
		case "special-attack":
			out.SpecialAttack = v
		case "special-defense":
			out.SpecialDefense = v
		case "speed":
			out.Speed = v
		}
	}
	return out
}

// idFromURL extracts the trailing numeric id from a resource URL such as
// https://pokeapi.co/api/v2/pokemon/25/.
func idFromURL(raw string) (int, bool) {
	id, err := strconv.Atoi(path.Base(strings.TrimSuffix(raw, "/")))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func mapRefs(resources []namedResource) []provider.NamedRef {
	out := make([]provider.NamedRef, 0, len(resources))
	for _, r := range resources {
		if id, ok := idFromURL(r.URL); ok {
			out = append(out, provider.NamedRef{ID: id, Name: r.Name})
		}
	}
	return out
}
