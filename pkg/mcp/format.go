package mcp

import (
	"fmt"
	"strings"

	"github.com/darkcaves/dragonites/pkg/export"
	"github.com/darkcaves/dragonites/pkg/models"
)

func typeNames(types []models.TypeTag) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name)
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "/")
}

// formatCreature formats one record as a short profile.
func formatCreature(rec models.CreatureRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%03d %s\n", rec.ID, export.DisplayName(rec.Name))
	fmt.Fprintf(&b, "  Types:     %s\n", typeNames(rec.Types))
	s := rec.BaseStats
	fmt.Fprintf(&b, "  Stats:     HP %d / Atk %d / Def %d / SpA %d / SpD %d / Spe %d (total %d)\n",
		s.HP, s.Attack, s.Defense, s.SpecialAttack, s.SpecialDefense, s.Speed, s.Total())
	abilities := make([]string, 0, len(rec.Abilities))
	for _, a := range rec.Abilities {
		name := a.Name
		if a.Hidden {
			name += " (hidden)"
		}
		abilities = append(abilities, name)
	}
	fmt.Fprintf(&b, "  Abilities: %s\n", strings.Join(abilities, ", "))
	fmt.Fprintf(&b, "  Moves:     %d known\n", len(rec.Moves))
	return b.String()
}

// formatCreatureList formats records as a text table.
func formatCreatureList(recs []models.CreatureRecord, total int, more bool) string {
	if len(recs) == 0 {
		return "No creatures found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%5s  %-20s %-18s %6s\n", "ID", "Name", "Types", "Total")
	b.WriteString(strings.Repeat("-", 54) + "\n")
	for _, rec := range recs {
		fmt.Fprintf(&b, "%5d  %-20s %-18s %6d\n", rec.ID, export.DisplayName(rec.Name), typeNames(rec.Types), rec.BaseStats.Total())
	}
	fmt.Fprintf(&b, "\nShowing %d of %d", len(recs), total)
	if more {
		b.WriteString(" (more available)")
	}
	b.WriteString("\n")
	return b.String()
}

func formatStatBlock(rec models.CreatureRecord, block models.StatBlock) string {
	return export.DisplayName(rec.Name) + "\n" + export.Text(block)
}

// formatCacheStats formats cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}
	last := "never"
	if !stats.LastUpdated.IsZero() {
		last = stats.LastUpdated.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("Cache Statistics\n"+
		"  Entries:        %d\n"+
		"  Hits:           %d\n"+
		"  Misses:         %d\n"+
		"  Hit Rate:       %.1f%%\n"+
		"  Remote Fetches: %d\n"+
		"  Fetch Errors:   %d\n"+
		"  Last Updated:   %s\n",
		stats.Entries, stats.Hits, stats.Misses, hitRate, stats.RemoteFetches, stats.FetchErrors, last)
}

func formatBulkSummary(s models.BulkSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %d requested, %d loaded, %d skipped, %d failed\n",
		s.RunID, s.Requested, s.Loaded, s.Skipped, s.Failed)
	if len(s.FailedIDs) > 0 {
		ids := make([]string, 0, len(s.FailedIDs))
		for _, id := range s.FailedIDs {
			ids = append(ids, fmt.Sprint(id))
		}
		fmt.Fprintf(&b, "Failed ids: %s\n", strings.Join(ids, ", "))
	}
	return b.String()
}
