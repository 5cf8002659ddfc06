package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/darkcaves/dragonites/pkg/convert"
	"github.com/darkcaves/dragonites/pkg/export"
	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/provider"
	"github.com/darkcaves/dragonites/pkg/resolver"
)

const defaultLevel = 50

type idArgs struct {
	ID int `json:"id"`
}

type searchArgs struct {
	Query string `json:"query"`
}

type listArgs struct {
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

type convertArgs struct {
	ID     int    `json:"id"`
	Level  *int   `json:"level"`
	Format string `json:"format"`
}

type clearArgs struct {
	ExpiredOnly bool `json:"expired_only"`
}

type initArgs struct {
	Generation int `json:"generation"`
}

type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var toolHandlers = map[string]toolHandler{
	"dex_fetch":       handleFetch,
	"dex_search":      handleSearch,
	"dex_list":        handleList,
	"dex_convert":     handleConvert,
	"dex_export":      handleExport,
	"dex_cache_stats": handleCacheStats,
	"dex_cache_clear": handleCacheClear,
	"dex_initialize":  handleInitialize,
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

var allTools = []ToolDefinition{
	{
		Name:        "dex_fetch",
		Description: "Fetch one creature by national dex id, using the local cache when fresh.",
		InputSchema: map[string]any{
			"type":       "object",
			"required":   []string{"id"},
			"properties": map[string]any{"id": prop("integer", "National dex id (1 or greater)")},
		},
	},
	{
		Name:        "dex_search",
		Description: "Search creatures by id or by part of their name (up to 20 results).",
		InputSchema: map[string]any{
			"type":       "object",
			"required":   []string{"query"},
			"properties": map[string]any{"query": prop("string", "An id like 25 or a name fragment like saur")},
		},
	},
	{
		Name:        "dex_list",
		Description: "List cached creatures in id order with optional type and name filters.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"offset": prop("integer", "Rows to skip (default 0)"),
				"limit":  prop("integer", "Page size (default 20)"),
				"type":   prop("string", "Elemental type such as fire (optional)"),
				"name":   prop("string", "Name fragment (optional)"),
			},
		},
	},
	{
		Name:        "dex_convert",
		Description: "Convert a creature into a D&D 5e stat block at the given level.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"id"},
			"properties": map[string]any{
				"id":    prop("integer", "National dex id"),
				"level": prop("integer", "Creature level (default 50)"),
			},
		},
	},
	{
		Name:        "dex_export",
		Description: "Convert a creature and export the stat block as json or text.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"id", "format"},
			"properties": map[string]any{
				"id":     prop("integer", "National dex id"),
				"level":  prop("integer", "Creature level (default 50)"),
				"format": map[string]any{"type": "string", "enum": []string{export.FormatJSON, export.FormatText}},
			},
		},
	},
	{
		Name:        "dex_cache_stats",
		Description: "Show creature cache statistics (entries, hits, misses, remote fetches).",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	},
	{
		Name:        "dex_cache_clear",
		Description: "Clear the creature cache, or only entries past their TTL.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"expired_only": prop("boolean", "Only remove expired entries")},
		},
	},
	{
		Name:        "dex_initialize",
		Description: "Bulk load every creature through a generation (1-5) into the cache.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"generation": prop("integer", "Generation 1-5 (default 1)")},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

func decodeArgs(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// lookupError turns resolver failures into user-facing text.
func lookupError(id int, err error) ToolCallResult {
	switch {
	case errors.Is(err, resolver.ErrInvalidID):
		return errorResult("id must be a positive integer")
	case errors.Is(err, resolver.ErrInvalidLevel):
		return errorResult(err.Error())
	case provider.IsNotFound(err):
		return errorResult(fmt.Sprintf("No creature with id %d.", id))
	default:
		return errorResult(fmt.Sprintf("Error fetching creature %d: %v", id, err))
	}
}

func handleFetch(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args idArgs
	if err := decodeArgs(raw, &args); err != nil {
		return errorResult(err.Error())
	}
	rec, err := s.dex.Resolve(ctx, args.ID, 0)
	if err != nil {
		return lookupError(args.ID, err)
	}
	return textResult(formatCreature(rec))
}

func handleSearch(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args searchArgs
	if err := decodeArgs(raw, &args); err != nil {
		return errorResult(err.Error())
	}
	if args.Query == "" {
		return errorResult("query is required")
	}
	recs, err := s.dex.Search(ctx, args.Query)
	if err != nil {
		return errorResult("Error searching: " + err.Error())
	}
	return textResult(formatCreatureList(recs, len(recs), false))
}

func handleList(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args listArgs
	if err := decodeArgs(raw, &args); err != nil {
		return errorResult(err.Error())
	}
	res, err := s.dex.List(ctx, models.ListQuery{Offset: args.Offset, Limit: args.Limit, Type: args.Type, Name: args.Name})
	if err != nil {
		return errorResult("Error listing creatures: " + err.Error())
	}
	return textResult(formatCreatureList(res.Creatures, res.TotalCount, res.HasMore))
}

func convertFor(ctx context.Context, s *Server, args convertArgs) (models.CreatureRecord, models.StatBlock, *ToolCallResult) {
	level := defaultLevel
	if args.Level != nil {
		level = *args.Level
	}
	if level > convert.MaxLevel {
		res := errorResult(resolver.ErrInvalidLevel.Error())
		return models.CreatureRecord{}, models.StatBlock{}, &res
	}
	rec, err := s.dex.Resolve(ctx, args.ID, 0)
	if err != nil {
		res := lookupError(args.ID, err)
		return rec, models.StatBlock{}, &res
	}
	block, err := s.dex.ConvertByID(ctx, args.ID, level)
	if err != nil {
		res := lookupError(args.ID, err)
		return rec, models.StatBlock{}, &res
	}
	return rec, block, nil
}

func handleConvert(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args convertArgs
	if err := decodeArgs(raw, &args); err != nil {
		return errorResult(err.Error())
	}
	rec, block, failed := convertFor(ctx, s, args)
	if failed != nil {
		return *failed
	}
	return textResult(formatStatBlock(rec, block))
}

func handleExport(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args convertArgs
	if err := decodeArgs(raw, &args); err != nil {
		return errorResult(err.Error())
	}
	_, block, failed := convertFor(ctx, s, args)
	if failed != nil {
		return *failed
	}
	out, err := export.Export(block, args.Format)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(out)
}

func handleCacheStats(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	stats, err := s.dex.Stats(ctx)
	if err != nil {
		return errorResult("Error fetching cache stats: " + err.Error())
	}
	return textResult(formatCacheStats(stats))
}

func handleCacheClear(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args clearArgs
	if err := decodeArgs(raw, &args); err != nil {
		return errorResult(err.Error())
	}
	if args.ExpiredOnly {
		n, err := s.dex.ClearExpired(ctx)
		if err != nil {
			return errorResult("Error clearing cache: " + err.Error())
		}
		return textResult(fmt.Sprintf("Removed %d expired entries.", n))
	}
	if err := s.dex.ClearAll(ctx); err != nil {
		return errorResult("Error clearing cache: " + err.Error())
	}
	return textResult("All cache entries cleared.")
}

func handleInitialize(ctx context.Context, s *Server, raw json.RawMessage) ToolCallResult {
	var args initArgs
	if err := decodeArgs(raw, &args); err != nil {
		return errorResult(err.Error())
	}
	summary, err := s.dex.Initialize(ctx, args.Generation)
	if err != nil {
		return errorResult(fmt.Sprintf("Initialization interrupted: %v\n%s", err, formatBulkSummary(summary)))
	}
	return textResult(formatBulkSummary(summary))
}
