package resolver

import (
	"context"
	"strings"

	"github.com/darkcaves/dragonites/pkg/logging"
	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/provider"
)

// List pages through cached creatures. When the cached page is empty it
// falls back to the upstream listing, resolving (and so caching) each entry.
func (r *Resolver) List(ctx context.Context, q models.ListQuery) (models.ListResult, error) {
	if q.Limit <= 0 {
		q.Limit = defaultPageSize
	}
	q.Offset = max(0, q.Offset)

	cached, err := r.cache.Batch(ctx, q)
	if err != nil {
		logging.Warn(r.logger, "cached list failed", "error", err)
		cached = nil
	}
	if len(cached) > 0 {
		total, err := r.cache.Count(ctx, models.ListQuery{Type: q.Type, Name: q.Name})
		if err != nil {
			logging.Warn(r.logger, "cached count failed", "error", err)
			total = 0
		}
		return models.ListResult{
			Creatures:  cached,
			TotalCount: int(total),
			HasMore:    int64(q.Offset+q.Limit) < total,
		}, nil
	}

	if q.Type != "" {
		return r.listRemoteByType(ctx, q)
	}
	return r.listRemote(ctx, q)
}

func (r *Resolver) listRemoteByType(ctx context.Context, q models.ListQuery) (models.ListResult, error) {
	refs, err := r.source.ListByType(ctx, q.Type)
	if err != nil {
		if provider.IsNotFound(err) {
			return emptyList(), nil
		}
		return models.ListResult{}, err
	}
	if q.Offset >= len(refs) {
		return emptyList(), nil
	}
	refs = refs[q.Offset:min(len(refs), q.Offset+q.Limit)]

	recs, err := r.resolveAll(ctx, refs)
	if err != nil {
		return models.ListResult{}, err
	}
	return models.ListResult{Creatures: recs, TotalCount: len(recs), HasMore: false}, nil
}

func (r *Resolver) listRemote(ctx context.Context, q models.ListQuery) (models.ListResult, error) {
	page, err := r.source.ListCreatures(ctx, q.Limit, q.Offset)
	if err != nil {
		return models.ListResult{}, err
	}
	recs, err := r.resolveAll(ctx, page.Results)
	if err != nil {
		return models.ListResult{}, err
	}
	if q.Name != "" {
		needle := strings.ToLower(q.Name)
		filtered := recs[:0]
		for _, rec := range recs {
			if strings.Contains(strings.ToLower(rec.Name), needle) {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}
	return models.ListResult{
		Creatures:  recs,
		TotalCount: page.Count,
		HasMore:    q.Offset+q.Limit < page.Count,
	}, nil
}

// resolveAll resolves each ref in order, skipping failures.
func (r *Resolver) resolveAll(ctx context.Context, refs []provider.NamedRef) ([]models.CreatureRecord, error) {
	out := make([]models.CreatureRecord, 0, len(refs))
	for _, ref := range refs {
		rec, err := r.Resolve(ctx, ref.ID, r.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func emptyList() models.ListResult {
	return models.ListResult{Creatures: []models.CreatureRecord{}}
}
