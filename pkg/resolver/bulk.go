package resolver

import (
	"context"

	"github.com/google/uuid"

	"github.com/darkcaves/dragonites/pkg/logging"
	"github.com/darkcaves/dragonites/pkg/metrics"
	"github.com/darkcaves/dragonites/pkg/models"
)

// DefaultNationalDex is the id ceiling EnsureInitialized uses when none is given.
const DefaultNationalDex = 1010

var generationCeilings = map[int]int{
	1: 151,
	2: 251,
	3: 386,
	4: 493,
	5: 649,
}

// GenerationCeiling returns the highest id through the given generation.
// Unknown generations load the first.
func GenerationCeiling(generation int) int {
	if n, ok := generationCeilings[generation]; ok {
		return n
	}
	return generationCeilings[1]
}

// Initialize loads ids 1 through the generation ceiling into the cache.
// Fresh entries are skipped. If ctx is cancelled the partial summary is
// returned along with the context error; already loaded entries stay cached.
func (r *Resolver) Initialize(ctx context.Context, generation int) (models.BulkSummary, error) {
	ceiling := GenerationCeiling(generation)
	ids := make([]int, 0, ceiling)
	for id := 1; id <= ceiling; id++ {
		ids = append(ids, id)
	}
	logging.Info(r.logger, "bulk initialize", logging.FieldGeneration, generation, logging.FieldCount, ceiling)
	return r.bulkLoad(ctx, ids)
}

// EnsureInitialized loads whatever is missing of the first maxID creatures.
// It makes no remote calls when the cache already holds at least maxID entries.
func (r *Resolver) EnsureInitialized(ctx context.Context, maxID int) (models.BulkSummary, error) {
	if maxID <= 0 {
		maxID = DefaultNationalDex
	}
	have, err := r.cache.Count(ctx, models.ListQuery{})
	if err == nil && have >= int64(maxID) {
		return models.BulkSummary{
			RunID:     uuid.NewString(),
			Requested: maxID,
			Skipped:   maxID,
			FailedIDs: []int{},
			Complete:  true,
		}, nil
	}

	page, err := r.source.ListCreatures(ctx, maxID, 0)
	if err != nil {
		return models.BulkSummary{}, err
	}
	ids := make([]int, 0, len(page.Results))
	for _, ref := range page.Results {
		ids = append(ids, ref.ID)
	}
	return r.bulkLoad(ctx, ids)
}

func (r *Resolver) bulkLoad(ctx context.Context, ids []int) (models.BulkSummary, error) {
	summary := models.BulkSummary{
		RunID:     uuid.NewString(),
		Requested: len(ids),
		FailedIDs: []int{},
	}
	log := logging.With(r.logger, logging.FieldRunID, summary.RunID)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			logging.Warn(log, "bulk load interrupted", "processed", i, "error", err)
			return summary, err
		}
		if r.cache.IsValid(ctx, id, r.ttl) {
			summary.Skipped++
			r.metrics.RecordBulkItem(metrics.BulkSkipped)
			continue
		}

		if _, err := r.Resolve(ctx, id, r.ttl); err != nil {
			if ctx.Err() != nil {
				logging.Warn(log, "bulk load interrupted", "processed", i, "error", ctx.Err())
				return summary, ctx.Err()
			}
			summary.RecordFailure(id)
			r.metrics.RecordBulkItem(metrics.BulkFailed)
			logging.Warn(log, "bulk load item failed", logging.FieldCreatureID, id, "error", err)
		} else {
			summary.Loaded++
			r.metrics.RecordBulkItem(metrics.BulkLoaded)
			if summary.Loaded%10 == 0 {
				logging.Debug(log, "bulk load progress", logging.FieldCount, summary.Loaded)
			}
		}

		if i < len(ids)-1 {
			if err := r.sleep(ctx, r.delay); err != nil {
				return summary, err
			}
		}
	}

	summary.Complete = summary.Failed == 0
	logging.Info(log, "bulk load finished",
		"loaded", summary.Loaded, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}
