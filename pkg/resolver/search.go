package resolver

import (
	"context"
	"strconv"
	"strings"

	"github.com/darkcaves/dragonites/pkg/logging"
	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/provider"
)

// Search finds creatures by id or by a case-insensitive name fragment.
// A numeric query resolves that id; lookup failures yield an empty result.
// Otherwise the species listing is filtered and up to the configured number
// of matches are resolved, skipping any that fail.
func (r *Resolver) Search(ctx context.Context, query string) ([]models.CreatureRecord, error) {
	query = strings.TrimSpace(query)
	out := []models.CreatureRecord{}
	if query == "" {
		return out, nil
	}

	if id, err := strconv.Atoi(query); err == nil {
		rec, err := r.Resolve(ctx, id, r.ttl)
		if err != nil {
			logging.Debug(r.logger, "search by id missed", logging.FieldCreatureID, id, "error", err)
			return out, nil
		}
		return append(out, rec), nil
	}

	species, err := r.source.ListSpecies(ctx, r.species)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := make([]provider.NamedRef, 0, r.results)
	for _, ref := range species {
		if strings.Contains(strings.ToLower(ref.Name), needle) {
			matches = append(matches, ref)
			if len(matches) == r.results {
				break
			}
		}
	}

	for _, ref := range matches {
		rec, err := r.Resolve(ctx, ref.ID, r.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
