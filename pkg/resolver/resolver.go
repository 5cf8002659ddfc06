// Package resolver answers creature lookups from the local cache, falling
// back to the upstream source and writing fresh results through.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/darkcaves/dragonites/pkg/convert"
	"github.com/darkcaves/dragonites/pkg/logging"
	"github.com/darkcaves/dragonites/pkg/metrics"
	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/provider"
)

var (
	// ErrInvalidID is returned for ids that can never exist upstream.
	ErrInvalidID = errors.New("creature id must be positive")
	// ErrInvalidLevel is returned for conversion levels above convert.MaxLevel.
	ErrInvalidLevel = fmt.Errorf("level must be at most %d", convert.MaxLevel)
)

const (
	defaultTTL          = 24 * time.Hour
	defaultSpeciesLimit = 1000
	defaultMaxResults   = 20
	defaultPageSize     = 20
)

// Cache is the persistence the resolver reads from and writes through to.
type Cache interface {
	Put(ctx context.Context, rec models.CreatureRecord) error
	Get(ctx context.Context, id int) (models.CreatureRecord, bool)
	IsValid(ctx context.Context, id int, maxAge time.Duration) bool
	Batch(ctx context.Context, q models.ListQuery) ([]models.CreatureRecord, error)
	Count(ctx context.Context, q models.ListQuery) (int64, error)
	ClearAll(ctx context.Context) error
	ClearExpired(ctx context.Context, maxAge time.Duration) (int64, error)
	Stats(ctx context.Context) (models.CacheStats, error)
}

// Options tunes a Resolver. Zero values fall back to defaults.
type Options struct {
	TTL              time.Duration
	BulkDelay        time.Duration
	SpeciesLimit     int
	MaxSearchResults int
	Logger           *slog.Logger
	Metrics          *metrics.Recorder
}

// Resolver is safe for concurrent use.
type Resolver struct {
	cache   Cache
	source  provider.CreatureSource
	ttl     time.Duration
	delay   time.Duration
	species int
	results int
	logger  *slog.Logger
	metrics *metrics.Recorder

	inflight singleflight.Group
	sleep    func(ctx context.Context, d time.Duration) error
}

// New returns a Resolver reading through cache to source.
func New(cache Cache, source provider.CreatureSource, opts Options) *Resolver {
	r := &Resolver{
		cache:   cache,
		source:  source,
		ttl:     opts.TTL,
		delay:   opts.BulkDelay,
		species: opts.SpeciesLimit,
		results: opts.MaxSearchResults,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		sleep:   sleepContext,
	}
	if r.ttl <= 0 {
		r.ttl = defaultTTL
	}
	if r.delay < 0 {
		r.delay = 0
	}
	if r.species <= 0 {
		r.species = defaultSpeciesLimit
	}
	if r.results <= 0 {
		r.results = defaultMaxResults
	}
	return r
}

// TTL is the freshness window used when callers do not pass one.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// Resolve returns the record for id from the cache when it is younger than
// ttl, otherwise from upstream. Successful fetches are written to the cache;
// failures never are. A non-positive ttl uses the configured default.
func (r *Resolver) Resolve(ctx context.Context, id int, ttl time.Duration) (models.CreatureRecord, error) {
	if id <= 0 {
		return models.CreatureRecord{}, ErrInvalidID
	}
	if ttl <= 0 {
		ttl = r.ttl
	}

	if r.cache.IsValid(ctx, id, ttl) {
		if rec, ok := r.cache.Get(ctx, id); ok {
			r.metrics.RecordCacheHit()
			return rec, nil
		}
	}
	r.metrics.RecordCacheMiss()

	ch := r.inflight.DoChan(strconv.Itoa(id), func() (any, error) {
		return r.fetchAndStore(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return models.CreatureRecord{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.CreatureRecord{}, res.Err
		}
		return res.Val.(models.CreatureRecord), nil
	}
}

func (r *Resolver) fetchAndStore(ctx context.Context, id int) (models.CreatureRecord, error) {
	rec, err := r.source.FetchCreature(ctx, id)
	r.metrics.RecordRemoteFetch(err)
	if err != nil {
		logging.Warn(r.logger, "remote fetch failed", logging.FieldCreatureID, id, "error", err)
		return models.CreatureRecord{}, err
	}
	if err := r.cache.Put(ctx, rec); err != nil {
		r.metrics.RecordCacheWriteError()
		logging.Error(r.logger, "cache write failed", err, logging.FieldCreatureID, id)
	}
	return rec, nil
}

// ConvertByID resolves id with the default ttl and converts it at level.
// Levels above convert.MaxLevel are rejected before any lookup.
func (r *Resolver) ConvertByID(ctx context.Context, id, level int) (models.StatBlock, error) {
	if level > convert.MaxLevel {
		return models.StatBlock{}, ErrInvalidLevel
	}
	rec, err := r.Resolve(ctx, id, r.ttl)
	if err != nil {
		return models.StatBlock{}, err
	}
	return convert.Convert(rec, level), nil
}

// ClearAll empties the cache.
func (r *Resolver) ClearAll(ctx context.Context) error {
	return r.cache.ClearAll(ctx)
}

// ClearExpired removes entries older than the default ttl.
func (r *Resolver) ClearExpired(ctx context.Context) (int64, error) {
	n, err := r.cache.ClearExpired(ctx, r.ttl)
	if err != nil {
		return 0, err
	}
	r.metrics.RecordSwept(n)
	return n, nil
}

// Stats combines cache contents with lookup counters since startup.
func (r *Resolver) Stats(ctx context.Context) (models.CacheStats, error) {
	stats, err := r.cache.Stats(ctx)
	if err != nil {
		return models.CacheStats{}, err
	}
	snap := r.metrics.Snapshot()
	stats.Hits = snap.CacheHits
	stats.Misses = snap.CacheMisses
	stats.RemoteFetches = snap.RemoteFetches
	stats.FetchErrors = snap.FetchErrors
	return stats, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
