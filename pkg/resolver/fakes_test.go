package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/provider"
)

type memCache struct {
	mu         sync.Mutex
	recs       map[int]models.CreatureRecord
	stamps     map[int]time.Time
	now        time.Time
	putErr     error
	validCalls atomic.Int64
}

func newMemCache() *memCache {
	return &memCache{
		recs:   make(map[int]models.CreatureRecord),
		stamps: make(map[int]time.Time),
		now:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (c *memCache) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *memCache) seed(recs ...models.CreatureRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range recs {
		c.recs[rec.ID] = rec
		c.stamps[rec.ID] = c.now
	}
}

func (c *memCache) has(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.recs[id]
	return ok
}

func (c *memCache) Put(ctx context.Context, rec models.CreatureRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.recs[rec.ID] = rec
	c.stamps[rec.ID] = c.now
	return nil
}

func (c *memCache) Get(ctx context.Context, id int) (models.CreatureRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.recs[id]
	return rec, ok
}

func (c *memCache) IsValid(ctx context.Context, id int, maxAge time.Duration) bool {
	c.validCalls.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	ts, ok := c.stamps[id]
	return ok && c.now.Sub(ts) < maxAge
}

func (c *memCache) Batch(ctx context.Context, q models.ListQuery) ([]models.CreatureRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, 0, len(c.recs))
	for id, rec := range c.recs {
		if q.Name == "" || strings.Contains(strings.ToLower(rec.Name), strings.ToLower(q.Name)) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	if q.Offset > 0 {
		ids = ids[min(q.Offset, len(ids)):]
	}
	if q.Limit > 0 {
		ids = ids[:min(q.Limit, len(ids))]
	}
	out := []models.CreatureRecord{}
	for _, id := range ids {
		rec := c.recs[id]
		if q.Type != "" && !rec.HasType(q.Type) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *memCache) Count(ctx context.Context, q models.ListQuery) (int64, error) {
	recs, err := c.Batch(ctx, models.ListQuery{Type: q.Type, Name: q.Name})
	return int64(len(recs)), err
}

func (c *memCache) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = make(map[int]models.CreatureRecord)
	c.stamps = make(map[int]time.Time)
	return nil
}

func (c *memCache) ClearExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for id, ts := range c.stamps {
		if c.now.Sub(ts) >= maxAge {
			delete(c.stamps, id)
			delete(c.recs, id)
			n++
		}
	}
	return n, nil
}

func (c *memCache) Stats(ctx context.Context) (models.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := models.CacheStats{Entries: int64(len(c.recs))}
	for _, ts := range c.stamps {
		if ts.After(stats.LastUpdated) {
			stats.LastUpdated = ts
		}
	}
	return stats, nil
}

type fakeSource struct {
	mu        sync.Mutex
	fail      map[int]error
	fetches   map[int]int
	species   []provider.NamedRef
	byType    map[string][]provider.NamedRef
	page      provider.Page
	pageCalls int

	// gate, when set, blocks FetchCreature until closed.
	gate    chan struct{}
	started chan int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		fail:    make(map[int]error),
		fetches: make(map[int]int),
		byType:  make(map[string][]provider.NamedRef),
	}
}

func mon(id int, name string, types ...string) models.CreatureRecord {
	rec := models.CreatureRecord{
		ID:        id,
		Name:      name,
		BaseStats: models.BaseStats{HP: 45, Attack: 49, Defense: 49, SpecialAttack: 65, SpecialDefense: 65, Speed: 45},
		Types:     []models.TypeTag{},
		Moves:     []models.MoveRef{},
		Abilities: []models.AbilityRef{},
	}
	for i, ty := range types {
		rec.Types = append(rec.Types, models.TypeTag{Name: ty, Slot: i + 1})
	}
	return rec
}

func (f *fakeSource) fetchCount(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[id]
}

func (f *fakeSource) FetchCreature(ctx context.Context, id int) (models.CreatureRecord, error) {
	f.mu.Lock()
	f.fetches[id]++
	err := f.fail[id]
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- id
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return models.CreatureRecord{}, err
	}
	return mon(id, fmt.Sprintf("mon-%d", id), "normal"), nil
}

func (f *fakeSource) ListSpecies(ctx context.Context, limit int) ([]provider.NamedRef, error) {
	return f.species, nil
}

func (f *fakeSource) ListCreatures(ctx context.Context, limit, offset int) (provider.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageCalls++
	return f.page, nil
}

func (f *fakeSource) ListByType(ctx context.Context, typeName string) ([]provider.NamedRef, error) {
	refs, ok := f.byType[strings.ToLower(typeName)]
	if !ok {
		return nil, &provider.TransportError{Op: "list by type", StatusCode: 404, Err: provider.ErrNotFound}
	}
	return refs, nil
}

var notFound = &provider.TransportError{Op: "fetch creature", StatusCode: 404, Err: provider.ErrNotFound}
