// Package metrics records cache and provider activity in memory and
// mirrors it into Prometheus counters on a private registry.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dragonites"

// Bulk item outcomes.
const (
	BulkLoaded  = "loaded"
	BulkSkipped = "skipped"
	BulkFailed  = "failed"
)

// Snapshot is a point-in-time copy of the in-memory counters.
type Snapshot struct {
	CacheHits        int64
	CacheMisses      int64
	RemoteFetches    int64
	FetchErrors      int64
	CacheWriteErrors int64
	ProviderAttempts int64
	ProviderErrors   int64
	BulkLoaded       int64
	BulkSkipped      int64
	BulkFailed       int64
	Swept            int64
}

// Recorder is safe for concurrent use. A nil Recorder discards everything.
type Recorder struct {
	mu   sync.Mutex
	snap Snapshot

	registry         *prometheus.Registry
	cacheLookups     *prometheus.CounterVec
	remoteFetches    *prometheus.CounterVec
	cacheWriteErrors prometheus.Counter
	providerAttempts *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	bulkItems        *prometheus.CounterVec
	swept            prometheus.Counter
}

// NewRecorder registers the dragonites collectors on a fresh private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result.",
		}, []string{"result"}),
		remoteFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_fetches_total",
			Help:      "Remote creature fetches by outcome.",
		}, []string{"outcome"}),
		cacheWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_write_errors_total",
			Help:      "Cache writes that failed after a successful fetch.",
		}),
		providerAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Upstream calls by operation and outcome, retries included.",
		}, []string{"op", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_latency_seconds",
			Help:      "Upstream call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_total",
			Help:      "Bulk load items by outcome.",
		}, []string{"outcome"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_swept_total",
			Help:      "Expired entries removed by clear or sweep.",
		}),
	}
	r.registry.MustRegister(
		r.cacheLookups,
		r.remoteFetches,
		r.cacheWriteErrors,
		r.providerAttempts,
		r.providerLatency,
		r.bulkItems,
		r.swept,
	)
	return r
}

// RecordCacheHit counts a lookup served from the cache.
func (r *Recorder) RecordCacheHit() {
	if r == nil {
		return
	}
	r.update(func(s *Snapshot) { s.CacheHits++ })
	r.cacheLookups.WithLabelValues("hit").Inc()
}

// RecordCacheMiss counts a lookup that had to go upstream.
func (r *Recorder) RecordCacheMiss() {
	if r == nil {
		return
	}
	r.update(func(s *Snapshot) { s.CacheMisses++ })
	r.cacheLookups.WithLabelValues("miss").Inc()
}

// RecordRemoteFetch counts one logical fetch, successful or not.
func (r *Recorder) RecordRemoteFetch(err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	r.update(func(s *Snapshot) {
		s.RemoteFetches++
		if err != nil {
			s.FetchErrors++
			outcome = "error"
		}
	})
	r.remoteFetches.WithLabelValues(outcome).Inc()
}

// RecordCacheWriteError counts a swallowed cache write failure.
func (r *Recorder) RecordCacheWriteError() {
	if r == nil {
		return
	}
	r.update(func(s *Snapshot) { s.CacheWriteErrors++ })
	r.cacheWriteErrors.Inc()
}

// RecordProviderAttempt counts one upstream call and observes its latency.
func (r *Recorder) RecordProviderAttempt(op string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	r.update(func(s *Snapshot) {
		s.ProviderAttempts++
		if err != nil {
			s.ProviderErrors++
			outcome = "error"
		}
	})
	r.providerAttempts.WithLabelValues(op, outcome).Inc()
	r.providerLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordBulkItem counts one item of a bulk load by outcome.
func (r *Recorder) RecordBulkItem(outcome string) {
	if r == nil {
		return
	}
	r.update(func(s *Snapshot) {
		switch outcome {
		case BulkLoaded:
			s.BulkLoaded++
		case BulkSkipped:
			s.BulkSkipped++
		case BulkFailed:
			s.BulkFailed++
		}
	})
	r.bulkItems.WithLabelValues(outcome).Inc()
}

// RecordSwept counts expired entries removed.
func (r *Recorder) RecordSwept(n int64) {
	if r == nil || n <= 0 {
		return
	}
	r.update(func(s *Snapshot) { s.Swept += n })
	r.swept.Add(float64(n))
}

// Snapshot returns a copy of the current counters.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Registry exposes the private Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) update(fn func(*Snapshot)) {
	r.mu.Lock()
	fn(&r.snap)
	r.mu.Unlock()
}
