package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/darkcaves/dragonites/pkg/logging"
	"github.com/darkcaves/dragonites/pkg/metrics"
	"github.com/darkcaves/dragonites/pkg/models"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingSource wraps a CreatureSource with retry/backoff behavior.
type retryingSource struct {
	inner       CreatureSource
	logger      *slog.Logger
	metrics     *metrics.Recorder
	maxAttempts int
	backoffFn   backoffFunc
}

// NewRetryingSource wraps inner with retries on transient failures.
// If maxAttempts/backoff are <= 0, defaults are used.
func NewRetryingSource(inner CreatureSource, logger *slog.Logger, recorder *metrics.Recorder, maxAttempts int, backoff time.Duration) CreatureSource {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &retryingSource{
		inner:       inner,
		logger:      logger,
		metrics:     recorder,
		maxAttempts: maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
	}
}

func (r *retryingSource) FetchCreature(ctx context.Context, id int) (models.CreatureRecord, error) {
	return withRetry(ctx, r, "fetch_creature", func() (models.CreatureRecord, error) {
		return r.inner.FetchCreature(ctx, id)
	})
}

func (r *retryingSource) ListSpecies(ctx context.Context, limit int) ([]NamedRef, error) {
	return withRetry(ctx, r, "list_species", func() ([]NamedRef, error) {
		return r.inner.ListSpecies(ctx, limit)
	})
}

func (r *retryingSource) ListCreatures(ctx context.Context, limit, offset int) (Page, error) {
	return withRetry(ctx, r, "list_creatures", func() (Page, error) {
		return r.inner.ListCreatures(ctx, limit, offset)
	})
}

func (r *retryingSource) ListByType(ctx context.Context, typeName string) ([]NamedRef, error) {
	return withRetry(ctx, r, "list_by_type", func() ([]NamedRef, error) {
		return r.inner.ListByType(ctx, typeName)
	})
}

func withRetry[T any](ctx context.Context, r *retryingSource, op string, call func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		start := time.Now()
		out, err := call()
		r.metrics.RecordProviderAttempt(op, time.Since(start), err)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == r.maxAttempts || !Retryable(err) {
			break
		}

		logging.Warn(r.logger, "provider retry", logging.FieldOp, op, "attempt", attempt, "max_attempts", r.maxAttempts, "error", err)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(r.backoffFn(attempt)):
		}
	}

	return zero, lastErr
}
