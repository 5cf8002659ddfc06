package sqlite

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/darkcaves/dragonites/pkg/logging"
)

// Sweeper periodically removes expired records from a Store.
type Sweeper struct {
	store    *Store
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	onSweep  func(removed int64)

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSweeper returns a Sweeper that clears entries older than ttl every interval.
// onSweep, if non-nil, is called with the number removed after each pass.
func NewSweeper(store *Store, ttl, interval time.Duration, logger *slog.Logger, onSweep func(int64)) *Sweeper {
	return &Sweeper{
		store:    store,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		onSweep:  onSweep,
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. A non-positive interval disables it.
func (s *Sweeper) Start() {
	if s.interval <= 0 {
		return
	}
	s.wg.Add(1)
	go s.loop()
}

// Stop ends the loop and waits for an in-progress pass to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

// SweepOnce runs a single pass.
func (s *Sweeper) SweepOnce(ctx context.Context) (int64, error) {
	removed, err := s.store.ClearExpired(ctx, s.ttl)
	if err != nil {
		logging.Error(s.logger, "cache sweep failed", err)
		return 0, err
	}
	if removed > 0 {
		logging.Info(s.logger, "cache sweep", logging.FieldCount, removed)
	}
	if s.onSweep != nil {
		s.onSweep(removed)
	}
	return removed, nil
}

func (s *Sweeper) loop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_, _ = s.SweepOnce(context.Background())
		}
	}
}
