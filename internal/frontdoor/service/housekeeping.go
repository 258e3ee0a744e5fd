package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
)

// DefaultTabIdleTimeout is how long a tab scope may go unwritten before it is
// considered abandoned.
const DefaultTabIdleTimeout = 24 * time.Hour

// HousekeepingService periodically drops tab scopes left behind by CLI
// processes that exited without logging out. Durable scopes are never
// touched.
type HousekeepingService struct {
	Purger      store.TabPurger
	Logger      *slog.Logger
	Interval    time.Duration
	IdleTimeout time.Duration
	Now         func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one hour, a non-positive idle timeout to
// DefaultTabIdleTimeout.
func NewHousekeepingService(purger store.TabPurger, logger *slog.Logger, interval, idle time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if idle <= 0 {
		idle = DefaultTabIdleTimeout
	}

	return &HousekeepingService{
		Purger:      purger,
		Logger:      logger,
		Interval:    interval,
		IdleTimeout: idle,
		Now:         time.Now,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background worker. It is non-blocking; call Stop to shut
// it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "idle_timeout", s.IdleTimeout)
}

// Stop blocks until any in-progress purge has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one purge pass and returns the number of rows removed.
func (s *HousekeepingService) Cleanup(ctx context.Context) int64 {
	cutoff := s.Now().Add(-s.IdleTimeout)

	n, err := s.Purger.PurgeTabScopes(ctx, cutoff)
	if err != nil {
		s.Logger.Error("failed to purge abandoned tab scopes", "error", err)
		return 0
	}
	s.Logger.Info("housekeeping cleanup completed", "purged_rows", n, "cutoff", cutoff)
	return n
}
