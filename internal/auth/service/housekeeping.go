package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/pkg/slogx"
)

// HousekeepingService periodically revokes sessions whose access token can
// no longer be valid, so the sessions list only shows usable devices. Rows
// are kept for audit.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Metrics  *Metrics

	// IdleAfter is how long a session may go without activity before it is
	// revoked. It should not be shorter than the access token TTL.
	IdleAfter time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval, idleAfter time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:     store,
		Logger:    logger,
		Interval:  interval,
		IdleAfter: idleAfter,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "idle_after", s.IdleAfter)
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep revokes idle sessions once and returns how many it revoked.
func (s *HousekeepingService) Sweep(ctx context.Context) int64 {
	if s.IdleAfter <= 0 {
		return 0
	}

	now := time.Now().UTC()
	n, err := s.Store.Sessions().RevokeIdleSessions(ctx, now.Add(-s.IdleAfter), now)
	if err != nil {
		s.Logger.Error("failed to revoke idle sessions", slogx.Err(err))
		return n
	}

	s.Metrics.revoked(ctx, "idle", n)
	s.Logger.Info("housekeeping sweep completed", "revoked_sessions", n)
	return n
}
