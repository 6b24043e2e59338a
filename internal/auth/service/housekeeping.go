package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/metrics"
	"github.com/qwanyx/qwanyx/internal/auth/store"
)

// HousekeepingService periodically purges expired auth codes in every
// active workspace. MongoDB's TTL index already does this; the SQLite driver
// has no equivalent.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHousekeepingService defaults interval to one hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, m *metrics.Metrics, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{Store: st, Logger: logger, Metrics: m, Interval: interval}
}

// Start runs a purge immediately and then every Interval until ctx ends or
// Stop is called. Starting a running service does nothing.
func (s *HousekeepingService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop cancels the loop and waits for an in-flight purge. It is safe to call
// on a stopped service.
func (s *HousekeepingService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.Logger.Info("housekeeping stopped")
}

func (s *HousekeepingService) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.Cleanup(ctx, time.Now().UTC())
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Cleanup deletes codes expired at now and returns how many went. A failing
// workspace is logged and skipped.
func (s *HousekeepingService) Cleanup(ctx context.Context, now time.Time) int64 {
	workspaces, err := s.Store.Workspaces().ListWorkspaces(ctx, true)
	if err != nil {
		s.Logger.Error("housekeeping: list workspaces", "error", err)
		return 0
	}

	var total int64
	for _, ws := range workspaces {
		if ctx.Err() != nil {
			break
		}
		n, err := s.Store.Tenant(ws.Code).AuthCodes().DeleteExpiredAuthCodes(ctx, now)
		if err != nil {
			s.Logger.Error("housekeeping: purge auth codes", "workspace", ws.Code, "error", err)
			continue
		}
		total += n
	}

	s.Metrics.CodesPurged(total)
	if total > 0 {
		s.Logger.Info("expired auth codes purged", "workspaces", len(workspaces), "deleted", total)
	}
	return total
}
