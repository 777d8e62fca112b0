package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically escalates overdue alerts, flags horses that went
// quiet and prunes resolved-alert bookkeeping. Offline detection runs
// through the same pipeline and alert paths as report ingest.
type Sweeper struct {
	alerts   *AlertEngine
	pipeline *Pipeline

	interval       time.Duration
	offlineTimeout time.Duration
	retention      time.Duration

	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a sweeper ticking every interval.
func NewSweeper(alerts *AlertEngine, pipeline *Pipeline, interval, offlineTimeout, retention time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		alerts:         alerts,
		pipeline:       pipeline,
		interval:       interval,
		offlineTimeout: offlineTimeout,
		retention:      retention,
		logger:         logger.Named("sweeper"),
		done:           make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("sweep loop started",
		zap.Duration("interval", s.interval),
		zap.Duration("offline_timeout", s.offlineTimeout))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep loop stopped")
			return
		case now := <-ticker.C:
			s.Sweep(ctx, now)
		}
	}
}

// Sweep runs one pass. Each item is handled independently; a failure on
// one alert or horse never aborts the rest.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) {
	escalated := s.alerts.EscalateDue(ctx, now)
	if len(escalated) > 0 {
		s.logger.Info("alerts escalated", zap.Int("count", len(escalated)))
	}

	for _, id := range s.pipeline.OfflineCandidates(s.offlineTimeout, now) {
		if ctx.Err() != nil {
			return
		}
		s.pipeline.MarkOffline(ctx, id, s.offlineTimeout, now)
	}

	s.alerts.PruneResolved(s.retention)
}

// Stop halts the loop and waits for any pass in flight to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}
