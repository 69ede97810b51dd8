package validation

import (
	"context"
	"time"

	"github.com/wolfman30/incident-report-ai/internal/observability/metrics"
	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

// Sweeper periodically evicts validation states older than maxAge.
// The store never sweeps itself; the host decides whether to run one.
type Sweeper struct {
	store    Store
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	metrics  *metrics.ValidationMetrics
	logger   *logging.Logger
}

// NewSweeper creates a sweeper. interval must be positive before Start is called.
func NewSweeper(store Store, maxAge, interval time.Duration, logger *logging.Logger) *Sweeper {
	if store == nil {
		panic("validation: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// WithMetrics attaches sweep metrics.
func (s *Sweeper) WithMetrics(m *metrics.ValidationMetrics) *Sweeper {
	s.metrics = m
	return s
}

// WithClock overrides the time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	if now != nil {
		s.now = now
	}
	return s
}

// Start runs the sweep loop. Blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Warn("validation sweeper not started: interval must be positive", "interval", s.interval.String())
		return
	}
	s.logger.Info("starting validation sweeper",
		"interval", s.interval.String(),
		"max_age", s.maxAge.String(),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("validation sweeper shutting down")
			return
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns the number of evicted states.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	removed, err := s.store.SweepOlderThan(ctx, s.maxAge, s.now())
	s.metrics.ObserveSweep(removed, time.Since(start).Seconds(), err)
	if err != nil {
		s.logger.Error("validation sweep failed", "error", err)
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("validation sweep evicted sessions", "count", removed)
	} else {
		s.logger.Debug("validation sweep found nothing to evict")
	}
	return removed, nil
}
