// Package scheduler runs periodic background jobs
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"go.uber.org/zap"
)

// TemporaryImageCleaner deletes temporary uploads older than maxAge
type TemporaryImageCleaner interface {
	CleanupTemporary(ctx context.Context, maxAge time.Duration) (int, error)
}

// ImageCleanupScheduler periodically removes uploads that no entity references
type ImageCleanupScheduler struct {
	cleaner  TemporaryImageCleaner
	clock    clock.Clock
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.Logger
}

func NewImageCleanupScheduler(
	cleaner TemporaryImageCleaner,
	clk clock.Clock,
	interval time.Duration,
	maxAge time.Duration,
	logger *zap.Logger,
) *ImageCleanupScheduler {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if maxAge <= 0 {
		maxAge = utils.TemporaryImageMaxAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageCleanupScheduler{
		cleaner:  cleaner,
		clock:    clk,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
	}
}

// Start runs a cleanup immediately and then every interval. The returned
// function stops the loop and waits for a running cleanup to finish.
func (s *ImageCleanupScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	var wg sync.WaitGroup

	// the ticker must exist before Start returns so mocked time can advance it
	ticker := s.clock.Ticker(s.interval)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ticker.Stop()

		s.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()

	s.logger.Info("Image cleanup scheduler started",
		zap.Duration("interval", s.interval),
		zap.Duration("max_age", s.maxAge))

	return func() {
		cancel()
		wg.Wait()
	}
}

// RunOnce performs a single cleanup pass
func (s *ImageCleanupScheduler) RunOnce(ctx context.Context) int {
	deleted, err := s.cleaner.CleanupTemporary(ctx, s.maxAge)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Temporary image cleanup failed", zap.Error(err), zap.Int("deleted", deleted))
		}
		return deleted
	}
	if deleted > 0 {
		s.logger.Info("Temporary images removed", zap.Int("deleted", deleted))
	}
	return deleted
}
