package service

import (
	"context"
	"time"

	"herald/internal/constants"

	"github.com/sirupsen/logrus"
)

// Sweeper is the retention maintenance the scheduler drives.
type Sweeper interface {
	SweepRetention(ctx context.Context) error
}

// Scheduler runs retention sweeps on a fixed interval. It has its own stop
// handle so shutdown can halt it independently of the event path.
type Scheduler struct {
	sweeper       Sweeper
	intervalHours int
	logger        *logrus.Logger
	stopCh        chan struct{}
}

func NewScheduler(sweeper Sweeper, intervalHours int, logger *logrus.Logger) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = constants.DefaultSweepIntervalHours
	}
	return &Scheduler{
		sweeper:       sweeper,
		intervalHours: intervalHours,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

// Start blocks, sweeping every interval until the context is cancelled or
// Stop is called. Run it on its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.intervalHours) * time.Hour)
	defer ticker.Stop()

	s.logger.WithField("interval_hours", s.intervalHours).Info("Starting sweep scheduler")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context cancelled, stopping")
			return
		case <-s.stopCh:
			s.logger.Info("Scheduler stop signal received, stopping")
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) runSweep(ctx context.Context) {
	if err := s.sweeper.SweepRetention(ctx); err != nil {
		s.logger.WithError(err).Error("Retention sweep failed")
	}
}
