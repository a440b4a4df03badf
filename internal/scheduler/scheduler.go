package scheduler

import (
	"context"
	"fmt"
	"time"

	"parking-booking/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	sweepBatch   = 200
	sweepTimeout = time.Minute
)

// NoShowSweeper marks overdue bookings as no-show.
type NoShowSweeper interface {
	SweepNoShows(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// Scheduler runs the periodic no-show sweep. Bookings still in booked once
// their start time plus grace has passed are marked no_show.
type Scheduler struct {
	cron    *cron.Cron
	sweeper NoShowSweeper
	grace   time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewScheduler(sweeper NoShowSweeper, config utils.NoShowConfig, log *zap.Logger) (*Scheduler, error) {
	// UTC with seconds precision; a slow sweep is skipped rather than stacked
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron:    c,
		sweeper: sweeper,
		grace:   config.Grace,
		now:     time.Now,
		log:     log.With(zap.String("component", "scheduler")),
	}

	if _, err := c.AddFunc(config.SweepCron, s.runSweep); err != nil {
		return nil, fmt.Errorf("register no-show sweep %q: %w", config.SweepCron, err)
	}
	return s, nil
}

// SweepOnce runs a single sweep and returns how many bookings were marked.
func (s *Scheduler) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.grace)

	total := 0
	for {
		marked, err := s.sweeper.SweepNoShows(ctx, cutoff, sweepBatch)
		total += marked
		if err != nil {
			return total, err
		}
		if marked < sweepBatch {
			return total, nil
		}
	}
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	marked, err := s.SweepOnce(ctx)
	if err != nil {
		s.log.Error("No-show sweep failed", zap.Int("marked", marked), zap.Error(err))
		return
	}
	s.log.Debug("No-show sweep done", zap.Int("marked", marked))
}

func (s *Scheduler) Start() {
	s.log.Info("Starting cron scheduler")
	s.cron.Start()
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping cron scheduler")
	<-s.cron.Stop().Done()
}
