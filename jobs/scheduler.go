// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SuspensionLifter ends suspensions whose end date has passed.
type SuspensionLifter interface {
	LiftExpiredSuspensions(ctx context.Context, now time.Time) (int64, error)
}

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.With(zap.String("component", "jobs")),
	}
}

// ScheduleSuspensionSweep runs the sweep on spec. An empty spec disables it.
func (s *Scheduler) ScheduleSuspensionSweep(spec string, lifter SuspensionLifter, timeout time.Duration) error {
	if spec == "" {
		s.log.Info("suspension sweep disabled")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		SweepSuspensions(ctx, lifter, time.Now(), s.log)
	})
	if err != nil {
		return fmt.Errorf("schedule suspension sweep %q: %w", spec, err)
	}
	return nil
}

// SweepSuspensions is one run of the suspension sweep.
func SweepSuspensions(ctx context.Context, lifter SuspensionLifter, now time.Time, log *zap.Logger) {
	n, err := lifter.LiftExpiredSuspensions(ctx, now)
	if err != nil {
		log.Error("suspension sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("suspensions lifted", zap.Int64("count", n))
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("jobs still running at shutdown")
	}
}
