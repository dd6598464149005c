// Package scheduler runs the lifecycle reconciler on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/workshophq/workshop-backend/internal/service"
)

// runTimeout bounds one reconciliation pass.
const runTimeout = 5 * time.Minute

// Scheduler triggers reconciliation passes at the configured schedule,
// typically once per day shortly after midnight.
type Scheduler struct {
	cron *cron.Cron
	rec  *service.StateReconciler
	log  *zap.Logger
}

// New constructs a Scheduler. spec uses standard cron syntax;
// descriptors such as "@midnight" work too.
func New(spec string, rec *service.StateReconciler, log *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		rec:  rec,
		log:  log,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("parse reconciler schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	summary, err := s.rec.Run(ctx)
	if err != nil {
		s.log.Error("scheduled reconciliation failed", zap.Error(err))
		return
	}
	s.log.Info("reconciliation pass finished",
		zap.Int("total", summary.Total),
		zap.Int("changed", summary.Changed),
		zap.Int("upcoming", summary.Upcoming),
		zap.Int("ongoing", summary.Ongoing),
		zap.Int("completed", summary.Completed),
	)
}

// Start begins scheduling in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
