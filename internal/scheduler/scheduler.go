package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tdunlap/stockwatch/internal/engine"
	"github.com/tdunlap/stockwatch/internal/logger"
)

// HistoryPurger removes trigger records past the retention window
type HistoryPurger interface {
	DeleteTriggeredAlertsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler drives periodic evaluation cycles and the daily purge of old
// trigger records. The two loops are independent; the purge has no
// ordering relationship with evaluation.
type Scheduler struct {
	engine    *engine.Engine
	purger    HistoryPurger
	interval  time.Duration
	retention time.Duration
	log       zerolog.Logger
}

// New creates a scheduler
func New(eng *engine.Engine, purger HistoryPurger, interval, retention time.Duration) *Scheduler {
	return &Scheduler{
		engine:    eng,
		purger:    purger,
		interval:  interval,
		retention: retention,
		log:       logger.WithComponent("scheduler"),
	}
}

// Run blocks until the context is cancelled, evaluating alerts on every
// tick and purging old trigger history once a day.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().
		Dur("interval", s.interval).
		Dur("retention", s.retention).
		Msg("scheduler started")

	evalTicker := time.NewTicker(s.interval)
	defer evalTicker.Stop()
	purgeTicker := time.NewTicker(24 * time.Hour)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler shutting down")
			return
		case <-evalTicker.C:
			if _, err := s.engine.RunCycle(ctx); err != nil {
				s.log.Error().Err(err).Msg("evaluation cycle failed")
			}
		case <-purgeTicker.C:
			cutoff := time.Now().Add(-s.retention)
			deleted, err := s.purger.DeleteTriggeredAlertsOlderThan(ctx, cutoff)
			if err != nil {
				s.log.Error().Err(err).Msg("trigger history purge failed")
				continue
			}
			s.log.Info().Int64("deleted", deleted).Msg("purged old trigger records")
		}
	}
}
