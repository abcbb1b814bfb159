package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/config"
	"github.com/mamadbah2/livestock/internal/service/reporting"
	"github.com/mamadbah2/livestock/pkg/clients/notify"
)

// Scheduler manages scheduled tasks. Its jobs only read herd state and
// publish summaries; they never mutate livestock records.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	notifier     notify.Client
	cfg          config.Config
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. The notifier may be nil
// when no webhook is configured.
func NewScheduler(cfg config.Config, reportingSvc *reporting.Service, notifier notify.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		logger.Warn("invalid timezone, falling back to local", zap.String("timezone", cfg.Reporting.Timezone), zap.Error(err))
		location = time.Local
	}

	c := cron.New(cron.WithLocation(location))

	return &Scheduler{
		cron:         c,
		reportingSvc: reportingSvc,
		notifier:     notifier,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers the daily summary job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.Reporting.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.publishDailySummary); err != nil {
		s.logger.Error("failed to schedule daily summary", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) publishDailySummary() {
	s.logger.Info("publishing daily summary")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	summary, err := s.reportingSvc.PublishDailySummary(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to publish daily summary", zap.Error(err))
		return
	}

	notify.Emit(ctx, s.notifier, s.logger, notify.Event{
		Kind:       notify.KindDailySummary,
		Message:    s.reportingSvc.FormatSummary(summary),
		OccurredAt: time.Now(),
	})
}
