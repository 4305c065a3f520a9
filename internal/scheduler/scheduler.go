package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/config"
)

// Digester renders the daily sales digest.
type Digester interface {
	DailyDigest(ctx context.Context, day time.Time) (string, error)
}

// Expirer lapses stale prebookings.
type Expirer interface {
	ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Messenger delivers text to a phone number.
type Messenger interface {
	Text(ctx context.Context, to, body string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	digester  Digester
	expirer   Expirer
	messenger Messenger
	cfg       config.Config
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance. Cron expressions are
// evaluated in the reporting timezone.
func NewScheduler(cfg config.Config, digester Digester, expirer Expirer, messenger Messenger, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		logger.Warn("unknown reporting timezone, using UTC", zap.String("timezone", cfg.Reporting.Timezone), zap.Error(err))
		loc = time.UTC
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		digester:  digester,
		expirer:   expirer,
		messenger: messenger,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if s.cfg.WhatsApp.AdminNumber == "" {
		s.logger.Info("no admin number configured, daily digest disabled")
	} else if _, err := s.cron.AddFunc(s.cfg.Reporting.CronSchedule, s.sendDailyDigest); err != nil {
		return fmt.Errorf("schedule daily digest %q: %w", s.cfg.Reporting.CronSchedule, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.Prebooking.ExpiryCron, s.expirePreBookings); err != nil {
		return fmt.Errorf("schedule prebooking expiry %q: %w", s.cfg.Prebooking.ExpiryCron, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyDigest() {
	s.logger.Info("generating daily digest")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.digester.DailyDigest(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to generate daily digest", zap.Error(err))
		return
	}

	if err := s.messenger.Text(ctx, s.cfg.WhatsApp.AdminNumber, report); err != nil {
		s.logger.Error("failed to send daily digest", zap.Error(err))
	} else {
		s.logger.Info("daily digest sent successfully")
	}
}

func (s *Scheduler) expirePreBookings() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	maxAge := time.Duration(s.cfg.Prebooking.ExpiryDays) * 24 * time.Hour
	if _, err := s.expirer.ExpireStale(ctx, maxAge); err != nil {
		s.logger.Error("failed to expire prebookings", zap.Error(err))
	}
}
