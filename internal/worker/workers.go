// Package worker runs the bot's background jobs.
package worker

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/service"
)

// StatusSetter publishes the bot's custom status.
type StatusSetter interface {
	SetStatus(text string) error
}

// Scheduler owns the cron scheduler of the background jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler builds an idle scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{cron: cron.New(), logger: logger}
}

// SchedulePresence refreshes the custom status on schedule (standard cron
// spec or "@every <duration>").
func (s *Scheduler) SchedulePresence(schedule, text string, setter StatusSetter) error {
	if text == "" || setter == nil {
		return nil
	}
	job := func() {
		if err := setter.SetStatus(text); err != nil {
			s.logger.Warn("presence update failed", zap.Error(err))
		}
	}
	if _, err := s.cron.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("presence schedule %q: %w", schedule, err)
	}
	return nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("background jobs started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
