// Package jobs holds the scheduled background work. Only one job exists
// today: the morning workload summary pushed to every active technician.
package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

type Scheduler struct {
	cron     *cron.Cron
	repos    *repository.Repositories
	notifier *service.NotificationService
	logger   *zap.Logger
}

func NewScheduler(repos *repository.Repositories, notifier *service.NotificationService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		repos:    repos,
		notifier: notifier,
		logger:   logger,
	}
}

// Start registers the 08:00 daily summary and runs the scheduler in its own
// goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 8 * * *", s.SendDailySummaries); err != nil {
		return fmt.Errorf("register daily summary: %w", err)
	}
	s.cron.Start()
	s.logger.Info("Job scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Job scheduler stopped")
}

// SendDailySummaries pushes each active technician a count of their open
// repairs and maintenance due through tomorrow. Technicians with nothing
// pending get no push.
func (s *Scheduler) SendDailySummaries() {
	technicians, err := s.repos.User.ListActiveByRole(entity.RoleTechnician)
	if err != nil {
		s.logger.Error("Failed to load technicians for daily summary", zap.Error(err))
		return
	}

	cutoff := time.Now().AddDate(0, 0, 1)
	for _, tech := range technicians {
		openRepairs, err := s.repos.Repair.CountOpenForUser(tech.ID)
		if err != nil {
			s.logger.Warn("Failed to count open repairs", zap.String("user_id", tech.ID), zap.Error(err))
			continue
		}
		duePM, err := s.repos.PMSchedule.CountDueForUser(tech.ID, cutoff)
		if err != nil {
			s.logger.Warn("Failed to count due maintenance", zap.String("user_id", tech.ID), zap.Error(err))
			continue
		}
		if openRepairs == 0 && duePM == 0 {
			continue
		}

		body := fmt.Sprintf("You have %d open repair(s) and %d maintenance task(s) due by tomorrow.", openRepairs, duePM)
		s.notifier.SendToUser(tech.ID, "Today's workload", body)
	}

	s.logger.Info("Daily summaries sent", zap.Int("technicians", len(technicians)))
}
