// Package scheduler runs the recurring jobs: feeding reminder sweeps and
// retention cleanup.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/DavidMiserak/poopyfeed-be-sub000/internal/notifications"
)

type Service struct {
	Notifications *notifications.Service
}

func (s *Service) Start() *cron.Cron {
	c := cron.New()
	// Reminder sweep every 30 minutes; the reminder log keeps re-runs idempotent.
	_, _ = c.AddFunc("*/30 * * * *", func() {
		s.Notifications.CheckFeedingReminders(context.Background())
	})
	// Retention cleanup nightly at 03:15 UTC, off the busy hours.
	_, _ = c.AddFunc("15 3 * * *", func() {
		s.Notifications.Cleanup(context.Background())
	})
	c.Start()
	return c
}
