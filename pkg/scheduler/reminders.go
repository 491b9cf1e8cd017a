package scheduler

import (
	"context"
	"time"

	"github.com/peerly/peerly/internal/logging"
)

// Reminder sends reminders for bookings starting within window of now
type Reminder interface {
	SendReminders(ctx context.Context, now time.Time, window time.Duration) (int, error)
}

// ReminderScheduler periodically pushes session reminders
type ReminderScheduler struct {
	scheduler *Scheduler
	reminder  Reminder
	window    time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *logging.Logger
}

// NewReminderScheduler creates a scheduler that checks for sessions
// starting within window every interval
func NewReminderScheduler(reminder Reminder, window, interval time.Duration, logger *logging.Logger) *ReminderScheduler {
	if logger == nil {
		logger = logging.Default
	}
	return &ReminderScheduler{
		scheduler: NewScheduler(logger),
		reminder:  reminder,
		window:    window,
		interval:  interval,
		now:       time.Now,
		logger:    logger,
	}
}

// Start registers the reminder task and starts the scheduler
func (s *ReminderScheduler) Start(ctx context.Context) {
	s.scheduler.AddTask("booking_reminders", s.interval, s.sendReminders)
	s.scheduler.Start(ctx)
	s.logger.Info("Reminder scheduler started: window=%s interval=%s", s.window, s.interval)
}

// Stop stops the reminder scheduler
func (s *ReminderScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *ReminderScheduler) sendReminders(ctx context.Context) error {
	sent, err := s.reminder.SendReminders(ctx, s.now(), s.window)
	if sent > 0 {
		s.logger.Info("Sent %d session reminders", sent)
	}
	return err
}
