// Package checkout pays for, cancels and reminds about bookings, keeping
// the ledger, the registry and the notification feed in step.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/internal/types"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/services/booking"
	"github.com/peerly/peerly/pkg/services/ledger"
	"github.com/peerly/peerly/pkg/services/notification"
)

// Options configures a Service
type Options struct {
	Logger *logging.Logger

	// Location interprets booking dates and times. Defaults to time.Local.
	Location *time.Location
}

// Service coordinates booking payments. Book, Complete, Cancel and
// SendReminders are serialized.
type Service struct {
	mu       sync.Mutex
	ledger   *ledger.Ledger
	bookings *booking.Registry
	feed     *notification.Feed
	logger   *logging.Logger
	loc      *time.Location
}

// NewService creates a new checkout service
func NewService(l *ledger.Ledger, bookings *booking.Registry, feed *notification.Feed, opts Options) *Service {
	s := &Service{
		ledger:   l,
		bookings: bookings,
		feed:     feed,
		logger:   opts.Logger,
		loc:      opts.Location,
	}
	if s.logger == nil {
		s.logger = logging.Default
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// Book pays for and records a booking. Free sessions skip the debit. If
// the booking cannot be recorded after paying, the cost is refunded.
func (s *Service) Book(ctx context.Context, req booking.Request) (*entities.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Cost > 0 {
		if _, err := s.ledger.Debit(ctx, req.Cost, fmt.Sprintf("Booking: %s with %s", req.TopicTitle, req.TutorName)); err != nil {
			return nil, err
		}
	}

	b, err := s.bookings.Create(ctx, req)
	if err != nil {
		if req.Cost > 0 {
			if _, refundErr := s.ledger.Credit(ctx, req.Cost, fmt.Sprintf("Refund: %s with %s", req.TopicTitle, req.TutorName)); refundErr != nil {
				err = errors.Join(err, refundErr)
				s.logger.Error("Failed to refund %d SuperCoins after booking %q failed: %v", req.Cost, req.TopicTitle, err)
			}
		}
		return nil, err
	}

	payment := "Free session!"
	if b.Cost > 0 {
		payment = fmt.Sprintf("%d SuperCoins deducted.", b.Cost)
	}
	s.notify(ctx, entities.Notification{
		Type:      entities.NotificationTypeBooking,
		Title:     "Booking Confirmed",
		Message:   fmt.Sprintf("Your session %q with %s has been confirmed for %s at %s. %s", b.TopicTitle, b.TutorName, b.Date, b.Time, payment),
		BookingID: b.ID,
	})

	return b, nil
}

// Complete marks a booking completed
func (s *Service) Complete(ctx context.Context, id string) (*entities.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.bookings.Get(id)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.SetStatus(ctx, id, entities.BookingStatusCompleted)
	if err != nil {
		return nil, err
	}
	if current.Status == b.Status {
		return b, nil
	}

	s.notify(ctx, entities.Notification{
		Type:      entities.NotificationTypeBooking,
		Title:     "Session Completed",
		Message:   fmt.Sprintf("Your session %q with %s is complete.", b.TopicTitle, b.TutorName),
		BookingID: b.ID,
	})
	return b, nil
}

// Cancel cancels an upcoming booking and refunds what was paid for it.
// Cancelling an already cancelled booking changes nothing.
func (s *Service) Cancel(ctx context.Context, id string) (*entities.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.bookings.Get(id)
	if err != nil {
		return nil, err
	}
	if current.Status == entities.BookingStatusCancelled {
		return current, nil
	}
	if !current.Status.CanTransitionTo(entities.BookingStatusCancelled) {
		return nil, types.Errorf(types.ErrInvalidTransition, "booking %s cannot move from %s to %s", id, current.Status, entities.BookingStatusCancelled)
	}

	// Refund first; the booking only leaves upcoming once the coins are back
	refund := "No SuperCoins were charged."
	if current.Cost > 0 {
		if _, err := s.ledger.Credit(ctx, current.Cost, fmt.Sprintf("Refund: %s with %s", current.TopicTitle, current.TutorName)); err != nil {
			return nil, err
		}
		refund = fmt.Sprintf("%d SuperCoins refunded.", current.Cost)
	}

	b, err := s.bookings.SetStatus(ctx, id, entities.BookingStatusCancelled)
	if err != nil {
		if current.Cost > 0 {
			if _, chargeErr := s.ledger.Debit(ctx, current.Cost, fmt.Sprintf("Booking: %s with %s", current.TopicTitle, current.TutorName)); chargeErr != nil {
				err = errors.Join(err, chargeErr)
				s.logger.Error("Failed to take back refund of %d SuperCoins after cancelling booking %s failed: %v", current.Cost, id, err)
			}
		}
		return nil, err
	}

	s.notify(ctx, entities.Notification{
		Type:      entities.NotificationTypeCancellation,
		Title:     "Booking Cancelled",
		Message:   fmt.Sprintf("Your session %q with %s on %s at %s was cancelled. %s", b.TopicTitle, b.TutorName, b.Date, b.Time, refund),
		BookingID: b.ID,
	})
	return b, nil
}

// SendReminders pushes a reminder for each upcoming booking starting in
// (now, now+window] that has not been reminded about yet. It returns the
// number of reminders pushed.
func (s *Service) SendReminders(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := now.Add(window)
	sent := 0
	var errs []error

	for _, b := range s.bookings.ListByStatus(entities.BookingStatusUpcoming) {
		start, err := b.ScheduledAt(s.loc)
		if err != nil {
			s.logger.Warn("Skipping reminder for booking %s with unreadable schedule %s %s", b.ID, b.Date, b.Time)
			continue
		}
		if !start.After(now) || start.After(deadline) {
			continue
		}
		if s.feed.HasForBooking(entities.NotificationTypeReminder, b.ID) {
			continue
		}

		_, err = s.feed.Push(ctx, entities.Notification{
			Type:      entities.NotificationTypeReminder,
			Title:     "Session Reminder",
			Message:   fmt.Sprintf("You have a %s session with %s in %s", b.TopicTitle, b.TutorName, humanize(start.Sub(now))),
			BookingID: b.ID,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("reminder for booking %s: %w", b.ID, err))
			continue
		}
		sent++
	}

	return sent, errors.Join(errs...)
}

// notify pushes n to the feed. A failure is logged and otherwise ignored.
func (s *Service) notify(ctx context.Context, n entities.Notification) {
	if _, err := s.feed.Push(ctx, n); err != nil {
		s.logger.Warn("Failed to push %q notification for booking %s: %v", n.Title, n.BookingID, err)
	}
}

func humanize(d time.Duration) string {
	d = d.Round(time.Minute)
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d <= time.Minute:
		return "1 minute"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return fmt.Sprintf("%dh%02dm", int(d/time.Hour), int(d%time.Hour/time.Minute))
	}
}
