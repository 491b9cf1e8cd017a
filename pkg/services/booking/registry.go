// Package booking manages the lifecycle of tutoring session bookings.
package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/internal/metrics"
	"github.com/peerly/peerly/internal/types"
	"github.com/peerly/peerly/pkg/entities"
	bookingRepo "github.com/peerly/peerly/pkg/repositories/booking"
)

var (
	ErrBookingNotFound   = types.NewError(types.ErrBookingNotFound, "booking not found")
	ErrInvalidTransition = types.NewError(types.ErrInvalidTransition, "invalid status transition")
)

// Request describes a booking to create
type Request struct {
	TopicID    int64
	TopicTitle string
	TutorName  string
	Date       string // YYYY-MM-DD
	Time       string // HH:MM
	Cost       int64
}

// Validate checks the request fields
func (r Request) Validate() error {
	if strings.TrimSpace(r.TopicTitle) == "" {
		return types.NewError(types.ErrInvalidArgument, "topic title is required")
	}
	if strings.TrimSpace(r.TutorName) == "" {
		return types.NewError(types.ErrInvalidArgument, "tutor name is required")
	}
	if r.Cost < 0 {
		return types.Errorf(types.ErrInvalidArgument, "cost cannot be negative, got %d", r.Cost)
	}
	if _, err := time.Parse(entities.BookingDateLayout, r.Date); err != nil {
		return types.WrapError(types.ErrInvalidArgument, "date must be YYYY-MM-DD", err)
	}
	if _, err := time.Parse(entities.BookingTimeLayout, r.Time); err != nil {
		return types.WrapError(types.ErrInvalidArgument, "time must be HH:MM", err)
	}
	return nil
}

// Options configures a Registry
type Options struct {
	Logger *logging.Logger
	Now    func() time.Time
}

// Registry holds bookings keyed by id, newest first. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	repo     bookingRepo.Repository
	logger   *logging.Logger
	now      func() time.Time
	bookings []entities.Booking
}

// New loads the registry from repo. Corrupt persisted data is logged and
// replaced by an empty list.
func New(ctx context.Context, repo bookingRepo.Repository, opts Options) (*Registry, error) {
	r := &Registry{
		repo:   repo,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if r.logger == nil {
		r.logger = logging.Default
	}
	if r.now == nil {
		r.now = time.Now
	}

	bookings, err := repo.LoadBookings(ctx)
	if err != nil {
		if !types.IsError(err, types.ErrCorruptData) {
			return nil, err
		}
		r.logger.Warn("Persisted bookings are corrupt, starting with none: %v", err)
		bookings = []entities.Booking{}
	}
	r.bookings = bookings

	return r, nil
}

// Create records a new upcoming booking. It performs no funds check.
func (r *Registry) Create(ctx context.Context, req Request) (*entities.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	booking := entities.Booking{
		ID:         entities.NewID(entities.BookingIDPrefix),
		TopicID:    req.TopicID,
		TopicTitle: req.TopicTitle,
		TutorName:  req.TutorName,
		Date:       req.Date,
		Time:       req.Time,
		Cost:       req.Cost,
		Status:     entities.BookingStatusUpcoming,
		CreatedAt:  r.now().UTC(),
	}

	bookings := make([]entities.Booking, 0, len(r.bookings)+1)
	bookings = append(bookings, booking)
	bookings = append(bookings, r.bookings...)

	if err := r.repo.SaveBookings(ctx, bookings); err != nil {
		return nil, err
	}
	r.bookings = bookings

	r.logger.Info("Created booking %s for topic %d with %s on %s %s", booking.ID, booking.TopicID, booking.TutorName, booking.Date, booking.Time)
	return &booking, nil
}

// SetStatus moves a booking to status. Setting the current status again
// is a no-op; any transition the lifecycle does not allow is rejected.
func (r *Registry) SetStatus(ctx context.Context, id string, status entities.BookingStatus) (*entities.Booking, error) {
	if !status.Valid() {
		return nil, types.Errorf(types.ErrInvalidArgument, "unknown booking status %q", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, types.Errorf(types.ErrBookingNotFound, "booking %s not found", id)
	}

	current := r.bookings[idx]
	if current.Status == status {
		return &current, nil
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, types.Errorf(types.ErrInvalidTransition, "booking %s cannot move from %s to %s", id, current.Status, status)
	}

	updated := current
	updated.Status = status
	now := r.now().UTC()
	updated.UpdatedAt = &now

	bookings := make([]entities.Booking, len(r.bookings))
	copy(bookings, r.bookings)
	bookings[idx] = updated

	if err := r.repo.SaveBookings(ctx, bookings); err != nil {
		return nil, err
	}
	r.bookings = bookings

	metrics.BookingTransitions.WithLabelValues(string(current.Status), string(status)).Inc()
	r.logger.Info("Booking %s moved from %s to %s", id, current.Status, status)
	return &updated, nil
}

// Get returns the booking with id
func (r *Registry) Get(id string) (*entities.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, types.Errorf(types.ErrBookingNotFound, "booking %s not found", id)
	}
	booking := r.bookings[idx]
	return &booking, nil
}

// List returns every booking, newest first
func (r *Registry) List() []entities.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Booking, len(r.bookings))
	copy(out, r.bookings)
	return out
}

// IsTopicBooked reports whether any upcoming or completed booking exists
// for topicID
func (r *Registry) IsTopicBooked(topicID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bookings {
		if b.TopicID == topicID && b.Status != entities.BookingStatusCancelled {
			return true
		}
	}
	return false
}

// ListByStatus returns the bookings in status, most recently created first
func (r *Registry) ListByStatus(status entities.BookingStatus) []entities.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []entities.Booking{}
	for _, b := range r.bookings {
		if b.Status == status {
			out = append(out, b)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Refresh reloads bookings from storage. On failure the in-memory state
// is kept.
func (r *Registry) Refresh(ctx context.Context) error {
	bookings, err := r.repo.LoadBookings(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.bookings = bookings
	r.mu.Unlock()
	return nil
}

func (r *Registry) indexOf(id string) int {
	for i, b := range r.bookings {
		if b.ID == id {
			return i
		}
	}
	return -1
}
