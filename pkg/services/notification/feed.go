// Package notification keeps the in-app notification feed.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/internal/metrics"
	"github.com/peerly/peerly/internal/types"
	"github.com/peerly/peerly/pkg/entities"
	notificationRepo "github.com/peerly/peerly/pkg/repositories/notification"
)

var ErrNotificationNotFound = types.NewError(types.ErrNotificationNotFound, "notification not found")

// Options configures a Feed
type Options struct {
	Logger *logging.Logger
	Now    func() time.Time
}

// Feed holds notifications, newest first
type Feed struct {
	mu            sync.RWMutex
	repo          notificationRepo.Repository
	logger        *logging.Logger
	now           func() time.Time
	notifications []entities.Notification
}

// New loads the feed from repo
func New(ctx context.Context, repo notificationRepo.Repository, opts Options) (*Feed, error) {
	f := &Feed{
		repo:   repo,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if f.logger == nil {
		f.logger = logging.Default
	}
	if f.now == nil {
		f.now = time.Now
	}

	items, err := repo.LoadNotifications(ctx)
	if err != nil {
		if !types.IsError(err, types.ErrCorruptData) {
			return nil, err
		}
		f.logger.Warn("Persisted notifications are corrupt, starting with an empty feed: %v", err)
		items = []entities.Notification{}
	}
	f.notifications = items

	return f, nil
}

// Push prepends n to the feed. The id and timestamp are assigned here
// and the notification starts unread.
func (f *Feed) Push(ctx context.Context, n entities.Notification) (*entities.Notification, error) {
	if n.Title == "" {
		return nil, types.NewError(types.ErrInvalidArgument, "notification title is required")
	}
	if n.Type == "" {
		n.Type = entities.NotificationTypeMessage
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n.ID = entities.NewID(entities.NotificationIDPrefix)
	n.Timestamp = f.now().UTC()
	n.IsRead = false

	items := make([]entities.Notification, 0, len(f.notifications)+1)
	items = append(items, n)
	items = append(items, f.notifications...)

	if err := f.repo.SaveNotifications(ctx, items); err != nil {
		return nil, err
	}
	f.notifications = items

	metrics.NotificationsPushed.WithLabelValues(string(n.Type)).Inc()
	return &n, nil
}

// MarkRead marks one notification as read
func (f *Feed) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i, n := range f.notifications {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return types.Errorf(types.ErrNotificationNotFound, "notification %s not found", id)
	}
	if f.notifications[idx].IsRead {
		return nil
	}

	items := f.clone()
	items[idx].IsRead = true
	return f.save(ctx, items)
}

// MarkAllRead marks every notification as read
func (f *Feed) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.clone()
	changed := false
	for i := range items {
		if !items[i].IsRead {
			items[i].IsRead = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.save(ctx, items)
}

// List returns the feed, newest first
func (f *Feed) List() []entities.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.clone()
}

// Unread returns the unread notifications, newest first
func (f *Feed) Unread() []entities.Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := []entities.Notification{}
	for _, n := range f.notifications {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount returns how many notifications are unread
func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	count := 0
	for _, n := range f.notifications {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// HasForBooking reports whether a notification of type t already refers
// to bookingID
func (f *Feed) HasForBooking(t entities.NotificationType, bookingID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, n := range f.notifications {
		if n.Type == t && n.BookingID == bookingID {
			return true
		}
	}
	return false
}

// Refresh reloads the feed from storage, keeping the current state on
// failure
func (f *Feed) Refresh(ctx context.Context) error {
	items, err := f.repo.LoadNotifications(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.notifications = items
	f.mu.Unlock()
	return nil
}

// clone must be called with f.mu held
func (f *Feed) clone() []entities.Notification {
	out := make([]entities.Notification, len(f.notifications))
	copy(out, f.notifications)
	return out
}

// save must be called with f.mu held
func (f *Feed) save(ctx context.Context, items []entities.Notification) error {
	if err := f.repo.SaveNotifications(ctx, items); err != nil {
		return err
	}
	f.notifications = items
	return nil
}
