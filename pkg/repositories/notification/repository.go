package notification

import (
	"context"

	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/repositories"
	"github.com/peerly/peerly/pkg/storage"
)

// Repository defines the interface for notification feed persistence
type Repository interface {
	LoadNotifications(ctx context.Context) ([]entities.Notification, error)
	SaveNotifications(ctx context.Context, notifications []entities.Notification) error
}

// StorageRepository implements Repository over a key/value storage
type StorageRepository struct {
	store storage.Storage
}

// NewStorageRepository creates a new notification repository
func NewStorageRepository(store storage.Storage) *StorageRepository {
	return &StorageRepository{store: store}
}

// LoadNotifications retrieves the feed, newest first
func (r *StorageRepository) LoadNotifications(ctx context.Context) ([]entities.Notification, error) {
	items, _, err := repositories.LoadList[entities.Notification](ctx, r.store, storage.KeyNotifications)
	return items, err
}

// SaveNotifications persists the feed
func (r *StorageRepository) SaveNotifications(ctx context.Context, notifications []entities.Notification) error {
	return repositories.SaveList(ctx, r.store, storage.KeyNotifications, notifications)
}
