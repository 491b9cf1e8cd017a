package booking

import (
	"context"

	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/repositories"
	"github.com/peerly/peerly/pkg/storage"
)

// StorageRepository implements Repository over a key/value storage
type StorageRepository struct {
	store storage.Storage
}

// NewStorageRepository creates a new booking repository
func NewStorageRepository(store storage.Storage) *StorageRepository {
	return &StorageRepository{store: store}
}

// LoadBookings retrieves every booking
func (r *StorageRepository) LoadBookings(ctx context.Context) ([]entities.Booking, error) {
	bookings, _, err := repositories.LoadList[entities.Booking](ctx, r.store, storage.KeyBookings)
	return bookings, err
}

// SaveBookings persists the booking list
func (r *StorageRepository) SaveBookings(ctx context.Context, bookings []entities.Booking) error {
	return repositories.SaveList(ctx, r.store, storage.KeyBookings, bookings)
}
