package booking

import (
	"context"

	"github.com/peerly/peerly/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_booking

// Repository defines the interface for booking data operations
type Repository interface {
	// LoadBookings returns every booking, newest first
	LoadBookings(ctx context.Context) ([]entities.Booking, error)

	// SaveBookings replaces the persisted booking list
	SaveBookings(ctx context.Context, bookings []entities.Booking) error
}
