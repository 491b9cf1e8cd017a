package storage

import (
	"context"
	"errors"
)

// Common storage errors
var (
	ErrNotFound = errors.New("key not found")
	ErrClosed   = errors.New("storage closed")
)

// Keys of the persisted application state
const (
	KeyBalance       = "balance"
	KeyTransactions  = "transactions"
	KeyBookings      = "bookings"
	KeyNotifications = "notifications"
)

// Keys lists every key the application persists
var Keys = []string{KeyBalance, KeyTransactions, KeyBookings, KeyNotifications}

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_storage

// Storage defines the interface for key/value state persistence
type Storage interface {
	// Get returns the value stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set creates or replaces the value stored under key
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the storage
	Close() error
}
