package storage

import (
	"context"

	"github.com/peerly/peerly/internal/metrics"
	"github.com/peerly/peerly/pkg/events"
)

// Observable decorates a Storage and publishes an event after every
// successful write
type Observable struct {
	base        Storage
	broadcaster *events.Broadcaster
}

// NewObservable wraps base so that writes are announced on broadcaster
func NewObservable(base Storage, broadcaster *events.Broadcaster) *Observable {
	return &Observable{
		base:        base,
		broadcaster: broadcaster,
	}
}

// Get implements Storage
func (o *Observable) Get(ctx context.Context, key string) ([]byte, error) {
	return o.base.Get(ctx, key)
}

// Set implements Storage
func (o *Observable) Set(ctx context.Context, key string, value []byte) error {
	err := o.base.Set(ctx, key, value)
	metrics.StorageWrites.WithLabelValues(key, metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	published := make([]byte, len(value))
	copy(published, value)
	o.broadcaster.Publish(events.Event{Key: key, Value: published})
	return nil
}

// Delete implements Storage
func (o *Observable) Delete(ctx context.Context, key string) error {
	err := o.base.Delete(ctx, key)
	metrics.StorageWrites.WithLabelValues(key, metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	o.broadcaster.Publish(events.Event{Key: key})
	return nil
}

// Close implements Storage
func (o *Observable) Close() error {
	return o.base.Close()
}

// Broadcaster returns the broadcaster writes are published on
func (o *Observable) Broadcaster() *events.Broadcaster {
	return o.broadcaster
}
