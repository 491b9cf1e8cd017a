package notification

import (
	"context"
	"testing"
	"time"

	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/storage"
	"github.com/peerly/peerly/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := NewStorageRepository(store)
	items := []entities.Notification{{
		ID:        "N-1",
		Type:      entities.NotificationTypeReminder,
		Title:     "Session Reminder",
		Message:   "Starts soon",
		Timestamp: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		BookingID: "BK-1",
	}}

	require.NoError(t, repo.SaveNotifications(ctx, items))
	loaded, err := repo.LoadNotifications(ctx)

	require.NoError(t, err)
	assert.Equal(t, items, loaded)

	raw, err := store.Get(ctx, storage.KeyNotifications)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"isRead":false`)
	assert.Contains(t, string(raw), `"bookingId":"BK-1"`)
}
