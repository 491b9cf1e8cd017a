package discord

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/peerly/peerly/internal/discord/mock"
	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/events"
	"github.com/peerly/peerly/pkg/storage"
	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func feedJSON(t *testing.T, items ...entities.Notification) []byte {
	t.Helper()
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	return raw
}

func TestFormatNotification(t *testing.T) {
	n := entities.Notification{
		Type:    entities.NotificationTypeReminder,
		Title:   "Session Reminder",
		Message: "You have a Calculus session with Sarah Chen in 1 hour",
	}

	assert.Equal(t, "⏰ **Session Reminder**\nYou have a Calculus session with Sarah Chen in 1 hour", FormatNotification(n))
	assert.Equal(t, "🔔 **Hi**", FormatNotification(entities.Notification{Type: "other", Title: "Hi"}))
}

func TestHandlePostsUnseenOldestFirst(t *testing.T) {
	// Setup
	session := new(mock.SessionHandler)
	relay := NewRelay(session, "chan-1", logging.Discard)
	old := entities.Notification{ID: "NT-1", Type: entities.NotificationTypeMessage, Title: "Old"}
	first := entities.Notification{ID: "NT-2", Type: entities.NotificationTypeBooking, Title: "First"}
	second := entities.Notification{ID: "NT-3", Type: entities.NotificationTypeBooking, Title: "Second"}
	relay.MarkSeen([]entities.Notification{old})

	var posted []string
	session.On("ChannelMessageSend", "chan-1", testifymock.Anything).
		Run(func(args testifymock.Arguments) { posted = append(posted, args.String(1)) }).
		Return(&discordgo.Message{}, nil)

	// Execute
	sent, err := relay.Handle(feedJSON(t, second, first, old))
	require.NoError(t, err)
	again, err := relay.Handle(feedJSON(t, second, first, old))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 2, sent)
	assert.Zero(t, again)
	assert.Equal(t, []string{"📅 **First**", "📅 **Second**"}, posted)
	session.AssertNumberOfCalls(t, "ChannelMessageSend", 2)
}

func TestHandleRetriesAfterSendFailure(t *testing.T) {
	session := new(mock.SessionHandler)
	relay := NewRelay(session, "chan-1", logging.Discard)
	n := entities.Notification{ID: "NT-1", Type: entities.NotificationTypeBooking, Title: "Booking Confirmed"}

	session.On("ChannelMessageSend", "chan-1", testifymock.Anything).Return(nil, errors.New("rate limited")).Once()
	_, err := relay.Handle(feedJSON(t, n))
	assert.Error(t, err)

	session.On("ChannelMessageSend", "chan-1", testifymock.Anything).Return(&discordgo.Message{}, nil).Once()
	sent, err := relay.Handle(feedJSON(t, n))
	assert.NoError(t, err)
	assert.Equal(t, 1, sent)
	session.AssertExpectations(t)
}

func TestHandleRejectsMalformedFeed(t *testing.T) {
	relay := NewRelay(new(mock.SessionHandler), "chan-1", logging.Discard)

	_, err := relay.Handle([]byte("nope"))

	assert.Error(t, err)
}

func TestRunRelaysNotificationEvents(t *testing.T) {
	// Setup
	session := new(mock.SessionHandler)
	relay := NewRelay(session, "chan-1", logging.Discard)
	delivered := make(chan string, 1)
	session.On("ChannelMessageSend", "chan-1", testifymock.Anything).
		Run(func(args testifymock.Arguments) { delivered <- args.String(1) }).
		Return(&discordgo.Message{}, nil)

	broadcaster := events.NewBroadcaster(0)
	sub := broadcaster.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.Run(ctx, sub)

	// Execute
	broadcaster.Publish(events.Event{Key: storage.KeyBalance, Value: []byte("250")})
	broadcaster.Publish(events.Event{
		Key:   storage.KeyNotifications,
		Value: feedJSON(t, entities.Notification{ID: "NT-7", Type: entities.NotificationTypeEarning, Title: "SuperCoins Earned"}),
	})

	// Assert
	select {
	case msg := <-delivered:
		assert.Equal(t, "🪙 **SuperCoins Earned**", msg)
	case <-time.After(time.Second):
		t.Fatal("notification was not relayed")
	}
}
