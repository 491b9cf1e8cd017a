package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/internal/metrics"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/events"
	"github.com/peerly/peerly/pkg/storage"
)

// Relay posts new notifications to a Discord channel
type Relay struct {
	session   SessionHandler
	channelID string
	logger    *logging.Logger

	mu   sync.Mutex
	seen map[string]bool
}

// NewRelay creates a relay posting to channelID
func NewRelay(session SessionHandler, channelID string, logger *logging.Logger) *Relay {
	if logger == nil {
		logger = logging.Default
	}
	return &Relay{
		session:   session,
		channelID: channelID,
		logger:    logger,
		seen:      make(map[string]bool),
	}
}

// MarkSeen records notifications that must not be posted, typically the
// feed as it was when the relay started
func (r *Relay) MarkSeen(notifications []entities.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range notifications {
		r.seen[n.ID] = true
	}
}

// Handle posts every notification in value, the JSON feed, that has not
// been posted yet. Older notifications are posted first. It returns the
// number of messages sent.
func (r *Relay) Handle(value []byte) (int, error) {
	if len(value) == 0 {
		return 0, nil
	}

	var feed []entities.Notification
	if err := json.Unmarshal(value, &feed); err != nil {
		return 0, fmt.Errorf("error decoding notifications: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sent := 0
	for i := len(feed) - 1; i >= 0; i-- {
		n := feed[i]
		if r.seen[n.ID] {
			continue
		}

		_, err := r.session.ChannelMessageSend(r.channelID, FormatNotification(n))
		metrics.RelayedMessages.WithLabelValues(metrics.Outcome(err)).Inc()
		if err != nil {
			return sent, fmt.Errorf("error sending notification %s: %w", n.ID, err)
		}
		r.seen[n.ID] = true
		sent++
	}

	return sent, nil
}

// Run relays notification changes announced on sub until ctx is done or
// sub is closed
func (r *Relay) Run(ctx context.Context, sub *events.Subscription) {
	events.Listen(ctx, sub, func(_ context.Context, ev events.Event) {
		if ev.Key != storage.KeyNotifications {
			return
		}
		if _, err := r.Handle(ev.Value); err != nil {
			r.logger.Error("Error relaying notifications: %v", err)
		}
	})
}
