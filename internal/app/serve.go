package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peerly/peerly/internal/discord"
	"github.com/peerly/peerly/internal/server"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/indexer"
	"github.com/peerly/peerly/pkg/scheduler"
	"github.com/peerly/peerly/pkg/storage"
)

// newSession is replaced in tests
var newSession = func(token string) (discord.SessionHandler, error) {
	return discord.NewSession(token)
}

// Serve runs the background workers enabled by the configuration until
// ctx is done
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var stops []func()
	defer func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}()

	if a.Config.RelayEnabled() {
		stop, err := a.startRelay(ctx)
		if err != nil {
			return err
		}
		stops = append(stops, stop)
	}

	if a.Config.IndexerEnabled() {
		stop, err := a.startIndexer(ctx)
		if err != nil {
			return err
		}
		stops = append(stops, stop)
	}

	reminders := scheduler.NewReminderScheduler(&refreshingReminder{app: a}, a.Config.ReminderWindow, a.Config.ReminderInterval, a.Logger)
	reminders.Start(ctx)
	stops = append(stops, reminders.Stop)

	if a.Config.MetricsAddr != "" {
		srv := server.New(a.Config.MetricsAddr, a.status, a.Logger)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("error starting ops server: %w", err)
		}
		stops = append(stops, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.Logger.Warn("Error shutting down ops server: %v", err)
			}
		})
	}

	a.Logger.Info("Serving with %s storage", a.Config.StorageDriver)
	<-ctx.Done()
	a.Logger.Info("Shutting down")
	return nil
}

func (a *App) startRelay(ctx context.Context) (func(), error) {
	session, err := newSession(a.Config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("error opening Discord session: %w", err)
	}

	relay := discord.NewRelay(session, a.Config.DiscordChannelID, a.Logger)
	sub := a.Broadcaster.Subscribe(storage.KeyNotifications)
	relay.MarkSeen(a.Feed.List())

	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(ctx, sub)
	}()

	a.Logger.Info("Relaying notifications to Discord channel %s", a.Config.DiscordChannelID)
	return func() {
		sub.Close()
		<-done
		if err := session.Close(); err != nil {
			a.Logger.Warn("Error closing Discord session: %v", err)
		}
	}, nil
}

func (a *App) startIndexer(ctx context.Context) (func(), error) {
	idx, err := indexer.New(indexer.Config{
		URL:         a.Config.ElasticsearchURL,
		Username:    a.Config.ElasticsearchUsername,
		Password:    a.Config.ElasticsearchPassword,
		IndexPrefix: a.Config.ElasticsearchIndexPrefix,
	}, a.Logger)
	if err != nil {
		return nil, err
	}
	if err := idx.EnsureIndices(ctx); err != nil {
		return nil, err
	}

	sub := a.Broadcaster.Subscribe(storage.KeyTransactions, storage.KeyBookings)

	// Mirror what is already stored before following changes
	for _, key := range []string{storage.KeyTransactions, storage.KeyBookings} {
		value, err := a.Store.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			sub.Close()
			return nil, fmt.Errorf("error reading %s: %w", key, err)
		}
		if _, err := idx.Sync(ctx, key, value); err != nil {
			a.Logger.Warn("Initial indexing of %s failed: %v", key, err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		idx.Run(ctx, sub)
	}()

	a.Logger.Info("Indexing activity into Elasticsearch at %s", a.Config.ElasticsearchURL)
	return func() {
		sub.Close()
		<-done
	}, nil
}

func (a *App) status() map[string]any {
	return map[string]any{
		"balance":             a.Ledger.Balance(),
		"upcomingBookings":    len(a.Bookings.ListByStatus(entities.BookingStatusUpcoming)),
		"unreadNotifications": a.Feed.UnreadCount(),
		"storage":             a.Config.StorageDriver,
	}
}

// refreshingReminder reloads state written by other processes before
// sending reminders
type refreshingReminder struct {
	app *App
}

func (r *refreshingReminder) SendReminders(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	if err := r.app.Refresh(ctx); err != nil {
		r.app.Logger.Warn("Refresh before reminders failed, using cached state: %v", err)
	}
	return r.app.Checkout.SendReminders(ctx, now, window)
}
