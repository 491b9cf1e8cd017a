// Package app wires storage, services and background workers together.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/peerly/peerly/internal/config"
	"github.com/peerly/peerly/internal/logging"
	bookingRepo "github.com/peerly/peerly/pkg/repositories/booking"
	notificationRepo "github.com/peerly/peerly/pkg/repositories/notification"
	walletRepo "github.com/peerly/peerly/pkg/repositories/wallet"
	"github.com/peerly/peerly/pkg/events"
	"github.com/peerly/peerly/pkg/services/booking"
	"github.com/peerly/peerly/pkg/services/checkout"
	"github.com/peerly/peerly/pkg/services/ledger"
	"github.com/peerly/peerly/pkg/services/notification"
	"github.com/peerly/peerly/pkg/storage"
	"github.com/peerly/peerly/pkg/storage/file"
	"github.com/peerly/peerly/pkg/storage/memory"
	redisStorage "github.com/peerly/peerly/pkg/storage/redis"
	"github.com/peerly/peerly/pkg/storage/sqlite"
)

// App holds the services that share one store
type App struct {
	Config      *config.Config
	Logger      *logging.Logger
	Store       *storage.Observable
	Broadcaster *events.Broadcaster
	Ledger      *ledger.Ledger
	Bookings    *booking.Registry
	Feed        *notification.Feed
	Checkout    *checkout.Service
}

// Open builds the application for cfg
func Open(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default
	}

	base, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	a, err := build(ctx, cfg, base, logger)
	if err != nil {
		base.Close()
		return nil, err
	}
	return a, nil
}

// OpenStorage creates the backend selected by cfg.StorageDriver
func OpenStorage(ctx context.Context, cfg *config.Config, logger *logging.Logger) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverFile:
		return file.New(cfg.StoragePath, logger)
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.StoragePath, logger)
	case config.DriverRedis:
		return redisStorage.New(ctx, redisStorage.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func build(ctx context.Context, cfg *config.Config, base storage.Storage, logger *logging.Logger) (*App, error) {
	broadcaster := events.NewBroadcaster(events.DefaultBuffer)
	store := storage.NewObservable(base, broadcaster)

	l, err := ledger.New(ctx, walletRepo.NewStorageRepository(store), ledger.Options{
		InitialBalance: cfg.InitialBalance,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("error loading ledger: %w", err)
	}

	bookings, err := booking.New(ctx, bookingRepo.NewStorageRepository(store), booking.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("error loading bookings: %w", err)
	}

	feed, err := notification.New(ctx, notificationRepo.NewStorageRepository(store), notification.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("error loading notifications: %w", err)
	}

	return &App{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		Broadcaster: broadcaster,
		Ledger:      l,
		Bookings:    bookings,
		Feed:        feed,
		Checkout:    checkout.NewService(l, bookings, feed, checkout.Options{Logger: logger}),
	}, nil
}

// Refresh reloads every service from the store
func (a *App) Refresh(ctx context.Context) error {
	return errors.Join(
		a.Ledger.Refresh(ctx),
		a.Bookings.Refresh(ctx),
		a.Feed.Refresh(ctx),
	)
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}
