package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/discordgo"
	"github.com/peerly/peerly/internal/config"
	"github.com/peerly/peerly/internal/discord"
	"github.com/peerly/peerly/internal/discord/mock"
	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/services/booking"
	"github.com/peerly/peerly/pkg/storage"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AppTestSuite struct {
	suite.Suite
	ctx context.Context
	dir string
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}

func (s *AppTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()
}

func (s *AppTestSuite) config(driver string) *config.Config {
	cfg := &config.Config{
		DataDir:          s.dir,
		StorageDriver:    driver,
		InitialBalance:   250,
		RedisPrefix:      "peerly:",
		ReminderWindow:   time.Hour,
		ReminderInterval: time.Hour,
		Environment:      "development",
	}
	switch driver {
	case config.DriverFile:
		cfg.StoragePath = filepath.Join(s.dir, "peerly.json")
	case config.DriverSQLite:
		cfg.StoragePath = filepath.Join(s.dir, "peerly.db")
	}
	return cfg
}

func (s *AppTestSuite) open(cfg *config.Config) *App {
	a, err := Open(s.ctx, cfg, logging.Discard)
	s.Require().NoError(err)
	return a
}

func request() booking.Request {
	return booking.Request{
		TopicID:    1,
		TopicTitle: "Advanced React Hooks",
		TutorName:  "Michael Rodriguez",
		Date:       "2030-01-01",
		Time:       "10:00",
		Cost:       15,
	}
}

func (s *AppTestSuite) TestStateSharedAcrossOpensForPersistentDrivers() {
	mr := miniredis.RunT(s.T())

	for _, driver := range []string{config.DriverFile, config.DriverSQLite, config.DriverRedis} {
		s.Run(driver, func() {
			cfg := s.config(driver)
			cfg.RedisAddr = mr.Addr()
			cfg.RedisPrefix = "test-" + driver + ":"

			// Setup
			first := s.open(cfg)
			b, err := first.Checkout.Book(s.ctx, request())
			s.Require().NoError(err)
			s.Require().NoError(first.Close())

			// Execute
			second := s.open(cfg)
			defer second.Close()

			// Assert
			s.Equal(int64(235), second.Ledger.Balance())
			got, err := second.Bookings.Get(b.ID)
			s.Require().NoError(err)
			s.Equal(entities.BookingStatusUpcoming, got.Status)
			s.Equal(1, second.Feed.UnreadCount())
		})
	}
}

func (s *AppTestSuite) TestWritesAreBroadcast() {
	a := s.open(s.config(config.DriverMemory))
	defer a.Close()
	sub := a.Broadcaster.Subscribe(storage.KeyBalance)
	defer sub.Close()

	_, err := a.Ledger.Credit(s.ctx, 5, "Tutoring")
	s.Require().NoError(err)

	select {
	case ev := <-sub.C:
		s.Equal("255", string(ev.Value))
	case <-time.After(time.Second):
		s.Fail("no balance event")
	}
}

func (s *AppTestSuite) TestRefreshPicksUpOtherWriters() {
	cfg := s.config(config.DriverFile)
	reader := s.open(cfg)
	defer reader.Close()
	writer := s.open(cfg)
	defer writer.Close()

	_, err := writer.Ledger.Debit(s.ctx, 50, "Elsewhere")
	s.Require().NoError(err)
	s.Require().NoError(reader.Refresh(s.ctx))

	s.Equal(int64(200), reader.Ledger.Balance())
}

func (s *AppTestSuite) TestOpenFailsForUnreachableRedis() {
	mr := miniredis.RunT(s.T())
	addr := mr.Addr()
	mr.Close()
	cfg := s.config(config.DriverRedis)
	cfg.RedisAddr = addr

	_, err := Open(s.ctx, cfg, logging.Discard)

	s.Error(err)
}

func (s *AppTestSuite) TestServeRunsWorkers() {
	// Setup: Discord
	session := new(mock.SessionHandler)
	var mu sync.Mutex
	var posted []string
	session.On("Open").Return(nil)
	session.On("Close").Return(nil)
	session.On("ChannelMessageSend", "chan-1", testifymock.Anything).
		Run(func(args testifymock.Arguments) {
			mu.Lock()
			posted = append(posted, args.String(1))
			mu.Unlock()
		}).
		Return(&discordgo.Message{}, nil)
	original := newSession
	newSession = func(string) (discord.SessionHandler, error) { return session, nil }
	defer func() { newSession = original }()

	// Setup: Elasticsearch
	var docs sync.Map
	es := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "/_doc/") {
			docs.Store(r.URL.Path, true)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"result":"created"}`))
			return
		}
		w.Write([]byte(`{"acknowledged":true}`))
	}))
	defer es.Close()

	cfg := s.config(config.DriverMemory)
	cfg.DiscordToken = "token"
	cfg.DiscordChannelID = "chan-1"
	cfg.ElasticsearchURL = es.URL
	cfg.ElasticsearchIndexPrefix = "test"
	cfg.MetricsAddr = "127.0.0.1:0"
	a := s.open(cfg)
	defer a.Close()

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	// Execute
	s.Eventually(func() bool { return a.Broadcaster.Len() >= 2 }, time.Second, 5*time.Millisecond)
	b, err := a.Checkout.Book(s.ctx, request())
	s.Require().NoError(err)

	// Assert
	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(posted) == 1 && strings.Contains(posted[0], "Booking Confirmed")
	}, time.Second, 5*time.Millisecond)
	s.Eventually(func() bool {
		_, ok := docs.Load("/test_bookings/_doc/" + b.ID)
		return ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	s.NoError(<-done)
	session.AssertCalled(s.T(), "Close")
}
