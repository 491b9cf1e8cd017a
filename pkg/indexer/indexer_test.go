package indexer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/events"
	"github.com/peerly/peerly/pkg/storage"
	"github.com/stretchr/testify/suite"
)

type request struct {
	Method string
	Path   string
	Body   string
}

// fakeCluster is a minimal Elasticsearch HTTP endpoint
type fakeCluster struct {
	mu       sync.Mutex
	requests []request
	indices  map[string]bool
	failDocs bool
}

func (c *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, request{Method: r.Method, Path: r.URL.Path, Body: string(body)})

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && len(parts) == 1:
		if c.indices[parts[0]] {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && len(parts) == 1:
		c.indices[parts[0]] = true
		w.Write([]byte(`{"acknowledged":true}`))
	case len(parts) == 3 && parts[1] == "_doc":
		if c.failDocs {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"boom"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (c *fakeCluster) docRequests() []request {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []request
	for _, r := range c.requests {
		if strings.Contains(r.Path, "/_doc/") {
			out = append(out, r)
		}
	}
	return out
}

func (c *fakeCluster) count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, r := range c.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

type IndexerTestSuite struct {
	suite.Suite
	cluster *fakeCluster
	server  *httptest.Server
	indexer *Indexer
	ctx     context.Context
}

func TestIndexerSuite(t *testing.T) {
	suite.Run(t, new(IndexerTestSuite))
}

func (s *IndexerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.cluster = &fakeCluster{indices: make(map[string]bool)}
	s.server = httptest.NewServer(s.cluster)

	idx, err := New(Config{URL: s.server.URL, IndexPrefix: "test"}, logging.Discard)
	s.Require().NoError(err)
	s.indexer = idx
}

func (s *IndexerTestSuite) TearDownTest() {
	s.server.Close()
}

func marshal(s *IndexerTestSuite, v any) []byte {
	raw, err := json.Marshal(v)
	s.Require().NoError(err)
	return raw
}

func (s *IndexerTestSuite) TestEnsureIndicesCreatesMissingOnly() {
	s.cluster.indices["test_transactions"] = true

	s.Require().NoError(s.indexer.EnsureIndices(s.ctx))

	s.True(s.cluster.indices["test_bookings"])
	s.Equal(1, s.cluster.count(http.MethodPut))
}

func (s *IndexerTestSuite) TestSyncIndexesOnlyChangedDocuments() {
	// Setup
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []entities.Transaction{
		{ID: "TX-1", Type: entities.TransactionTypeSpent, Amount: 15, Reason: "Booking", Timestamp: ts, BalanceAfter: 235},
	}

	// Execute
	sent, err := s.indexer.Sync(s.ctx, storage.KeyTransactions, marshal(s, txs))
	s.Require().NoError(err)

	// Assert
	s.Equal(1, sent)
	docs := s.cluster.docRequests()
	s.Require().Len(docs, 1)
	s.Equal("/test_transactions/_doc/TX-1", docs[0].Path)
	s.Contains(docs[0].Body, `"signed_amount":-15`)

	// Execute: prepend a new transaction
	txs = append([]entities.Transaction{
		{ID: "TX-2", Type: entities.TransactionTypeEarned, Amount: 15, Reason: "Refund", Timestamp: ts, BalanceAfter: 250},
	}, txs...)
	sent, err = s.indexer.Sync(s.ctx, storage.KeyTransactions, marshal(s, txs))
	s.Require().NoError(err)

	// Assert
	s.Equal(1, sent)
	s.Len(s.cluster.docRequests(), 2)
}

func (s *IndexerTestSuite) TestSyncReindexesUpdatedBooking() {
	b := entities.Booking{ID: "BK-1", TopicTitle: "Calculus", TutorName: "Sarah", Date: "2025-06-10", Time: "14:00", Status: entities.BookingStatusUpcoming}
	_, err := s.indexer.Sync(s.ctx, storage.KeyBookings, marshal(s, []entities.Booking{b}))
	s.Require().NoError(err)

	b.Status = entities.BookingStatusCompleted
	sent, err := s.indexer.Sync(s.ctx, storage.KeyBookings, marshal(s, []entities.Booking{b}))

	s.Require().NoError(err)
	s.Equal(1, sent)
	docs := s.cluster.docRequests()
	s.Require().Len(docs, 2)
	s.Equal("/test_bookings/_doc/BK-1", docs[1].Path)
	s.Contains(docs[1].Body, `"status":"completed"`)
}

func (s *IndexerTestSuite) TestSyncIgnoresOtherKeys() {
	sent, err := s.indexer.Sync(s.ctx, storage.KeyBalance, []byte("250"))

	s.NoError(err)
	s.Zero(sent)
	s.Empty(s.cluster.docRequests())
}

func (s *IndexerTestSuite) TestSyncRejectsMalformedValue() {
	_, err := s.indexer.Sync(s.ctx, storage.KeyBookings, []byte("{"))

	s.Error(err)
}

func (s *IndexerTestSuite) TestFailedDocumentIsRetriedNextTime() {
	b := []entities.Booking{{ID: "BK-1", TopicTitle: "Calculus", Status: entities.BookingStatusUpcoming}}
	s.cluster.failDocs = true

	_, err := s.indexer.Sync(s.ctx, storage.KeyBookings, marshal(s, b))
	s.Error(err)

	s.cluster.mu.Lock()
	s.cluster.failDocs = false
	s.cluster.mu.Unlock()

	sent, err := s.indexer.Sync(s.ctx, storage.KeyBookings, marshal(s, b))
	s.NoError(err)
	s.Equal(1, sent)
}

func (s *IndexerTestSuite) TestRunConsumesEvents() {
	// Setup
	broadcaster := events.NewBroadcaster(0)
	sub := broadcaster.Subscribe(storage.KeyBookings)
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		s.indexer.Run(ctx, sub)
		close(done)
	}()

	// Execute
	broadcaster.Publish(events.Event{
		Key:   storage.KeyBookings,
		Value: marshal(s, []entities.Booking{{ID: "BK-9", TopicTitle: "Spanish", Status: entities.BookingStatusUpcoming}}),
	})

	// Assert
	s.Eventually(func() bool { return len(s.cluster.docRequests()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
