// Package indexer mirrors ledger and booking activity into Elasticsearch.
package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/internal/metrics"
	"github.com/peerly/peerly/pkg/entities"
	"github.com/peerly/peerly/pkg/events"
	"github.com/peerly/peerly/pkg/storage"
)

const defaultIndexPrefix = "peerly"

// Config holds configuration options for the indexer
type Config struct {
	URL         string
	Username    string
	Password    string
	IndexPrefix string
}

// Index mappings
const (
	transactionMapping = `{
		"mappings": {
			"properties": {
				"id": { "type": "keyword" },
				"type": { "type": "keyword" },
				"amount": { "type": "long" },
				"signed_amount": { "type": "long" },
				"reason": { "type": "text" },
				"timestamp": { "type": "date" },
				"balance_after": { "type": "long" }
			}
		}
	}`

	bookingMapping = `{
		"mappings": {
			"properties": {
				"id": { "type": "keyword" },
				"topic_id": { "type": "long" },
				"topic_title": { "type": "text" },
				"tutor_name": { "type": "keyword" },
				"date": { "type": "date", "format": "yyyy-MM-dd" },
				"time": { "type": "keyword" },
				"supercoin_cost": { "type": "long" },
				"status": { "type": "keyword" },
				"created_at": { "type": "date" },
				"updated_at": { "type": "date" }
			}
		}
	}`
)

// Indexer writes transaction and booking documents to Elasticsearch. A
// document is only sent when it changed since it was last indexed.
type Indexer struct {
	client *elasticsearch.Client
	prefix string
	logger *logging.Logger

	mu      sync.Mutex
	indexed map[string]map[string]string // index -> document id -> last body
}

// New creates an indexer for the cluster at cfg.URL
func New(cfg Config, logger *logging.Logger) (*Indexer, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{cfg.URL},
	}

	// Add authentication if provided
	if cfg.Username != "" && cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	if cfg.IndexPrefix == "" {
		cfg.IndexPrefix = defaultIndexPrefix
	}
	if logger == nil {
		logger = logging.Default
	}

	return &Indexer{
		client:  client,
		prefix:  cfg.IndexPrefix,
		logger:  logger,
		indexed: make(map[string]map[string]string),
	}, nil
}

// TransactionsIndex returns the name of the transactions index
func (i *Indexer) TransactionsIndex() string {
	return i.prefix + "_transactions"
}

// BookingsIndex returns the name of the bookings index
func (i *Indexer) BookingsIndex() string {
	return i.prefix + "_bookings"
}

// EnsureIndices creates the indices that do not exist yet
func (i *Indexer) EnsureIndices(ctx context.Context) error {
	if err := i.ensureIndex(ctx, i.TransactionsIndex(), transactionMapping); err != nil {
		return err
	}
	return i.ensureIndex(ctx, i.BookingsIndex(), bookingMapping)
}

func (i *Indexer) ensureIndex(ctx context.Context, index, mapping string) error {
	res, err := i.client.Indices.Exists([]string{index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("error checking if index %s exists: %w", index, err)
	}
	res.Body.Close()

	if res.StatusCode != 404 {
		if res.IsError() {
			return fmt.Errorf("error checking if index %s exists: %s", index, res.String())
		}
		return nil
	}

	req := esapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader([]byte(mapping)),
	}

	res, err = req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("error creating index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index %s: %s", index, res.String())
	}

	i.logger.Info("Created Elasticsearch index %s", index)
	return nil
}

// Sync indexes the documents in value, the JSON stored under key. Keys
// other than transactions and bookings are ignored. It returns how many
// documents were sent.
func (i *Indexer) Sync(ctx context.Context, key string, value []byte) (int, error) {
	if len(value) == 0 {
		return 0, nil
	}

	switch key {
	case storage.KeyTransactions:
		var txs []entities.Transaction
		if err := json.Unmarshal(value, &txs); err != nil {
			return 0, fmt.Errorf("error decoding transactions: %w", err)
		}
		docs := make(map[string]any, len(txs))
		for _, tx := range txs {
			docs[tx.ID] = toESTransaction(tx)
		}
		return i.indexChanged(ctx, i.TransactionsIndex(), docs)

	case storage.KeyBookings:
		var bookings []entities.Booking
		if err := json.Unmarshal(value, &bookings); err != nil {
			return 0, fmt.Errorf("error decoding bookings: %w", err)
		}
		docs := make(map[string]any, len(bookings))
		for _, b := range bookings {
			docs[b.ID] = toESBooking(b)
		}
		return i.indexChanged(ctx, i.BookingsIndex(), docs)
	}

	return 0, nil
}

func (i *Indexer) indexChanged(ctx context.Context, index string, docs map[string]any) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	seen, ok := i.indexed[index]
	if !ok {
		seen = make(map[string]string)
		i.indexed[index] = seen
	}

	sent := 0
	var firstErr error
	for id, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			return sent, fmt.Errorf("error marshaling document %s: %w", id, err)
		}
		if seen[id] == string(body) {
			continue
		}

		err = i.indexDocument(ctx, index, id, body)
		metrics.IndexedDocuments.WithLabelValues(index, metrics.Outcome(err)).Inc()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		seen[id] = string(body)
		sent++
	}

	return sent, firstErr
}

func (i *Indexer) indexDocument(ctx context.Context, index, id string, body []byte) error {
	res, err := i.client.Index(
		index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("error indexing document %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document %s: %s", id, res.String())
	}
	return nil
}

// Run indexes every change announced on sub until ctx is done or sub is
// closed. Failures are logged and the loop continues.
func (i *Indexer) Run(ctx context.Context, sub *events.Subscription) {
	events.Listen(ctx, sub, func(ctx context.Context, ev events.Event) {
		sent, err := i.Sync(ctx, ev.Key, ev.Value)
		if err != nil {
			i.logger.Error("Error indexing %s: %v", ev.Key, err)
		}
		if sent > 0 {
			i.logger.Debug("Indexed %d %s documents", sent, ev.Key)
		}
	})
}
