package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/peerly/peerly/internal/logging"
	"github.com/peerly/peerly/pkg/storage"
)

var errMalformed = errors.New("malformed state document")

// Storage implements file-based storage. Every key lives in one JSON
// document that is rewritten on each change. The document is reloaded
// whenever another writer replaced it.
type Storage struct {
	path    string
	mu      sync.Mutex
	values  map[string]string
	modTime time.Time
	size    int64
	closed  bool
}

// New creates a new file storage instance backed by path. A document that
// is not valid JSON is renamed to path.corrupt-<unix time> and the store
// starts empty.
func New(path string, logger *logging.Logger) (*Storage, error) {
	if path == "" {
		return nil, fmt.Errorf("file storage path is required")
	}
	if logger == nil {
		logger = logging.Default
	}

	s := &Storage{
		path:   path,
		values: make(map[string]string),
	}

	// Load existing state from file
	err := s.load()
	if errors.Is(err, errMalformed) {
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return nil, fmt.Errorf("failed to move aside %s: %w", path, errors.Join(err, renameErr))
		}
		logger.Warn("State file %s is malformed (%v), moved it to %s and starting empty", path, err, aside)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	return s, nil
}

// Path returns the backing file path
func (s *Storage) Path() string {
	return s.path
}

// Get implements storage.Storage
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrClosed
	}
	if err := s.refresh(); err != nil {
		return nil, err
	}

	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return []byte(value), nil
}

// Set implements storage.Storage
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	if err := s.refresh(); err != nil {
		return err
	}

	previous, existed := s.values[key]
	s.values[key] = string(value)

	if err := s.save(); err != nil {
		// Keep memory consistent with what is on disk
		if existed {
			s.values[key] = previous
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Delete implements storage.Storage
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	if err := s.refresh(); err != nil {
		return err
	}

	previous, existed := s.values[key]
	if !existed {
		return nil
	}

	delete(s.values, key)
	if err := s.save(); err != nil {
		s.values[key] = previous
		return err
	}
	return nil
}

// Close implements storage.Storage
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Helper functions

// refresh reloads the document when its size or modification time no
// longer match what this instance last read or wrote
func (s *Storage) refresh() error {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", s.path, err)
	}
	if info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return nil
	}
	if err := s.load(); err != nil {
		return fmt.Errorf("failed to reload %s: %w", s.path, err)
	}
	return nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	values := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
	}
	s.values = values
	s.remember()
	return nil
}

func (s *Storage) remember() {
	if info, err := os.Stat(s.path); err == nil {
		s.modTime = info.ModTime()
		s.size = info.Size()
	}
}

func (s *Storage) save() error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Write to a sibling file and rename so readers never see a partial document
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}

	s.remember()
	return nil
}
