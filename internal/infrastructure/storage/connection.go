package storage

import (
	"fmt"
	"log/slog"
	"os"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

// Store wraps the embedded Badger database behind the repository ports.
type Store struct {
	db     *badgerhold.Store
	logger *slog.Logger
}

// Open creates or opens the key-value store at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	opts := badgerhold.DefaultOptions
	opts.Options = badger.DefaultOptions(path).WithLogger(nil)

	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store at %s: %w", path, err)
	}

	if logger != nil {
		logger.Debug("storage opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
