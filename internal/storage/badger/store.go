// Package badger persists holdings, provider credentials, and system
// KV records through BadgerHold.
package badger

import (
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/mingmanhk/deepticker/internal/common"
)

// Store owns the single BadgerHold database shared by the holdings,
// credential, and KV stores.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore opens the BadgerHold database at path, creating the
// directory if needed.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // badger's own logger is noisy at startup

	// The database holds a handful of holdings, credentials, and KV
	// rows; badger's defaults are sized for far larger workloads.
	options.Options = options.Options.
		WithNumVersionsToKeep(1).
		WithCompactL0OnClose(true)

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database at %s: %w", path, err)
	}

	logger.Debug().Str("path", path).Msg("Storage database opened")

	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying badgerhold store to the typed stores in
// this package.
func (s *Store) DB() *badgerhold.Store {
	return s.db
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
