// Package storage provides the top-level StorageManager coordinating
// the BadgerHold-backed stores.
package storage

import (
	"fmt"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/storage/badger"
)

// Manager implements interfaces.StorageManager over one BadgerHold
// database shared by the credential, holdings, and KV stores.
type Manager struct {
	store       *badger.Store
	credentials interfaces.CredentialStore
	holdings    interfaces.HoldingsStore
	kv          interfaces.SystemKV
	logger      *common.Logger
}

// NewManager opens the database at the configured data path and wires
// the typed stores.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	logger.Info().
		Str("path", config.Storage.Path).
		Msg("Storage manager initialized")

	return &Manager{
		store:       store,
		credentials: badger.NewCredentialStorage(store, logger),
		holdings:    badger.NewHoldingsStorage(store, logger),
		kv:          badger.NewKVStorage(store, logger),
		logger:      logger,
	}, nil
}

func (m *Manager) Credentials() interfaces.CredentialStore {
	return m.credentials
}

func (m *Manager) Holdings() interfaces.HoldingsStore {
	return m.holdings
}

func (m *Manager) KV() interfaces.SystemKV {
	return m.kv
}

func (m *Manager) Close() error {
	return m.store.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
