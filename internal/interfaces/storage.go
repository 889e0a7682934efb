// Package interfaces defines service contracts for DeepTicker
package interfaces

import (
	"context"

	"github.com/mingmanhk/deepticker/internal/models"
)

// CredentialStore is the single authoritative store for provider
// secrets. There is exactly one write path; nothing else persists
// credentials.
type CredentialStore interface {
	// GetSecret returns the secret for id, or "" with no error when
	// none is stored.
	GetSecret(ctx context.Context, id models.ProviderID) (string, error)

	// SetSecret stores or replaces the secret for id.
	SetSecret(ctx context.Context, id models.ProviderID, value string) error

	// DeleteSecret removes the secret for id. Deleting a missing
	// secret is not an error.
	DeleteSecret(ctx context.Context, id models.ProviderID) error
}

// HoldingsStore persists the portfolio holdings keyed by symbol.
type HoldingsStore interface {
	// Get returns the holding for symbol, or nil with no error when
	// none exists.
	Get(ctx context.Context, symbol string) (*models.Holding, error)
	Put(ctx context.Context, holding *models.Holding) error
	Delete(ctx context.Context, symbol string) error
	List(ctx context.Context) ([]models.Holding, error)
}

// SystemKV holds small app-level state: selected provider, custom
// prompt template, last successful refresh timestamp.
type SystemKV interface {
	// Get returns the value for key, or "" with no error when the key
	// is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// StorageManager coordinates the storage backends.
type StorageManager interface {
	Credentials() CredentialStore
	Holdings() HoldingsStore
	KV() SystemKV
	Close() error
}

// Well-known SystemKV keys.
const (
	KVSelectedProvider = "selected_provider"
	KVCustomPrompt     = "custom_prompt"
	KVLastRefresh      = "last_refresh"
)
