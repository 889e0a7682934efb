package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
)

// CredentialEntry stores one provider's API secret.
type CredentialEntry struct {
	Provider string `badgerhold:"key"`
	Secret   string
}

type credentialStorage struct {
	store  *Store
	logger *common.Logger
}

// NewCredentialStorage creates a new CredentialStore backed by
// BadgerHold. This is the only place provider secrets are persisted.
func NewCredentialStorage(store *Store, logger *common.Logger) interfaces.CredentialStore {
	return &credentialStorage{store: store, logger: logger}
}

func (s *credentialStorage) GetSecret(_ context.Context, id models.ProviderID) (string, error) {
	var entry CredentialEntry
	err := s.store.db.Get(string(id), &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to get credential for '%s': %w", id, err)
	}
	return entry.Secret, nil
}

func (s *credentialStorage) SetSecret(_ context.Context, id models.ProviderID, value string) error {
	entry := CredentialEntry{Provider: string(id), Secret: value}
	if err := s.store.db.Upsert(string(id), &entry); err != nil {
		return fmt.Errorf("failed to set credential for '%s': %w", id, err)
	}
	s.logger.Debug().Str("provider", string(id)).Msg("Credential stored")
	return nil
}

func (s *credentialStorage) DeleteSecret(_ context.Context, id models.ProviderID) error {
	err := s.store.db.Delete(string(id), CredentialEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete credential for '%s': %w", id, err)
	}
	s.logger.Debug().Str("provider", string(id)).Msg("Credential deleted")
	return nil
}
