package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
)

type holdingsStorage struct {
	store  *Store
	logger *common.Logger
}

// NewHoldingsStorage creates a new HoldingsStore backed by BadgerHold.
func NewHoldingsStorage(store *Store, logger *common.Logger) interfaces.HoldingsStore {
	return &holdingsStorage{store: store, logger: logger}
}

func (s *holdingsStorage) Get(_ context.Context, symbol string) (*models.Holding, error) {
	var holding models.Holding
	err := s.store.db.Get(symbol, &holding)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get holding '%s': %w", symbol, err)
	}
	return &holding, nil
}

func (s *holdingsStorage) Put(_ context.Context, holding *models.Holding) error {
	if err := s.store.db.Upsert(holding.Symbol, holding); err != nil {
		return fmt.Errorf("failed to save holding '%s': %w", holding.Symbol, err)
	}
	s.logger.Debug().Str("symbol", holding.Symbol).Msg("Holding saved")
	return nil
}

func (s *holdingsStorage) Delete(_ context.Context, symbol string) error {
	err := s.store.db.Delete(symbol, models.Holding{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete holding '%s': %w", symbol, err)
	}
	s.logger.Debug().Str("symbol", symbol).Msg("Holding deleted")
	return nil
}

func (s *holdingsStorage) List(_ context.Context) ([]models.Holding, error) {
	var holdings []models.Holding
	if err := s.store.db.Find(&holdings, nil); err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	return holdings, nil
}
