package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/C4T-BuT-S4D/ledgerbot/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("not found")

// MutateFunc changes acc in place and describes the change with a journal
// entry. Returning a nil entry leaves the stored record untouched.
type MutateFunc func(acc *models.Account) (*models.LedgerEntry, error)

type Storage struct {
	db    *gorm.DB
	locks *keyLock
}

func New(db *gorm.DB) *Storage {
	return &Storage{
		db:    db,
		locks: newKeyLock(),
	}
}

func (s *Storage) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(
		&models.Account{},
		&models.LedgerEntry{},
		&models.GlobalState{},
	); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	var acc models.Account
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&acc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return &acc, nil
}

// UpdateAccount runs a read-modify-write cycle for one user. Mutations of the
// same user are serialized in-process by a key lock and across processes by
// a row lock; the account and its journal entry are committed together.
func (s *Storage) UpdateAccount(ctx context.Context, userID string, fn MutateFunc) (*models.Account, error) {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("locking account: %w", err)
	}
	defer unlock()

	var result models.Account
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acc := models.Account{UserID: userID}
		exists := true

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&acc).
			Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			exists = false
		case err != nil:
			return fmt.Errorf("getting account: %w", err)
		}

		entry, err := fn(&acc)
		if err != nil {
			return err
		}
		result = acc
		if entry == nil {
			return nil
		}

		if exists {
			if err := tx.
				Model(&models.Account{}).
				Where("user_id = ?", userID).
				Updates(map[string]any{
					"points":       acc.Points,
					"last_checkin": acc.LastCheckin,
				}).
				Error; err != nil {
				return fmt.Errorf("updating account: %w", err)
			}
		} else {
			if err := tx.Create(&acc).Error; err != nil {
				return fmt.Errorf("creating account: %w", err)
			}
		}

		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}
		entry.UserID = userID
		entry.BalanceAfter = acc.Points
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("creating ledger entry: %w", err)
		}

		result = acc
		return nil
	}); err != nil {
		return nil, fmt.Errorf("in tx: %w", err)
	}

	return &result, nil
}

func (s *Storage) ListEntries(ctx context.Context, userID string, limit int) ([]*models.LedgerEntry, error) {
	var result []*models.LedgerEntry
	if err := s.db.
		WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&result).
		Error; err != nil {
		return nil, fmt.Errorf("getting ledger entries: %w", err)
	}
	return result, nil
}

func (s *Storage) GetOrCreateGlobalState(ctx context.Context) (*models.GlobalState, error) {
	var state models.GlobalState
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.GlobalState{ID: models.GlobalStateID}).
			Error; err != nil {
			return fmt.Errorf("creating global state: %w", err)
		}

		if err := tx.Where("id = ?", models.GlobalStateID).First(&state).Error; err != nil {
			return fmt.Errorf("getting global state: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("in tx: %w", err)
	}

	return &state, nil
}

// UpdateLastUpdate only moves the stored update id forward.
func (s *Storage) UpdateLastUpdate(ctx context.Context, updateID int) error {
	if err := s.db.
		WithContext(ctx).
		Model(&models.GlobalState{}).
		Where("id = ? AND last_update_id < ?", models.GlobalStateID, updateID).
		Update("last_update_id", updateID).
		Error; err != nil {
		return fmt.Errorf("updating global state: %w", err)
	}
	return nil
}
